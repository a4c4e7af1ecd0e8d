// Package models defines the core domain records for Huddle.
//
// # Records
//
//   - User: registered account; owns groups
//   - Group: a set of members sharing a ledger and polls
//   - Member: a participant identity scoped to one group
//   - ExpenseEntry: an immutable ledger entry with per-participant shares
//   - SettlementTransfer: a suggested payment that would reduce balances
//   - Poll, PollOption, Vote, PollResult: group decision making
//
// # Design principles
//
//  1. Records reference each other by ID strings, never by pointer, to avoid
//     circular references.
//  2. Monetary amounts are int64 minor units (cents). Splitting and balance
//     arithmetic must be exact; float64 never appears in a money field.
//  3. Ledger entries are append-only. Corrections are made by voiding an
//     entry, never by editing or deleting it.
package models
