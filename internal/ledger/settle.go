package ledger

import "github.com/huddleup/huddle/internal/models"

// Suggest computes transfers that would drive every balance to exactly zero.
//
// Greedy matching: repeatedly pair the debtor with the largest outstanding
// debt against the creditor with the largest outstanding credit and transfer
// min(debt, credit). Every round fully clears at least one side, so the
// result has at most members-1 transfers. The heuristic does not promise the
// theoretical minimum number of transfers, only full settlement.
//
// Ties in magnitude are broken by member ID so the output is deterministic
// for a given balance set. Suggest never mutates its input.
func Suggest(balances map[string]int64) []models.SettlementTransfer {
	type stake struct {
		id     string
		amount int64 // always positive
	}

	var debtors, creditors []stake
	for id, b := range balances {
		switch {
		case b < 0:
			debtors = append(debtors, stake{id: id, amount: -b})
		case b > 0:
			creditors = append(creditors, stake{id: id, amount: b})
		}
	}

	// Largest amount wins; equal amounts fall back to the smaller member ID.
	largest := func(stakes []stake) int {
		best := 0
		for i := 1; i < len(stakes); i++ {
			if stakes[i].amount > stakes[best].amount ||
				(stakes[i].amount == stakes[best].amount && stakes[i].id < stakes[best].id) {
				best = i
			}
		}
		return best
	}

	drop := func(stakes []stake, i int) []stake {
		return append(stakes[:i], stakes[i+1:]...)
	}

	var transfers []models.SettlementTransfer
	for len(debtors) > 0 && len(creditors) > 0 {
		di := largest(debtors)
		ci := largest(creditors)

		amount := debtors[di].amount
		if creditors[ci].amount < amount {
			amount = creditors[ci].amount
		}

		transfers = append(transfers, models.SettlementTransfer{
			From:   debtors[di].id,
			To:     creditors[ci].id,
			Amount: amount,
		})

		debtors[di].amount -= amount
		creditors[ci].amount -= amount
		if debtors[di].amount == 0 {
			debtors = drop(debtors, di)
		}
		if creditors[ci].amount == 0 {
			creditors = drop(creditors, ci)
		}
	}
	return transfers
}
