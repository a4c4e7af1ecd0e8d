package ledger

import "github.com/huddleup/huddle/internal/models"

// Balances folds the unvoided entries of a group into a net balance per
// member: everything the member paid on behalf of others minus every share
// the member owes. Because each entry's shares sum to exactly its amount,
// the balances of a group always sum to zero.
//
// Members that appear in no entry are reported with a zero balance when
// listed in members; passing nil restricts the result to members touched by
// at least one entry.
func Balances(entries []*models.ExpenseEntry, members []models.Member) map[string]int64 {
	balances := make(map[string]int64, len(members))
	for _, m := range members {
		balances[m.ID] = 0
	}

	for _, e := range entries {
		if e.Void {
			continue
		}
		balances[e.PayerID] += e.Amount
		for i, participant := range e.Participants {
			balances[participant] -= e.Shares[i]
		}
	}
	return balances
}
