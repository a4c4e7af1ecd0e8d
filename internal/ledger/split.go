// Package ledger implements the pure arithmetic behind the group ledger:
// expense splitting, balance folding, and settlement suggestion. Everything
// here works on int64 minor currency units and is exact; callers that need
// display values convert to major units at the edge.
package ledger

// EvenSplit divides amount across k participants so the shares sum to the
// amount exactly. Each share is amount/k, and the first amount%k positions
// receive one extra minor unit. The caller's participant order therefore
// decides who absorbs the remainder, which keeps repeated computations
// deterministic.
func EvenSplit(amount int64, k int) []int64 {
	if k <= 0 {
		return nil
	}
	base := amount / int64(k)
	remainder := amount % int64(k)

	shares := make([]int64, k)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares
}

// SumShares returns the exact sum of the given shares.
func SumShares(shares []int64) int64 {
	var total int64
	for _, s := range shares {
		total += s
	}
	return total
}
