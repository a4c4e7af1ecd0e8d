package ledger

import "testing"

func TestEvenSplit(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		k      int
		want   []int64
	}{
		{
			name:   "divides evenly",
			amount: 300,
			k:      3,
			want:   []int64{100, 100, 100},
		},
		{
			name:   "remainder goes to first participants",
			amount: 100,
			k:      3,
			want:   []int64{34, 33, 33},
		},
		{
			name:   "single participant",
			amount: 999,
			k:      1,
			want:   []int64{999},
		},
		{
			name:   "amount smaller than participant count",
			amount: 2,
			k:      5,
			want:   []int64{1, 1, 0, 0, 0},
		},
		{
			name:   "zero amount",
			amount: 0,
			k:      4,
			want:   []int64{0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvenSplit(tt.amount, tt.k)
			if len(got) != len(tt.want) {
				t.Fatalf("EvenSplit(%d, %d) returned %d shares, want %d", tt.amount, tt.k, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("share[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEvenSplit_Exactness(t *testing.T) {
	// The shares must reconstruct the amount exactly for every amount and
	// participant count, with no lost or invented minor units.
	for amount := int64(0); amount <= 500; amount++ {
		for k := 1; k <= 9; k++ {
			shares := EvenSplit(amount, k)
			if got := SumShares(shares); got != amount {
				t.Fatalf("EvenSplit(%d, %d): shares sum to %d", amount, k, got)
			}
			for i := 1; i < len(shares); i++ {
				if shares[i] > shares[i-1] {
					t.Fatalf("EvenSplit(%d, %d): shares not front-loaded: %v", amount, k, shares)
				}
			}
		}
	}
}

func TestEvenSplit_InvalidCount(t *testing.T) {
	if got := EvenSplit(100, 0); got != nil {
		t.Errorf("EvenSplit(100, 0) = %v, want nil", got)
	}
	if got := EvenSplit(100, -1); got != nil {
		t.Errorf("EvenSplit(100, -1) = %v, want nil", got)
	}
}
