// Package poll implements the pure tally computation for group polls.
package poll

import "github.com/huddleup/huddle/internal/models"

// Tally computes the per-option counts, percentages, and tied leaders for a
// poll from its current vote set. It is a pure function of the inputs and is
// valid in any poll state, including Open (live tally).
func Tally(p *models.Poll, votes []models.Vote) *models.PollResult {
	byOption := make(map[string]int, len(p.Options))
	for _, v := range votes {
		byOption[v.OptionID]++
	}

	result := &models.PollResult{
		PollID:     p.ID,
		Status:     p.Status,
		TotalVotes: len(votes),
		Counts:     make([]models.OptionCount, len(p.Options)),
	}

	max := 0
	for i, opt := range p.Options {
		n := byOption[opt.ID]
		count := models.OptionCount{
			OptionID: opt.ID,
			Text:     opt.Text,
			Votes:    n,
		}
		if len(votes) > 0 {
			count.Percent = 100 * float64(n) / float64(len(votes))
		}
		result.Counts[i] = count
		if n > max {
			max = n
		}
	}

	if max > 0 {
		for _, c := range result.Counts {
			if c.Votes == max {
				result.Leaders = append(result.Leaders, c.OptionID)
			}
		}
	}
	return result
}
