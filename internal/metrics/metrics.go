// Package metrics exposes Prometheus collectors for engine operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ExpensesRecorded counts successfully recorded expense entries.
	ExpensesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_expenses_recorded_total",
		Help: "Number of expense entries recorded.",
	})

	// ExpensesVoided counts soft-cancelled entries.
	ExpensesVoided = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_expenses_voided_total",
		Help: "Number of expense entries voided.",
	})

	// VotesCast counts accepted votes, re-votes included.
	VotesCast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_votes_cast_total",
		Help: "Number of votes accepted.",
	})

	// PollsClosed counts poll closures by reason (quorum, deadline, manual).
	PollsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_polls_closed_total",
		Help: "Number of polls closed, by reason.",
	}, []string{"reason"})

	// SettlementSuggestions counts settlement computations.
	SettlementSuggestions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_settlement_suggestions_total",
		Help: "Number of settlement suggestion computations.",
	})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
