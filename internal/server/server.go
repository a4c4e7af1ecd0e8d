// Package server wraps the engine in a thin JSON/HTTP boundary. Handlers
// decode requests, call one engine operation, and encode the result; no
// business rules live here.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/huddleup/huddle/internal/auth"
	"github.com/huddleup/huddle/internal/engine"
	"github.com/huddleup/huddle/internal/metrics"
	"github.com/huddleup/huddle/internal/middleware"
)

// Server holds the handler dependencies.
type Server struct {
	engine *engine.Engine
	authn  auth.Authenticator
	jwt    *auth.JWTManager
}

// New creates a Server.
func New(eng *engine.Engine, authn auth.Authenticator, jwt *auth.JWTManager) *Server {
	return &Server{engine: eng, authn: authn, jwt: jwt}
}

// Router builds the route table. Everything under /api requires a valid
// session token.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Protected routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequireAuth(s.jwt))

	api.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups", s.handleListGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}", s.handleGetGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}", s.handleDeleteGroup).Methods(http.MethodDelete)
	api.HandleFunc("/groups/{id}/members", s.handleAddMember).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/members/{memberId}", s.handleRemoveMember).Methods(http.MethodDelete)

	api.HandleFunc("/groups/{id}/expenses", s.handleRecordExpense).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/expenses/{entryId}/void", s.handleVoidExpense).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/expenses/{entryId}/settled", s.handleMarkSettled).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/balances", s.handleBalances).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/settlements/suggest", s.handleSuggestSettlements).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/settlements", s.handleApplySettlement).Methods(http.MethodPost)

	api.HandleFunc("/groups/{id}/polls", s.handleCreatePoll).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/polls", s.handleListPolls).Methods(http.MethodGet)
	api.HandleFunc("/polls/{id}/votes", s.handleCastVote).Methods(http.MethodPost)
	api.HandleFunc("/polls/{id}/close", s.handleClosePoll).Methods(http.MethodPost)
	api.HandleFunc("/polls/{id}/results", s.handleGetResults).Methods(http.MethodGet)

	return middleware.Logging(middleware.CORS(r))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
