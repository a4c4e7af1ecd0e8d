package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/huddleup/huddle/internal/models"
)

type createPollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`

	// Deadline is RFC 3339; omitted means no deadline.
	Deadline string `json:"deadline,omitempty"`
}

type pollOptionResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type pollResponse struct {
	ID        string               `json:"id"`
	GroupID   string               `json:"groupId"`
	Question  string               `json:"question"`
	Options   []pollOptionResponse `json:"options"`
	Deadline  int64                `json:"deadline,omitempty"`
	Status    string               `json:"status"`
	CreatedAt int64                `json:"createdAt"`
}

func toPollResponse(p *models.Poll) pollResponse {
	resp := pollResponse{
		ID:        p.ID,
		GroupID:   p.GroupID,
		Question:  p.Question,
		Deadline:  p.Deadline,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
	for _, opt := range p.Options {
		resp.Options = append(resp.Options, pollOptionResponse{ID: opt.ID, Text: opt.Text})
	}
	return resp
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var deadline int64
	if req.Deadline != "" {
		t, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "deadline must be RFC 3339"})
			return
		}
		deadline = t.Unix()
	}

	poll, err := s.engine.CreatePoll(r.Context(), mux.Vars(r)["id"], req.Question, req.Options, deadline)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPollResponse(poll))
}

type optionCountResponse struct {
	OptionID string  `json:"optionId"`
	Text     string  `json:"text"`
	Votes    int     `json:"votes"`
	Percent  float64 `json:"percent"`
}

type resultResponse struct {
	PollID     string                `json:"pollId"`
	Status     string                `json:"status"`
	TotalVotes int                   `json:"totalVotes"`
	Counts     []optionCountResponse `json:"counts"`
	Leaders    []string              `json:"leaders,omitempty"`
}

func toResultResponse(r *models.PollResult) resultResponse {
	resp := resultResponse{
		PollID:     r.PollID,
		Status:     string(r.Status),
		TotalVotes: r.TotalVotes,
		Leaders:    r.Leaders,
	}
	for _, c := range r.Counts {
		resp.Counts = append(resp.Counts, optionCountResponse{
			OptionID: c.OptionID,
			Text:     c.Text,
			Votes:    c.Votes,
			Percent:  c.Percent,
		})
	}
	return resp
}

type pollListItem struct {
	pollResponse
	Results resultResponse `json:"results"`
}

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	polls, results, err := s.engine.ListPolls(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]pollListItem, 0, len(polls))
	for i, p := range polls {
		resp = append(resp, pollListItem{pollResponse: toPollResponse(p), Results: toResultResponse(results[i])})
	}
	writeJSON(w, http.StatusOK, resp)
}

type castVoteRequest struct {
	MemberID string `json:"memberId"`
	OptionID string `json:"optionId"`
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req castVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.engine.CastVote(r.Context(), mux.Vars(r)["id"], req.MemberID, req.OptionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (s *Server) handleClosePoll(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClosePoll(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Results(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(result))
}
