package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/huddleup/huddle/internal/middleware"
	"github.com/huddleup/huddle/internal/models"
)

type memberPayload struct {
	ID     string `json:"id,omitempty"`
	Handle string `json:"handle"`
}

type createGroupRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Members     []memberPayload `json:"members"`
	Quorum      float64         `json:"quorum,omitempty"`
}

type groupResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quorum      float64         `json:"quorum"`
	CreatedAt   int64           `json:"createdAt"`
	Members     []memberPayload `json:"members,omitempty"`
}

func toGroupResponse(group *models.Group, members []models.Member) groupResponse {
	resp := groupResponse{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		Quorum:      group.Quorum,
		CreatedAt:   group.CreatedAt,
	}
	for _, m := range members {
		resp.Members = append(resp.Members, memberPayload{ID: m.ID, Handle: m.Handle})
	}
	return resp
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	members := make([]models.Member, len(req.Members))
	for i, m := range req.Members {
		members[i] = models.Member{ID: m.ID, Handle: m.Handle}
	}

	ownerID := middleware.GetUserID(r.Context())
	group, created, err := s.engine.CreateGroup(r.Context(), ownerID, req.Name, req.Description, members, req.Quorum)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(group, created))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.engine.ListGroups(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toGroupResponse(g, nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, members, err := s.engine.GetGroup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group, members))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteGroup(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req memberPayload
	if !decodeJSON(w, r, &req) {
		return
	}

	groupID := mux.Vars(r)["id"]
	if err := s.engine.AddMember(r.Context(), groupID, models.Member{ID: req.ID, Handle: req.Handle}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.engine.RemoveMember(r.Context(), vars["id"], vars["memberId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
