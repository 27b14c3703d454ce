package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/errutil"
)

func (s *Server) generatePostmortem(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	pm, err := s.uc.Postmortem.Generate(r.Context(), tenantFrom(r.Context()), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, pm)
}

func (s *Server) getPostmortemByIncident(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	pm, err := s.uc.Postmortem.GetByIncident(r.Context(), tenantFrom(r.Context()), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, pm)
}

func (s *Server) getPostmortem(w http.ResponseWriter, r *http.Request) {
	pmID := types.PostmortemID(chi.URLParam(r, "postmortemID"))
	if pmID == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("postmortem ID is required"), http.StatusBadRequest)
		return
	}

	pm, err := s.uc.Postmortem.Get(r.Context(), tenantFrom(r.Context()), pmID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, pm)
}

type updateActionItemRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateActionItem(w http.ResponseWriter, r *http.Request) {
	pmID := types.PostmortemID(chi.URLParam(r, "postmortemID"))
	itemID := types.ActionItemID(chi.URLParam(r, "itemID"))
	if pmID == "" || itemID == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("postmortem ID and item ID are required"), http.StatusBadRequest)
		return
	}

	var req updateActionItemRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	status, err := types.ParseActionItemStatus(req.Status)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	pm, err := s.uc.Postmortem.UpdateActionItem(r.Context(), tenantFrom(r.Context()), pmID, itemID, status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, pm)
}
