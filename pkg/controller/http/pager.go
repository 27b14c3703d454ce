package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/errutil"
)

type acknowledgeRequest struct {
	Responder string `json:"responder"`
}

func (s *Server) acknowledgeIncident(w http.ResponseWriter, r *http.Request) {
	if s.pager == nil {
		errutil.HandleHTTP(r.Context(), w, goerr.New("paging is not configured"), http.StatusServiceUnavailable)
		return
	}

	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	var req acknowledgeRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	if req.Responder == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("responder is required"), http.StatusBadRequest)
		return
	}

	alert, err := s.pager.Acknowledge(r.Context(), tenantFrom(r.Context()), id, req.Responder)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, alert)
}

func (s *Server) escalateIncident(w http.ResponseWriter, r *http.Request) {
	if s.pager == nil {
		errutil.HandleHTTP(r.Context(), w, goerr.New("paging is not configured"), http.StatusServiceUnavailable)
		return
	}

	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	if err := s.pager.EscalateNow(r.Context(), tenantFrom(r.Context()), id, model.EscalationReasonManual); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusAccepted, map[string]bool{"escalated": true})
}
