package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/usecase"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/errutil"
)

type createIncidentRequest struct {
	Title           string   `json:"title"`
	Category        string   `json:"category"`
	Priority        string   `json:"priority"`
	RelatedEntities []string `json:"related_entities,omitempty"`
	Actor           string   `json:"actor,omitempty"`
}

func (s *Server) createIncident(w http.ResponseWriter, r *http.Request) {
	var req createIncidentRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	category, err := types.ParseCategory(req.Category)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	priority, err := types.ParsePriority(req.Priority)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	inc, err := s.uc.Incident.Create(r.Context(), tenantFrom(r.Context()), usecase.CreateIncidentInput{
		Title:           req.Title,
		Category:        category,
		Priority:        priority,
		RelatedEntities: req.RelatedEntities,
		Actor:           req.Actor,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, inc)
}

func (s *Server) listIncidents(w http.ResponseWriter, r *http.Request) {
	var (
		incidents []*model.Incident
		err       error
	)
	if r.URL.Query().Get("open") == "true" {
		incidents, err = s.uc.Incident.ListOpen(r.Context(), tenantFrom(r.Context()))
	} else {
		incidents, err = s.uc.Incident.List(r.Context(), tenantFrom(r.Context()))
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"incidents": incidents})
}

func (s *Server) getIncident(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	inc, err := s.uc.Incident.Get(r.Context(), tenantFrom(r.Context()), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, inc)
}

func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	events, err := s.uc.Incident.Timeline(r.Context(), tenantFrom(r.Context()), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"timeline": events})
}

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	alerts, err := s.uc.Incident.Alerts(r.Context(), tenantFrom(r.Context()), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Server) getActiveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	alert, err := s.uc.Incident.ActiveAlert(r.Context(), tenantFrom(r.Context()), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"alert": alert})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor,omitempty"`
	Note   string `json:"note,omitempty"`
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	next, err := types.ParseIncidentStatus(req.Status)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	inc, err := s.uc.Incident.UpdateStatus(r.Context(), tenantFrom(r.Context()), id, next, req.Actor, req.Note)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, inc)
}

type assignRequest struct {
	Assignee string `json:"assignee"`
	Actor    string `json:"actor,omitempty"`
}

func (s *Server) assignIncident(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	var req assignRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	if req.Assignee == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("assignee is required"), http.StatusBadRequest)
		return
	}

	inc, err := s.uc.Incident.Assign(r.Context(), tenantFrom(r.Context()), id, req.Assignee, req.Actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, inc)
}

type addCommentRequest struct {
	Body     string `json:"body"`
	FollowUp bool   `json:"follow_up,omitempty"`
	Actor    string `json:"actor,omitempty"`
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	var req addCommentRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	if req.Body == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("comment body is required"), http.StatusBadRequest)
		return
	}

	inc, err := s.uc.Incident.AddComment(r.Context(), tenantFrom(r.Context()), id, req.Body, req.FollowUp, req.Actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, inc)
}

type addActionRequest struct {
	Description string `json:"description"`
	Actor       string `json:"actor,omitempty"`
}

func (s *Server) addContainmentAction(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	var req addActionRequest
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	if req.Description == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("action description is required"), http.StatusBadRequest)
		return
	}

	inc, err := s.uc.Incident.AddContainmentAction(r.Context(), tenantFrom(r.Context()), id, req.Description, req.Actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, inc)
}

func (s *Server) exportIncident(w http.ResponseWriter, r *http.Request) {
	id, err := incidentIDParam(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	if err := s.uc.Incident.ExportAudit(r.Context(), tenantFrom(r.Context()), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusAccepted, map[string]bool{"exported": true})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.uc.Stats.Stats(r.Context(), tenantFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}
