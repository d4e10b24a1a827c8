package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danieljhkim/atelier/internal/engine"
	"github.com/danieljhkim/atelier/internal/event"
)

// maxBodyBytes bounds request bodies; templates are small.
const maxBodyBytes = 1 << 20

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.backend.Tree(r.Context(), &engine.TreeRequest{
		ForestPkgID: chi.URLParam(r, "pkg"),
		ForestID:    chi.URLParam(r, "forest"),
		TreeID:      chi.URLParam(r, "tree"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, tree)
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidJSON, err.Error())
		return
	}
	ev, err := event.Decode(body)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	err = s.backend.PostEvent(r.Context(), &engine.PostEventRequest{
		ForestPkgID: chi.URLParam(r, "pkg"),
		ForestID:    chi.URLParam(r, "forest"),
		Event:       ev,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, ev)
}

func (s *Server) postDrop(w http.ResponseWriter, r *http.Request) {
	var req engine.DropRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidJSON, err.Error())
		return
	}
	req.ForestPkgID = chi.URLParam(r, "pkg")
	req.ForestID = chi.URLParam(r, "forest")

	res, err := s.backend.Drop(r.Context(), &req)
	if err != nil {
		s.logger.WarnContext(r.Context(), "drop failed",
			"request_id", requestIDFromContext(r.Context()),
			"template", req.Dir+"/"+req.Name,
			"error", err)
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (s *Server) postAlias(w http.ResponseWriter, r *http.Request) {
	var req engine.AliasRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidJSON, err.Error())
		return
	}
	a, err := s.backend.NewAlias(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]string{"alias": a})
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.backend.Templates(chi.URLParam(r, "dir"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, list)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	events, err := s.backend.TemplateEvents(r.Context(), chi.URLParam(r, "dir"), chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, event.List(events))
}
