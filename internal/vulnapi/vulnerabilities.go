package vulnapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/warden/internal/vuln"
)

func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	rows, err := a.svc.Groups(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to group vulnerabilities")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rows == nil {
		rows = []vuln.TaggedRecord{}
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int("warden.grouped_records", len(rows)))
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) handleGetVulnerability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("warden.vulnerability.id", id))

	rec, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get vulnerability", "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleCreateVulnerability(w http.ResponseWriter, r *http.Request) {
	var in vuln.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	rec, err := a.svc.Create(r.Context(), in)
	if err != nil {
		a.writeServiceError(w, r, err, "failed to create vulnerability")
		return
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("warden.vulnerability.id", rec.ID))
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) handleUpdateVulnerability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("warden.vulnerability.id", id))

	var in vuln.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	rec, ok, err := a.svc.Update(r.Context(), id, in)
	if err != nil {
		a.writeServiceError(w, r, err, "failed to update vulnerability", "id", id)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleDeleteVulnerability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("warden.vulnerability.id", id))

	ok, err := a.svc.Delete(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to delete vulnerability", "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps validation failures to 400 and everything else to 500.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string, kv ...any) {
	if errors.Is(err, vuln.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.logger.Error(r.Context(), err, msg, kv...)
	writeError(w, http.StatusInternalServerError, "internal error")
}
