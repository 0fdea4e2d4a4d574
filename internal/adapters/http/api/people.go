package api

import (
	"net/http"
	"strings"

	"github.com/ivasko/courtline/internal/domain/model"
)

// PeopleHandler handles person queries.
type PeopleHandler struct {
	deps Dependencies
}

// NewPeopleHandler creates a new people handler.
func NewPeopleHandler(deps Dependencies) *PeopleHandler {
	return &PeopleHandler{deps: deps}
}

// HandleListPeople handles GET /people requests.
func (h *PeopleHandler) HandleListPeople(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	people, err := h.deps.People(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "no_run", err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

// personStateResponse is the GET /people/{id}/state body.
type personStateResponse struct {
	Person model.Person          `json:"person"`
	State  model.BehavioralState `json:"state"`
	Churn  model.ChurnState      `json:"churn"`
}

// HandleGetPerson handles GET /people/{id} and GET /people/{id}/state.
func (h *PeopleHandler) HandleGetPerson(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/people/")
	id, wantState := strings.CutSuffix(path, "/state")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	person, entry, err := h.deps.PersonState(r.Context(), id)
	switch {
	case err == nil:
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	default:
		writeError(w, http.StatusServiceUnavailable, "no_run", err)
		return
	}

	if !wantState {
		writeJSON(w, http.StatusOK, person)
		return
	}
	writeJSON(w, http.StatusOK, personStateResponse{
		Person: person,
		State:  entry.State,
		Churn:  entry.Churn,
	})
}
