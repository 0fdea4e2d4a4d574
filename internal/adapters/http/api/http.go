// Package api declares HTTP contracts and route registration helpers
// for the results API.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ivasko/courtline/internal/adapters/repository"
	"github.com/ivasko/courtline/internal/domain/aggregate"
	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to the pipeline service.
type Dependencies interface {
	// Ready reports whether a run has completed.
	Ready() bool

	// Read operations over the last completed run.
	Summary() (types.RunSummary, bool)
	People(ctx context.Context) ([]model.Person, error)
	PersonState(ctx context.Context, id string) (model.Person, repository.StateEntry, error)
	Report() (*aggregate.Report, bool)
	Quarantine() ([]model.QuarantinedRecord, bool)
}

// Server wires HTTP routes for the results API.
type Server struct {
	healthHandler     *HealthHandler
	summaryHandler    *SummaryHandler
	peopleHandler     *PeopleHandler
	reportHandler     *ReportHandler
	quarantineHandler *QuarantineHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(deps),
		summaryHandler:    NewSummaryHandler(deps),
		peopleHandler:     NewPeopleHandler(deps),
		reportHandler:     NewReportHandler(deps),
		quarantineHandler: NewQuarantineHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/summary", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("/people", MetricsMiddleware(s.peopleHandler.HandleListPeople, "people"))
	mux.HandleFunc("/people/", MetricsMiddleware(s.peopleHandler.HandleGetPerson, "person"))
	mux.HandleFunc("/report", MetricsMiddleware(s.reportHandler.HandleGetReport, "report"))
	mux.HandleFunc("/quarantine", MetricsMiddleware(s.quarantineHandler.HandleGetQuarantine, "quarantine"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
