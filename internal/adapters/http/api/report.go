package api

import (
	"net/http"

	"github.com/ivasko/courtline/internal/domain/model"
)

// SummaryHandler handles run summary requests.
type SummaryHandler struct {
	deps Dependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps Dependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleGetSummary handles GET /summary requests.
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	summary, ok := h.deps.Summary()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no_run", ErrNoRun)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ReportHandler handles aggregation report requests.
type ReportHandler struct {
	deps Dependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleGetReport handles GET /report requests.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	report, ok := h.deps.Report()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no_run", ErrNoRun)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// QuarantineHandler handles quarantine audit requests.
type QuarantineHandler struct {
	deps Dependencies
}

// NewQuarantineHandler creates a new quarantine handler.
func NewQuarantineHandler(deps Dependencies) *QuarantineHandler {
	return &QuarantineHandler{deps: deps}
}

// HandleGetQuarantine handles GET /quarantine requests.
func (h *QuarantineHandler) HandleGetQuarantine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	records, ok := h.deps.Quarantine()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no_run", ErrNoRun)
		return
	}
	if records == nil {
		records = []model.QuarantinedRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
