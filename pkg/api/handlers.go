package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethpandaops/junitoor/pkg/index"
	"github.com/ethpandaops/junitoor/pkg/upload"
	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error string `json:"error"`
}

type listReportsResponse struct {
	Reports []index.Report `json:"reports"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListReports lists indexed reports, optionally for one collection.
func (s *server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.indexStore.ListReports(
		r.Context(), r.URL.Query().Get("collection"),
	)
	if err != nil {
		s.log.WithError(err).Error("Failed to list reports")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"listing reports failed"})

		return
	}

	if reports == nil {
		reports = []index.Report{}
	}

	writeJSON(w, http.StatusOK, listReportsResponse{Reports: reports})
}

// handleGetReport returns a single indexed report.
func (s *server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.lookupReport(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleReportXML serves the report file. The local copy is preferred; the
// uploaded copy is fetched when the local file is unavailable.
func (s *server) handleReportXML(w http.ResponseWriter, r *http.Request) {
	report, ok := s.lookupReport(w, r)
	if !ok {
		return
	}

	if s.localServer != nil && report.Path != "" {
		err := s.localServer.ServeFile(w, r, report.Path)
		if err == nil {
			return
		}

		s.log.WithError(err).
			WithField("report", report.ReportID).
			Debug("Local report file unavailable")
	}

	if s.reader == nil || report.UploadedKey == "" {
		writeJSON(w, http.StatusNotFound,
			errorResponse{"report file not found"})

		return
	}

	data, err := s.reader.Get(r.Context(), report.UploadedKey)
	if errors.Is(err, upload.ErrNotFound) {
		writeJSON(w, http.StatusNotFound,
			errorResponse{"report file not found"})

		return
	}

	if err != nil {
		s.log.WithError(err).
			WithField("key", report.UploadedKey).
			Error("Failed to fetch uploaded report")
		writeJSON(w, http.StatusBadGateway,
			errorResponse{"fetching uploaded report failed"})

		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

// lookupReport resolves the {id} URL parameter, writing an error response
// when the report cannot be returned.
func (s *server) lookupReport(
	w http.ResponseWriter, r *http.Request,
) (*index.Report, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"report id is required"})

		return nil, false
	}

	report, err := s.indexStore.GetReport(r.Context(), id)
	if errors.Is(err, index.ErrNotFound) {
		writeJSON(w, http.StatusNotFound,
			errorResponse{"report not found"})

		return nil, false
	}

	if err != nil {
		s.log.WithError(err).WithField("report", id).
			Error("Failed to get report")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"getting report failed"})

		return nil, false
	}

	return report, true
}
