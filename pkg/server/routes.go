package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
	"github.com/Bobcat00/AltDetector/pkg/telemetry/health"
)

type namesResponse struct {
	Prefix string   `json:"prefix,omitempty"`
	Names  []string `json:"names"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.Use(recovery(s.logger))
	r.Use(requestID)
	r.Use(logRequests(s.logger))

	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler()).Methods(http.MethodGet)
	}
	if s.deps.Checker != nil {
		r.HandleFunc("/health", s.deps.Checker.LivenessHandler()).Methods(http.MethodGet, http.MethodHead)
		r.HandleFunc("/ready", s.deps.Checker.ReadinessHandler()).Methods(http.MethodGet, http.MethodHead)
	}

	backend := ""
	if s.deps.Store != nil {
		backend = s.deps.Store.Backend()
	}
	r.HandleFunc("/version", health.VersionHandler(s.deps.Version, backend)).Methods(http.MethodGet, http.MethodHead)

	// API routes sit on the root router so a method mismatch answers 405.
	if s.deps.Store != nil {
		r.HandleFunc("/v1/names", s.handleNames).Methods(http.MethodGet)
	}
	if s.deps.Detector != nil {
		r.HandleFunc("/v1/alts/{name}", s.handleAlts).Methods(http.MethodGet)
	}

	return r
}

// handleNames serves name completion. Without a prefix the whole cache is
// listed.
func (s *Server) handleNames(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	var names []string
	if prefix == "" {
		names = s.deps.Store.ListKnownNames()
	} else {
		names = s.deps.Store.CompleteNames(prefix)
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, namesResponse{Prefix: prefix, Names: names})
}

// handleAlts reports the alts of the most recently seen player with the
// given name. Unknown players answer 404 with the report still in the body.
func (s *Server) handleAlts(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	report, err := s.deps.Detector.Lookup(r.Context(), name)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "alt lookup failed", "name", name, "error", err)
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	code := http.StatusOK
	if !report.Found {
		code = http.StatusNotFound
	}
	writeJSON(w, code, report)
}

func statusFor(err error) int {
	if altdetect.IsInvalidArgument(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
