package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/nuvana-labs/solverd/pkg/audit"
	"github.com/nuvana-labs/solverd/pkg/buffers"
	"github.com/nuvana-labs/solverd/pkg/proposalqueue"
	"github.com/nuvana-labs/solverd/pkg/service"
	"github.com/nuvana-labs/solverd/pkg/tokenpairs"
)

// Server handles the settlement submission REST API and its WebSocket
// summary feed.
type Server struct {
	pipeline       *service.Pipeline
	ledger         *audit.Ledger
	bufferManager  *buffers.Manager
	pairs          *tokenpairs.Registry
	router         *mux.Router
	hub            *Hub
	allowedOrigins []string
	log            *zap.SugaredLogger
}

// NewServer creates a new API server wired to the settlement pipeline and
// its supporting stores.
func NewServer(pipeline *service.Pipeline, ledger *audit.Ledger, bufferManager *buffers.Manager, pairs *tokenpairs.Registry, allowedOrigins []string, log *zap.SugaredLogger) *Server {
	s := &Server{
		pipeline:       pipeline,
		ledger:         ledger,
		bufferManager:  bufferManager,
		pairs:          pairs,
		router:         mux.NewRouter(),
		hub:            NewHub(),
		allowedOrigins: allowedOrigins,
		log:            log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/proposals", s.handleSubmitProposal).Methods("POST")
	api.HandleFunc("/summaries", s.handleGetSummaries).Methods("GET")
	api.HandleFunc("/buffers", s.handleGetBuffers).Methods("GET")
	api.HandleFunc("/pairs", s.handleGetPairs).Methods("GET")

	s.router.HandleFunc("/api/v1/ws", s.handleWebSocket)
	s.router.HandleFunc("/api/v1/health", s.handleHealth).Methods("GET")
}

// Start runs the WebSocket hub and serves the API on addr.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(s.router)

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, handler)
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	var envelope proposalqueue.ProposalEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		respondError(w, http.StatusBadRequest, "decode_error", err.Error(), nil)
		return
	}

	summary, err := s.pipeline.Submit(r.Context(), &envelope)
	if err != nil {
		kind, status := kindForError(err)
		if status == http.StatusInternalServerError {
			s.log.Errorw("proposal_submission_failed", "proposalId", envelope.ID, "err", err)
		}
		respondError(w, status, kind, err.Error(), nil)
		return
	}

	record, err := s.ledger.Get(envelope.ID)
	if err != nil {
		s.log.Errorw("audit_lookup_failed", "proposalId", envelope.ID, "err", err)
	}
	if record != nil {
		s.hub.BroadcastToChannel("summaries", SummaryBroadcast{Type: "summary", Record: recordToInfo(record)})
	}

	respondJSON(w, summaryToInfo(summary))
}

func (s *Server) handleGetSummaries(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	records, err := s.ledger.Recent(limit)
	if err != nil {
		s.log.Errorw("summaries_query_failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load summaries", nil)
		return
	}

	out := make([]SummaryRecordInfo, len(records))
	for i, rec := range records {
		out[i] = recordToInfo(rec)
	}
	respondJSON(w, out)
}

func (s *Server) handleGetBuffers(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.bufferManager.Get(r.Context())
	if err != nil {
		s.log.Errorw("buffer_query_failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load buffer snapshot", nil)
		return
	}
	respondJSON(w, bufferToInfo(s.bufferManager.AsOf(), snapshot))
}

func (s *Server) handleGetPairs(w http.ResponseWriter, r *http.Request) {
	pairs := s.pairs.List()
	out := make([]TokenPairInfo, len(pairs))
	for i, p := range pairs {
		out[i] = pairToInfo(p)
	}
	respondJSON(w, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helper Functions
// ==============================

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, kind string, message string, context interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Kind:    kind,
		Message: message,
		Context: context,
	})
}
