package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	pollengine "pollstack/contexts/engagement/poll-engine"
	"pollstack/contexts/engagement/poll-engine/application/identity"
	domainerrors "pollstack/contexts/engagement/poll-engine/domain/errors"
	pollhttp "pollstack/contexts/engagement/poll-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "pollstack/internal/platform/httpserver/docs"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	polls  pollengine.Module
}

func New(polls pollengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		polls:  polls,
	}
	s.registerRoutes()
	return s
}

// Start serves until the listener fails or ctx is canceled. Cancellation
// drains in-flight requests through http.Server.Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	srv := &http.Server{Addr: s.addr, Handler: s.mux}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("http server stopping",
			"event", "http_server_stopping",
			"module", "internal/platform/httpserver",
			"layer", "platform",
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Mux exposes the routing table for in-process tests.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("POST /api/polls/submit", s.handleSubmitChoice)
	s.mux.HandleFunc("POST /api/ranking-polls/submit", s.handleSubmitRanking)
	s.mux.HandleFunc("POST /api/wordcloud-polls/submit", s.handleSubmitWordcloud)

	s.mux.HandleFunc("GET /api/polls/results", s.handleChoiceResults)
	s.mux.HandleFunc("GET /api/ranking-polls/results", s.handleRankingResults)
	s.mux.HandleFunc("GET /api/wordcloud-polls/results", s.handleWordcloudResults)
	s.mux.HandleFunc("GET /api/poll-results", s.handleCombinedResults)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmitChoice(w http.ResponseWriter, r *http.Request) {
	var req pollhttp.SubmitChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.SubmitChoiceHandler(r.Context(), resolveSession(r), req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitRanking(w http.ResponseWriter, r *http.Request) {
	var req pollhttp.SubmitRankingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.SubmitRankingHandler(r.Context(), resolveSession(r), req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitWordcloud(w http.ResponseWriter, r *http.Request) {
	var req pollhttp.SubmitWordcloudRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.SubmitWordcloudHandler(r.Context(), resolveSession(r), req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChoiceResults(w http.ResponseWriter, r *http.Request) {
	pagePath, pollIndex, ok := resolveResultsQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.ChoiceResultsHandler(r.Context(), resolveSession(r), pagePath, pollIndex)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRankingResults(w http.ResponseWriter, r *http.Request) {
	pagePath, pollIndex, ok := resolveResultsQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.RankingResultsHandler(r.Context(), resolveSession(r), pagePath, pollIndex)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWordcloudResults(w http.ResponseWriter, r *http.Request) {
	pagePath, pollIndex, ok := resolveResultsQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.WordcloudResultsHandler(r.Context(), resolveSession(r), pagePath, pollIndex)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCombinedResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.CombinedResultsHandler(r.Context())
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveSession reads the caller identity hints. The gateway in front of
// this service authenticates users and forwards the id as X-User-Id; CEW
// widgets pass a per-tab session hint so repeat submissions from one tab can
// reuse their anonymous token.
func resolveSession(r *http.Request) identity.Session {
	return identity.Session{
		UserID:       strings.TrimSpace(r.Header.Get("X-User-Id")),
		SessionHint:  strings.TrimSpace(r.Header.Get("X-Session-Id")),
		CampaignCode: strings.TrimSpace(r.URL.Query().Get("authCode")),
	}
}

func resolveResultsQuery(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	query := r.URL.Query()
	pagePath := strings.TrimSpace(query.Get("pagePath"))
	pollIndexRaw := strings.TrimSpace(query.Get("pollIndex"))
	if pagePath == "" || pollIndexRaw == "" {
		writePollError(w, http.StatusBadRequest, "missing_parameters", "pagePath and pollIndex are required")
		return "", 0, false
	}
	pollIndex, err := strconv.Atoi(pollIndexRaw)
	if err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_poll_index", "pollIndex must be an integer")
		return "", 0, false
	}
	return pagePath, pollIndex, true
}

func writePollDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrUnauthorized):
		writePollError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domainerrors.ErrPollNotFound):
		writePollError(w, http.StatusNotFound, "poll_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidSubmission),
		errors.Is(err, domainerrors.ErrOptionIndexOutOfRange),
		errors.Is(err, domainerrors.ErrOtherTextRequired),
		errors.Is(err, domainerrors.ErrRankingNotBijection),
		errors.Is(err, domainerrors.ErrNoWords),
		errors.Is(err, domainerrors.ErrTooManyWords),
		errors.Is(err, domainerrors.ErrWordTooLong),
		errors.Is(err, domainerrors.ErrBlankWord),
		errors.Is(err, domainerrors.ErrDuplicateWord):
		writePollError(w, http.StatusBadRequest, "invalid_submission", err.Error())
	case errors.Is(err, domainerrors.ErrStoreUnavailable):
		writePollError(w, http.StatusInternalServerError, "store_unavailable", err.Error())
	default:
		writePollError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePollError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pollhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
