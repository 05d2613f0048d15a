package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"newsbrief/internal/domain"
)

//go:embed templates/index.html
var templatesFS embed.FS

const (
	maxFormBytes    = 1 << 20
	summaryFileName = "summary.txt"
)

// Summarizer is the service behind every page and API call.
type Summarizer interface {
	Summarize(ctx context.Context, rawURL string) (domain.Result, error)
}

type Server struct {
	svc  Summarizer
	page *template.Template
	log  *slog.Logger
}

func NewServer(svc Summarizer, log *slog.Logger) (*Server, error) {
	page, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		svc:  svc,
		page: page,
		log:  log,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/summarize", s.handleSummarize)
	r.Post("/download", s.handleDownload)
	r.Post("/api/summarize", s.handleAPISummarize)
	r.Get("/healthz", s.handleHealth)

	return r
}

// NewHTTPServer wraps handler with timeouts sized for a full pipeline run.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Minute,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps an error kind to the HTTP status of the response.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
