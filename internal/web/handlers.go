package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"newsbrief/internal/domain"
	"newsbrief/internal/service"
)

type pageData struct {
	URL     string
	Result  *domain.Result
	Warning string
	Error   string
}

type summarizeRequest struct {
	URL string `json:"url"`
}

type summarizeResponse struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	SiteName  string `json:"siteName,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
	Summary   string `json:"summary"`
	Markdown  string `json:"markdown,omitempty"`
	Chunks    int    `json:"chunks"`
	ElapsedMS int64  `json:"elapsedMs"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageData{})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, pageData{Warning: service.MessageInvalidURL})
		return
	}

	rawURL := r.PostFormValue("url")
	data := pageData{URL: strings.TrimSpace(rawURL)}

	if _, err := service.ValidateURL(rawURL); err != nil {
		data.Warning = domain.UserMessage(err)
		s.render(w, r, http.StatusBadRequest, data)
		return
	}

	result, err := s.svc.Summarize(r.Context(), rawURL)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Failed to summarize article",
			"error", err,
			"url", data.URL,
			"kind", domain.KindOf(err))

		if domain.IsKind(err, domain.KindValidation) {
			data.Warning = domain.UserMessage(err)
		} else {
			data.Error = domain.UserMessage(err)
		}
		s.render(w, r, statusFor(err), data)
		return
	}

	data.Result = &result
	s.render(w, r, http.StatusOK, data)
}

// handleDownload echoes the posted summary back as a text attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	summary := strings.TrimSpace(r.PostFormValue("summary"))
	if summary == "" {
		http.Error(w, "summary is empty", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+summaryFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(summary))
}

func (s *Server) handleAPISummarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	result, err := s.svc.Summarize(r.Context(), req.URL)
	if err != nil {
		if !domain.IsKind(err, domain.KindValidation) {
			s.log.ErrorContext(r.Context(), "Failed to summarize article",
				"error", err,
				"url", req.URL,
				"kind", domain.KindOf(err))
		}

		writeJSON(w, statusFor(err), errorResponse{
			Error: domain.UserMessage(err),
			Kind:  string(domain.KindOf(err)),
		})
		return
	}

	writeJSON(w, http.StatusOK, summarizeResponse{
		URL:       result.Article.URL,
		Title:     result.Article.Title,
		SiteName:  result.Article.SiteName,
		Excerpt:   result.Article.Excerpt,
		Summary:   result.Summary,
		Markdown:  result.Article.Markdown,
		Chunks:    result.Chunks,
		ElapsedMS: result.Elapsed.Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := s.page.Execute(w, data); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to render page",
			"error", err)
	}
}
