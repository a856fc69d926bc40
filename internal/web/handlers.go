package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/web/views"
)

// maxEnrichWords bounds one enrichment request.
const maxEnrichWords = 500

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDashboard renders the courses overview page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	courses, err := s.service.Courses(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Layout("Vocabulary admin", views.Dashboard(courses)).Render(r.Context(), w); err != nil {
		s.log.Error("render dashboard", "error", err)
	}
}

// handleListCourses returns every course with its stored metadata.
func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.service.Courses(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, courses)
}

// handleListDays returns the stored days of a course.
func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	days, err := s.service.Days(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if days == nil {
		days = []core.DaySummary{}
	}
	s.writeJSON(w, http.StatusOK, days)
}

// handleDayWords returns the words of one day.
func (s *Server) handleDayWords(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	words, err := s.service.DayWords(r.Context(), chi.URLParam(r, "courseID"), day)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if words == nil {
		words = []core.Word{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"day":   core.DayName(day),
		"words": words,
	})
}

// handleDayExists reports whether an upload would overwrite a day.
func (s *Server) handleDayExists(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	exists, err := s.service.DayExists(r.Context(), chi.URLParam(r, "courseID"), day)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// handleUploadHistory lists recent uploads, optionally for one course.
func (s *Server) handleUploadHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.UploadHistory(r.Context(), r.URL.Query().Get("course"), parseIntParam(r, "limit", 50))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := views.UploadHistory(records).Render(r.Context(), w); err != nil {
			s.log.Error("render history", "error", err)
		}
		return
	}
	if records == nil {
		records = []core.UploadRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// handleUploadSource downloads the backed-up source of a past upload.
func (s *Server) handleUploadSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uploadID")
	data, err := s.service.UploadSource(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="upload-%s"`, id))
	w.Write(data)
}

type enrichRequest struct {
	Words []core.StandardWord `json:"words"`
}

// handleEnrich fills missing examples and translations of posted words.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Words) > maxEnrichWords {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("too many words (max %d)", maxEnrichWords))
		return
	}
	if req.Words == nil {
		req.Words = []core.StandardWord{}
	}

	s.writeJSON(w, http.StatusOK, enrichRequest{Words: s.service.EnrichWords(r.Context(), req.Words)})
}

// handleUploadQueueStatus returns the current state of the upload limiter.
func (s *Server) handleUploadQueueStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Limiter().Status())
}
