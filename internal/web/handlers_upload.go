package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/logging"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/web/views"
)

// handleParse runs the ingestion pipeline on a source and returns the
// result without storing anything. The optional "course" field fixes the
// record kind.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	src, err := readSource(w, r, s.cfg.Upload.MaxFileSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, _, err := s.service.Parse(r.Context(), src, r.FormValue("course"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handlePreview shows what an upload into a course day would store.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	src, err := readSource(w, r, s.cfg.Upload.MaxFileSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	preview, err := s.service.Preview(r.Context(), src, chi.URLParam(r, "courseID"), day)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := views.PreviewFragment(preview).Render(r.Context(), w); err != nil {
			s.log.Error("render preview", "error", err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, preview)
}

// handleUpload starts an asynchronous upload into a course day and returns
// its ID. Progress is streamed by handleUploadProgress.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	src, err := readSource(w, r, s.cfg.Upload.MaxFileSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	conflict, err := core.ParseConflictPolicy(r.FormValue("conflict"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	uploadID, err := s.service.StartUpload(r.Context(), core.UploadRequest{
		Course:    chi.URLParam(r, "courseID"),
		Day:       day,
		Source:    src,
		Conflict:  conflict,
		Pronounce: formBool(r, "pronounce", true),
		Enrich:    formBool(r, "enrich", false),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.WithFields(r.Context(),
		"upload_id", uploadID,
		"course", chi.URLParam(r, "courseID"),
		"day", core.DayName(day),
		"source_kind", src.Kind,
	).Info("upload started")

	s.writeJSON(w, http.StatusAccepted, map[string]string{"upload_id": uploadID})
}

// handleUploadProgress streams upload progress via Server-Sent Events.
// Supports resumption via the lastEventId query parameter; the event ID is
// the progress percentage.
func (s *Server) handleUploadProgress(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")

	lastEventIDStr := r.URL.Query().Get("lastEventId")
	if lastEventIDStr == "" {
		lastEventIDStr = r.Header.Get("Last-Event-ID")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if n, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(uploadID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			percent := progress.Percent()
			if percent <= lastEventID && !progress.Phase.Terminal() {
				continue
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", percent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleCancelUpload cancels an in-progress upload.
func (s *Server) handleCancelUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelUpload(chi.URLParam(r, "uploadID")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleUploadResult returns the final result of an upload, or 202 with the
// current progress while it is still running.
func (s *Server) handleUploadResult(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")

	progress, err := s.service.UploadProgress(uploadID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !progress.Phase.Terminal() {
		s.writeJSON(w, http.StatusAccepted, progress)
		return
	}

	result, err := s.service.UploadResult(r.Context(), uploadID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
