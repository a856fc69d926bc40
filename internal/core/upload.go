package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// UploadPhase represents the current phase of an upload.
type UploadPhase string

const (
	PhaseStarting    UploadPhase = "starting"
	PhaseParsing     UploadPhase = "parsing"
	PhasePronouncing UploadPhase = "pronouncing"
	PhaseEnriching   UploadPhase = "enriching"
	PhaseWriting     UploadPhase = "writing"
	PhaseComplete    UploadPhase = "complete"
	PhaseSkipped     UploadPhase = "skipped"
	PhaseFailed      UploadPhase = "failed"
	PhaseCancelled   UploadPhase = "cancelled"
)

// Terminal reports whether no further updates follow this phase.
func (p UploadPhase) Terminal() bool {
	switch p {
	case PhaseComplete, PhaseSkipped, PhaseFailed, PhaseCancelled:
		return true
	}
	return false
}

// ConflictPolicy decides what happens when the target day already has words.
type ConflictPolicy string

const (
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictSkip      ConflictPolicy = "skip"
	ConflictFail      ConflictPolicy = "fail"
)

// ParseConflictPolicy parses a policy name; empty means overwrite.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(s); p {
	case "":
		return ConflictOverwrite, nil
	case ConflictOverwrite, ConflictSkip, ConflictFail:
		return p, nil
	}
	return "", fmt.Errorf("invalid conflict policy %q (use overwrite, skip or fail)", s)
}

// UploadRequest describes one upload into a course day.
type UploadRequest struct {
	Course   string
	Day      int
	Source   Source
	Conflict ConflictPolicy
	// Pronounce fills missing IPA for single standard words.
	Pronounce bool
	// Enrich fills missing examples and translations for standard words.
	Enrich bool
}

// UploadProgress represents the current state of an upload operation.
type UploadProgress struct {
	UploadID string      `json:"upload_id"`
	Course   CourseID    `json:"course"`
	DayName  string      `json:"day"`
	Phase    UploadPhase `json:"phase"`
	Words    int         `json:"words"`
	Errors   int         `json:"errors"`
	Error    string      `json:"error,omitempty"`
}

// Percent returns a coarse completion percentage for the current phase.
func (p UploadProgress) Percent() int {
	switch p.Phase {
	case PhaseParsing:
		return 10
	case PhasePronouncing:
		return 30
	case PhaseEnriching:
		return 55
	case PhaseWriting:
		return 80
	case PhaseComplete, PhaseSkipped, PhaseFailed, PhaseCancelled:
		return 100
	}
	return 0
}

// UploadResult contains the final result of an upload operation.
type UploadResult struct {
	UploadID        string        `json:"upload_id"`
	Course          CourseID      `json:"course"`
	Day             int           `json:"day"`
	DayName         string        `json:"dayName"`
	SourceName      string        `json:"sourceName"`
	Phase           UploadPhase   `json:"phase"`
	IsCollocation   bool          `json:"isCollocation"`
	DetectedHeaders []string      `json:"detectedHeaders"`
	Inserted        int           `json:"inserted"`
	Pronounced      int           `json:"pronounced"`
	Enriched        int           `json:"enriched"`
	Errors          []string      `json:"errors"`
	Error           string        `json:"error,omitempty"`
	Message         string        `json:"message,omitempty"` // User-facing form of Error
	Duration        time.Duration `json:"duration"`
}

// StartUpload validates the request and begins an asynchronous upload.
// Returns the upload ID immediately. Use SubscribeProgress to get updates.
//
// Returns ErrTooManyUploads if the concurrent upload limit is reached and
// no slot becomes available within the wait period.
func (s *Service) StartUpload(ctx context.Context, req UploadRequest) (string, error) {
	course, err := LookupCourse(req.Course)
	if err != nil {
		return "", err
	}
	if req.Day < 1 {
		return "", fmt.Errorf("%w: day %d", ErrInvalidDayName, req.Day)
	}
	if req.Conflict, err = ParseConflictPolicy(string(req.Conflict)); err != nil {
		return "", err
	}

	// Acquire upload slot (blocks until available or timeout)
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	uploadID := newUploadID()

	// The upload outlives the request but keeps its caller metadata.
	uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.UploadTimeout)

	upload := &activeUpload{
		ID:      uploadID,
		Request: req,
		Cancel:  cancel,
		Progress: UploadProgress{
			UploadID: uploadID,
			Course:   course.ID,
			DayName:  DayName(req.Day),
			Phase:    PhaseStarting,
		},
		Done: make(chan struct{}),
	}

	s.mu.Lock()
	s.uploads[uploadID] = upload
	s.mu.Unlock()

	// Process in background with panic recovery to ensure limiter release
	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic in upload",
					"upload_id", uploadID,
					"course", course.ID,
					"panic", r,
				)
				msg := fmt.Sprintf("internal error: %v", r)
				upload.Result = &UploadResult{
					UploadID: uploadID,
					Course:   course.ID,
					Phase:    PhaseFailed,
					Error:    msg,
					Message:  FormatUserError(errors.New(msg)),
				}
				upload.update(func(p *UploadProgress) {
					p.Phase = PhaseFailed
					p.Error = msg
				})
				s.finish(upload)
			}
		}()
		s.processUpload(uploadCtx, upload, course)
	}()

	return uploadID, nil
}

func (s *Service) finish(upload *activeUpload) {
	upload.closeListeners()
	close(upload.Done)
	s.cleanup(upload.ID, s.cfg.ResultTTL)
}

// processUpload runs parse, optional pronunciation and enrichment, and the
// day replacement for one upload.
func (s *Service) processUpload(ctx context.Context, upload *activeUpload, course Course) {
	start := time.Now()
	req := upload.Request
	log := s.log.With("upload_id", upload.ID, "course", course.ID, "day", DayName(req.Day))

	result := &UploadResult{
		UploadID:   upload.ID,
		Course:     course.ID,
		Day:        req.Day,
		DayName:    DayName(req.Day),
		SourceName: req.Source.Name,
		Errors:     []string{},
	}

	var backup []byte
	end := func(phase UploadPhase, err error) {
		result.Phase = phase
		result.Duration = time.Since(start)
		if err != nil {
			result.Error = err.Error()
			result.Message = FormatUserError(err)
		}
		if backup != nil {
			s.recordUpload(ctx, result, req, backup)
		}
		upload.Result = result
		upload.update(func(p *UploadProgress) {
			p.Phase = phase
			p.Words = result.Inserted
			p.Error = result.Error
		})
		switch phase {
		case PhaseFailed:
			log.Warn("upload failed", "error", result.Error, "duration", result.Duration)
		default:
			log.Info("upload finished", "phase", phase, "inserted", result.Inserted,
				"errors", len(result.Errors), "duration", result.Duration)
		}
		s.finish(upload)
	}
	stop := func(err error) {
		if errors.Is(ctx.Err(), context.Canceled) {
			end(PhaseCancelled, errors.New("upload cancelled"))
			return
		}
		end(PhaseFailed, err)
	}

	upload.update(func(p *UploadProgress) { p.Phase = PhaseParsing })

	opts := s.cfg.Parse
	opts.IsCollocation = course.KindOverride()
	parsed, raw, err := s.parse(ctx, req.Source, opts)
	if err != nil {
		stop(err)
		return
	}
	backup = raw
	result.IsCollocation = parsed.IsCollocation
	result.DetectedHeaders = parsed.DetectedHeaders
	result.Errors = parsed.Errors
	upload.update(func(p *UploadProgress) {
		p.Words = len(parsed.Words)
		p.Errors = len(parsed.Errors)
	})

	if len(parsed.Words) == 0 {
		end(PhaseFailed, ErrNoValidRows)
		return
	}

	exists, err := s.store.DayExists(ctx, course.ID, req.Day)
	if err != nil {
		stop(err)
		return
	}
	if exists {
		switch req.Conflict {
		case ConflictSkip:
			end(PhaseSkipped, nil)
			return
		case ConflictFail:
			end(PhaseFailed, fmt.Errorf("%w: %s %s", ErrDayExists, course.ID, DayName(req.Day)))
			return
		}
	}

	words := parsed.Words
	if !parsed.IsCollocation && (req.Pronounce || req.Enrich) {
		std := parsed.StandardWords()
		if req.Pronounce && s.pronouncer != nil {
			upload.update(func(p *UploadProgress) { p.Phase = PhasePronouncing })
			before := slices.Clone(std)
			std = s.pronouncer.FillPronunciations(ctx, std)
			result.Pronounced = countChanged(before, std, func(w StandardWord) string { return w.Pronunciation })
		}
		if req.Enrich && s.enricher != nil {
			upload.update(func(p *UploadProgress) { p.Phase = PhaseEnriching })
			before := slices.Clone(std)
			std = s.enricher.Enrich(ctx, std)
			result.Enriched = countChanged(before, std, func(w StandardWord) string { return w.Example + "\x00" + w.Translation })
		}
		words = StandardToWords(std)
	}

	if ctx.Err() != nil {
		stop(ctx.Err())
		return
	}

	upload.update(func(p *UploadProgress) { p.Phase = PhaseWriting })
	n, err := s.store.ReplaceDay(ctx, course.ID, req.Day, words)
	if err != nil {
		stop(fmt.Errorf("write %s: %w", DayName(req.Day), err))
		return
	}
	result.Inserted = n
	end(PhaseComplete, nil)
}

// recordUpload stores the history entry. Failures are logged only.
func (s *Service) recordUpload(ctx context.Context, result *UploadResult, req UploadRequest, backup []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	rec := UploadRecord{
		ID:              result.UploadID,
		Course:          result.Course,
		Day:             result.Day,
		SourceKind:      req.Source.Kind,
		SourceName:      req.Source.Name,
		Status:          string(result.Phase),
		IsCollocation:   result.IsCollocation,
		DetectedHeaders: result.DetectedHeaders,
		Errors:          result.Errors,
		WordCount:       result.Inserted,
		ClientIP:        ClientIPFromContext(ctx),
		UserAgent:       UserAgentFromContext(ctx),
		CreatedAt:       time.Now().UTC(),
		Source:          backup,
	}
	if err := s.store.RecordUpload(ctx, rec); err != nil {
		s.log.Warn("record upload history", "upload_id", rec.ID, "error", err)
	}
}

// StandardToWords converts typed standard words back to the Word sum type.
func StandardToWords(std []StandardWord) []Word {
	out := make([]Word, len(std))
	for i, w := range std {
		out[i] = w
	}
	return out
}

func countChanged(before, after []StandardWord, key func(StandardWord) string) int {
	n := 0
	for i := range before {
		if i < len(after) && key(before[i]) != key(after[i]) {
			n++
		}
	}
	return n
}
