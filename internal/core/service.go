package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors returned by the service.
var (
	ErrUploadNotFound      = errors.New("upload not found")
	ErrNoValidRows         = errors.New("no valid rows to upload")
	ErrDayExists           = errors.New("day already has words")
	ErrSheetsNotConfigured = errors.New("spreadsheet source not configured")
	ErrEmptySource         = errors.New("empty file")
)

// Store persists course days and upload history.
type Store interface {
	// ReplaceDay deletes the day's words, inserts words in order and updates
	// the course metadata, atomically. Returns the number of inserted words.
	ReplaceDay(ctx context.Context, course CourseID, day int, words []Word) (int, error)
	DayExists(ctx context.Context, course CourseID, day int) (bool, error)
	DayWords(ctx context.Context, course CourseID, day int) ([]Word, error)
	ListDays(ctx context.Context, course CourseID) ([]DaySummary, error)
	CourseStats(ctx context.Context) ([]CourseStats, error)
	RecordUpload(ctx context.Context, rec UploadRecord) error
	ListUploads(ctx context.Context, course CourseID, limit int) ([]UploadRecord, error)
	// UploadSource returns the stored source content of one upload, or an
	// error wrapping ErrUploadNotFound.
	UploadSource(ctx context.Context, id string) ([]byte, error)
	// PurgeUploads deletes history entries created before the cutoff.
	PurgeUploads(ctx context.Context, before time.Time) (int64, error)
}

// SheetFetcher downloads spreadsheet content by URL.
type SheetFetcher interface {
	FetchCSV(ctx context.Context, sheetURL string) (string, error)
	FetchValues(ctx context.Context, sheetURL, token string) ([][]string, error)
}

// Pronouncer fills empty pronunciations. Lookup failures leave words unchanged.
type Pronouncer interface {
	FillPronunciations(ctx context.Context, words []StandardWord) []StandardWord
}

// Enricher fills empty examples and translations. Failures leave words unchanged.
type Enricher interface {
	Enrich(ctx context.Context, words []StandardWord) []StandardWord
}

// CourseStats is the persisted metadata of one course.
type CourseStats struct {
	Course          CourseID   `json:"course"`
	TotalDays       int        `json:"totalDays"`
	LastUploadedDay string     `json:"lastUploadedDayId,omitempty"`
	LastUpdated     *time.Time `json:"lastUpdated,omitempty"`
	WordCount       int        `json:"wordCount"`
}

// CourseOverview joins a registered course with its stored metadata.
type CourseOverview struct {
	Course
	Stats CourseStats `json:"stats"`
}

// DaySummary describes one day of a course.
type DaySummary struct {
	Day       int    `json:"day"`
	Name      string `json:"name"`
	WordCount int    `json:"wordCount"`
}

// UploadRecord is one entry of the upload history.
type UploadRecord struct {
	ID              string     `json:"id"`
	Course          CourseID   `json:"course"`
	Day             int        `json:"day"`
	SourceKind      SourceKind `json:"sourceKind"`
	SourceName      string     `json:"sourceName"`
	Status          string     `json:"status"`
	IsCollocation   bool       `json:"isCollocation"`
	DetectedHeaders []string   `json:"detectedHeaders"`
	Errors          []string   `json:"errors"`
	WordCount       int        `json:"wordCount"`
	ClientIP        string     `json:"clientIp,omitempty"`
	UserAgent       string     `json:"userAgent,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	// Source is the raw uploaded content, kept as a backup.
	Source []byte `json:"-"`
}

// ServiceConfig tunes the upload service.
type ServiceConfig struct {
	UploadTimeout time.Duration // Max duration of one upload (default: 10m)
	MaxConcurrent int           // Parallel uploads (default: 5)
	MaxWait       time.Duration // Wait for a free upload slot (default: 30s)
	ResultTTL     time.Duration // How long finished uploads stay queryable (default: 5m)
	PreviewRows   int           // Words shown in a preview (default: 10)
	PreviewErrors int           // Errors shown in a preview (default: 5)
	Parse         Options       // Parser tuning; IsCollocation is ignored
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = 10 * time.Minute
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = 5 * time.Minute
	}
	if c.PreviewRows <= 0 {
		c.PreviewRows = DefaultPreviewRows
	}
	if c.PreviewErrors <= 0 {
		c.PreviewErrors = DefaultPreviewErrors
	}
	c.Parse.IsCollocation = nil
	return c
}

// Deps are the collaborators of the service. Only Store is required.
type Deps struct {
	Store      Store
	Sheets     SheetFetcher
	Pronouncer Pronouncer
	Enricher   Enricher
	Logger     *slog.Logger
}

// Service provides the business logic for vocabulary uploads.
type Service struct {
	cfg        ServiceConfig
	store      Store
	sheets     SheetFetcher
	pronouncer Pronouncer
	enricher   Enricher
	log        *slog.Logger
	limiter    *UploadLimiter

	mu      sync.RWMutex
	uploads map[string]*activeUpload
}

type activeUpload struct {
	ID         string
	Request    UploadRequest
	Cancel     context.CancelFunc
	Progress   UploadProgress
	Result     *UploadResult
	Done       chan struct{}
	Listeners  []chan UploadProgress
	ListenerMu sync.Mutex
	finished   bool // guarded by ListenerMu
}

// NewService creates a new Service instance.
func NewService(cfg ServiceConfig, deps Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("core: store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	return &Service{
		cfg:        cfg,
		store:      deps.Store,
		sheets:     deps.Sheets,
		pronouncer: deps.Pronouncer,
		enricher:   deps.Enricher,
		log:        logger,
		limiter:    NewUploadLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		uploads:    make(map[string]*activeUpload),
	}, nil
}

// Limiter exposes the upload limiter for status reporting.
func (s *Service) Limiter() *UploadLimiter {
	return s.limiter
}

// Courses returns every registered course with its stored metadata.
func (s *Service) Courses(ctx context.Context) ([]CourseOverview, error) {
	stats, err := s.store.CourseStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("course stats: %w", err)
	}
	byID := make(map[CourseID]CourseStats, len(stats))
	for _, st := range stats {
		byID[st.Course] = st
	}

	var out []CourseOverview
	for _, c := range Courses() {
		st, ok := byID[c.ID]
		if !ok {
			st = CourseStats{Course: c.ID}
		}
		out = append(out, CourseOverview{Course: c, Stats: st})
	}
	return out, nil
}

// Days lists the days of a course.
func (s *Service) Days(ctx context.Context, courseID string) ([]DaySummary, error) {
	c, err := LookupCourse(courseID)
	if err != nil {
		return nil, err
	}
	return s.store.ListDays(ctx, c.ID)
}

// DayWords returns the stored words of one day.
func (s *Service) DayWords(ctx context.Context, courseID string, day int) ([]Word, error) {
	c, err := LookupCourse(courseID)
	if err != nil {
		return nil, err
	}
	return s.store.DayWords(ctx, c.ID, day)
}

// DayExists reports whether a day already holds words.
func (s *Service) DayExists(ctx context.Context, courseID string, day int) (bool, error) {
	c, err := LookupCourse(courseID)
	if err != nil {
		return false, err
	}
	return s.store.DayExists(ctx, c.ID, day)
}

// UploadHistory returns recent uploads, newest first. An empty courseID
// lists all courses.
func (s *Service) UploadHistory(ctx context.Context, courseID string, limit int) ([]UploadRecord, error) {
	var id CourseID
	if courseID != "" {
		c, err := LookupCourse(courseID)
		if err != nil {
			return nil, err
		}
		id = c.ID
	}
	return s.store.ListUploads(ctx, id, limit)
}

// UploadSource returns the backed-up source content of a past upload.
func (s *Service) UploadSource(ctx context.Context, id string) ([]byte, error) {
	return s.store.UploadSource(ctx, id)
}

// EnrichWords fills missing examples and translations. Without an enricher
// the words are returned unchanged.
func (s *Service) EnrichWords(ctx context.Context, words []StandardWord) []StandardWord {
	if s.enricher == nil {
		return words
	}
	return s.enricher.Enrich(ctx, words)
}

// SubscribeProgress returns a channel that receives progress updates.
// The channel is closed when the upload completes.
func (s *Service) SubscribeProgress(uploadID string) (<-chan UploadProgress, error) {
	upload, err := s.get(uploadID)
	if err != nil {
		return nil, err
	}

	ch := make(chan UploadProgress, 10)

	upload.ListenerMu.Lock()
	defer upload.ListenerMu.Unlock()

	if upload.finished {
		ch <- upload.Progress
		close(ch)
		return ch, nil
	}

	upload.Listeners = append(upload.Listeners, ch)
	ch <- upload.Progress
	return ch, nil
}

// CancelUpload cancels an in-progress upload.
func (s *Service) CancelUpload(uploadID string) error {
	upload, err := s.get(uploadID)
	if err != nil {
		return err
	}
	upload.Cancel()
	return nil
}

// UploadResult returns the result of an upload, blocking until it finishes
// or ctx ends.
func (s *Service) UploadResult(ctx context.Context, uploadID string) (*UploadResult, error) {
	upload, err := s.get(uploadID)
	if err != nil {
		return nil, err
	}

	select {
	case <-upload.Done:
		return upload.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// UploadProgress returns the current progress without blocking.
func (s *Service) UploadProgress(uploadID string) (UploadProgress, error) {
	upload, err := s.get(uploadID)
	if err != nil {
		return UploadProgress{}, err
	}
	upload.ListenerMu.Lock()
	defer upload.ListenerMu.Unlock()
	return upload.Progress, nil
}

// WaitForUploads blocks until running uploads finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) get(uploadID string) (*activeUpload, error) {
	s.mu.RLock()
	upload, ok := s.uploads[uploadID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	}
	return upload, nil
}

// update applies fn to the progress and sends the new state to all listeners.
func (upload *activeUpload) update(fn func(p *UploadProgress)) {
	upload.ListenerMu.Lock()
	defer upload.ListenerMu.Unlock()

	fn(&upload.Progress)
	for _, ch := range upload.Listeners {
		select {
		case ch <- upload.Progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// closeListeners closes all listener channels.
func (upload *activeUpload) closeListeners() {
	upload.ListenerMu.Lock()
	defer upload.ListenerMu.Unlock()

	for _, ch := range upload.Listeners {
		close(ch)
	}
	upload.Listeners = nil
	upload.finished = true
}

// cleanup removes the upload from tracking after a delay.
func (s *Service) cleanup(uploadID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.uploads, uploadID)
		s.mu.Unlock()
	})
}

func newUploadID() string {
	return uuid.New().String()
}
