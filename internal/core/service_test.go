package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// ============================================================================
// Test doubles
// ============================================================================

type memStore struct {
	mu      sync.Mutex
	days    map[CourseID]map[int][]Word
	uploads []UploadRecord
	failOn  error
	block   chan struct{}
}

func newMemStore() *memStore {
	return &memStore{days: make(map[CourseID]map[int][]Word)}
}

func (m *memStore) ReplaceDay(ctx context.Context, course CourseID, day int, words []Word) (int, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if m.failOn != nil {
		return 0, m.failOn
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.days[course] == nil {
		m.days[course] = make(map[int][]Word)
	}
	m.days[course][day] = words
	return len(words), nil
}

func (m *memStore) DayExists(_ context.Context, course CourseID, day int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.days[course][day]) > 0, nil
}

func (m *memStore) DayWords(_ context.Context, course CourseID, day int) ([]Word, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.days[course][day], nil
}

func (m *memStore) ListDays(_ context.Context, course CourseID) ([]DaySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DaySummary
	for d, ws := range m.days[course] {
		out = append(out, DaySummary{Day: d, Name: DayName(d), WordCount: len(ws)})
	}
	return out, nil
}

func (m *memStore) CourseStats(context.Context) ([]CourseStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CourseStats
	for c, days := range m.days {
		st := CourseStats{Course: c}
		for d, ws := range days {
			st.WordCount += len(ws)
			if d > st.TotalDays {
				st.TotalDays = d
			}
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *memStore) RecordUpload(_ context.Context, rec UploadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, rec)
	return nil
}

func (m *memStore) ListUploads(_ context.Context, course CourseID, _ int) ([]UploadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []UploadRecord
	for _, u := range m.uploads {
		if course == "" || u.Course == course {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) UploadSource(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.uploads {
		if u.ID == id {
			return u.Source, nil
		}
	}
	return nil, ErrUploadNotFound
}

func (m *memStore) PurgeUploads(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.uploads[:0]
	var n int64
	for _, u := range m.uploads {
		if u.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, u)
	}
	m.uploads = kept
	return n, nil
}

type stubPronouncer struct{}

func (stubPronouncer) FillPronunciations(_ context.Context, words []StandardWord) []StandardWord {
	out := make([]StandardWord, len(words))
	for i, w := range words {
		if w.Pronunciation == "" && !strings.Contains(w.Word, " ") {
			w.Pronunciation = "/" + w.Word + "/"
		}
		out[i] = w
	}
	return out
}

type stubEnricher struct{}

func (stubEnricher) Enrich(_ context.Context, words []StandardWord) []StandardWord {
	out := make([]StandardWord, len(words))
	for i, w := range words {
		if w.Example == "" {
			w.Example = "Example of " + w.Word + "."
		}
		out[i] = w
	}
	return out
}

type stubSheets struct {
	csv  string
	rows [][]string
	err  error
}

func (s stubSheets) FetchCSV(context.Context, string) (string, error) { return s.csv, s.err }
func (s stubSheets) FetchValues(context.Context, string, string) ([][]string, error) {
	return s.rows, s.err
}

func newTestService(t *testing.T, store *memStore, deps Deps) *Service {
	t.Helper()
	deps.Store = store
	svc, err := NewService(ServiceConfig{MaxWait: time.Second}, deps)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func csvSource(text string) Source {
	return Source{Kind: SourceFile, Name: "words.csv", Data: []byte(text)}
}

func waitResult(t *testing.T, svc *Service, id string) *UploadResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := svc.UploadResult(ctx, id)
	if err != nil {
		t.Fatalf("UploadResult: %v", err)
	}
	return res
}

// ============================================================================
// Upload Tests
// ============================================================================

func TestService_UploadReplacesDay(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, Deps{})

	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")
	id, err := svc.StartUpload(ctx, UploadRequest{
		Course: "csat",
		Day:    3,
		Source: csvSource("word,meaning\nrun,달리다\n,빈칸\nwalk,걷다\n"),
	})
	if err != nil {
		t.Fatalf("StartUpload: %v", err)
	}

	res := waitResult(t, svc, id)
	if res.Phase != PhaseComplete {
		t.Fatalf("Phase = %s (%s), want complete", res.Phase, res.Error)
	}
	if res.Inserted != 2 || len(res.Errors) != 1 {
		t.Errorf("Inserted = %d, Errors = %v", res.Inserted, res.Errors)
	}

	words, _ := svc.DayWords(context.Background(), "CSAT", 3)
	if len(words) != 2 || words[0].Headword() != "run" {
		t.Errorf("stored words = %v", words)
	}

	if len(store.uploads) != 1 {
		t.Fatalf("upload history = %d entries, want 1", len(store.uploads))
	}
	rec := store.uploads[0]
	if rec.ClientIP != "10.0.0.7" || string(rec.Source) == "" || rec.Status != string(PhaseComplete) {
		t.Errorf("history record = %+v", rec)
	}
}

func TestService_CollocationCourseForcesKind(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, Deps{})

	id, err := svc.StartUpload(context.Background(), UploadRequest{
		Course: string(CourseCollocations),
		Day:    1,
		Source: csvSource("break the ice,분위기를 깨다,relationship\n"),
	})
	if err != nil {
		t.Fatalf("StartUpload: %v", err)
	}

	res := waitResult(t, svc, id)
	if !res.IsCollocation || res.Inserted != 1 {
		t.Fatalf("result = %+v", res)
	}
	cw, ok := store.days[CourseCollocations][1][0].(CollocationWord)
	if !ok || cw.Explanation != "relationship" {
		t.Errorf("stored = %#v", store.days[CourseCollocations][1][0])
	}
}

func TestService_PronounceAndEnrich(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, Deps{Pronouncer: stubPronouncer{}, Enricher: stubEnricher{}})

	id, err := svc.StartUpload(context.Background(), UploadRequest{
		Course:    "TOEIC",
		Day:       2,
		Source:    csvSource("word,meaning,pronunciation\nrun,달리다,\nlook up,찾아보다,\nswim,수영하다,swɪm\n"),
		Pronounce: true,
		Enrich:    true,
	})
	if err != nil {
		t.Fatalf("StartUpload: %v", err)
	}

	res := waitResult(t, svc, id)
	if res.Pronounced != 1 || res.Enriched != 3 {
		t.Errorf("Pronounced = %d, Enriched = %d", res.Pronounced, res.Enriched)
	}
	first := store.days[CourseTOEIC][2][0].(StandardWord)
	if first.Pronunciation != "/run/" || first.Example != "Example of run." {
		t.Errorf("first word = %+v", first)
	}
}

func TestService_ConflictPolicies(t *testing.T) {
	tests := []struct {
		policy    ConflictPolicy
		wantPhase UploadPhase
		wantWord  string
	}{
		{policy: ConflictOverwrite, wantPhase: PhaseComplete, wantWord: "new"},
		{policy: ConflictSkip, wantPhase: PhaseSkipped, wantWord: "old"},
		{policy: ConflictFail, wantPhase: PhaseFailed, wantWord: "old"},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			store := newMemStore()
			store.days[CourseIELTS] = map[int][]Word{5: {StandardWord{Word: "old", Meaning: "x"}}}
			svc := newTestService(t, store, Deps{})

			id, err := svc.StartUpload(context.Background(), UploadRequest{
				Course:   "IELTS",
				Day:      5,
				Source:   csvSource("new,새로운\n"),
				Conflict: tt.policy,
			})
			if err != nil {
				t.Fatalf("StartUpload: %v", err)
			}

			res := waitResult(t, svc, id)
			if res.Phase != tt.wantPhase {
				t.Errorf("Phase = %s, want %s", res.Phase, tt.wantPhase)
			}
			if got := store.days[CourseIELTS][5][0].Headword(); got != tt.wantWord {
				t.Errorf("stored word = %q, want %q", got, tt.wantWord)
			}
		})
	}
}

func TestService_NoValidRows(t *testing.T) {
	svc := newTestService(t, newMemStore(), Deps{})

	id, err := svc.StartUpload(context.Background(), UploadRequest{
		Course: "CSAT", Day: 1, Source: csvSource("word,meaning\nrun,\n"),
	})
	if err != nil {
		t.Fatalf("StartUpload: %v", err)
	}

	res := waitResult(t, svc, id)
	if res.Phase != PhaseFailed || res.Error != ErrNoValidRows.Error() {
		t.Errorf("result = %+v", res)
	}
	want := "No rows passed validation (Code: VAL002). Every row needs a word (or collocation) and a meaning"
	if res.Message != want {
		t.Errorf("Message = %q, want %q", res.Message, want)
	}
}

func TestService_StartUploadValidation(t *testing.T) {
	svc := newTestService(t, newMemStore(), Deps{})
	ctx := context.Background()

	if _, err := svc.StartUpload(ctx, UploadRequest{Course: "GRE", Day: 1}); !errors.Is(err, ErrUnknownCourse) {
		t.Errorf("unknown course error = %v", err)
	}
	if _, err := svc.StartUpload(ctx, UploadRequest{Course: "CSAT", Day: 0}); !errors.Is(err, ErrInvalidDayName) {
		t.Errorf("day 0 error = %v", err)
	}
	if _, err := svc.StartUpload(ctx, UploadRequest{Course: "CSAT", Day: 1, Conflict: "merge"}); err == nil {
		t.Error("expected invalid conflict policy error")
	}
}

func TestService_CancelUpload(t *testing.T) {
	store := newMemStore()
	store.block = make(chan struct{})
	svc := newTestService(t, store, Deps{})

	id, err := svc.StartUpload(context.Background(), UploadRequest{
		Course: "CSAT", Day: 1, Source: csvSource("run,달리다\n"),
	})
	if err != nil {
		t.Fatalf("StartUpload: %v", err)
	}

	progress, err := svc.SubscribeProgress(id)
	if err != nil {
		t.Fatalf("SubscribeProgress: %v", err)
	}
	for p := range progress {
		if p.Phase == PhaseWriting {
			break
		}
	}

	if err := svc.CancelUpload(id); err != nil {
		t.Fatalf("CancelUpload: %v", err)
	}
	res := waitResult(t, svc, id)
	if res.Phase != PhaseCancelled {
		t.Errorf("Phase = %s, want cancelled", res.Phase)
	}
}

func TestService_SubscribeAfterFinish(t *testing.T) {
	svc := newTestService(t, newMemStore(), Deps{})
	id, err := svc.StartUpload(context.Background(), UploadRequest{
		Course: "CSAT", Day: 1, Source: csvSource("run,달리다\n"),
	})
	if err != nil {
		t.Fatalf("StartUpload: %v", err)
	}
	waitResult(t, svc, id)

	ch, err := svc.SubscribeProgress(id)
	if err != nil {
		t.Fatalf("SubscribeProgress: %v", err)
	}
	var last UploadProgress
	for p := range ch {
		last = p
	}
	if last.Phase != PhaseComplete {
		t.Errorf("last phase = %s, want complete", last.Phase)
	}
}

func TestService_UnknownUpload(t *testing.T) {
	svc := newTestService(t, newMemStore(), Deps{})
	if _, err := svc.SubscribeProgress("nope"); !errors.Is(err, ErrUploadNotFound) {
		t.Errorf("error = %v, want ErrUploadNotFound", err)
	}
}

// ============================================================================
// Parse / Preview Tests
// ============================================================================

func TestService_ParseSources(t *testing.T) {
	sheets := stubSheets{
		csv:  "word,meaning\nrun,달리다\n",
		rows: [][]string{{"", "walk", "걷다"}},
	}
	svc := newTestService(t, newMemStore(), Deps{Sheets: sheets})
	ctx := context.Background()

	tests := []struct {
		name     string
		src      Source
		wantWord string
	}{
		{name: "pasted text", src: Source{Kind: SourceText, Data: []byte("jump\t뛰다\n")}, wantWord: "jump"},
		{name: "sheet export", src: Source{Kind: SourceSheet, URL: "https://docs.google.com/spreadsheets/d/abc"}, wantWord: "run"},
		{name: "sheet values", src: Source{Kind: SourceSheetAPI, URL: "https://docs.google.com/spreadsheets/d/abc"}, wantWord: "walk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, backup, err := svc.Parse(ctx, tt.src, "")
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(res.Words) != 1 || res.Words[0].Headword() != tt.wantWord {
				t.Errorf("Words = %v, want %s", res.Words, tt.wantWord)
			}
			if len(backup) == 0 {
				t.Error("backup content is empty")
			}
		})
	}
}

func TestService_ParseWithoutSheets(t *testing.T) {
	svc := newTestService(t, newMemStore(), Deps{})
	_, _, err := svc.Parse(context.Background(), Source{Kind: SourceSheet, URL: "x"}, "")
	if !errors.Is(err, ErrSheetsNotConfigured) {
		t.Errorf("error = %v, want ErrSheetsNotConfigured", err)
	}
}

func TestService_Preview(t *testing.T) {
	store := newMemStore()
	store.days[CourseCSAT] = map[int][]Word{1: {StandardWord{Word: "old", Meaning: "x"}}}
	svc := newTestService(t, store, Deps{})

	var b strings.Builder
	b.WriteString("word,meaning\n")
	for i := 0; i < 12; i++ {
		b.WriteString("w,m\n")
	}
	for i := 0; i < 7; i++ {
		b.WriteString(",m\n")
	}

	p, err := svc.Preview(context.Background(), csvSource(b.String()), "csat", 1)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(p.Words) != DefaultPreviewRows || p.TotalWords != 12 || p.MoreWords() != 2 {
		t.Errorf("words shown %d of %d", len(p.Words), p.TotalWords)
	}
	if len(p.Errors) != DefaultPreviewErrors || p.TotalErrors != 7 || p.MoreErrors() != 2 {
		t.Errorf("errors shown %d of %d", len(p.Errors), p.TotalErrors)
	}
	if !p.DayExists || p.DayName != "Day1" {
		t.Errorf("DayExists = %v, DayName = %s", p.DayExists, p.DayName)
	}
}

func TestService_Courses(t *testing.T) {
	store := newMemStore()
	store.days[CourseTOEFL] = map[int][]Word{4: {StandardWord{Word: "a", Meaning: "b"}}}
	svc := newTestService(t, store, Deps{})

	got, err := svc.Courses(context.Background())
	if err != nil {
		t.Fatalf("Courses: %v", err)
	}
	if len(got) != CourseCount() {
		t.Fatalf("len = %d, want %d", len(got), CourseCount())
	}
	for _, c := range got {
		if c.ID == CourseTOEFL && c.Stats.TotalDays != 4 {
			t.Errorf("TOEFL TotalDays = %d, want 4", c.Stats.TotalDays)
		}
	}
}

func TestService_PurgeHistory(t *testing.T) {
	store := newMemStore()
	now := time.Now()
	store.uploads = []UploadRecord{
		{ID: "old", Course: CourseCSAT, CreatedAt: now.Add(-100 * 24 * time.Hour)},
		{ID: "new", Course: CourseCSAT, CreatedAt: now.Add(-time.Hour)},
	}
	svc := newTestService(t, store, Deps{})

	n, err := svc.PurgeHistory(context.Background(), 90*24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeHistory: %v", err)
	}
	if n != 1 || len(store.uploads) != 1 || store.uploads[0].ID != "new" {
		t.Errorf("purged %d, remaining %v", n, store.uploads)
	}
}
