package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
)

// DefaultBatchSize is the number of words written per INSERT statement.
const DefaultBatchSize = 499

// DefaultHistoryLimit caps ListUploads when no limit is given.
const DefaultHistoryLimit = 50

const (
	tableCourses = "courses"
	tableWords   = "words"
	tableUploads = "uploads"
)

var wordColumns = []string{
	"course_id", "day", "position", "kind", "headword", "meaning",
	"pronunciation", "explanation", "example", "translation", "extra",
}

var uploadColumns = []string{
	"id", "course_id", "day", "source_kind", "source_name", "status",
	"is_collocation", "detected_headers", "errors", "word_count",
	"client_ip", "user_agent", "created_at",
}

// Store implements core.Store on PostgreSQL.
type Store struct {
	pool      *pgxpool.Pool
	tx        *TxManager
	sb        sq.StatementBuilderType
	batchSize int
	now       func() time.Time
}

var _ core.Store = (*Store)(nil)

// NewStore creates a store. batchSize <= 0 uses DefaultBatchSize.
func NewStore(pool *pgxpool.Pool, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Store{
		pool:      pool,
		tx:        NewTxManager(pool),
		sb:        sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		batchSize: batchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) q(ctx context.Context) Querier {
	return QuerierFromCtx(ctx, s.pool)
}

// exec builds and runs a statement, returning the affected row count.
func (s *Store) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	tag, err := s.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) query(ctx context.Context, b sq.Sqlizer) (pgx.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.q(ctx).Query(ctx, query, args...)
}

// ---------------------------------------------------------------------------
// Days
// ---------------------------------------------------------------------------

// ReplaceDay deletes the day's words, inserts words in order in batches and
// updates the course metadata, in one transaction. total_days only grows.
func (s *Store) ReplaceDay(ctx context.Context, course core.CourseID, day int, words []core.Word) (int, error) {
	key := fmt.Sprintf("%s/%s", course, core.DayName(day))
	inserted := 0

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		lock := s.sb.Select("id").From(tableCourses).
			Where(sq.Eq{"id": string(course)}).Suffix("FOR UPDATE")
		query, args, err := lock.ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		var id string
		if err := s.q(ctx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return mapError(err, "course", string(course))
		}

		if _, err := s.exec(ctx, s.sb.Delete(tableWords).
			Where(sq.Eq{"course_id": string(course), "day": day})); err != nil {
			return mapError(err, "day", key)
		}

		for start := 0; start < len(words); start += s.batchSize {
			end := min(start+s.batchSize, len(words))
			insert := s.sb.Insert(tableWords).Columns(wordColumns...)
			for i, w := range words[start:end] {
				row, err := wordRow(course, day, start+i, w)
				if err != nil {
					return err
				}
				insert = insert.Values(row...)
			}
			n, err := s.exec(ctx, insert)
			if err != nil {
				return mapError(err, "day", key)
			}
			inserted += int(n)
		}

		update := s.sb.Update(tableCourses).
			Set("last_uploaded_day_id", core.DayName(day)).
			Set("last_updated", s.now()).
			Set("total_days", sq.Expr("GREATEST(total_days, ?)", day)).
			Where(sq.Eq{"id": string(course)})
		if _, err := s.exec(ctx, update); err != nil {
			return mapError(err, "course", string(course))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// wordRow flattens a word into wordColumns order.
func wordRow(course core.CourseID, day, position int, w core.Word) ([]any, error) {
	var (
		extra map[string]string
		row   []any
	)
	switch v := w.(type) {
	case core.StandardWord:
		extra = v.Extra
		row = []any{string(course), day, position, core.KindStandard.String(), v.Word, v.Meaning,
			v.Pronunciation, "", v.Example, v.Translation}
	case core.CollocationWord:
		extra = v.Extra
		row = []any{string(course), day, position, core.KindCollocation.String(), v.Collocation, v.Meaning,
			"", v.Explanation, v.Example, v.Translation}
	default:
		return nil, fmt.Errorf("%w: unsupported word type %T", ErrInvalidData, w)
	}

	var raw []byte
	if len(extra) > 0 {
		b, err := json.Marshal(extra)
		if err != nil {
			return nil, fmt.Errorf("marshal extra: %w", err)
		}
		raw = b
	}
	return append(row, raw), nil
}

// DayExists reports whether any word is stored for the day.
func (s *Store) DayExists(ctx context.Context, course core.CourseID, day int) (bool, error) {
	inner := s.sb.Select("1").From(tableWords).
		Where(sq.Eq{"course_id": string(course), "day": day})
	query, args, err := inner.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists bool
	if err := s.q(ctx).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, mapError(err, "day", fmt.Sprintf("%s/%s", course, core.DayName(day)))
	}
	return exists, nil
}

// DayWords returns the day's words in upload order.
func (s *Store) DayWords(ctx context.Context, course core.CourseID, day int) ([]core.Word, error) {
	rows, err := s.query(ctx, s.sb.
		Select("kind", "headword", "meaning", "pronunciation", "explanation", "example", "translation", "extra").
		From(tableWords).
		Where(sq.Eq{"course_id": string(course), "day": day}).
		OrderBy("position"))
	if err != nil {
		return nil, mapError(err, "day", core.DayName(day))
	}
	defer rows.Close()

	words := []core.Word{}
	for rows.Next() {
		var (
			kind, headword, meaning, pron, expl, example, translation string
			raw                                                       []byte
		)
		if err := rows.Scan(&kind, &headword, &meaning, &pron, &expl, &example, &translation, &raw); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		var extra map[string]string
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &extra); err != nil {
				return nil, fmt.Errorf("unmarshal extra of %q: %w", headword, err)
			}
		}

		if kind == core.KindCollocation.String() {
			words = append(words, core.CollocationWord{
				Collocation: headword, Meaning: meaning, Explanation: expl,
				Example: example, Translation: translation, Extra: extra,
			})
			continue
		}
		words = append(words, core.StandardWord{
			Word: headword, Meaning: meaning, Pronunciation: pron,
			Example: example, Translation: translation, Extra: extra,
		})
	}
	return words, rows.Err()
}

// ListDays returns the stored days of a course with their word counts.
func (s *Store) ListDays(ctx context.Context, course core.CourseID) ([]core.DaySummary, error) {
	rows, err := s.query(ctx, s.sb.
		Select("day", "COUNT(*)").
		From(tableWords).
		Where(sq.Eq{"course_id": string(course)}).
		GroupBy("day").
		OrderBy("day"))
	if err != nil {
		return nil, mapError(err, "course", string(course))
	}
	defer rows.Close()

	days := []core.DaySummary{}
	for rows.Next() {
		var (
			day   int
			count int64
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, core.DaySummary{Day: day, Name: core.DayName(day), WordCount: int(count)})
	}
	return days, rows.Err()
}

// CourseStats returns the metadata row of every course.
func (s *Store) CourseStats(ctx context.Context) ([]core.CourseStats, error) {
	rows, err := s.query(ctx, s.sb.
		Select("c.id", "c.total_days", "c.last_uploaded_day_id", "c.last_updated", "COUNT(w.position)").
		From(tableCourses+" c").
		LeftJoin(tableWords+" w ON w.course_id = c.id").
		GroupBy("c.id").
		OrderBy("c.id"))
	if err != nil {
		return nil, mapError(err, "course", "stats")
	}
	defer rows.Close()

	var stats []core.CourseStats
	for rows.Next() {
		var (
			st      core.CourseStats
			id      string
			lastDay *string
			count   int64
		)
		if err := rows.Scan(&id, &st.TotalDays, &lastDay, &st.LastUpdated, &count); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		st.Course = core.CourseID(id)
		st.WordCount = int(count)
		if lastDay != nil {
			st.LastUploadedDay = *lastDay
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// ---------------------------------------------------------------------------
// Upload history
// ---------------------------------------------------------------------------

// RecordUpload appends an upload history entry, including the source backup.
func (s *Store) RecordUpload(ctx context.Context, rec core.UploadRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	insert := s.sb.Insert(tableUploads).
		Columns(append(uploadColumns, "source")...).
		Values(rec.ID, string(rec.Course), rec.Day, string(rec.SourceKind), rec.SourceName, rec.Status,
			rec.IsCollocation, nonNil(rec.DetectedHeaders), nonNil(rec.Errors), rec.WordCount,
			rec.ClientIP, rec.UserAgent, createdAt, rec.Source)

	if _, err := s.exec(ctx, insert); err != nil {
		return mapError(err, "upload", rec.ID)
	}
	return nil
}

// ListUploads returns history entries newest first, without source content.
// An empty course lists every course.
func (s *Store) ListUploads(ctx context.Context, course core.CourseID, limit int) ([]core.UploadRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	b := s.sb.Select(uploadColumns...).From(tableUploads).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	if course != "" {
		b = b.Where(sq.Eq{"course_id": string(course)})
	}

	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, mapError(err, "uploads", string(course))
	}
	defer rows.Close()

	records := []core.UploadRecord{}
	for rows.Next() {
		var (
			rec          core.UploadRecord
			id, courseID string
			kind         string
		)
		if err := rows.Scan(&id, &courseID, &rec.Day, &kind, &rec.SourceName, &rec.Status,
			&rec.IsCollocation, &rec.DetectedHeaders, &rec.Errors, &rec.WordCount,
			&rec.ClientIP, &rec.UserAgent, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		rec.ID = id
		rec.Course = core.CourseID(courseID)
		rec.SourceKind = core.SourceKind(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UploadSource returns the stored source content of one upload.
func (s *Store) UploadSource(ctx context.Context, id string) ([]byte, error) {
	query, args, err := s.sb.Select("source").From(tableUploads).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var src []byte
	if err := s.q(ctx).QueryRow(ctx, query, args...).Scan(&src); err != nil {
		err = mapError(err, "upload", id)
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", core.ErrUploadNotFound, err)
		}
		return nil, err
	}
	return src, nil
}

// PurgeUploads deletes history entries created before the cutoff.
func (s *Store) PurgeUploads(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.exec(ctx, s.sb.Delete(tableUploads).Where(sq.Lt{"created_at": before}))
	if err != nil {
		return 0, mapError(err, "uploads", "purge")
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
