package core

import "context"

// Default preview sizes.
const (
	DefaultPreviewRows   = 10
	DefaultPreviewErrors = 5
)

// Preview summarizes a parse before anything is written, so an admin can
// review detected headers, sample words and errors.
type Preview struct {
	Course          CourseID `json:"course"`
	Day             int      `json:"day"`
	DayName         string   `json:"dayName"`
	IsCollocation   bool     `json:"isCollocation"`
	DetectedHeaders []string `json:"detectedHeaders"`
	Words           []Word   `json:"words"`
	TotalWords      int      `json:"totalWords"`
	Errors          []string `json:"errors"`
	TotalErrors     int      `json:"totalErrors"`
	// DayExists is true when an upload would overwrite stored words.
	DayExists bool `json:"dayExists"`
}

// MoreWords returns how many parsed words are not shown.
func (p *Preview) MoreWords() int {
	return p.TotalWords - len(p.Words)
}

// MoreErrors returns how many errors are not shown.
func (p *Preview) MoreErrors() int {
	return p.TotalErrors - len(p.Errors)
}

// Preview parses src for the given course day without persisting it.
func (s *Service) Preview(ctx context.Context, src Source, courseID string, day int) (*Preview, error) {
	c, err := LookupCourse(courseID)
	if err != nil {
		return nil, err
	}

	res, _, err := s.Parse(ctx, src, string(c.ID))
	if err != nil {
		return nil, err
	}

	exists, err := s.store.DayExists(ctx, c.ID, day)
	if err != nil {
		return nil, err
	}

	return BuildPreview(res, c.ID, day, exists, s.cfg.PreviewRows, s.cfg.PreviewErrors), nil
}

// BuildPreview trims a parse result to the preview sizes.
func BuildPreview(res ParseResult, course CourseID, day int, exists bool, maxWords, maxErrors int) *Preview {
	return &Preview{
		Course:          course,
		Day:             day,
		DayName:         DayName(day),
		IsCollocation:   res.IsCollocation,
		DetectedHeaders: res.DetectedHeaders,
		Words:           head(res.Words, maxWords),
		TotalWords:      len(res.Words),
		Errors:          head(res.Errors, maxErrors),
		TotalErrors:     len(res.Errors),
		DayExists:       exists,
	}
}

func head[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
