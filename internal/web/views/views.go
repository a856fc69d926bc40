// Package views renders the admin HTML pages and HTMX fragments as templ
// components.
package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
)

// htmlWriter accumulates the first write error so components can emit
// markup without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.text(title)
		h.raw(`</title></head><body><main class="container">`)
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// Dashboard lists the courses with their stored metadata.
func Dashboard(courses []core.CourseOverview) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<h1>Vocabulary courses</h1><table class="courses"><thead><tr>`)
		h.raw(`<th>Course</th><th>Type</th><th>Days</th><th>Words</th><th>Last upload</th><th>Updated</th>`)
		h.raw(`</tr></thead><tbody>`)
		for _, c := range courses {
			kind := "Words"
			if c.IsCollocation {
				kind = "Collocations"
			}
			h.rawf(`<tr id="course-%s"><td>`, templ.EscapeString(string(c.ID)))
			h.text(c.Label)
			h.raw(`</td><td>`)
			h.text(kind)
			h.rawf(`</td><td>%d</td><td>%d</td><td>`, c.Stats.TotalDays, c.Stats.WordCount)
			h.text(c.Stats.LastUploadedDay)
			h.raw(`</td><td>`)
			if c.Stats.LastUpdated != nil {
				h.text(c.Stats.LastUpdated.Format("2006-01-02 15:04"))
			}
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table>`)
		return h.err
	})
}

// PreviewFragment shows what an upload would store.
func PreviewFragment(p *core.Preview) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<section class="preview"><h2>`)
		h.text(string(p.Course) + " " + p.DayName)
		h.raw(`</h2>`)
		if p.DayExists {
			h.raw(`<p class="warning">This day already has words. Uploading replaces them.</p>`)
		}
		if len(p.DetectedHeaders) > 0 {
			h.raw(`<p class="headers">Detected columns: `)
			h.text(strings.Join(p.DetectedHeaders, ", "))
			h.raw(`</p>`)
		}

		fields := core.KindStandard.Fields()
		if p.IsCollocation {
			fields = core.KindCollocation.Fields()
		}
		h.raw(`<table class="words"><thead><tr>`)
		for _, f := range fields {
			h.raw(`<th>`)
			h.text(f)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, word := range p.Words {
			h.raw(`<tr>`)
			for _, v := range wordCells(word) {
				h.raw(`<td>`)
				h.text(v)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table>`)
		if n := p.MoreWords(); n > 0 {
			h.rawf(`<p class="more">and %d more words</p>`, n)
		}

		if p.TotalErrors > 0 {
			h.raw(`<ul class="errors">`)
			for _, e := range p.Errors {
				h.raw(`<li>`)
				h.text(e)
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
			if n := p.MoreErrors(); n > 0 {
				h.rawf(`<p class="more">and %d more errors</p>`, n)
			}
		}
		h.raw(`</section>`)
		return h.err
	})
}

// wordCells returns the field values of a word in column order.
func wordCells(w core.Word) []string {
	switch v := w.(type) {
	case core.StandardWord:
		return []string{v.Word, v.Meaning, v.Pronunciation, v.Example, v.Translation}
	case core.CollocationWord:
		return []string{v.Collocation, v.Meaning, v.Explanation, v.Example, v.Translation}
	}
	return nil
}

// UploadHistory renders recent uploads as table rows.
func UploadHistory(records []core.UploadRecord) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		if len(records) == 0 {
			h.raw(`<p class="empty">No uploads yet.</p>`)
			return h.err
		}
		h.raw(`<table class="history"><thead><tr><th>When</th><th>Course</th><th>Day</th>`)
		h.raw(`<th>Source</th><th>Status</th><th>Words</th><th>Errors</th></tr></thead><tbody>`)
		for _, rec := range records {
			h.raw(`<tr><td>`)
			h.text(rec.CreatedAt.Format("2006-01-02 15:04"))
			h.raw(`</td><td>`)
			h.text(string(rec.Course))
			h.raw(`</td><td>`)
			h.text(core.DayName(rec.Day))
			h.raw(`</td><td>`)
			h.text(rec.SourceName)
			h.raw(`</td><td>`)
			h.text(rec.Status)
			h.rawf(`</td><td>%d</td><td>%d</td></tr>`, rec.WordCount, len(rec.Errors))
		}
		h.raw(`</tbody></table>`)
		return h.err
	})
}

// ErrorAlert renders a user-facing error for HTMX requests.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="alert alert-error" role="alert"><p class="message">`)
		h.text(message)
		h.raw(`</p>`)
		if action != "" {
			h.raw(`<p class="action">`)
			h.text(action)
			h.raw(`</p>`)
		}
		h.raw(`<p class="code">Error code: `)
		h.text(code)
		h.raw(`</p></div>`)
		return h.err
	})
}
