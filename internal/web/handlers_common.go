package web

// Shared request helpers used across handlers.

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
)

var (
	errNoSource    = errors.New("no file provided")
	errInvalidForm = errors.New("file too large or invalid form")
)

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// formBool reads a boolean form field, returning def when absent or invalid.
func formBool(r *http.Request, name string, def bool) bool {
	v := r.FormValue(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// dayParam parses the {day} path segment, "Day7" or "7".
func dayParam(r *http.Request) (int, error) {
	return core.ParseDayName(chi.URLParam(r, "day"))
}

// readSource extracts the upload source from a form: a multipart "file",
// pasted "text", or a spreadsheet "url" with an optional API "token".
// The request body is limited to maxSize bytes.
func readSource(w http.ResponseWriter, r *http.Request, maxSize int64) (core.Source, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return core.Source{}, fmt.Errorf("%w: %w", errInvalidForm, err)
		}
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return core.Source{}, fmt.Errorf("%w: %v", core.ErrUnreadableInput, err)
			}
			return core.Source{Kind: core.SourceFile, Name: header.Filename, Data: data}, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return core.Source{}, fmt.Errorf("%w: %v", core.ErrUnreadableInput, err)
		}
	} else if err := r.ParseForm(); err != nil {
		return core.Source{}, fmt.Errorf("%w: %w", errInvalidForm, err)
	}

	if text := r.FormValue("text"); text != "" {
		return core.Source{Kind: core.SourceText, Name: "pasted text", Data: []byte(text)}, nil
	}
	if url := strings.TrimSpace(r.FormValue("url")); url != "" {
		src := core.Source{Kind: core.SourceSheet, Name: url, URL: url}
		if token := r.FormValue("token"); token != "" {
			src.Kind = core.SourceSheetAPI
			src.Token = token
		}
		return src, nil
	}
	return core.Source{}, errNoSource
}
