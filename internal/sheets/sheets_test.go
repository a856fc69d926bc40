package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    Ref
		wantErr bool
	}{
		{
			name: "edit link",
			url:  "https://docs.google.com/spreadsheets/d/1AbC_d-9/edit",
			want: Ref{ID: "1AbC_d-9"},
		},
		{
			name: "link with gid fragment",
			url:  "https://docs.google.com/spreadsheets/d/abc123/edit#gid=42",
			want: Ref{ID: "abc123", GID: "42"},
		},
		{
			name: "link with gid query",
			url:  "https://docs.google.com/spreadsheets/d/abc123/edit?usp=sharing&gid=7",
			want: Ref{ID: "abc123", GID: "7"},
		},
		{name: "not a sheet", url: "https://example.com/file.csv", wantErr: true},
		{name: "docs without id", url: "https://docs.google.com/document/d/abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Fatalf("error = %v, want ErrInvalidURL", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseURL = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExportURL(t *testing.T) {
	got, err := ExportURL("https://docs.google.com/spreadsheets/d/abc/edit#gid=5")
	if err != nil {
		t.Fatal(err)
	}
	want := "https://docs.google.com/spreadsheets/d/abc/export?format=csv&gid=5"
	if got != want {
		t.Errorf("ExportURL = %q, want %q", got, want)
	}
}

func TestClient_FetchCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/abc/export" || r.URL.Query().Get("format") != "csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("word,meaning\nrun,달리다\n"))
	}))
	defer srv.Close()

	c := NewClient(time.Second, nil, WithExportBase(srv.URL))
	got, err := c.FetchCSV(context.Background(), "https://docs.google.com/spreadsheets/d/abc/edit")
	if err != nil {
		t.Fatalf("FetchCSV: %v", err)
	}
	if got != "word,meaning\nrun,달리다\n" {
		t.Errorf("FetchCSV = %q", got)
	}

	if _, err := c.FetchCSV(context.Background(), "https://docs.google.com/spreadsheets/d/missing/edit"); err == nil || err.Error() != "HTTP 404" {
		t.Errorf("error = %v, want HTTP 404", err)
	}
}

func TestClient_FetchValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
			return
		}
		if r.URL.Path != "/abc/values/Sheet1" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"range":"Sheet1!A1:C3","values":[["word","meaning"],["run","달리다",""],[1,"one"]]}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second, nil, WithAPIBase(srv.URL))
	sheet := "https://docs.google.com/spreadsheets/d/abc/edit"

	rows, err := c.FetchValues(context.Background(), sheet, "good")
	if err != nil {
		t.Fatalf("FetchValues: %v", err)
	}
	if len(rows) != 3 || rows[1][1] != "달리다" || len(rows[1]) != 3 || rows[2][0] != "1" {
		t.Errorf("rows = %q", rows)
	}

	_, err = c.FetchValues(context.Background(), sheet, "bad")
	if err == nil || err.Error() != "The caller does not have permission" {
		t.Errorf("error = %v, want API message", err)
	}

	if _, err := c.FetchValues(context.Background(), sheet, ""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("error = %v, want ErrMissingToken", err)
	}
}

func TestClient_FetchValues_StatusFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c := NewClient(time.Second, nil, WithAPIBase(srv.URL))
	_, err := c.FetchValues(context.Background(), "https://docs.google.com/spreadsheets/d/abc", "tok")
	if err == nil || err.Error() != "HTTP 500" {
		t.Errorf("error = %v, want HTTP 500", err)
	}
}
