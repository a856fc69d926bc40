// Package enrich fills optional word fields from external services: IPA
// pronunciations from a free dictionary API and example sentences and
// Korean translations from an OpenAI chat model.
//
// Both are best effort. A failed lookup leaves the word as it was and never
// fails the upload.
package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
)

const (
	defaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
	retryDelay           = 500 * time.Millisecond
)

// IPA holds US and UK transcriptions of one word. When only one accent is
// known both fields carry it.
type IPA struct {
	US string `json:"us"`
	UK string `json:"uk"`
}

// DictionaryClient looks up pronunciations.
type DictionaryClient struct {
	baseURL     string
	httpClient  *http.Client
	concurrency int
	log         *slog.Logger
}

var _ core.Pronouncer = (*DictionaryClient)(nil)

// NewDictionaryClient creates a client. An empty baseURL uses the public
// dictionary API; concurrency bounds parallel lookups.
func NewDictionaryClient(baseURL string, timeout time.Duration, concurrency int, logger *slog.Logger) *DictionaryClient {
	if baseURL == "" {
		baseURL = defaultDictionaryURL
	}
	if concurrency <= 0 {
		concurrency = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DictionaryClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		concurrency: concurrency,
		log:         logger.With("adapter", "dictionary"),
	}
}

// LookupIPA returns the transcriptions of word. ok is false when the word is
// unknown or has no phonetic text.
func (c *DictionaryClient) LookupIPA(ctx context.Context, word string) (IPA, bool, error) {
	reqURL := c.baseURL + "/" + url.PathEscape(word)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return IPA{}, false, fmt.Errorf("dictionary: create request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, req, word)
	if err != nil {
		return IPA{}, false, fmt.Errorf("dictionary: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return IPA{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return IPA{}, false, fmt.Errorf("dictionary: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return IPA{}, false, fmt.Errorf("dictionary: read body: %w", err)
	}

	ipa, ok := parsePhonetics(body)
	return ipa, ok, nil
}

// parsePhonetics picks US and UK text from the first entry's phonetics by
// the audio file suffix. Text without a recognizable accent fills US when
// nothing better was seen.
func parsePhonetics(body []byte) (IPA, bool) {
	var us, uk string
	gjson.GetBytes(body, "0.phonetics").ForEach(func(_, p gjson.Result) bool {
		text := p.Get("text").String()
		if text == "" {
			return true
		}
		audio := p.Get("audio").String()
		switch {
		case strings.Contains(audio, "-us"):
			us = text
		case strings.Contains(audio, "-uk"):
			uk = text
		case us == "":
			us = text
		}
		return true
	})

	if us == "" && uk == "" {
		return IPA{}, false
	}
	if us == "" {
		us = uk
	}
	if uk == "" {
		uk = us
	}
	return IPA{US: us, UK: uk}, true
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
func (c *DictionaryClient) doWithRetry(ctx context.Context, req *http.Request, word string) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry || ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
		resp.Body.Close()
	}
	c.log.WarnContext(ctx, "dictionary retry", "word", word, "reason", reason)

	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.httpClient.Do(req)
}

// NeedsPronunciation reports whether a word gets an IPA lookup: single
// words with an empty pronunciation.
func NeedsPronunciation(w core.StandardWord) bool {
	word := strings.TrimSpace(w.Word)
	return w.Pronunciation == "" && word != "" && !strings.ContainsAny(word, " \t")
}

// FillPronunciations sets the US transcription on every word that needs
// one. The input slice is not modified.
func (c *DictionaryClient) FillPronunciations(ctx context.Context, words []core.StandardWord) []core.StandardWord {
	out := make([]core.StandardWord, len(words))
	copy(out, words)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range out {
		if !NeedsPronunciation(out[i]) {
			continue
		}
		g.Go(func() error {
			ipa, ok, err := c.LookupIPA(gctx, strings.TrimSpace(out[i].Word))
			if err != nil {
				c.log.DebugContext(gctx, "ipa lookup failed", "word", out[i].Word, "error", err)
				return nil
			}
			if ok {
				out[i].Pronunciation = ipa.US
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
