// Package fetcher retrieves the raw accident table and parses it into records.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"accidentes/internal/config"
	"accidentes/internal/models"
)

// Fetcher downloads (or reads) the source table. It makes exactly one attempt.
type Fetcher struct {
	client   *http.Client
	source   config.SourceConfig
	maxBytes int64
}

// Metrics describes a completed fetch.
type Metrics struct {
	Bytes      int64
	StatusCode int
	Duration   time.Duration
}

// New creates a fetcher with a client bounded by the source timeout.
func New(source config.SourceConfig) *Fetcher {
	return NewWithClient(source, &http.Client{Timeout: source.GetTimeout()})
}

// NewWithClient creates a fetcher using the given HTTP client.
func NewWithClient(source config.SourceConfig, client *http.Client) *Fetcher {
	return &Fetcher{
		client:   client,
		source:   source,
		maxBytes: source.MaxBytes(),
	}
}

// Fetch retrieves, decodes and parses the source table.
func (f *Fetcher) Fetch(ctx context.Context) (*models.RawTable, Metrics, error) {
	body, metrics, err := f.FetchBytes(ctx)
	if err != nil {
		return nil, metrics, err
	}

	text, err := Decode(body)
	if err != nil {
		return nil, metrics, err
	}

	table, err := Parse(text)
	if err != nil {
		return nil, metrics, err
	}

	return table, metrics, nil
}

// FetchBytes returns the raw source bytes.
func (f *Fetcher) FetchBytes(ctx context.Context) ([]byte, Metrics, error) {
	if f.source.IsLocalFile() {
		return f.readLocalFile()
	}

	return f.get(ctx)
}

func (f *Fetcher) get(ctx context.Context) ([]byte, Metrics, error) {
	var metrics Metrics

	url := f.source.URL
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, metrics, &FetchError{Source: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	if f.source.UserAgent != "" {
		req.Header.Set("User-Agent", f.source.UserAgent)
	}

	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.Duration = time.Since(startTime)

		return nil, metrics, &FetchError{Source: url, Err: err}
	}
	defer resp.Body.Close()

	metrics.StatusCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.Duration = time.Since(startTime)

		return nil, metrics, &FetchError{Source: url, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatusCode}
	}

	// One extra byte distinguishes "exactly at the limit" from "over it".
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	metrics.Duration = time.Since(startTime)
	metrics.Bytes = int64(len(body))

	if err != nil {
		return nil, metrics, &FetchError{Source: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if metrics.Bytes > f.maxBytes {
		return nil, metrics, &FetchError{Source: url, StatusCode: resp.StatusCode, Err: ErrResponseTooLarge}
	}

	return body, metrics, nil
}

func (f *Fetcher) readLocalFile() ([]byte, Metrics, error) {
	var metrics Metrics

	path := f.source.File
	startTime := time.Now()

	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, metrics, &FetchError{Source: path, Err: err}
	}

	if fileInfo.Size() > f.maxBytes {
		return nil, metrics, &FetchError{Source: path, Err: ErrResponseTooLarge}
	}

	body, err := os.ReadFile(path)
	metrics.Duration = time.Since(startTime)

	if err != nil {
		return nil, metrics, &FetchError{Source: path, Err: err}
	}

	metrics.Bytes = int64(len(body))

	return body, metrics, nil
}
