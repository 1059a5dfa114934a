package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/target/launchlens/internal/errors"
)

// Format identifies how a source document is encoded.
type Format string

const (
	// FormatAuto infers the format from the location or response content type.
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DefaultMaxBytes bounds how much of a source document is read.
const DefaultMaxBytes int64 = 64 << 20

// Source describes where a dataset lives.
type Source struct {
	// Location is a local path or an http(s) URL.
	Location string
	Format   Format
	// Selector is an optional JMESPath expression applied to JSON documents.
	Selector string
}

func (s Source) String() string { return s.Location }

// IsRemote reports whether the source is fetched over HTTP.
func (s Source) IsRemote() bool {
	u, err := url.Parse(s.Location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	HTTPClient *http.Client
	MaxBytes   int64
	Logger     *slog.Logger
}

// Loader reads launch datasets from files or URLs.
type Loader struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// NewLoader constructs a Loader with sensible defaults for unset options.
func NewLoader(opts LoaderOptions) *Loader {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{client: client, maxBytes: maxBytes, logger: logger.With("component", "ingest")}
}

// Load reads and parses src. CSV datasets are normalised: the rocket column is
// located and imputed, and a dataset without one is rejected.
func (l *Loader) Load(ctx context.Context, src Source) (*Dataset, error) {
	if strings.TrimSpace(src.Location) == "" {
		return nil, apperrors.ValidationField("location", "source location is required")
	}
	start := time.Now()

	body, contentType, err := l.read(ctx, src)
	if err != nil {
		return nil, err
	}

	format := src.Format
	if format == FormatAuto {
		format = detectFormat(src, contentType)
	}

	var ds *Dataset
	switch format {
	case FormatCSV:
		ds, err = ParseCSV(bytes.NewReader(body))
		if err == nil {
			_, err = NormalizeLaunches(ds)
		}
	case FormatJSON:
		ds, err = ParseJSON(body, src.Selector)
	default:
		err = apperrors.Validationf("unsupported source format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src, err)
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		"source", src.Location,
		"format", string(format),
		"records", len(ds.Records),
		"duration", time.Since(start))
	return ds, nil
}

func (l *Loader) read(ctx context.Context, src Source) ([]byte, string, error) {
	if src.IsRemote() {
		return l.fetch(ctx, src.Location)
	}
	f, err := os.Open(filepath.Clean(src.Location))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", apperrors.NotFoundf("dataset %s not found", src.Location)
		}
		return nil, "", fmt.Errorf("open %s: %w", src.Location, err)
	}
	defer f.Close()
	body, err := l.readLimited(f)
	return body, "", err
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", apperrors.Wrapf(err, apperrors.ErrCodeValidation, "build request for %s", location)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", apperrors.Unavailable(err, "fetch dataset")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", apperrors.Unavailable(
			fmt.Errorf("GET %s: unexpected status %d", location, resp.StatusCode), "fetch dataset")
	}
	body, err := l.readLimited(resp.Body)
	return body, resp.Header.Get("Content-Type"), err
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if int64(len(body)) > l.maxBytes {
		return nil, apperrors.Validationf("dataset exceeds %d bytes", l.maxBytes)
	}
	return body, nil
}

func detectFormat(src Source, contentType string) Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return FormatJSON
	case strings.Contains(ct, "csv"):
		return FormatCSV
	}

	loc := src.Location
	if src.IsRemote() {
		if u, err := url.Parse(loc); err == nil {
			loc = u.Path
		}
	}
	switch strings.ToLower(path.Ext(loc)) {
	case ".json":
		return FormatJSON
	default:
		return FormatCSV
	}
}
