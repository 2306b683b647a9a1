// Package mediacache downloads resolved creative media into durable,
// deduplicated storage and returns stable public URLs.
package mediacache

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/meridian-ads/meridian/internal/shared/config"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

const (
	defaultMaxBytes = 64 << 20 // 64 MB
	requestTimeout  = 60 * time.Second
)

// Stage identifies where a cache attempt failed.
type Stage string

const (
	StageDownload Stage = "download"
	StageWrite    Stage = "write"
)

// CacheError is a typed failure. A failed cache never leaves a partial file
// behind: content is staged in a temp file and renamed only when complete.
type CacheError struct {
	Stage Stage
	URL   string
	Err   error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("media cache %s failed for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// Store caches media files under root/<tenant>/<mediaType>/<adID>/<ts>.<ext>.
type Store struct {
	rootDir    string
	baseURL    string
	maxBytes   int64
	httpClient *http.Client
	logger     logger.Interface
}

// NewStore builds a Store from configuration.
func NewStore(cfg *config.MediaConfig, log logger.Interface) *Store {
	maxBytes := cfg.MaxSizeBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Store{
		rootDir:    cfg.RootDir,
		baseURL:    strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes:   maxBytes,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     log.Named("mediacache"),
	}
}

// Cache downloads sourceURL and persists it, returning the public URL and
// the stored size. The write is all-or-nothing.
func (s *Store) Cache(ctx context.Context, tenantID uint, adID, mediaType, sourceURL string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", 0, &CacheError{Stage: StageDownload, URL: sourceURL, Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, &CacheError{Stage: StageDownload, URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &CacheError{Stage: StageDownload, URL: sourceURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	ext := extensionFor(resp.Header.Get("Content-Type"), mediaType)
	relPath := path.Join(
		fmt.Sprintf("%d", tenantID),
		sanitizeSegment(mediaType),
		sanitizeSegment(adID),
		fmt.Sprintf("%d%s", time.Now().UTC().UnixNano(), ext),
	)
	fullPath := filepath.Join(s.rootDir, filepath.FromSlash(relPath))

	size, err := s.writeAtomic(fullPath, resp.Body)
	if err != nil {
		return "", 0, &CacheError{Stage: StageWrite, URL: sourceURL, Err: err}
	}

	s.logger.Debugw("media cached", "ad_id", adID, "bytes", size, "path", relPath)
	return s.baseURL + "/" + relPath, size, nil
}

// writeAtomic stages the body into a temp file and renames it into place
// only when the full body was written.
func (s *Store) writeAtomic(fullPath string, body io.Reader) (int64, error) {
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName) // no-op after successful rename
	}()

	size, err := io.Copy(tmp, io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return 0, err
	}
	if size > s.maxBytes {
		return 0, fmt.Errorf("media exceeds size cap of %d bytes", s.maxBytes)
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return 0, err
	}
	return size, nil
}

// extensionFor picks a file extension from the response content type, with a
// sensible default per media type when the header is missing or exotic.
func extensionFor(contentType, mediaType string) string {
	mediaKind, _, err := mime.ParseMediaType(contentType)
	if err == nil {
		switch mediaKind {
		case "image/jpeg":
			return ".jpg"
		case "image/png":
			return ".png"
		case "image/gif":
			return ".gif"
		case "image/webp":
			return ".webp"
		case "video/mp4":
			return ".mp4"
		case "video/webm":
			return ".webm"
		}
		if exts, _ := mime.ExtensionsByType(mediaKind); len(exts) > 0 {
			return exts[0]
		}
	}
	if mediaType == "video" {
		return ".mp4"
	}
	return ".jpg"
}

func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "unknown"
	}
	return s
}
