package mediacache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ads/meridian/internal/shared/config"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	return NewStore(&config.MediaConfig{
		RootDir:       t.TempDir(),
		PublicBaseURL: "https://cdn.example.com/media/",
		MaxSizeBytes:  maxBytes,
	}, logger.NewLogger())
}

func TestCache_StoresFileAndReturnsPublicURL(t *testing.T) {
	payload := []byte("fake-jpeg-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer srv.Close()

	store := newTestStore(t, 0)

	url, size, err := store.Cache(context.Background(), 7, "ad_123", "image", srv.URL+"/pic")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), size)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/media/7/image/ad_123/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	rel := strings.TrimPrefix(url, "https://cdn.example.com/media/")
	data, err := os.ReadFile(filepath.Join(store.rootDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestCache_NonOKStatusIsDownloadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store := newTestStore(t, 0)

	_, _, err := store.Cache(context.Background(), 1, "ad_1", "image", srv.URL)
	var cerr *CacheError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, StageDownload, cerr.Stage)
}

func TestCache_SizeCapLeavesNoPartialFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	store := newTestStore(t, 1024)

	_, _, err := store.Cache(context.Background(), 3, "ad_9", "video", srv.URL)
	var cerr *CacheError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, StageWrite, cerr.Stage)

	// The ad directory must not contain a leftover temp or partial file.
	entries, readErr := os.ReadDir(filepath.Join(store.rootDir, "3", "video", "ad_9"))
	if readErr == nil {
		assert.Empty(t, entries)
	}
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", extensionFor("image/jpeg", "image"))
	assert.Equal(t, ".png", extensionFor("image/png; charset=binary", "image"))
	assert.Equal(t, ".mp4", extensionFor("", "video"))
	assert.Equal(t, ".jpg", extensionFor("application/octet-stream-weird;;", "image"))
}
