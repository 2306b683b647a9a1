package metaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server) (*Client, *[]time.Duration) {
	t.Helper()
	c := New(Options{
		BaseURL: srv.URL,
		Version: "v21.0",
		Policy:  RetryPolicy{MaxRetries: 3, Base: 100 * time.Millisecond, Ceiling: 5 * time.Second},
	})
	var slept []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestFetchPage_FollowsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		fmt.Fprint(w, `{"data":[{"id":"1"},{"id":"2"}],"paging":{"next":"https://next.example.com/page2"}}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	rows, next, err := c.FetchPage(context.Background(), "tok", "act_1/insights", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "https://next.example.com/page2", next)
}

func TestFetchAll_StopsWhenNoNextPage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("after") == "c2" {
			fmt.Fprint(w, `{"data":[{"id":"3"}],"paging":{}}`)
			return
		}
		fmt.Fprintf(w, `{"data":[{"id":"1"},{"id":"2"}],"paging":{"next":"%s/v21.0/act_1/insights?after=c2"}}`, serverURL(r))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	var seen []string
	err := c.FetchAll(context.Background(), "tok", "act_1/insights", nil, func(raw json.RawMessage) error {
		var row struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(raw, &row))
		seen = append(seen, row.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, seen)
	assert.Equal(t, 2, calls)
}

func serverURL(r *http.Request) string {
	return "http://" + r.Host
}

func TestFetchAll_BoundedByPageCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Always claims another page exists.
		fmt.Fprintf(w, `{"data":[{"id":"x"}],"paging":{"next":"%s/v21.0/act_1/insights?after=again"}}`, serverURL(r))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	c.maxPages = 5
	err := c.FetchAll(context.Background(), "tok", "act_1/insights", nil, func(json.RawMessage) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pagination not exhausted")
}

func TestRetry_RateLimitThenSuccess(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"(#17) User request limit reached","code":17}}`)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"1"}],"paging":{}}`)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, srv)
	rows, _, err := c.FetchPage(context.Background(), "tok", "act_1/insights", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 3, calls)

	// Backoff grows exponentially: base, then base*2.
	require.Len(t, *slept, 2)
	assert.Equal(t, 100*time.Millisecond, (*slept)[0])
	assert.Equal(t, 200*time.Millisecond, (*slept)[1])
}

func TestRetry_AuthErrorFailsImmediately(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Error validating access token","code":190}}`)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, srv)
	_, _, err := c.FetchPage(context.Background(), "tok", "act_1/insights", nil)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestRetry_ExhaustedSurfacesLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"An unknown error occurred","code":1}}`)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, srv)
	_, _, err := c.FetchPage(context.Background(), "tok", "act_1/insights", nil)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransient, apiErr.Kind)
	assert.Len(t, *slept, 3)
}

func TestFetchBatch_PartialFailureIsolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		var reqs []BatchRequest
		require.NoError(t, json.Unmarshal([]byte(r.Form.Get("batch")), &reqs))
		require.Len(t, reqs, 3)
		fmt.Fprint(w, `[
			{"code":200,"body":"{\"id\":\"a1\",\"creative\":{\"id\":\"c1\",\"image_url\":\"https://cdn/x.jpg\"}}"},
			{"code":404,"body":"{\"error\":{\"message\":\"does not exist\",\"code\":803}}"},
			null
		]`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	results, failures, err := c.GetAdCreativesBatch(context.Background(), "tok", []string{"a1", "a2", "a3"})
	require.NoError(t, err)

	require.Contains(t, results, "a1")
	assert.Equal(t, "https://cdn/x.jpg", results["a1"].ImageURL)

	require.Contains(t, failures, "a2")
	assert.True(t, IsNotFoundError(failures["a2"]))

	// Null slot (upstream sub-request timeout) is a transient failure.
	require.Contains(t, failures, "a3")
	apiErr, ok := AsAPIError(failures["a3"])
	require.True(t, ok)
	assert.Equal(t, KindTransient, apiErr.Kind)
}

func TestFetchBatch_RejectsOversizedBatch(t *testing.T) {
	c := New(Options{BatchCap: 50})
	reqs := make([]BatchRequest, 51)
	_, err := c.FetchBatch(context.Background(), "tok", reqs)
	assert.Error(t, err)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   *errorBody
		want   ErrorKind
	}{
		{"expired token", 400, &errorBody{Code: 190}, KindAuth},
		{"rate limit app", 400, &errorBody{Code: 17}, KindRateLimit},
		{"rate limit business", 400, &errorBody{Code: 80004}, KindRateLimit},
		{"missing permission", 400, &errorBody{Code: 10}, KindPermission},
		{"alias not found", 400, &errorBody{Code: 803}, KindNotFound},
		{"http 429", 429, nil, KindRateLimit},
		{"http 500", 500, nil, KindTransient},
		{"http 404", 404, nil, KindNotFound},
		{"http 401", 401, nil, KindAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.status, tt.body).Kind)
		})
	}
}

func TestBackoff(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, Base: time.Second, Ceiling: 5 * time.Second}
	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 5*time.Second, p.Backoff(3))
	assert.Equal(t, 5*time.Second, p.Backoff(10))
}

func TestFetchInsights_NormalizesPrefixedExternalID(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		fmt.Fprint(w, `{"data":[],"paging":{}}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	day := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	visit := func(InsightRow, json.RawMessage) error { return nil }

	// Discovery stores the catalog id verbatim, which already carries act_.
	require.NoError(t, c.FetchInsights(context.Background(), "tok", "act_900100", "campaign", day, day, visit))
	require.NoError(t, c.FetchInsights(context.Background(), "tok", "900100", "campaign", day, day, visit))

	require.Len(t, paths, 2)
	assert.Equal(t, "/v21.0/act_900100/insights", paths[0])
	assert.Equal(t, "/v21.0/act_900100/insights", paths[1])
}

func TestGetAdImages_ResolvesHashes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var hashes []string
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("hashes")), &hashes))
		require.Len(t, hashes, 2)
		fmt.Fprint(w, `{"data":[
			{"hash":"h1","url":"https://cdn/h1.png","width":1280,"height":720},
			{"hash":"h2","url":"https://cdn/h2.png","width":64,"height":64}
		],"paging":{}}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	images, err := c.GetAdImages(context.Background(), "tok", "123", []string{"h1", "h2"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/h1.png", images["h1"].URL)
	assert.Equal(t, 1280, images["h1"].Width)
}

func TestURLParamsMerge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "campaign", r.URL.Query().Get("level"))
		assert.Equal(t, "1", r.URL.Query().Get("time_increment"))
		fmt.Fprint(w, `{"data":[],"paging":{}}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	params := url.Values{}
	params.Set("level", "campaign")
	params.Set("time_increment", "1")
	_, _, err := c.FetchPage(context.Background(), "tok", "act_1/insights", params)
	require.NoError(t, err)
}
