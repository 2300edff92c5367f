package dockerhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(apiURL string) *Client {
	return NewClient(Config{
		APIURL:     apiURL,
		MaxRPS:     1000,
		Timeout:    time.Second,
		RetryDelay: 10 * time.Millisecond,
	})
}

func tagsPage(names []string, next string) *GetImageTagsResponse {
	resp := &GetImageTagsResponse{Count: len(names)}
	if next != "" {
		resp.Next = &next
	}

	for _, name := range names {
		resp.Results = append(resp.Results, ImageTag{Name: name})
	}

	return resp
}

func TestGetTags_Pagination(t *testing.T) {
	var requests int32

	pages := map[string][]string{
		"1": {"25.1", "25.2"},
		"2": {"24.8"},
		"3": {"24.3", "latest"},
	}

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)

		require.Equal(t, "/repositories/acme/service/tags/", r.URL.Path)

		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}

		var next string
		switch page {
		case "1":
			next = fmt.Sprintf("%s/repositories/acme/service/tags/?page=2", srv.URL)
		case "2":
			next = fmt.Sprintf("%s/repositories/acme/service/tags/?page=3", srv.URL)
		}

		_ = json.NewEncoder(w).Encode(tagsPage(pages[page], next))
	}))
	defer srv.Close()

	cli := testClient(srv.URL)

	tags, err := cli.GetTags(context.Background(), RepositoryRef{Namespace: "acme", Name: "service"})
	require.NoError(t, err)

	assert.EqualValues(t, 3, atomic.LoadInt32(&requests))

	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}

	assert.Equal(t, []string{"25.1", "25.2", "24.8", "24.3", "latest"}, names)
}

func TestGetTags_EmptyRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tagsPage(nil, ""))
	}))
	defer srv.Close()

	cli := testClient(srv.URL)

	tags, err := cli.GetTags(context.Background(), RepositoryRef{Namespace: "acme", Name: "empty"})
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestGetTags_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cli := testClient(srv.URL)

	_, err := cli.GetTags(context.Background(), RepositoryRef{Namespace: "acme", Name: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "acme/missing")
}

func TestGetTags_RateLimitedRetrySucceeds(t *testing.T) {
	var requests int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		_ = json.NewEncoder(w).Encode(tagsPage([]string{"25.1"}, ""))
	}))
	defer srv.Close()

	cli := testClient(srv.URL)

	tags, err := cli.GetTags(context.Background(), RepositoryRef{Namespace: "acme", Name: "service"})
	require.NoError(t, err)
	require.Len(t, tags, 1)

	assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestGetTags_RateLimitedRetryFails(t *testing.T) {
	var requests int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cli := testClient(srv.URL)

	_, err := cli.GetTags(context.Background(), RepositoryRef{Namespace: "acme", Name: "service"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	// Exactly one retry.
	assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestGetTags_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer srv.Close()

	cli := testClient(srv.URL)

	_, err := cli.GetTags(context.Background(), RepositoryRef{Namespace: "acme", Name: "service"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGetTags_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cli := testClient(srv.URL)

	_, err := cli.GetTags(context.Background(), RepositoryRef{Namespace: "acme", Name: "service"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrNetwork)
}

func TestGetTags_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cli := testClient(url)

	_, err := cli.GetTags(context.Background(), RepositoryRef{Namespace: "acme", Name: "service"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestNewClient_CustomHTTPClient(t *testing.T) {
	var requests int32

	httpCli := &http.Client{
		Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			atomic.AddInt32(&requests, 1)

			body, err := json.Marshal(tagsPage([]string{"25.1"}, ""))
			require.NoError(t, err)

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewReader(body)),
				Header:     make(http.Header),
			}, nil
		}),
	}

	cli := NewClient(Config{APIURL: "https://registry.invalid/v2", MaxRPS: 1000}, httpCli)

	tags, err := cli.GetTags(context.Background(), RepositoryRef{Namespace: "acme", Name: "service"})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "25.1", tags[0].Name)

	assert.EqualValues(t, 1, atomic.LoadInt32(&requests))
}

func TestGetTags_RequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	cli := NewClient(Config{
		APIURL:     srv.URL,
		MaxRPS:     1000,
		Timeout:    50 * time.Millisecond,
		RetryDelay: 10 * time.Millisecond,
	})

	_, err := cli.GetTags(context.Background(), RepositoryRef{Namespace: "acme", Name: "slow"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}
