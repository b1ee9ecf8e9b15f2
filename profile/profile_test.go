package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spotlight-social/coverstar/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestFetch(t *testing.T) {
	var gotPath, gotAuth, gotAccept, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"email":"user@example.com","preferredName":"Jane Doe","description":"A bio"}}`))
	}))
	defer srv.Close()

	f := NewFetcher(WithHTTPClient(srv.Client()))
	rec, err := f.Fetch(t.Context(), srv.URL+"/external-v1/", "the-id-token")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/external-v1/profile", gotPath)
	assert.Equal(t, "Bearer the-id-token", gotAuth)
	assert.Equal(t, "application/json", gotAccept)

	email, ok := rec.String("data.email")
	assert.True(t, ok)
	assert.Equal(t, "user@example.com", email)

	name, ok := rec.String("data.preferredName")
	assert.True(t, ok)
	assert.Equal(t, "Jane Doe", name)

	data, ok := rec.Map()["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "A bio", data["description"])
}

func TestFetch_BaseWithoutTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewFetcher().Fetch(t.Context(), srv.URL+"/external-v1-dev", "tok")
	require.NoError(t, err)
	assert.Equal(t, "/external-v1-dev/profile", gotPath)
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantFetch  bool
		wantStatus int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"nope"}`, wantFetch: true, wantStatus: 401},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantFetch: true, wantStatus: 500},
		{name: "redirect not followed as success", status: http.StatusNotModified, wantFetch: true, wantStatus: 304},
		{name: "html body", status: http.StatusOK, body: `<html></html>`},
		{name: "json array", status: http.StatusOK, body: `[]`},
		{name: "json null", status: http.StatusOK, body: `null`},
		{name: "empty body", status: http.StatusOK, body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			rec, err := NewFetcher().Fetch(t.Context(), srv.URL, "tok")
			require.Error(t, err)
			assert.Nil(t, rec)

			if tt.wantFetch {
				var fe *FetchError
				require.True(t, errors.As(err, &fe), "expected FetchError, got %v", err)
				assert.Equal(t, tt.wantStatus, fe.StatusCode)
				assert.Equal(t, codes.Unavailable, errors.Code(err))
				assert.Equal(t, ReasonFetchFailed, errors.Reason(err))
				return
			}

			var mre *MalformedResponseError
			require.True(t, errors.As(err, &mre), "expected MalformedResponseError, got %v", err)
			assert.Equal(t, codes.Internal, errors.Code(err))
			assert.Equal(t, ReasonMalformedResponse, errors.Reason(err))
		})
	}
}

func TestFetch_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := NewFetcher().Fetch(t.Context(), base, "tok")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
	assert.Error(t, fe.Unwrap())
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewFetcher(WithTimeout(50 * time.Millisecond))
	_, err := f.Fetch(t.Context(), srv.URL, "tok")

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRecord_String(t *testing.T) {
	rec, err := NewRecord([]byte(`{"data":{"email":"user@example.com","age":30,"tags":["a"]}}`))
	require.NoError(t, err)

	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{path: "data.email", want: "user@example.com", wantOK: true},
		{path: "data.preferredName"},
		{path: "data.age"},
		{path: "data.tags"},
		{path: "missing.path"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := rec.String(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchError_Error(t *testing.T) {
	assert.Equal(t, "profile: fetch https://x/profile failed with status 503",
		(&FetchError{URL: "https://x/profile", StatusCode: 503}).Error())
	assert.Equal(t, "profile: malformed response from https://x/profile",
		(&MalformedResponseError{URL: "https://x/profile"}).Error())
}
