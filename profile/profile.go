// Package profile fetches the user profile exposed by the Spotlight external
// API. The API authenticates with the identity token, not the access token.
package profile

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spotlight-social/coverstar/errors"
	"github.com/spotlight-social/coverstar/logging"
	"github.com/tidwall/gjson"
	"google.golang.org/grpc/codes"
)

const (
	// Path of the profile resource, relative to the API base URL.
	Path = "profile"

	// DefaultTimeout bounds a single profile request.
	DefaultTimeout = 10 * time.Second

	// ErrorInfo reasons attached to fetch failures.
	ReasonFetchFailed       = "PROFILE_FETCH_FAILED"
	ReasonMalformedResponse = "MALFORMED_PROFILE_RESPONSE"

	maxBodyBytes = 1 << 20
)

// FetchError is returned when the profile API cannot be reached or answers
// with a non-2xx status. StatusCode is zero for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return "profile: fetch " + e.URL + " failed with status " + strconv.Itoa(e.StatusCode)
	}
	if e.Err != nil {
		return "profile: fetch " + e.URL + " failed: " + e.Err.Error()
	}
	return "profile: fetch " + e.URL + " failed"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when the profile API answers with a body
// that is not a JSON object.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return "profile: malformed response from " + e.URL + ": " + e.Err.Error()
	}
	return "profile: malformed response from " + e.URL
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Record is a profile response. The raw body is kept so nested fields can be
// addressed with gjson paths such as "data.email".
type Record struct {
	raw    []byte
	fields map[string]interface{}
}

// NewRecord parses a JSON object.
func NewRecord(raw []byte) (*Record, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("profile: response is not a JSON object")
	}
	return &Record{raw: raw, fields: fields}, nil
}

// Map returns the untyped profile.
func (r *Record) Map() map[string]interface{} {
	return r.fields
}

// String returns the string at path. Missing paths and non-string values
// report false.
func (r *Record) String(path string) (string, bool) {
	res := gjson.GetBytes(r.raw, path)
	if res.Type != gjson.String {
		return "", false
	}
	return res.Str, true
}

// Fetcher performs profile requests.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher returns a Fetcher using http.DefaultClient and DefaultTimeout
// unless overridden.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues a single GET to {baseURL}/profile, presenting bearerToken in
// the Authorization header. There are no retries.
func (f *Fetcher) Fetch(ctx context.Context, baseURL, bearerToken string) (*Record, error) {
	endpoint, err := url.JoinPath(baseURL, Path)
	if err != nil {
		return nil, fetchFailed(baseURL, 0, err)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fetchFailed(endpoint, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Accept", "application/json")

	logging.Infow(ctx, "profile: fetching", "url", endpoint)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fetchFailed(endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchFailed(endpoint, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fetchFailed(endpoint, 0, err)
	}

	record, err := NewRecord(body)
	if err != nil {
		return nil, errors.WithCode(&MalformedResponseError{URL: endpoint, Err: err}, codes.Internal).
			WithReason(ReasonMalformedResponse, map[string]string{"url": endpoint}).
			WithPublicMessage("profile service returned an invalid response")
	}
	logging.Infow(ctx, "profile: fetched", "url", endpoint, "status", resp.StatusCode)
	return record, nil
}

func fetchFailed(endpoint string, status int, err error) *errors.Error {
	md := map[string]string{"url": endpoint}
	if status != 0 {
		md["status"] = strconv.Itoa(status)
	}
	return errors.WithCode(&FetchError{URL: endpoint, StatusCode: status, Err: err}, codes.Unavailable).
		WithReason(ReasonFetchFailed, md).
		WithPublicMessage("profile service unavailable")
}
