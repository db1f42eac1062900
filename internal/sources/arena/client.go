package arena

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/zakhap/bookmarks-with-friends/internal/utils"
)

const (
	// DefaultBaseURL is the public are.na v2 API.
	DefaultBaseURL = "https://api.are.na/v2"
	// DefaultTimeout bounds one upstream call.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 8 << 20
)

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL    string        // ex: "https://api.are.na/v2"
	Token      string        // optional personal access token
	Timeout    time.Duration // per request, ignored when HTTPClient is set
	UserAgent  string        // optional
	HTTPClient *http.Client  // optional, for tests
}

// ContentsOptions are the query parameters of a channel contents request.
type ContentsOptions struct {
	Page      int
	Per       int
	Sort      string // "position" | "created_at" | "updated_at"
	Direction string // "asc" | "desc"
}

// FetchError is the single failure a fetch reports. Status is the HTTP
// status when the upstream answered, 0 for transport or decoding errors.
type FetchError struct {
	Channel string
	Status  int
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch channel %q: upstream status %d: %v", e.Channel, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch channel %q: %v", e.Channel, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

var (
	ErrUpstreamAuth  = errors.New("upstream rejected credentials")
	ErrRateLimited   = errors.New("upstream rate limit exceeded")
	ErrNotFound      = errors.New("channel not found")
	ErrUpstreamState = errors.New("unexpected upstream response")
)

// Client talks to the are.na API. Build one per process with NewClient.
type Client struct {
	baseURL   *url.URL
	token     string
	userAgent string
	http      *http.Client
}

// NewClient validates opts and builds a client.
func NewClient(opts ClientOptions) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid are.na base URL %q", raw)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "bookmarks-with-friends"
	}

	return &Client{
		baseURL:   base,
		token:     opts.Token,
		userAgent: ua,
		http:      hc,
	}, nil
}

// ChannelSlug normalizes a configured channel name into an are.na slug.
// Example: "Bookmarks With Friends" -> "bookmarks-with-friends"
func ChannelSlug(name string) string {
	return slug.Make(name)
}

type contentsEnvelope struct {
	Contents []json.RawMessage `json:"contents"`
}

// ChannelContents returns the raw blocks of one page of a channel, in the
// order the API returned them.
func (c *Client) ChannelContents(ctx context.Context, channel string, opts ContentsOptions) ([]json.RawMessage, error) {
	endpoint := c.baseURL.JoinPath("channels", channel, "contents")

	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Per > 0 {
		q.Set("per", strconv.Itoa(opts.Per))
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.Direction != "" {
		q.Set("direction", opts.Direction)
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, &FetchError{Channel: channel, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Channel: channel, Err: err}
	}
	defer utils.Close(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Channel: channel, Status: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Channel: channel, Status: resp.StatusCode, Err: statusError(resp.StatusCode)}
	}

	blocks, err := decodeContents(body)
	if err != nil {
		return nil, &FetchError{Channel: channel, Status: resp.StatusCode, Err: err}
	}
	return blocks, nil
}

// decodeContents accepts the documented {"contents": [...]} envelope and a
// bare array.
func decodeContents(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var blocks []json.RawMessage
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return nil, fmt.Errorf("malformed contents payload: %w", err)
		}
		return blocks, nil
	}

	var env contentsEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("malformed contents payload: %w", err)
	}
	if env.Contents == nil {
		return nil, fmt.Errorf("malformed contents payload: %w", ErrUpstreamState)
	}
	return env.Contents, nil
}

func statusError(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUpstreamAuth
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrUpstreamState
	}
}
