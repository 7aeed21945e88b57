package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mingle/internal/logging"
)

const (
	defaultBaseURL   = "http://localhost:8080/MyChatApp"
	defaultUserAgent = "mingle/0.1"
	defaultTimeout   = 10 * time.Second
)

// Endpoint names, joined onto the configured base path.
const (
	EndpointStart         = "Start"
	EndpointSignUp        = "SignUp"
	EndpointSignIn        = "SignIn"
	EndpointLoadChat      = "LoadChat"
	EndpointSendChat      = "SendChat"
	EndpointLoadHomeData  = "LoadHomeData"
	EndpointLoadGroups    = "LoadGroups"
	EndpointLoadGroupChat = "LoadGroupChat"
	EndpointSendGroup     = "SendGroupMeesage"
	EndpointMakeGroup     = "MakeGroupChat"
	EndpointUpdateUser    = "UpdateUserData"
	EndpointLoadAllUsers  = "LoadAllUsers"
)

// Client talks to the Mingle HTTP backend. Every call is a single
// request-response bounded by ctx and the client timeout; nothing is retried.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	log       *zap.Logger
}

// Ensure Client implements both halves of the contract at compile time.
var (
	_ Fetcher = (*Client)(nil)
	_ Actions = (*Client)(nil)
)

// NewClient builds a Client for baseURL (for example http://host:8080/MyChatApp).
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		log:       logging.OrNop(log),
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// AssetURL resolves a server-relative asset path such as ProfileImages/077.png.
func (c *Client) AssetURL(rel string) string {
	return c.baseURL.JoinPath(rel).String()
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, dest any) error {
	u := c.baseURL.JoinPath(endpoint)
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, endpoint, dest)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	u := c.baseURL.JoinPath(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint, dest)
}

// Upload is an optional image attached to a multipart form.
type Upload struct {
	Filename string
	Data     []byte
}

type formField struct {
	name, value string
}

func (c *Client) postMultipart(ctx context.Context, endpoint string, fields []formField, image *Upload, dest any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	if image != nil && len(image.Data) > 0 {
		name := image.Filename
		if name == "" {
			name = "avatar.png"
		}
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			return fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return fmt.Errorf("write image part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	u := c.baseURL.JoinPath(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, endpoint, dest)
}

func (c *Client) do(req *http.Request, endpoint string, dest any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("backend request",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base_url %q: missing host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
