package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/orgtree/pkg/cache"
	"github.com/matzehuels/orgtree/pkg/httputil"
	"github.com/matzehuels/orgtree/pkg/observability"

	apperrors "github.com/matzehuels/orgtree/pkg/errors"
)

// DefaultTimeout bounds a single analysis request, retries included.
// The analysis pipeline must never block the mutation/layout pipeline,
// so every call is cut off rather than left waiting.
const DefaultTimeout = 30 * time.Second

// Config configures the text-generation client.
type Config struct {
	BaseURL string // service endpoint, e.g. "https://api.example.com"
	APIKey  string // bearer token, empty for unauthenticated services
	Model   string // model identifier passed through to the service
	Timeout time.Duration
}

// Client calls the external text-generation service. Responses are
// cached by snapshot hash, model, and instruction.
type Client struct {
	http  *http.Client
	cache cache.Cache
	keyer cache.Keyer
	cfg   Config
}

// NewClient creates a client. A nil cache disables response caching.
func NewClient(cfg Config, c cache.Cache, k cache.Keyer) (*Client, error) {
	if err := apperrors.ValidateURL(cfg.BaseURL); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	return &Client{
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: c,
		keyer: k,
		cfg:   cfg,
	}, nil
}

// generateRequest is the wire format sent to the service.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// generateResponse is the wire format returned by the service.
type generateResponse struct {
	Text string `json:"text"`
}

// Analyze sends the snapshot and instruction to the service and returns
// its free-text answer. Failures are translated into EXTERNAL_* errors:
// TIMEOUT for deadline expiry, RATE_LIMITED for 429 responses, and
// EXTERNAL_ERROR for everything else. 5xx responses are retried with
// exponential backoff before giving up.
func (c *Client) Analyze(ctx context.Context, snap Snapshot, instruction string) (string, error) {
	if instruction == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidInput, "instruction cannot be empty")
	}

	key := c.keyer.AnalysisKey(snap.Hash(), c.cfg.Model, instruction)
	if data, ok, _ := c.cache.Get(ctx, key); ok {
		observability.Cache().OnCacheHit(ctx, "analysis")
		return string(data), nil
	}
	observability.Cache().OnCacheMiss(ctx, "analysis")

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var text string
	err := httputil.RetryWithBackoff(ctx, func() error {
		out, err := c.generate(ctx, snap.Prompt(instruction))
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", translateErr(ctx, err)
	}

	_ = c.cache.Set(ctx, key, []byte(text), cache.TTLAnalysis)
	observability.Cache().OnCacheSet(ctx, "analysis", len(text))
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	endpoint := c.cfg.BaseURL + "/v1/generate"
	body, err := json.Marshal(generateRequest{Model: c.cfg.Model, Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	host, path := reqHostPath(endpoint)
	observability.HTTP().OnRequest(ctx, http.MethodPost, host, path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodPost, host, path, err)
		return "", httputil.Retryable(err)
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodPost, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}
	if out.Text == "" {
		return "", fmt.Errorf("malformed response: empty text")
	}
	return out.Text, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &apperrors.RateLimitedError{RetryAfter: retryAfter}
	case resp.StatusCode >= 500:
		return httputil.Retryable(fmt.Errorf("status %d", resp.StatusCode))
	default:
		return fmt.Errorf("status %d", resp.StatusCode)
	}
}

// translateErr maps transport failures onto the application error
// taxonomy so callers can show a coherent message.
func translateErr(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return apperrors.Wrap(apperrors.ErrCodeTimeout, err, "analysis request timed out")
	case errors.As(err, new(*apperrors.RateLimitedError)):
		return apperrors.Wrap(apperrors.ErrCodeRateLimited, err, "analysis service rate limited")
	default:
		return apperrors.Wrap(apperrors.ErrCodeExternal, err, "analysis request failed")
	}
}

func reqHostPath(endpoint string) (string, string) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint, ""
	}
	return u.Host, u.Path
}
