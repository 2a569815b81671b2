package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"timed-quiz-service/internal/domain"
)

// Upstream response codes.
const (
	codeSuccess      = 0
	codeNoResults    = 1
	codeInvalidParam = 2
	codeRateLimited  = 5
)

// Options configures the upstream client.
type Options struct {
	BaseURL     string
	Kind        domain.TriviaKind
	Timeout     time.Duration
	MinInterval time.Duration
}

// Client fetches raw trivia items from an Open Trivia DB compatible endpoint.
// Requests are spaced at least MinInterval apart; the public API rejects faster callers.
type Client struct {
	baseURL string
	kind    domain.TriviaKind
	http    *http.Client
	limiter *rate.Limiter
}

type apiResponse struct {
	ResponseCode int                    `json:"response_code"`
	Results      []domain.RawTriviaItem `json:"results"`
}

func NewClient(opts Options) *Client {
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: opts.BaseURL,
		kind:    opts.Kind,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// FetchTrivia requests count items. Any transport failure or non-success response code is a supply error.
func (c *Client) FetchTrivia(ctx context.Context, count int) ([]domain.RawTriviaItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrSupply, err)
	}

	endpoint, err := c.endpoint(count)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrSupply, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch trivia: %v", domain.ErrSupply, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream status %d", domain.ErrSupply, resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode trivia: %v", domain.ErrSupply, err)
	}
	switch body.ResponseCode {
	case codeSuccess:
		return body.Results, nil
	case codeNoResults:
		return nil, fmt.Errorf("%w: upstream has fewer than %d questions", domain.ErrSupply, count)
	case codeInvalidParam:
		return nil, fmt.Errorf("%w: upstream rejected parameters", domain.ErrSupply)
	case codeRateLimited:
		return nil, fmt.Errorf("%w: upstream rate limited", domain.ErrSupply)
	default:
		return nil, fmt.Errorf("%w: upstream response code %d", domain.ErrSupply, body.ResponseCode)
	}
}

func (c *Client) endpoint(count int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: base url: %v", domain.ErrSupply, err)
	}
	u = u.JoinPath("api.php")
	q := u.Query()
	q.Set("amount", strconv.Itoa(count))
	if c.kind != "" {
		q.Set("type", string(c.kind))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
