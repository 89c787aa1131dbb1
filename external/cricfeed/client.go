package cricfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	backoff "github.com/cenkalti/backoff/v5"
	crerr "github.com/cockroachdb/errors"

	"github.com/sixerhq/chain-contests/internal/platform/logging"
	"github.com/sixerhq/chain-contests/internal/platform/resilience"
	"github.com/sixerhq/chain-contests/internal/usecase"
)

const defaultBaseURL = "https://api.cricapi.com/v1"

var apiKeyParamRegex = regexp.MustCompile(`apikey=[^&\s"']+`)
var errFeedTransient = crerr.New("cricket feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the cricket data feed. Responses carry an explicit status
// envelope; a non-success status is an error, never a panic.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

var _ usecase.MatchFeed = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

func (c *Client) ListMatches(ctx context.Context, seriesID string) ([]usecase.ExternalMatch, error) {
	if strings.TrimSpace(seriesID) == "" {
		return nil, fmt.Errorf("%w: series id is required", usecase.ErrInvalidInput)
	}

	var envelope seriesInfoEnvelope
	if err := c.doJSON(ctx, "/series_info", map[string]string{"id": seriesID}, &envelope); err != nil {
		return nil, fmt.Errorf("list matches series_id=%s: %w", seriesID, err)
	}

	out := make([]usecase.ExternalMatch, 0, len(envelope.Data.MatchList))
	for _, item := range envelope.Data.MatchList {
		mapped := mapMatchItem(item, seriesID)
		if mapped.MatchID == "" {
			continue
		}
		out = append(out, mapped)
	}
	return out, nil
}

func (c *Client) GetSquad(ctx context.Context, matchID string) ([]usecase.ExternalSquadTeam, error) {
	if strings.TrimSpace(matchID) == "" {
		return nil, fmt.Errorf("%w: match id is required", usecase.ErrInvalidInput)
	}

	var envelope squadEnvelope
	if err := c.doJSON(ctx, "/match_squad", map[string]string{"id": matchID}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch squad match_id=%s: %w", matchID, err)
	}

	return mapSquadTeams(envelope.Data), nil
}

func (c *Client) GetFantasyPoints(ctx context.Context, matchID string) ([]usecase.ExternalPlayerPoints, error) {
	if strings.TrimSpace(matchID) == "" {
		return nil, fmt.Errorf("%w: match id is required", usecase.ErrInvalidInput)
	}

	var envelope fantasyEnvelope
	if err := c.doJSON(ctx, "/match_points", map[string]string{"id": matchID}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch fantasy points match_id=%s: %w", matchID, err)
	}

	return mapFantasyPoints(envelope.Data.Totals), nil
}

func (c *Client) GetMatchInfo(ctx context.Context, matchID string) (usecase.ExternalMatchInfo, error) {
	if strings.TrimSpace(matchID) == "" {
		return usecase.ExternalMatchInfo{}, fmt.Errorf("%w: match id is required", usecase.ErrInvalidInput)
	}

	var envelope matchInfoEnvelope
	if err := c.doJSON(ctx, "/match_info", map[string]string{"id": matchID}, &envelope); err != nil {
		return usecase.ExternalMatchInfo{}, fmt.Errorf("fetch match info match_id=%s: %w", matchID, err)
	}

	return usecase.ExternalMatchInfo{
		MatchID:      strings.TrimSpace(envelope.Data.ID),
		Status:       strings.TrimSpace(envelope.Data.Status),
		MatchStarted: envelope.Data.MatchStarted,
		MatchEnded:   envelope.Data.MatchEnded,
	}, nil
}

func (c *Client) GetPlayerStats(ctx context.Context, playerID string) (usecase.ExternalPlayerStats, error) {
	if strings.TrimSpace(playerID) == "" {
		return usecase.ExternalPlayerStats{}, fmt.Errorf("%w: player id is required", usecase.ErrInvalidInput)
	}

	var envelope playerInfoEnvelope
	if err := c.doJSON(ctx, "/players_info", map[string]string{"id": playerID}, &envelope); err != nil {
		return usecase.ExternalPlayerStats{}, fmt.Errorf("fetch player stats player_id=%s: %w", playerID, err)
	}

	return mapPlayerStats(envelope), nil
}

type statusCarrier interface {
	feedStatus() (string, string)
}

func (e statusEnvelope) feedStatus() (string, string) {
	return e.Status, e.Reason
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "cricket feed circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: cricket feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("apikey", c.apiKey)

	fullURL := c.baseURL + path + "?" + values.Encode()

	flightKey := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(flightKey, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errFeedTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}

	if carrier, ok := target.(statusCarrier); ok {
		if status, reason := carrier.feedStatus(); !strings.EqualFold(status, "success") {
			return fmt.Errorf("feed status=%q reason=%q", status, reason)
		}
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second

	raw, err := backoff.Retry(ctx, func() ([]byte, error) {
		body, reqErr := c.requestOnce(ctx, fullURL)
		if reqErr != nil && !crerr.Is(reqErr, errFeedTransient) {
			return nil, backoff.Permanent(reqErr)
		}
		return body, reqErr
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(uint(c.maxRetries+1)))
	if err != nil {
		c.logger.WarnContext(ctx, "cricket feed request failed", "url", redactAPIKey(fullURL), "error", err)
		return nil, err
	}

	return raw, nil
}

func (c *Client) requestOnce(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Wrapf(errFeedTransient, "send request: %s", sanitizeSensitiveText(err.Error(), c.apiKey))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
	if err != nil {
		return nil, crerr.Wrapf(errFeedTransient, "read response body: %v", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	if isRetryableStatus(resp.StatusCode) {
		return nil, crerr.Wrapf(errFeedTransient, "feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}
	return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func abbreviateBody(raw []byte) string {
	const limit = 300
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "apikey=REDACTED")
}

func redactAPIKey(fullURL string) string {
	return apiKeyParamRegex.ReplaceAllString(fullURL, "apikey=REDACTED")
}
