package gamma

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"github.com/riskibarqy/prediction-league/internal/domain/price"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

const (
	defaultBaseURL = "https://gamma-api.polymarket.com"
	marketsPath    = "/markets"
	// Gamma allows 300 requests per 10s on /markets; stay at 60% of it.
	defaultRatePerSec = 18
	defaultRateBurst  = 10
	conditionBatchMax = 20
	maxBodyBytes      = 4 << 20
)

var errGammaTransient = crerr.New("gamma transient failure")

type ClientConfig struct {
	HTTPClient     *fasthttp.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RatePerSecond  float64
	RateBurst      int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads market prices from the Polymarket Gamma API.
type Client struct {
	httpClient *fasthttp.Client
	baseURL    string
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "prediction-league",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxConnsPerHost:     32,
			MaxResponseBodySize: maxBodyBytes,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	ratePerSec := cfg.RatePerSecond
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}

	breaker := resilience.NewCircuitBreaker(cfg.CircuitBreaker)
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("gamma circuit breaker state changed", "from", string(from), "to", string(to))
	})

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), burst),
		logger:     logger,
		breaker:    breaker,
	}
}

// FetchMarkets returns the markets Gamma knows about among marketIDs. Unknown ids are omitted.
func (c *Client) FetchMarkets(ctx context.Context, marketIDs []string) ([]price.Market, error) {
	ids := make([]string, 0, len(marketIDs))
	seen := make(map[string]struct{}, len(marketIDs))
	for _, id := range marketIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	out := make([]price.Market, 0, len(ids))
	for start := 0; start < len(ids); start += conditionBatchMax {
		end := min(start+conditionBatchMax, len(ids))
		batch := ids[start:end]

		rows, err := c.fetchBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch gamma markets batch=%d-%d: %v", usecase.ErrDependencyUnavailable, start, end, err)
		}
		for _, row := range rows {
			if _, ok := seen[row.ConditionID]; !ok {
				continue
			}
			item, err := toMarket(row)
			if err != nil {
				c.logger.WarnContext(ctx, "skip malformed gamma market", "market_id", row.ConditionID, "error", err)
				continue
			}
			out = append(out, item)
		}
	}

	return out, nil
}

func (c *Client) fetchBatch(ctx context.Context, batch []string) ([]market, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "gamma circuit breaker rejected request", "state", string(c.breaker.State()))
		return nil, fmt.Errorf("gamma is temporarily unavailable: %w", err)
	}

	fullURL := c.marketsURL(batch)
	out, err, _ := c.flight.DoContext(ctx, fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if reqErr != nil && crerr.Is(reqErr, errGammaTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	var rows []market
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode gamma markets: %w", err)
	}
	return rows, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		raw, status, err := c.do(ctx, fullURL)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: send request: %v", errGammaTransient, err)
		case status >= 200 && status < 300:
			return raw, nil
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: gamma status=%d body=%s", errGammaTransient, status, abbreviateBody(raw))
		default:
			return nil, fmt.Errorf("gamma status=%d body=%s", status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * 500 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "gamma request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

func (c *Client) marketsURL(batch []string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(c.baseURL)
	_, _ = buf.WriteString(marketsPath)
	_, _ = buf.WriteString("?condition_ids=")
	for i, id := range batch {
		if i > 0 {
			_ = buf.WriteByte(',')
		}
		_, _ = buf.WriteString(url.QueryEscape(id))
	}
	_, _ = buf.WriteString("&limit=")
	_, _ = buf.WriteString(strconv.Itoa(len(batch)))
	return buf.String()
}

func toMarket(row market) (price.Market, error) {
	labels, err := decodeStringArray(row.Outcomes)
	if err != nil {
		return price.Market{}, fmt.Errorf("decode outcomes: %w", err)
	}
	prices, err := decodeStringArray(row.OutcomePrices)
	if err != nil {
		return price.Market{}, fmt.Errorf("decode outcome prices: %w", err)
	}
	tokenIDs, err := decodeStringArray(row.ClobTokenIDs)
	if err != nil {
		return price.Market{}, fmt.Errorf("decode clob token ids: %w", err)
	}

	out := price.Market{
		MarketID: row.ConditionID,
		Question: row.Question,
		Closed:   row.Closed,
		Outcomes: make([]price.Outcome, 0, len(labels)),
	}
	for i, label := range labels {
		outcome := price.Outcome{
			OutcomeID: outcomeID(row.ConditionID, label, i, tokenIDs),
			Label:     label,
		}
		if i < len(prices) {
			if p, err := decimal.NewFromString(strings.TrimSpace(prices[i])); err == nil && price.InRange(p) {
				outcome.Price = &p
			}
		}
		out.Outcomes = append(out.Outcomes, outcome)
	}
	return out, nil
}

// outcomeID prefers the CLOB token id and falls back to marketID:label.
func outcomeID(marketID, label string, index int, tokenIDs []string) string {
	if index < len(tokenIDs) {
		if id := strings.TrimSpace(tokenIDs[index]); id != "" {
			return id
		}
	}
	return marketID + ":" + strings.ToLower(strings.TrimSpace(label))
}

func decodeStringArray(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var out []string
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
