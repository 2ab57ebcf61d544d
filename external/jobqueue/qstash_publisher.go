// Package jobqueue enqueues scheduled league jobs on Upstash QStash, which
// delivers them back to the internal job endpoints.
package jobqueue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
)

// errQStashTransient marks failures that count against the circuit breaker.
var errQStashTransient = crerr.New("qstash transient failure")

type QStashPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
	HTTPClient       *http.Client
}

type QStashPublisher struct {
	client    *http.Client
	publishTo string
	target    string
	headers   http.Header
	logger    *logging.Logger
	breaker   *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) (*QStashPublisher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	baseURL, err := httpBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	target, err := httpBaseURL(cfg.TargetBaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	// Headers shared by every publish. Upstash-Forward-* reach the callback as-is.
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+strings.TrimSpace(cfg.Token))
	headers.Set("Content-Type", "application/json")
	headers.Set("Upstash-Method", http.MethodPost)
	if cfg.Retries > 0 {
		headers.Set("Upstash-Retries", strconv.Itoa(cfg.Retries))
	}
	if token := strings.TrimSpace(cfg.InternalJobToken); token != "" {
		headers.Set("Upstash-Forward-X-Internal-Job-Token", token)
	}

	breaker := resilience.NewCircuitBreaker(cfg.CircuitBreaker)
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("qstash circuit breaker state changed", "from", string(from), "to", string(to))
	})

	return &QStashPublisher{
		client:    client,
		publishTo: baseURL + "/v2/publish/",
		target:    target,
		headers:   headers,
		logger:    logger,
		breaker:   breaker,
	}, nil
}

// Publish enqueues one league job. The dispatch id doubles as the QStash
// deduplication id so repeated ticks collapse upstream.
func (p *QStashPublisher) Publish(ctx context.Context, event jobscheduler.DispatchEvent) error {
	path := "/" + strings.TrimLeft(strings.TrimSpace(event.JobPath), "/")
	if path == "/" {
		return crerr.New("job path is required")
	}
	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal job payload")
	}

	targetURL := p.target + path
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("qstash.target_url", targetURL),
		attribute.String("job.name", event.JobName),
		attribute.String("job.dispatch_id", event.DispatchID),
		attribute.String("league.id", event.LeagueID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.publishTo+targetURL, bytes.NewReader(body))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header = p.headers.Clone()
	if id := strings.TrimSpace(event.DispatchID); id != "" {
		req.Header.Set("Upstash-Deduplication-Id", id)
	}
	if event.JobName != "" {
		req.Header.Set("Upstash-Label", event.JobName)
	}

	err = p.breaker.Execute(func() error { return p.send(req, targetURL) }, isCircuitFailure)
	if err != nil {
		p.logger.WarnContext(ctx, "qstash publish failed",
			"job", event.JobName, "league_id", event.LeagueID, "dispatch_id", event.DispatchID, "error", err)
		return err
	}
	p.logger.InfoContext(ctx, "qstash job published",
		"job", event.JobName, "league_id", event.LeagueID, "dispatch_id", event.DispatchID)
	return nil
}

func (p *QStashPublisher) send(req *http.Request, targetURL string) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: target_url=%s: %v", errQStashTransient, targetURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	callErr := fmt.Errorf("qstash publish status=%d target_url=%s body=%s", resp.StatusCode, targetURL, strings.TrimSpace(string(raw)))
	switch {
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return crerr.Mark(callErr, errQStashTransient)
	default:
		return callErr
	}
}

func httpBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return strings.TrimRight(candidate, "/"), nil
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errQStashTransient)
}
