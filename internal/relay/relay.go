package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/wyvern0us/proxy/internal/infrastructure/logging"
	"github.com/wyvern0us/proxy/internal/infrastructure/monitoring"
)

// Upstream sites commonly block obvious non-browser clients; the relay
// identifies as a desktop browser to keep simple bot filters out of the way.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config defines relay behavior.
type Config struct {
	// Timeout bounds the whole fetch, dispatch through body read.
	Timeout time.Duration

	// MaxBodyBytes caps the materialized body. Zero disables the cap.
	MaxBodyBytes int64

	// EmbedOverride enables the framing-header rewrite policy.
	EmbedOverride bool
}

// DefaultConfig returns the relay defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:       10 * time.Second,
		MaxBodyBytes:  10 << 20,
		EmbedOverride: true,
	}
}

// Result is a completed fetch.
type Result struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Relay fetches remote resources with a bounded deadline. Stateless between
// calls; safe for unbounded concurrent use.
type Relay struct {
	client  *resty.Client
	policy  EmbedOverride
	maxBody int64
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a relay. The client performs exactly one attempt per call:
// retries stay disabled because callers own retry policy.
func New(cfg Config, logger *logging.Logger) *Relay {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", browserUserAgent).
		SetDoNotParseResponse(true)

	return &Relay{
		client:  client,
		policy:  EmbedOverride{Enabled: cfg.EmbedOverride},
		maxBody: cfg.MaxBodyBytes,
		logger:  logger,
	}
}

// WithMetrics attaches a metrics collector.
func (r *Relay) WithMetrics(m *monitoring.Metrics) *Relay {
	r.metrics = m
	return r
}

// Policy returns the embed-override policy applied to relayed responses.
func (r *Relay) Policy() EmbedOverride {
	return r.policy
}

// Fetch performs a single GET against targetURL and materializes the body.
func (r *Relay) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	start := time.Now()

	if targetURL == "" {
		r.record("invalid", start, 0)
		return nil, fmt.Errorf("%w: empty url", ErrInvalidRequest)
	}
	parsed, err := url.ParseRequestURI(targetURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		r.record("invalid", start, 0)
		return nil, fmt.Errorf("%w: %q", ErrInvalidRequest, targetURL)
	}

	resp, err := r.client.R().SetContext(ctx).Get(targetURL)
	if err != nil {
		classified := classify(err)
		r.record(outcome(classified), start, 0)
		r.logger.Warn("Relay fetch failed",
			zap.String("url", targetURL),
			zap.Error(err),
		)
		return nil, classified
	}

	raw := resp.RawBody()
	defer raw.Close()

	body, err := r.readAll(raw)
	if err != nil {
		classified := classify(err)
		r.record(outcome(classified), start, 0)
		r.logger.Warn("Relay body read failed",
			zap.String("url", targetURL),
			zap.Error(err),
		)
		return nil, classified
	}

	r.record("ok", start, len(body))
	r.logger.Debug("Relay fetch complete",
		zap.String("url", targetURL),
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		StatusCode:  resp.StatusCode(),
		Body:        body,
		ContentType: resp.Header().Get("Content-Type"),
	}, nil
}

// readAll materializes the body, enforcing the size cap while streaming so an
// oversized upstream never occupies more than the cap in memory.
func (r *Relay) readAll(body io.Reader) ([]byte, error) {
	if r.maxBody <= 0 {
		return io.ReadAll(body)
	}

	data, err := io.ReadAll(io.LimitReader(body, r.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.maxBody {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrBodyTooLarge, r.maxBody)
	}
	return data, nil
}

// classify maps transport errors onto the relay taxonomy. Deadline expiry is
// surfaced distinctly so the UI can tell a slow upstream from a dead one.
func classify(err error) error {
	if errors.Is(err, ErrBodyTooLarge) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
}

// outcome converts a classified error into a metrics label.
func outcome(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, ErrBodyTooLarge):
		return "too_large"
	default:
		return "unreachable"
	}
}

func (r *Relay) record(outcome string, start time.Time, bodySize int) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordRelayFetch(outcome, time.Since(start), bodySize)
}
