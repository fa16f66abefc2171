package linesmaker

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/pickem/internal/platform/logging"
	"github.com/riskibarqy/pickem/internal/platform/resilience"
	"github.com/riskibarqy/pickem/internal/usecase"
)

const (
	defaultFeedURL      = "http://content.linesmaker.com/xml/lines/203.xml"
	defaultTimeout      = 20 * time.Second
	defaultRetryBackoff = time.Second
	maxFeedBytes        = 4 << 20
	pointSpreadLineType = "PSH"
	eventDateLayout     = "01-02-06"
)

var errFeedTransient = crerr.New("linesmaker transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	FeedURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches the point-spread XML feed.
type Client struct {
	httpClient   *http.Client
	feedURL      string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	feedURL := strings.TrimSpace(cfg.FeedURL)
	if feedURL == "" {
		feedURL = defaultFeedURL
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}

	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.Name == "" {
		breakerCfg.Name = "linesmaker"
	}
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(name string, from, to resilience.CircuitState) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
		}
	}

	return &Client{
		httpClient:   httpClient,
		feedURL:      feedURL,
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: retryBackoff,
		logger:       logger,
		breaker:      resilience.NewCircuitBreakerFromConfig(breakerCfg),
	}
}

// FetchOdds downloads the feed and returns one record per event carrying a
// point spread. Events that cannot be read are reported by index.
func (c *Client) FetchOdds(ctx context.Context) ([]usecase.OddsRecord, []usecase.RecordError, error) {
	var raw []byte
	err := c.breaker.Execute(func() error {
		var err error
		raw, err = c.download(ctx)
		return err
	}, func(err error) bool {
		return crerr.Is(err, errFeedTransient)
	})
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "linesmaker circuit breaker rejected request", "state", c.breaker.State())
		return nil, nil, fmt.Errorf("%w: odds feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		return nil, nil, err
	}

	records, rowErrors, err := ParseFeed(raw)
	if err != nil {
		return nil, nil, err
	}
	c.logger.InfoContext(ctx, "linesmaker feed parsed", "events", len(records)+len(rowErrors), "records", len(records), "errors", len(rowErrors))
	return records, rowErrors, nil
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, retryable, err := c.get(ctx)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable || attempt == c.maxRetries {
			break
		}
		if err := resilience.Backoff(ctx, c.retryBackoff, attempt); err != nil {
			return nil, err
		}
	}

	c.logger.WarnContext(ctx, "linesmaker request failed", "url", c.feedURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) get(ctx context.Context) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, false, crerr.Wrap(err, "build linesmaker request")
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, crerr.Mark(crerr.Wrap(err, "send linesmaker request"), errFeedTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxFeedBytes)); err != nil {
		return nil, true, crerr.Mark(crerr.Wrap(err, "read linesmaker response"), errFeedTransient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := crerr.Newf("linesmaker status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B))
		if isRetryableStatus(resp.StatusCode) {
			return nil, true, crerr.Mark(statusErr, errFeedTransient)
		}
		return nil, false, statusErr
	}

	return append([]byte(nil), buf.B...), false, nil
}

// ParseFeed decodes a feed document. Team names keep the feed's
// "Name(Place)" shape for the importer's resolver.
func ParseFeed(raw []byte) ([]usecase.OddsRecord, []usecase.RecordError, error) {
	var doc feedDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, crerr.Wrap(err, "decode linesmaker feed")
	}

	records := make([]usecase.OddsRecord, 0, len(doc.Events))
	var rowErrors []usecase.RecordError
	for index, event := range doc.Events {
		record, err := event.toRecord()
		if err != nil {
			rowErrors = append(rowErrors, usecase.RecordError{Index: index, Message: err.Error()})
			continue
		}
		records = append(records, record)
	}
	return records, rowErrors, nil
}

type feedDocument struct {
	Events []feedEvent `xml:"event"`
}

type feedEvent struct {
	Descriptor struct {
		HomeTeamName       string `xml:"homeTeamName"`
		AwayTeamName       string `xml:"awayTeamName"`
		PostTimeDateString string `xml:"postTimeDateString"`
	} `xml:"eventDescriptor"`
	Markets []feedMarket `xml:"markets>market"`
}

type feedMarket struct {
	LineType string `xml:"lineType"`
	Points   string `xml:"points"`
}

func (e feedEvent) toRecord() (usecase.OddsRecord, error) {
	home := strings.TrimSpace(e.Descriptor.HomeTeamName)
	away := strings.TrimSpace(e.Descriptor.AwayTeamName)
	if home == "" || away == "" {
		return usecase.OddsRecord{}, fmt.Errorf("event teams are required")
	}

	dateText := strings.TrimSpace(e.Descriptor.PostTimeDateString)
	eventDate, err := time.ParseInLocation(eventDateLayout, dateText, time.UTC)
	if err != nil {
		return usecase.OddsRecord{}, fmt.Errorf("parse event date %q: %w", dateText, err)
	}

	for _, market := range e.Markets {
		if strings.TrimSpace(market.LineType) != pointSpreadLineType {
			continue
		}
		points, err := strconv.ParseFloat(strings.TrimSpace(market.Points), 64)
		if err != nil {
			return usecase.OddsRecord{}, fmt.Errorf("parse spread %q for %s @ %s: %w", market.Points, away, home, err)
		}
		return usecase.OddsRecord{
			Home:      home,
			Away:      away,
			EventDate: eventDate,
			Spread:    points,
		}, nil
	}
	return usecase.OddsRecord{}, fmt.Errorf("no point spread market for %s @ %s", away, home)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
