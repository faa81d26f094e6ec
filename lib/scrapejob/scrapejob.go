package scrapejob

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"reviewlens-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("reviewlens.lib.scrapejob")

// run statuses reported by the provider
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
)

// ErrNoRunHandle is returned when the provider accepts the start request
// but the response carries no run id.
var ErrNoRunHandle = fmt.Errorf("provider returned no run handle")

// ErrAttemptsExhausted is returned when the poll attempts run out while
// the job is still in flight. The job's actual fate is unknown at that
// point, so this is not a RunFailedError.
var ErrAttemptsExhausted = fmt.Errorf("gave up polling before the run reached a terminal status")

// RunFailedError is a run that reached a terminal status other than
// success.
type RunFailedError struct {
	Status string
}

func (e RunFailedError) Error() string {
	return fmt.Sprintf("run failed with status: %s", e.Status)
}

type Config struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
	// Actor is the provider-side scraper identifier.
	Actor string `json:"actor"`

	MaxReviews   int           `json:"max_reviews"`
	PollInterval time.Duration `json:"-"`
	MaxAttempts  int           `json:"max_attempts"`
}

func (c Config) withDefaults() Config {
	if c.MaxReviews <= 0 {
		c.MaxReviews = 50
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 4 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 15
	}
	return c
}

// Review is one scraped review item. Providers disagree on the field
// name, so both are accepted.
type Review struct {
	Title  string  `json:"title,omitempty"`
	Text   string  `json:"text,omitempty"`
	Review string  `json:"review,omitempty"`
	Rating float64 `json:"rating,omitempty"`
}

// Body returns whichever text field the provider populated.
func (r Review) Body() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Review
}

// Run is the handle of one asynchronous scrape job.
type Run struct {
	ID        string
	DatasetID string
}

type Client struct {
	http *resty.Client
	cfg  Config
}

func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)
	client.SetQueryParam("token", cfg.Token)
	telemetry.InstrumentResty(client, "reviewlens.lib.scrapejob.http")

	return &Client{http: client, cfg: cfg}
}

type runData struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// StartRun submits a scrape job for the target url. The uniqueKey derived
// from the current time defeats provider-side request dedup.
func (c *Client) StartRun(ctx context.Context, targetURL string) (Run, error) {
	ctx, span := tracer.Start(ctx, "StartRun")
	defer span.End()
	span.SetAttributes(attribute.String("url", targetURL))

	payload := map[string]any{
		"startUrls": []map[string]string{{
			"url":       targetURL,
			"uniqueKey": strconv.FormatInt(time.Now().UnixMilli(), 10),
		}},
		"maxReviews": c.cfg.MaxReviews,
		"useStealth": true,
		"proxyConfig": map[string]any{
			"useApifyProxy": true,
		},
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(fmt.Sprintf("/v2/acts/%s/runs", c.cfg.Actor))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start run")
		return Run{}, err
	}
	if res.IsError() {
		err := fmt.Errorf("start run: status %d", res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return Run{}, err
	}

	var body runData
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse run response")
		return Run{}, err
	}
	if body.Data.ID == "" {
		span.SetStatus(codes.Error, ErrNoRunHandle.Error())
		return Run{}, ErrNoRunHandle
	}

	return Run{ID: body.Data.ID, DatasetID: body.Data.DefaultDatasetID}, nil
}

func (c *Client) runStatus(ctx context.Context, run Run) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v2/actor-runs/%s", run.ID))
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("run status: status %d", res.StatusCode())
	}

	var body runData
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		return "", err
	}
	return body.Data.Status, nil
}

// AwaitCompletion polls the run at a fixed interval until it leaves
// {READY, RUNNING}, for at most MaxAttempts polls. The attempt cap is the
// only cancellation bound for a stuck job besides ctx.
func (c *Client) AwaitCompletion(ctx context.Context, run Run) error {
	ctx, span := tracer.Start(ctx, "AwaitCompletion")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", run.ID))

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}

		status, err := c.runStatus(ctx, run)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to poll run status")
			return err
		}
		span.AddEvent("poll", trace.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.String("status", status),
		))

		switch status {
		case StatusReady, StatusRunning:
			continue
		case StatusSucceeded:
			return nil
		default:
			err := RunFailedError{Status: status}
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	span.SetStatus(codes.Error, ErrAttemptsExhausted.Error())
	return ErrAttemptsExhausted
}

// FetchResults retrieves the completed run's dataset. A payload that is
// not a list yields an empty slice, not an error.
func (c *Client) FetchResults(ctx context.Context, run Run) ([]Review, error) {
	ctx, span := tracer.Start(ctx, "FetchResults")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v2/datasets/%s/items", run.DatasetID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch dataset items")
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("fetch results: status %d", res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var reviews []Review
	err = json.Unmarshal(res.Body(), &reviews)
	if err != nil {
		span.AddEvent("dataset payload is not a list")
		return nil, nil
	}
	return reviews, nil
}

// FetchReviews drives a scrape job end to end. Callers decide whether to
// surface or degrade the error.
func (c *Client) FetchReviews(ctx context.Context, targetURL string) ([]Review, error) {
	run, err := c.StartRun(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	err = c.AwaitCompletion(ctx, run)
	if err != nil {
		return nil, err
	}
	return c.FetchResults(ctx, run)
}
