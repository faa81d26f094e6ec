package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reviewlens-backend/lib/scrapejob"
	"reviewlens-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("reviewlens.lib.summarize")

type Config struct {
	BaseURL     string  `json:"base_url"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	// MaxInputChars caps the review text embedded in the prompt.
	MaxInputChars int `json:"max_input_chars"`
}

func (c Config) withDefaults() Config {
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = 3000
	}
	return c
}

const promptTemplate = `You are a review analyst. Summarize the following product or attraction reviews into a structured format with clear sections.

Please format the output exactly like this:
Attraction:
[Insert attraction name, if known]

Overall Rating:
[Summarize general sentiment - mention if reviews are mostly positive, mixed, or negative]

Key Highlights:
1. [Theme or category]
  - [Detail 1]
  - [Detail 2]

Common Criticisms:
1. [Category]
  - [Critical observation 1]

Visitor Tips:
- [Tip 1]

Recommended For:
- [Audience 1]

Here are the reviews:
%s`

type Client struct {
	http *resty.Client
	cfg  Config
}

func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetAuthToken(cfg.APIKey)
	client.SetTimeout(time.Second * 60)
	telemetry.InstrumentResty(client, "reviewlens.lib.summarize.http")

	return &Client{http: client, cfg: cfg}
}

type completionResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize flattens the reviews into one text blob, truncated to the
// configured character limit, and asks the model for a structured
// summary.
func (c *Client) Summarize(ctx context.Context, reviews []scrapejob.Review) (string, error) {
	ctx, span := tracer.Start(ctx, "Summarize")
	defer span.End()

	bodies := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if body := r.Body(); body != "" {
			bodies = append(bodies, body)
		}
	}
	raw := strings.Join(bodies, " ")
	if len(raw) > c.cfg.MaxInputChars {
		raw = raw[:c.cfg.MaxInputChars]
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": c.cfg.Model,
			"messages": []map[string]string{{
				"role":    "user",
				"content": fmt.Sprintf(promptTemplate, raw),
			}},
			"temperature": c.cfg.Temperature,
		}).
		Post("/chat/completions")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach summarizer")
		return "", err
	}
	if res.IsError() {
		err := fmt.Errorf("summarizer: status %d", res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	var body completionResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse summarizer response")
		return "", err
	}
	if body.Error != nil {
		err := fmt.Errorf("summarizer error: %s", body.Error.Message)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if len(body.Choices) == 0 || body.Choices[0].Message.Content == "" {
		err := fmt.Errorf("no summary generated")
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return body.Choices[0].Message.Content, nil
}
