package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reviewlens-backend/services/archive/db"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/archive")

const (
	// maxReviewsPerSubmission bounds the stored review text per row.
	maxReviewsPerSubmission = 50
	maxFieldChars           = 50000

	reviewSeparator = "\n---\n"
)

// Summarizer produces a structured summary for a review page url. The
// relay keeps the provider credentials server-side so the extension
// never sees them.
type Summarizer interface {
	SummarizeURL(ctx context.Context, url string) (string, error)
}

type Config struct {
	// AllowedHosts are the host suffixes the summary endpoint will
	// touch, e.g. "tripadvisor.com".
	AllowedHosts []string `json:"allowed_hosts"`
}

func (c Config) withDefaults() Config {
	if len(c.AllowedHosts) == 0 {
		c.AllowedHosts = []string{"tripadvisor.com"}
	}
	return c
}

// Service archives completed review sessions and serves on-demand
// summaries for whitelisted pages.
type Service struct {
	db         *sql.DB
	qry        *db.Queries
	summarizer Summarizer
	cfg        Config
}

func NewService(database *sql.DB, summarizer Summarizer, cfg Config) Service {
	return Service{
		db:         database,
		qry:        db.New(database),
		summarizer: summarizer,
		cfg:        cfg.withDefaults(),
	}
}

func (s Service) Register(r chi.Router) {
	r.Post("/final-review", s.handleFinalReview)
	r.Get("/summary", s.handleSummary)
}

type finalReviewRequest struct {
	Url             string          `json:"url"`
	ReviewerVersion int             `json:"reviewerVersion"`
	Summary         string          `json:"summary"`
	Reviews         json.RawMessage `json:"reviews"`
}

func capString(s string) string {
	if len(s) > maxFieldChars {
		return s[:maxFieldChars]
	}
	return s
}

// flattenReviews accepts either a list of review items or one
// pre-joined string. List entries may be plain strings or objects
// carrying a text/review field.
func flattenReviews(raw json.RawMessage) (string, int, bool) {
	var asString string
	if json.Unmarshal(raw, &asString) == nil {
		if asString == "" {
			return "", 0, false
		}
		return capString(asString), 1, true
	}

	var asList []json.RawMessage
	if json.Unmarshal(raw, &asList) != nil {
		return "", 0, false
	}
	if len(asList) > maxReviewsPerSubmission {
		asList = asList[:maxReviewsPerSubmission]
	}

	var bodies []string
	for _, item := range asList {
		var text string
		if json.Unmarshal(item, &text) == nil {
			bodies = append(bodies, capString(text))
			continue
		}
		var obj struct {
			Text   string `json:"text"`
			Review string `json:"review"`
		}
		if json.Unmarshal(item, &obj) == nil {
			if obj.Text != "" {
				bodies = append(bodies, capString(obj.Text))
			} else if obj.Review != "" {
				bodies = append(bodies, capString(obj.Review))
			}
		}
	}
	if len(bodies) == 0 {
		return "", 0, false
	}
	return capString(strings.Join(bodies, reviewSeparator)), len(bodies), true
}

func (s Service) handleFinalReview(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "FinalReview")
	defer span.End()

	var req finalReviewRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, `{"error":"malformed submission"}`, http.StatusBadRequest)
		return
	}
	if len(req.Reviews) == 0 {
		span.SetStatus(codes.Error, "missing reviews")
		http.Error(w, `{"error":"missing reviews"}`, http.StatusBadRequest)
		return
	}

	reviews, count, ok := flattenReviews(req.Reviews)
	if !ok {
		span.SetStatus(codes.Error, "missing reviews")
		http.Error(w, `{"error":"missing reviews"}`, http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("url", req.Url),
		attribute.Int("review_count", count),
	)

	err = s.qry.CreateFinalReview(ctx, db.CreateFinalReviewParams{
		Url:             req.Url,
		ReviewerVersion: int64(req.ReviewerVersion),
		Summary:         capString(req.Summary),
		Reviews:         reviews,
		ReviewCount:     int64(count),
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "failed to archive final review", "url", req.Url, "err", err)
		http.Error(w, `{"error":"failed to archive review"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"result": "success"})
}

func (s Service) whitelisted(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, allowed := range s.cfg.AllowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func (s Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Summary")
	defer span.End()

	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, `{"error":"missing url"}`, http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("url", target))

	w.Header().Set("Content-Type", "application/json")
	if !s.whitelisted(target) {
		span.SetStatus(codes.Error, "url not whitelisted")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"whitelisted": false})
		return
	}

	summary, err := s.summarizer.SummarizeURL(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "failed to summarize page", "url", target, "err", err)
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"whitelisted": true, "error": "failed to generate summary"})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"whitelisted": true,
		"summary":     summary,
	})
}
