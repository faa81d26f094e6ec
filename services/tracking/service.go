package tracking

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"reviewlens-backend/lib/session"
	"reviewlens-backend/services/tracking/db"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/tracking")

// Service ingests session telemetry snapshots from the extension.
type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

func (s Service) Register(r chi.Router) {
	r.Post("/track-session", s.handleTrackSession)
}

// handleTrackSession stores one snapshot. The parsed columns enable
// querying; the verbatim payload preserves fields the schema doesn't
// model yet.
func (s Service) handleTrackSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "TrackSession")
	defer span.End()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}

	var snap session.Snapshot
	err = json.Unmarshal(body, &snap)
	if err != nil {
		span.SetStatus(codes.Error, "malformed snapshot")
		http.Error(w, `{"error":"malformed snapshot"}`, http.StatusBadRequest)
		return
	}
	if snap.UserID == "" || snap.Action == "" {
		span.SetStatus(codes.Error, "missing userId or action")
		http.Error(w, `{"error":"missing userId or action"}`, http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.String("user_id", snap.UserID),
		attribute.String("action", snap.Action),
	)

	timestamp := snap.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	err = s.qry.CreateSessionEvent(ctx, db.CreateSessionEventParams{
		UserID:              snap.UserID,
		Email:               snap.Email,
		ReviewerVersion:     int64(snap.ReviewerVersion),
		Action:              snap.Action,
		Timestamp:           timestamp.UTC().Format(time.RFC3339),
		SessionDuration:     snap.SessionDuration,
		SummaryViewDuration: snap.SummaryViewDuration,
		CurrentUrl:          snap.CurrentURL,
		PageTitle:           snap.PageTitle,
		TotalClicks:         int64(snap.TotalClicks),
		UniquePages:         int64(snap.UniquePages),
		Payload:             string(body),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "failed to store session event", "user_id", snap.UserID, "err", err)
		http.Error(w, `{"error":"failed to store event"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"result": "success"})
}
