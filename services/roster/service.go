package roster

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"reviewlens-backend/lib/userstore"
	"reviewlens-backend/services/roster/db"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/roster")

// Service mirrors extension-side registrations. The extension's local
// roster stays authoritative; this copy exists for the researchers.
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
	r.Post("/register", s.handleRegister)
	r.Get("/users", s.handleListUsers)
}

type registerRequest struct {
	Email            string `json:"email"`
	UserID           string `json:"userId"`
	ReviewerVersion  int    `json:"reviewerVersion"`
	RegistrationDate string `json:"registrationDate"`
}

func (s Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Register")
	defer span.End()

	var req registerRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, `{"error":"malformed registration"}`, http.StatusBadRequest)
		return
	}

	email := userstore.NormalizeEmail(req.Email)
	if email == "" || req.UserID == "" {
		span.SetStatus(codes.Error, "missing email or userId")
		http.Error(w, `{"error":"missing email or userId"}`, http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("user_id", req.UserID))

	_, err = s.qry.GetRegistration(ctx, email)
	if err == nil {
		span.SetStatus(codes.Error, userstore.ErrEmailTaken.Error())
		http.Error(w, `{"error":"this email is already registered"}`, http.StatusConflict)
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, `{"error":"failed to look up registration"}`, http.StatusInternalServerError)
		return
	}

	registrationDate := req.RegistrationDate
	if registrationDate == "" {
		registrationDate = time.Now().UTC().Format(time.RFC3339)
	}

	err = s.qry.CreateRegistration(ctx, db.Registration{
		Email:            email,
		UserID:           req.UserID,
		ReviewerVersion:  int64(req.ReviewerVersion),
		RegistrationDate: registrationDate,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "failed to store registration", "user_id", req.UserID, "err", err)
		http.Error(w, `{"error":"failed to store registration"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"result": "success"})
}

func (s Service) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "ListUsers")
	defer span.End()

	registrations, err := s.qry.ListRegistrations(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, `{"error":"failed to list registrations"}`, http.StatusInternalServerError)
		return
	}

	users := make([]registerRequest, 0, len(registrations))
	for _, reg := range registrations {
		users = append(users, registerRequest{
			Email:            reg.Email,
			UserID:           reg.UserID,
			ReviewerVersion:  int(reg.ReviewerVersion),
			RegistrationDate: reg.RegistrationDate,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"users": users})
}
