package userstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("reviewlens.lib.userstore")

const (
	rosterKey  = "users_csv"
	currentKey = "current_user"
)

var ErrEmailTaken = fmt.Errorf("this email is already registered")
var ErrUnknownEmail = fmt.Errorf("email not found")

// Store persists the reviewer roster and the active identity.
// Single-writer is assumed; concurrent writers race last-writer-wins.
type Store struct {
	kv KV
}

func New(kv KV) Store {
	return Store{kv: kv}
}

func NormalizeEmail(email string) string {
	return strings.Trim(strings.ToLower(email), " \t\n")
}

// LoadAll parses the persisted roster. An absent or malformed blob yields
// an empty roster, never an indexing fault.
func (s Store) LoadAll(ctx context.Context) ([]Identity, error) {
	ctx, span := tracer.Start(ctx, "LoadAll")
	defer span.End()

	blob, ok, err := s.kv.Get(ctx, rosterKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read roster key")
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeRoster(blob), nil
}

func (s Store) SaveAll(ctx context.Context, identities []Identity) error {
	ctx, span := tracer.Start(ctx, "SaveAll")
	defer span.End()

	blob, err := encodeRoster(identities)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode roster")
		return err
	}
	return s.kv.Set(ctx, rosterKey, blob)
}

func (s Store) FindByEmail(ctx context.Context, email string) (Identity, error) {
	email = NormalizeEmail(email)
	identities, err := s.LoadAll(ctx)
	if err != nil {
		return Identity{}, err
	}
	for _, id := range identities {
		if NormalizeEmail(id.Email) == email {
			return id, nil
		}
	}
	return Identity{}, ErrUnknownEmail
}

// Register appends a new identity, rejecting duplicate emails.
func (s Store) Register(ctx context.Context, identity Identity) error {
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	identities, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, existing := range identities {
		if NormalizeEmail(existing.Email) == NormalizeEmail(identity.Email) {
			span.SetStatus(codes.Error, ErrEmailTaken.Error())
			return ErrEmailTaken
		}
	}
	return s.SaveAll(ctx, append(identities, identity))
}

// Current returns the active identity, or ok=false when logged out.
func (s Store) Current(ctx context.Context) (Identity, bool, error) {
	blob, ok, err := s.kv.Get(ctx, currentKey)
	if err != nil || !ok {
		return Identity{}, false, err
	}

	var identity Identity
	err = json.Unmarshal([]byte(blob), &identity)
	if err != nil {
		slog.WarnContext(ctx, "discarding malformed current identity", "err", err)
		return Identity{}, false, nil
	}
	return identity, true, nil
}

// SetCurrent records the active identity; nil clears it (logout).
func (s Store) SetCurrent(ctx context.Context, identity *Identity) error {
	if identity == nil {
		return s.kv.Delete(ctx, currentKey)
	}
	blob, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, currentKey, string(blob))
}
