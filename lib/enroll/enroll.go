package enroll

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"reviewlens-backend/lib/userstore"

	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("reviewlens.lib.enroll")

var ErrInvalidEmail = fmt.Errorf("please enter a valid email address")
var ErrInvalidCode = fmt.Errorf("invalid verification code")

// CodeSender delivers a one-time code to the reviewer.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

type Options struct {
	Sender CodeSender
	// RelayURL is the base url of the relay server, registrations are
	// mirrored there best-effort. Empty disables mirroring.
	RelayURL string
}

// Enroller drives registration (one-time code) and login against the
// local roster.
type Enroller struct {
	store  userstore.Store
	sender CodeSender
	relay  *resty.Client

	mu      sync.Mutex
	pending map[string]string
}

func New(store userstore.Store, opts Options) *Enroller {
	var relay *resty.Client
	if opts.RelayURL != "" {
		relay = resty.New()
		relay.SetBaseURL(opts.RelayURL)
		relay.SetTimeout(time.Second * 10)
	}
	return &Enroller{
		store:   store,
		sender:  opts.Sender,
		relay:   relay,
		pending: map[string]string{},
	}
}

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

func generateCode() (string, error) {
	n, err := random.IntRange(100000, 1000000)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(n), nil
}

func generateUserID() (string, error) {
	suffix, err := random.String(9)
	if err != nil {
		return "", err
	}
	return "user_" + strings.ToLower(suffix), nil
}

func assignReviewerVersion() (int, error) {
	return random.IntRange(1, 6)
}

// Begin validates the email, rejects duplicates and sends a one-time code.
func (e *Enroller) Begin(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "Begin")
	defer span.End()

	email = userstore.NormalizeEmail(email)
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	_, err := e.store.FindByEmail(ctx, email)
	if err == nil {
		span.SetStatus(codes.Error, userstore.ErrEmailTaken.Error())
		return userstore.ErrEmailTaken
	}
	if err != userstore.ErrUnknownEmail {
		return err
	}

	code, err := generateCode()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate verification code")
		return err
	}

	e.mu.Lock()
	e.pending[email] = code
	e.mu.Unlock()

	err = e.sender.SendCode(ctx, email, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deliver verification code")
		return err
	}
	return nil
}

// Verify consumes the pending code for the email. An exact match mints a
// new identity; any mismatch creates nothing.
func (e *Enroller) Verify(ctx context.Context, email, code string) (userstore.Identity, error) {
	ctx, span := tracer.Start(ctx, "Verify")
	defer span.End()

	email = userstore.NormalizeEmail(email)
	code = strings.Trim(code, " \t\n")

	e.mu.Lock()
	expected, ok := e.pending[email]
	e.mu.Unlock()
	if !ok || code != expected {
		span.SetStatus(codes.Error, ErrInvalidCode.Error())
		return userstore.Identity{}, ErrInvalidCode
	}

	userId, err := generateUserID()
	if err != nil {
		return userstore.Identity{}, err
	}
	version, err := assignReviewerVersion()
	if err != nil {
		return userstore.Identity{}, err
	}

	identity := userstore.Identity{
		Email:           email,
		UserID:          userId,
		ReviewerVersion: version,
		RegisteredAt:    time.Now().UTC(),
	}
	err = e.store.Register(ctx, identity)
	if err != nil {
		return userstore.Identity{}, err
	}

	e.mu.Lock()
	delete(e.pending, email)
	e.mu.Unlock()

	e.notifyRelay(ctx, identity)

	err = e.store.SetCurrent(ctx, &identity)
	if err != nil {
		return userstore.Identity{}, err
	}
	return identity, nil
}

// Login looks the email up in the roster and makes it current.
func (e *Enroller) Login(ctx context.Context, email string) (userstore.Identity, error) {
	email = userstore.NormalizeEmail(email)
	if !emailRegex.MatchString(email) {
		return userstore.Identity{}, ErrInvalidEmail
	}

	identity, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		return userstore.Identity{}, err
	}
	err = e.store.SetCurrent(ctx, &identity)
	if err != nil {
		return userstore.Identity{}, err
	}
	return identity, nil
}

func (e *Enroller) Logout(ctx context.Context) error {
	return e.store.SetCurrent(ctx, nil)
}

// registration loss on a relay outage is accepted, the local roster is
// the source of truth
func (e *Enroller) notifyRelay(ctx context.Context, identity userstore.Identity) {
	if e.relay == nil {
		return
	}
	res, err := e.relay.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"email":            identity.Email,
			"userId":           identity.UserID,
			"reviewerVersion":  identity.ReviewerVersion,
			"registrationDate": identity.RegisteredAt.Format(time.RFC3339),
		}).
		Post("/register")
	if err != nil {
		slog.WarnContext(ctx, "failed to mirror registration to relay", "err", err)
		return
	}
	if res.IsError() {
		slog.WarnContext(ctx, "relay rejected registration", "status", res.StatusCode())
	}
}
