package enroll

import (
	"context"
	"io"
	"log"
	"regexp"
	"testing"

	"reviewlens-backend/lib/userstore"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var codeRegex = regexp.MustCompile(`\b\d{6}\b`)

func setupSmtp(t *testing.T) func() {
	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	smtp, err := testcontainers.GenericContainer(
		context.Background(),
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025:1025", "1090:1080"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	return func() {
		err := smtp.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}
}

var globalClient = resty.New()

func getCodeFromEmail(t *testing.T) string {
	res, err := globalClient.R().
		Get("http://127.0.0.1:1080/messages/1.plain")
	if err != nil {
		t.Fatal(err)
	}
	return codeRegex.FindString(res.String())
}

func TestSmtpEnrollmentFlow(t *testing.T) {
	cleanup := setupSmtp(t)
	defer cleanup()

	store := userstore.New(userstore.NewMemoryKV())
	enroller := New(store, Options{
		Sender: NewSmtpSender(SmtpConfig{
			Server:       "localhost",
			Port:         1025,
			EmailAddress: "study@reviewlens.dev",
			Password:     "default",
		}),
	})
	ctx := context.Background()

	require.NoError(t, enroller.Begin(ctx, "bob@email.com"))

	code := getCodeFromEmail(t)
	require.NotEmpty(t, code)

	identity, err := enroller.Verify(ctx, "bob@email.com", code)
	require.NoError(t, err)
	require.Equal(t, "bob@email.com", identity.Email)
}
