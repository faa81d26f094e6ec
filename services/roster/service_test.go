package roster

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewlens-backend/lib/testutil"
	"reviewlens-backend/services/roster/db"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) http.Handler {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "roster",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	router := chi.NewRouter()
	NewService(result.DB).Register(router)
	return router
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func testRegistration(email string) map[string]any {
	return map[string]any{
		"email":            email,
		"userId":           "user_abc123def",
		"reviewerVersion":  3,
		"registrationDate": "2025-06-01T12:30:00Z",
	}
}

func TestRegisterAndList(t *testing.T) {
	handler := setup(t)

	rec := postJSON(t, handler, "/register", testRegistration("alice@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	listRec := httptest.NewRecorder()
	handler.ServeHTTP(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)

	var reply struct {
		Users []struct {
			Email           string `json:"email"`
			UserID          string `json:"userId"`
			ReviewerVersion int    `json:"reviewerVersion"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &reply))
	require.Len(t, reply.Users, 1)
	require.Equal(t, "alice@example.com", reply.Users[0].Email)
	require.Equal(t, 3, reply.Users[0].ReviewerVersion)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	handler := setup(t)

	rec := postJSON(t, handler, "/register", testRegistration("alice@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)

	// same email, different case
	rec = postJSON(t, handler, "/register", testRegistration("ALICE@Example.com"))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	handler := setup(t)

	rec := postJSON(t, handler, "/register", map[string]any{"userId": "user_abc123def"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, handler, "/register", map[string]any{"email": "alice@example.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
