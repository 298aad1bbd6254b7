package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func signToken(t *testing.T, claims Claims, key []byte, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func staffClaims() Claims {
	return Claims{
		Name:      "budi",
		Role:      string(RoleStaff),
		StationID: 3,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	token := signToken(t, staffClaims(), secret, jwt.SigningMethodHS256)
	actor, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, Actor{ID: 42, Name: "budi", Role: RoleStaff, StationID: 3}, actor)
	require.False(t, actor.IsAdmin())
}

func TestParseTokenRejections(t *testing.T) {
	_, err := ParseToken("", secret)
	require.Error(t, err)

	_, err = ParseToken(signToken(t, staffClaims(), []byte("wrong"), jwt.SigningMethodHS256), secret)
	require.Error(t, err)

	expired := staffClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	_, err = ParseToken(signToken(t, expired, secret, jwt.SigningMethodHS256), secret)
	require.Error(t, err)

	badRole := staffClaims()
	badRole.Role = "SUPERVISOR"
	_, err = ParseToken(signToken(t, badRole, secret, jwt.SigningMethodHS256), secret)
	require.Error(t, err)

	noSubject := staffClaims()
	noSubject.Subject = ""
	_, err = ParseToken(signToken(t, noSubject, secret, jwt.SigningMethodHS256), secret)
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	handler := Middleware(secret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, int64(42), actor.ID)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, staffClaims(), secret, jwt.SigningMethodHS256))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithActor(req.Context(), Actor{ID: 2, Role: RoleStaff}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithActor(req.Context(), Actor{ID: 1, Role: RoleAdmin}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
