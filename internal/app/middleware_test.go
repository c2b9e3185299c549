package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func newTestTokenStore(t *testing.T) *shared.TokenStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewTokenStore(client, time.Hour)
}

func guardedHandler(tokens *shared.TokenStore) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(actor.Name))
	})
	h = RequirePermission(shared.PermFleetView)(h)
	cfg := MiddlewareConfig{Logger: testLogger(), Tokens: tokens}
	return actorMiddleware(cfg)(h)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestActorMiddlewareResolvesToken(t *testing.T) {
	tokens := newTestTokenStore(t)
	token, err := tokens.Issue(context.Background(), shared.Actor{UserID: 7, Name: "kiran", Department: shared.DeptTransport})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/fleet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guardedHandler(tokens).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "kiran", rec.Body.String())
}

func TestActorMiddlewareRejectsUnknownToken(t *testing.T) {
	tokens := newTestTokenStore(t)

	req := httptest.NewRequest(http.MethodGet, "/fleet", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	guardedHandler(tokens).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePermissionWithoutToken(t *testing.T) {
	tokens := newTestTokenStore(t)

	req := httptest.NewRequest(http.MethodGet, "/fleet", nil)
	rec := httptest.NewRecorder()
	guardedHandler(tokens).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePermissionDeniesWrongDepartment(t *testing.T) {
	tokens := newTestTokenStore(t)
	token, err := tokens.Issue(context.Background(), shared.Actor{UserID: 8, Name: "meera", Department: shared.DeptFinance})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/fleet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guardedHandler(tokens).ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}
