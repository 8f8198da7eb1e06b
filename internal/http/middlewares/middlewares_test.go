package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/brandkit/internal/domain/repository"
	"github.com/dropDatabas3/brandkit/internal/rate"
)

var testSecret = []byte("test-secret-0123456789")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return s
}

type fakeMembers struct {
	calls   atomic.Int32
	clients map[string]string
}

func (f *fakeMembers) ClientIDForUser(_ context.Context, userID string) (string, error) {
	f.calls.Add(1)
	if c, ok := f.clients[userID]; ok {
		return c, nil
	}
	return "", repository.ErrNotFound
}

func echoTenant() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", GetUserID(r.Context()))
		w.Header().Set("X-Tenant", GetTenantID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestWithAuth(t *testing.T) {
	members := &fakeMembers{clients: map[string]string{"u1": "c1"}}
	resolver := NewMembershipResolver(members, "client_id", 16, time.Minute)
	h := Chain(echoTenant(), WithAuth(AuthConfig{Secret: testSecret, CookieName: "bk_session", Resolver: resolver}))

	exp := time.Now().Add(time.Hour).Unix()

	t.Run("bearer with membership lookup", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"sub": "u1", "exp": exp}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, "u1", w.Header().Get("X-User"))
		assert.Equal(t, "c1", w.Header().Get("X-Tenant"))
	})

	t.Run("cookie with client claim", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "bk_session", Value: signToken(t, jwt.MapClaims{"sub": "u9", "client_id": "c9", "exp": exp})})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, "c9", w.Header().Get("X-Tenant"))
	})

	t.Run("expired token is anonymous", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Empty(t, w.Header().Get("X-User"))
	})

	t.Run("wrong algorithm is anonymous", func(t *testing.T) {
		tk := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "u1", "exp": exp})
		raw, err := tk.SignedString(testSecret)
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+raw)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Empty(t, w.Header().Get("X-User"))
	})
}

func TestMembershipResolverCaches(t *testing.T) {
	members := &fakeMembers{clients: map[string]string{"u1": "c1"}}
	res := NewMembershipResolver(members, "", 16, time.Minute)

	for i := 0; i < 3; i++ {
		c, err := res.ResolveTenant(context.Background(), "u1", nil)
		require.NoError(t, err)
		assert.Equal(t, "c1", c)
		c, err = res.ResolveTenant(context.Background(), "nobody", nil)
		require.NoError(t, err)
		assert.Empty(t, c)
	}
	assert.Equal(t, int32(2), members.calls.Load())

	res.Forget("u1")
	_, _ = res.ResolveTenant(context.Background(), "u1", nil)
	assert.Equal(t, int32(3), members.calls.Load())
}

func TestRequireTenant(t *testing.T) {
	h := Chain(echoTenant(), RequireTenant())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithUserID(r.Context(), "u1"))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"no_client"`)

	r = r.WithContext(WithTenantID(r.Context(), "c1"))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireCronSecret(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := []struct {
		name   string
		secret string
		header string
		value  string
		want   int
	}{
		{"bearer", "s3cret", "Authorization", "Bearer s3cret", http.StatusNoContent},
		{"custom header", "s3cret", "X-Cron-Secret", "s3cret", http.StatusNoContent},
		{"wrong", "s3cret", "X-Cron-Secret", "nope", http.StatusUnauthorized},
		{"missing", "s3cret", "", "", http.StatusUnauthorized},
		{"unconfigured", "", "Authorization", "Bearer anything", http.StatusInternalServerError},
		{"unconfigured without header", "", "", "", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/cron/social-snapshots", nil)
			if tc.header != "" {
				r.Header.Set(tc.header, tc.value)
			}
			w := httptest.NewRecorder()
			RequireCronSecret(tc.secret)(ok).ServeHTTP(w, r)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequireCronSecretUnconfiguredIsConfigError(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	r := httptest.NewRequest(http.MethodGet, "/api/cron/social-snapshots", nil)
	r.Header.Set("X-Cron-Secret", "")
	w := httptest.NewRecorder()
	RequireCronSecret("")(next).ServeHTTP(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"missing_env"`)
	assert.Contains(t, w.Body.String(), "CRON_SECRET")
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (rate.Result, error) {
	return rate.Result{Allowed: false, RetryAfter: 30 * time.Second}, nil
}

func TestWithRateLimit(t *testing.T) {
	w := httptest.NewRecorder()
	WithRateLimit(denyAll{}, nil)(echoTenant()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}

func TestRequestIDAndRecover(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := Chain(panicky, WithRequestID(), WithLogging(), WithRecover())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
