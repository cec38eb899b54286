package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/core/auth"
	"gin-gorm-snippets/internal/domain"
	"gin-gorm-snippets/internal/transport/http/ez"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeActors map[uint]*domain.Actor

func (f fakeActors) ResolveActor(_ context.Context, uid uint) (*domain.Actor, error) {
	if a, ok := f[uid]; ok {
		return a, nil
	}
	return nil, apperror.Unauthenticated("user inactive or deleted")
}

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("middleware-secret-0123"), Issuer: "test", TTL: time.Hour}
	actors := fakeActors{1: {ID: 1, Username: "staff", IsStaff: true}}
	good, err := j.Issue(1, auth.RoleStaff)
	require.NoError(t, err)
	gone, err := j.Issue(2, auth.RoleUser)
	require.NoError(t, err)
	claims, err := j.Parse(good)
	require.NoError(t, err)

	build := func(rc RevocationChecker) *gin.Engine {
		r := gin.New()
		r.Use(Authenticate(j, actors, rc, zaptest.NewLogger(t)))
		r.GET("/who", func(c *gin.Context) {
			if a := ez.ActorFrom(c); a != nil {
				c.String(http.StatusOK, a.Username)
				return
			}
			c.String(http.StatusOK, "anonymous")
		})
		return r
	}

	r := build(nil)
	w := get(r, "/who", "")
	assert.Equal(t, "anonymous", w.Body.String())
	w = get(r, "/who", good)
	assert.Equal(t, "staff", w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, get(r, "/who", "not-a-jwt").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/who", gone).Code)

	r = build(fakeRevocations{revoked: map[string]bool{claims.ID: true}})
	assert.Equal(t, http.StatusUnauthorized, get(r, "/who", good).Code)

	// 吊销存储故障时放行
	r = build(fakeRevocations{err: errors.New("redis down")})
	assert.Equal(t, http.StatusOK, get(r, "/who", good).Code)
}

func TestAdminConsole(t *testing.T) {
	build := func(a *domain.Actor) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if a != nil {
				ez.SetActor(c, a)
			}
		}, AdminConsole())
		r.GET("/x", func(c *gin.Context) {
			assert.True(t, ez.ActorFrom(c).ViaAdmin)
			c.Status(http.StatusOK)
		})
		return r
	}

	assert.Equal(t, http.StatusUnauthorized, get(build(nil), "/x", "").Code)
	assert.Equal(t, http.StatusForbidden, get(build(&domain.Actor{ID: 2}), "/x", "").Code)

	staff := &domain.Actor{ID: 1, IsStaff: true}
	assert.Equal(t, http.StatusOK, get(build(staff), "/x", "").Code)
	assert.False(t, staff.ViaAdmin)
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(1, 1))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/x", "").Code)
	w := get(r, "/x", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	w := get(r, "/x", "")
	assert.NotEmpty(t, w.Header().Get(KeyRequestID))
	assert.Equal(t, w.Header().Get(KeyRequestID), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestMask(t *testing.T) {
	out := mask(map[string][]string{"Password": {"x"}, "page": {"2"}})
	assert.Equal(t, []string{"****"}, out["Password"])
	assert.Equal(t, []string{"2"}, out["page"])
}
