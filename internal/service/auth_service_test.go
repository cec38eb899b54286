package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/core/auth"
	"gin-gorm-snippets/internal/core/database/dbtest"
	"gin-gorm-snippets/internal/domain"
	"gin-gorm-snippets/internal/repo"
)

type recordingRevoker struct {
	jti string
	ttl time.Duration
}

func (r *recordingRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	r.jti, r.ttl = jti, ttl
	return nil
}

// countingHasher 统计比较次数
type countingHasher struct {
	domain.PasswordHasher
	compares int
}

func (h *countingHasher) Compare(hashed, plain string) bool {
	h.compares++
	return h.PasswordHasher.Compare(hashed, plain)
}

func newAuthService(t *testing.T, db *gorm.DB) (*AuthService, *auth.JWTer) {
	j := &auth.JWTer{Secret: []byte("0123456789abcdef0123"), Issuer: "test", TTL: time.Hour}
	return NewAuthService(repo.NewUserRepo(db), dbtest.Hasher(), j, zaptest.NewLogger(t)), j
}

func TestLogin(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc, j := newAuthService(t, db)
	ctx := context.Background()

	token, u, err := svc.Login(ctx, "rubindamian-staff", dbtest.Password)
	require.NoError(t, err)
	assert.Equal(t, f.Staff.ID, u.ID)
	c, err := j.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, f.Staff.ID, c.UID)
	assert.Equal(t, auth.RoleStaff, c.Role)

	_, _, err = svc.Login(ctx, "member", "wrong")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, _, err = svc.Login(ctx, "nobody", dbtest.Password)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, _, err = svc.Login(ctx, "inactive", dbtest.Password)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLoginComparesForUnknownUser(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.Seed(t, db)
	h := &countingHasher{PasswordHasher: dbtest.Hasher()}
	j := &auth.JWTer{Secret: []byte("0123456789abcdef0123"), Issuer: "test", TTL: time.Hour}
	svc := NewAuthService(repo.NewUserRepo(db), h, j, zaptest.NewLogger(t))
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "nobody", dbtest.Password)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.Equal(t, 1, h.compares)

	_, _, err = svc.Login(ctx, "member", "wrong")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.Equal(t, 2, h.compares)

	_, _, err = svc.Login(ctx, "nobody-else", dbtest.Password)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	assert.Equal(t, 3, h.compares)
}

func TestResolveActor(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc, _ := newAuthService(t, db)
	ctx := context.Background()

	a, err := svc.ResolveActor(ctx, f.Staff.ID)
	require.NoError(t, err)
	assert.True(t, a.IsStaff)
	assert.False(t, a.ViaAdmin)

	_, err = svc.ResolveActor(ctx, f.Inactive.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestLogout(t *testing.T) {
	db := dbtest.Open(t)
	svc, _ := newAuthService(t, db)
	ctx := context.Background()

	// 未配置吊销存储时是空操作
	require.NoError(t, svc.Logout(ctx, "abc", time.Minute))

	r := &recordingRevoker{}
	svc.WithRevoker(r)
	require.NoError(t, svc.Logout(ctx, "abc", time.Minute))
	assert.Equal(t, "abc", r.jti)
	assert.Equal(t, time.Minute, r.ttl)
}
