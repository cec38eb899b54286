package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/core/database/dbtest"
	"gin-gorm-snippets/internal/domain"
	"gin-gorm-snippets/internal/repo"
)

// failingRecorder 模拟审计写入失败
type failingRecorder struct{}

func (failingRecorder) Append(context.Context, domain.AuditAction, string, uint, *uint) (uint, error) {
	return 0, errors.New("audit store unavailable")
}

func staffOf(f dbtest.Fixture) *domain.Actor {
	return &domain.Actor{ID: f.Staff.ID, Username: f.Staff.Username, IsStaff: true}
}

func memberOf(f dbtest.Fixture) *domain.Actor {
	return &domain.Actor{ID: f.Member.ID, Username: f.Member.Username}
}

func newUserService(t *testing.T, db *gorm.DB, audit domain.AuditRecorder) *UserService {
	if audit == nil {
		audit = repo.NewAuditRepo(db)
	}
	return NewUserService(repo.NewUserRepo(db), audit, repo.NewTx(db), dbtest.Hasher(), zaptest.NewLogger(t))
}

func TestUserCreateByStaffIsAudited(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc := newUserService(t, db, nil)

	u, err := svc.Create(context.Background(), staffOf(f), CreateUserInput{Username: "newuser", Email: "new@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "newuser", u.Username)
	assert.NotEqual(t, "secret-pass", u.PasswordHash)

	require.Equal(t, int64(1), dbtest.CountAudit(t, db))
	e := dbtest.LastAudit(t, db)
	assert.Equal(t, domain.AuditCreate, e.Action)
	assert.Equal(t, domain.ModelUser, e.ModelName)
	assert.Equal(t, u.ID, e.ObjectID)
	require.NotNil(t, e.UserID)
	assert.Equal(t, f.Staff.ID, *e.UserID)
}

func TestUserCreateRejected(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc := newUserService(t, db, nil)
	ctx := context.Background()
	in := CreateUserInput{Username: "newuser", Password: "secret-pass"}

	_, err := svc.Create(ctx, memberOf(f), in)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Create(ctx, nil, in)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = svc.Create(ctx, staffOf(f), CreateUserInput{Username: "bad name!", Email: "nope"})
	require.ErrorIs(t, err, apperror.ErrValidation)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	_, err = svc.Create(ctx, staffOf(f), CreateUserInput{Username: "member", Password: "secret-pass"})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, apperror.FieldsOf(err), "username")

	assert.Equal(t, int64(0), dbtest.CountAudit(t, db))
}

func TestUserCreateRollsBackWhenAuditFails(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc := newUserService(t, db, failingRecorder{})

	_, err := svc.Create(context.Background(), staffOf(f), CreateUserInput{Username: "ghost", Password: "secret-pass"})
	require.Error(t, err)

	_, err = repo.NewUserRepo(db).FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserListVisibility(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc := newUserService(t, db, nil)
	ctx := context.Background()
	p, _, _ := Paginate(1, 50)

	cases := []struct {
		name       string
		actor      *domain.Actor
		includeAll bool
		want       int64
	}{
		{"member ignores include_all", memberOf(f), true, 3},
		{"staff default", staffOf(f), false, 3},
		{"staff include_all", staffOf(f), true, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users, total, err := svc.List(ctx, tc.actor, tc.includeAll, p)
			require.NoError(t, err)
			assert.Equal(t, tc.want, total)
			assert.Len(t, users, int(tc.want))
		})
	}

	_, _, err := svc.List(ctx, nil, false, p)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestUserGetSoftDeleted(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc := newUserService(t, db, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, memberOf(f), f.Inactive.ID, true)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Get(ctx, staffOf(f), f.Inactive.ID, false)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	u, err := svc.Get(ctx, staffOf(f), f.Inactive.ID, true)
	require.NoError(t, err)
	assert.True(t, u.SoftDeleted)

	u, err = svc.Get(ctx, memberOf(f), f.Active.ID, false)
	require.NoError(t, err)
	assert.Len(t, u.Snippets, 1)
}

func TestUserUpdate(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc := newUserService(t, db, nil)
	ctx := context.Background()

	email := "changed@example.com"
	pw := "another-pass"
	staff := true
	u, err := svc.Update(ctx, staffOf(f), f.Member.ID, UpdateUserInput{Email: &email, Password: &pw, IsStaff: &staff})
	require.NoError(t, err)
	assert.Equal(t, email, u.Email)
	assert.True(t, u.IsStaff)
	assert.True(t, dbtest.Hasher().Compare(u.PasswordHash, pw))

	e := dbtest.LastAudit(t, db)
	assert.Equal(t, domain.AuditUpdate, e.Action)
	assert.Equal(t, f.Member.ID, e.ObjectID)

	_, err = svc.Update(ctx, staffOf(f), 999, UpdateUserInput{Email: &email})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Update(ctx, memberOf(f), f.Active.ID, UpdateUserInput{Email: &email})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, int64(1), dbtest.CountAudit(t, db))
}

func TestUserSoftDelete(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	svc := newUserService(t, db, nil)
	ctx := context.Background()

	u, err := svc.Delete(ctx, staffOf(f), f.Active.ID)
	require.NoError(t, err)
	assert.True(t, u.SoftDeleted)

	e := dbtest.LastAudit(t, db)
	assert.Equal(t, domain.AuditSoftDelete, e.Action)
	assert.Equal(t, f.Active.ID, e.ObjectID)

	// 行仍然存在
	got, err := svc.Get(ctx, staffOf(f), f.Active.ID, true)
	require.NoError(t, err)
	assert.True(t, got.SoftDeleted)
	_, err = svc.Get(ctx, memberOf(f), f.Active.ID, false)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Delete(ctx, memberOf(f), f.Member.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

// recordingCache 记录被清除的详情缓存 id
type recordingCache struct{ evicted []uint }

func (c *recordingCache) Get(ctx context.Context, _ uint, load func(ctx context.Context) (*domain.Snippet, error)) (*domain.Snippet, error) {
	return load(ctx)
}

func (c *recordingCache) Invalidate(_ context.Context, id uint) error {
	c.evicted = append(c.evicted, id)
	return nil
}

func TestUserUpdateRollsBackWhenAuditFails(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	c := &recordingCache{}
	svc := newUserService(t, db, failingRecorder{}).WithSnippetCache(c)
	ctx := context.Background()

	name := "renamed"
	staff := true
	_, err := svc.Update(ctx, staffOf(f), f.Active.ID, UpdateUserInput{Username: &name, IsStaff: &staff})
	require.Error(t, err)

	got, err := repo.NewUserRepo(db).FindByID(ctx, f.Active.ID, domain.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, "active", got.Username)
	assert.False(t, got.IsStaff)
	assert.Zero(t, dbtest.CountAudit(t, db))
	assert.Empty(t, c.evicted)
}

func TestUserSoftDeleteRollsBackWhenAuditFails(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	c := &recordingCache{}
	svc := newUserService(t, db, failingRecorder{}).WithSnippetCache(c)
	ctx := context.Background()

	_, err := svc.Delete(ctx, staffOf(f), f.Active.ID)
	require.Error(t, err)

	got, err := repo.NewUserRepo(db).FindByID(ctx, f.Active.ID, domain.UserFilter{})
	require.NoError(t, err)
	assert.False(t, got.SoftDeleted)
	assert.Zero(t, dbtest.CountAudit(t, db))
	assert.Empty(t, c.evicted)
}

func TestUserChangesEvictOwnedSnippets(t *testing.T) {
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db)
	c := &recordingCache{}
	svc := newUserService(t, db, nil).WithSnippetCache(c)
	ctx := context.Background()

	name := "renamed"
	_, err := svc.Update(ctx, staffOf(f), f.Active.ID, UpdateUserInput{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, []uint{f.Snippet.ID}, c.evicted)

	_, err = svc.Delete(ctx, staffOf(f), f.Active.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.Snippet.ID, f.Snippet.ID}, c.evicted)

	// 名下没有代码片段
	_, err = svc.Delete(ctx, staffOf(f), f.Member.ID)
	require.NoError(t, err)
	assert.Len(t, c.evicted, 2)
}

func TestEnsureStaff(t *testing.T) {
	db := dbtest.Open(t)
	svc := newUserService(t, db, nil)
	ctx := context.Background()
	in := CreateUserInput{Username: "admin", Email: "admin@example.com", Password: "bootstrap-pass"}

	created, err := svc.EnsureStaff(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	e := dbtest.LastAudit(t, db)
	assert.Equal(t, domain.AuditCreate, e.Action)
	assert.Nil(t, e.UserID)

	created, err = svc.EnsureStaff(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), dbtest.CountAudit(t, db))
}

func TestPaginate(t *testing.T) {
	p, page, size := Paginate(0, 0)
	assert.Equal(t, domain.Page{Offset: 0, Limit: DefaultPageSize}, p)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	p, _, _ = Paginate(3, 10)
	assert.Equal(t, domain.Page{Offset: 20, Limit: 10}, p)

	_, _, size = Paginate(1, MaxPageSize+1)
	assert.Equal(t, DefaultPageSize, size)

	p, page, _ = Paginate(math.MaxInt, 20)
	assert.Equal(t, math.MaxInt/20+1, page)
	assert.GreaterOrEqual(t, p.Offset, 0)
	assert.Equal(t, (page-1)*20, p.Offset)
}
