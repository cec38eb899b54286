package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/domain"
	"gin-gorm-snippets/internal/policy"
	"gin-gorm-snippets/pkg/utils"
)

const (
	MaxUsernameLength = 150
	SoftDeleteMessage = "User successfully soft deleted"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type CreateUserInput struct {
	Username string
	Email    string
	Password string
	IsStaff  bool
}

// UpdateUserInput nil 字段表示不修改
type UpdateUserInput struct {
	Username    *string
	Email       *string
	Password    *string
	IsStaff     *bool
	SoftDeleted *bool
}

type UserService struct {
	users  domain.UserRepository
	audit  domain.AuditRecorder
	tx     domain.Transactor
	hasher domain.PasswordHasher
	// 代码片段详情缓存里带着拥有者，用户变更后需要清掉
	snippets SnippetCache
	log      *zap.Logger
}

func NewUserService(users domain.UserRepository, audit domain.AuditRecorder, tx domain.Transactor, hasher domain.PasswordHasher, log *zap.Logger) *UserService {
	return &UserService{users: users, audit: audit, tx: tx, hasher: hasher, log: log}
}

// WithSnippetCache 与 SnippetService 共用同一个缓存
func (s *UserService) WithSnippetCache(c SnippetCache) *UserService {
	s.snippets = c
	return s
}

func (s *UserService) List(ctx context.Context, actor *domain.Actor, includeAll bool, p domain.Page) ([]domain.User, int64, error) {
	if err := policy.CanListUsers(actor); err != nil {
		return nil, 0, err
	}
	users, total, err := s.users.List(ctx, policy.UserScope(actor, includeAll), p)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

// Get 对普通用户而言，软删用户与不存在的用户一样返回 not found
func (s *UserService) Get(ctx context.Context, actor *domain.Actor, id uint, includeAll bool) (*domain.User, error) {
	if err := policy.CanRetrieveUser(actor); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id, policy.UserScope(actor, includeAll))
}

func (s *UserService) Create(ctx context.Context, actor *domain.Actor, in CreateUserInput) (*domain.User, error) {
	if err := policy.CanManageUsers(actor); err != nil {
		return nil, err
	}
	return s.create(ctx, actor.Ref(), in)
}

// EnsureStaff 没有任何管理员时创建一个；审计记录的操作人为空（系统操作）
func (s *UserService) EnsureStaff(ctx context.Context, in CreateUserInput) (bool, error) {
	n, err := s.users.CountStaff(ctx)
	if err != nil {
		return false, fmt.Errorf("counting staff: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	in.IsStaff = true
	if _, err := s.create(ctx, nil, in); err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserService) create(ctx context.Context, actorID *uint, in CreateUserInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	fields := map[string]string{}
	validateUsername(fields, in.Username)
	validateEmail(fields, in.Email)
	if in.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return nil, apperror.Invalid(fields)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsStaff:      in.IsStaff,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		_, err := s.audit.Append(ctx, domain.AuditCreate, domain.ModelUser, u.ID, actorID)
		return err
	})
	if err != nil {
		return nil, s.fail("create user", err, zap.String("username", in.Username))
	}
	recorded(domain.ModelUser, domain.AuditCreate)
	s.log.Info("user created", zap.Uint("id", u.ID), zap.String("username", u.Username), zap.Uintp("by", actorID))
	return u, nil
}

func (s *UserService) Update(ctx context.Context, actor *domain.Actor, id uint, in UpdateUserInput) (*domain.User, error) {
	if err := policy.CanManageUsers(actor); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if in.Username != nil {
		*in.Username = strings.TrimSpace(*in.Username)
		validateUsername(fields, *in.Username)
	}
	if in.Email != nil {
		*in.Email = strings.TrimSpace(*in.Email)
		validateEmail(fields, *in.Email)
	}
	if in.Password != nil && *in.Password == "" {
		fields["password"] = "password may not be blank"
	}
	if len(fields) > 0 {
		return nil, apperror.Invalid(fields)
	}

	// 哈希放在事务外，避免长时间持有连接
	var hash string
	if in.Password != nil {
		h, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var out *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.FindByID(ctx, id, domain.UserFilter{IncludeSoftDeleted: true})
		if err != nil {
			return err
		}
		if in.Username != nil {
			u.Username = *in.Username
		}
		if in.Email != nil {
			u.Email = *in.Email
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		if in.IsStaff != nil {
			u.IsStaff = *in.IsStaff
		}
		if in.SoftDeleted != nil {
			u.SoftDeleted = *in.SoftDeleted
		}
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		if _, err := s.audit.Append(ctx, domain.AuditUpdate, domain.ModelUser, u.ID, actor.Ref()); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, s.fail("update user", err, zap.Uint("id", id))
	}
	recorded(domain.ModelUser, domain.AuditUpdate)
	s.evictSnippets(ctx, out)
	s.log.Info("user updated", zap.Uint("id", id), zap.Uint("by", actor.ID))
	return out, nil
}

// Delete 软删：只置 soft_deleted = true，行保留
func (s *UserService) Delete(ctx context.Context, actor *domain.Actor, id uint) (*domain.User, error) {
	if err := policy.CanManageUsers(actor); err != nil {
		return nil, err
	}
	var out *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.FindByID(ctx, id, domain.UserFilter{IncludeSoftDeleted: true})
		if err != nil {
			return err
		}
		if err := s.users.MarkSoftDeleted(ctx, u.ID); err != nil {
			return err
		}
		if _, err := s.audit.Append(ctx, domain.AuditSoftDelete, domain.ModelUser, u.ID, actor.Ref()); err != nil {
			return err
		}
		u.SoftDeleted = true
		out = u
		return nil
	})
	if err != nil {
		return nil, s.fail("soft delete user", err, zap.Uint("id", id))
	}
	recorded(domain.ModelUser, domain.AuditSoftDelete)
	s.evictSnippets(ctx, out)
	s.log.Info("user soft deleted", zap.Uint("id", id), zap.Uint("by", actor.ID))
	return out, nil
}

// evictSnippets 清掉该用户名下代码片段的详情缓存（FindByID 已预加载 id）
func (s *UserService) evictSnippets(ctx context.Context, u *domain.User) {
	if s.snippets == nil {
		return
	}
	for _, sn := range u.Snippets {
		if err := s.snippets.Invalidate(ctx, sn.ID); err != nil {
			s.log.Warn("snippet cache invalidate failed", zap.Uint("id", sn.ID), zap.Uint("owner", u.ID), zap.Error(err))
		}
	}
}

func (s *UserService) hash(plain string) (string, error) {
	h, err := s.hasher.Hash(plain)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", apperror.ValidationFailed("password", err.Error())
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return h, nil
}

// fail 业务错误原样返回；其余记录日志后包装
func (s *UserService) fail(op string, err error, fields ...zap.Field) error {
	var ae *apperror.AppError
	if errors.As(err, &ae) {
		return err
	}
	s.log.Error(op+" failed", append(fields, zap.Error(err))...)
	return fmt.Errorf("%s: %w", op, err)
}

func validateUsername(fields map[string]string, username string) {
	switch {
	case username == "":
		fields["username"] = "username is required"
	case len(username) > MaxUsernameLength:
		fields["username"] = fmt.Sprintf("username must be %d characters or fewer", MaxUsernameLength)
	case !usernamePattern.MatchString(username):
		fields["username"] = "username may contain only letters, digits and @/./+/-/_"
	}
}

func validateEmail(fields map[string]string, email string) {
	if email == "" {
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "enter a valid email address"
	}
}
