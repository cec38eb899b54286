package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/core/auth"
	"gin-gorm-snippets/internal/domain"
)

const invalidCredentials = "unable to log in with provided credentials"

type TokenIssuer interface {
	Issue(uid uint, role string) (string, error)
}

// Revoker 记录已注销的 token；cache.Cache 实现该接口
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type AuthService struct {
	users   domain.UserRepository
	hasher  domain.PasswordHasher
	tokens  TokenIssuer
	revoker Revoker
	log     *zap.Logger

	// 用户名不存在时也做一次哈希比较，使响应耗时与密码错误一致
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users domain.UserRepository, hasher domain.PasswordHasher, tokens TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log}
}

// WithRevoker 没有 Redis 时注销只是客户端丢弃 token
func (s *AuthService) WithRevoker(r Revoker) *AuthService {
	s.revoker = r
	return s
}

// Login 校验用户名密码并签发 token；软删用户不能登录
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	username = strings.TrimSpace(username)
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "username is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return "", nil, apperror.Invalid(fields)
	}

	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, apperror.ErrNotFound) {
		s.compareDummy(password)
		return "", nil, apperror.Unauthenticated(invalidCredentials)
	}
	if err != nil {
		return "", nil, fmt.Errorf("finding user: %w", err)
	}
	if u.SoftDeleted || !s.hasher.Compare(u.PasswordHash, password) {
		s.log.Info("login rejected", zap.String("username", username), zap.Bool("softDeleted", u.SoftDeleted))
		return "", nil, apperror.Unauthenticated(invalidCredentials)
	}

	role := auth.RoleUser
	if u.IsStaff {
		role = auth.RoleStaff
	}
	token, err := s.tokens.Issue(u.ID, role)
	if err != nil {
		return "", nil, fmt.Errorf("issuing token: %w", err)
	}
	return token, u, nil
}

// ResolveActor 每个请求都回库取用户，权限以数据库为准
func (s *AuthService) ResolveActor(ctx context.Context, uid uint) (*domain.Actor, error) {
	u, err := s.users.FindActive(ctx, uid)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthenticated("user inactive or deleted")
	}
	if err != nil {
		return nil, fmt.Errorf("resolving actor: %w", err)
	}
	return &domain.Actor{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}, nil
}

func (s *AuthService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("unknown-user-placeholder")
		if err != nil {
			s.log.Warn("dummy hash failed", zap.Error(err))
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		s.hasher.Compare(s.dummyHash, password)
	}
}

func (s *AuthService) Logout(ctx context.Context, jti string, ttl time.Duration) error {
	if s.revoker == nil || jti == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, jti, ttl); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}
