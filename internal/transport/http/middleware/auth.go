package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/core/auth"
	"gin-gorm-snippets/internal/domain"
	"gin-gorm-snippets/internal/policy"
	"gin-gorm-snippets/internal/transport/http/ez"
)

// ActorResolver 按 token 中的 uid 回库取当前用户
type ActorResolver interface {
	ResolveActor(ctx context.Context, uid uint) (*domain.Actor, error)
}

// RevocationChecker 查询 jti 是否已注销
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Authenticate 可选认证：没有 Authorization 头按匿名放行；
// 头存在但无效、已注销或用户已软删时返回 401
func Authenticate(j *auth.JWTer, actors ActorResolver, revoked RevocationChecker, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if ah == "" {
			c.Next()
			return
		}
		tok, ok := strings.CutPrefix(ah, "Bearer ")
		if !ok || strings.TrimSpace(tok) == "" {
			ez.Fail(c, apperror.Unauthenticated("invalid authorization header"))
			return
		}
		claims, err := j.Parse(strings.TrimSpace(tok))
		if err != nil {
			ez.Fail(c, apperror.Unauthenticated("invalid or expired token"))
			return
		}
		if revoked != nil {
			r, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				// Redis 不可用时放行，只记日志
				l.Warn("revocation check failed", zap.String("jti", claims.ID), zap.Error(err))
			case r:
				ez.Fail(c, apperror.Unauthenticated("token has been revoked"))
				return
			}
		}
		actor, err := actors.ResolveActor(c.Request.Context(), claims.UID)
		if err != nil {
			ez.Fail(c, err)
			return
		}
		ez.SetClaims(c, claims)
		ez.SetActor(c, actor)
		c.Next()
	}
}

// AdminConsole 管理端：必须是管理员，并把请求方标记为来自管理端
func AdminConsole() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := ez.ActorFrom(c)
		if err := policy.RequireStaff(a); err != nil {
			ez.Fail(c, err)
			return
		}
		admin := *a
		admin.ViaAdmin = true
		ez.SetActor(c, &admin)
		c.Next()
	}
}
