package ez

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/core/auth"
	"gin-gorm-snippets/internal/domain"
)

const (
	keyActor  = "actor"
	keyClaims = "claims"
)

func SetActor(c *gin.Context, a *domain.Actor) { c.Set(keyActor, a) }

// ActorFrom 匿名请求返回 nil
func ActorFrom(c *gin.Context) *domain.Actor {
	if v, ok := c.Get(keyActor); ok {
		if a, ok := v.(*domain.Actor); ok {
			return a
		}
	}
	return nil
}

func SetClaims(c *gin.Context, cl *auth.Claims) { c.Set(keyClaims, cl) }

func ClaimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(keyClaims); ok {
		if cl, ok := v.(*auth.Claims); ok {
			return cl
		}
	}
	return nil
}

// ParamID 路径中的数字 id；非法值按不存在处理
func ParamID(c *gin.Context, resource string) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NotFoundBy(resource, "id", raw)
	}
	return uint(id), nil
}

// AbsURL 按请求的 scheme/host 拼出绝对地址
func AbsURL(c *gin.Context, path string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + c.Request.Host + path
}
