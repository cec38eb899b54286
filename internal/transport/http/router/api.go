package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gin-gorm-snippets/internal/core/auth"
	"gin-gorm-snippets/internal/core/config"
	"gin-gorm-snippets/internal/core/server"
	mdw "gin-gorm-snippets/internal/transport/http/middleware"
	resp "gin-gorm-snippets/internal/transport/http/response"
)

// Deps 两个引擎共用的依赖
type Deps struct {
	Log         *zap.Logger
	Mode        string
	Limits      config.Limits
	CORSOrigins []string
	JWT         *auth.JWTer
	Actors      mdw.ActorResolver
	// 可为 nil：未配置 Redis 时不检查注销
	Revocations mdw.RevocationChecker
	Modules     *Registry
}

func (d Deps) base(name string) *gin.Engine {
	r := server.NewRouter(d.Log, server.Options{
		Name:        name,
		Mode:        d.Mode,
		CORSOrigins: d.CORSOrigins,
		Recovery: func(c *gin.Context, _ any) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, "internal error"))
		},
	})

	lim := d.Limits
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst),
		mdw.RateLimitPerIP(rate.Limit(lim.PerIPRPS), lim.PerIPBurst),
		mdw.ConcurrencyLimit(lim.MaxInFlight),
		mdw.MaxBodyBytes(lim.MaxBodyBytes),
		mdw.Timeout(time.Duration(lim.RequestTimeout)*time.Second),
		mdw.Metrics(name),
		mdw.AccessLog(d.Log),
	)

	// 健康检查与指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, ""))
	})
	return r
}

func (d Deps) authenticate() gin.HandlerFunc {
	return mdw.Authenticate(d.JWT, d.Actors, d.Revocations, d.Log)
}

// NewAPIEngine 公开 API：可选认证，权限由服务层按请求方判断
func NewAPIEngine(d Deps) *gin.Engine {
	r := d.base("api")

	api := r.Group("/api/v1")
	api.Use(d.authenticate())
	d.Modules.MountAPI(api)

	return r
}
