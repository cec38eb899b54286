// Package app 组装两个进程共用的依赖：日志、数据库、Redis、服务与路由模块。
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"gin-gorm-snippets/internal/core/auth"
	"gin-gorm-snippets/internal/core/cache"
	"gin-gorm-snippets/internal/core/config"
	"gin-gorm-snippets/internal/core/database"
	"gin-gorm-snippets/internal/core/logger"
	"gin-gorm-snippets/internal/domain"
	"gin-gorm-snippets/internal/repo"
	"gin-gorm-snippets/internal/service"
	"gin-gorm-snippets/internal/transport/http/handler"
	"gin-gorm-snippets/internal/transport/http/router"
	"gin-gorm-snippets/pkg/utils"
)

type App struct {
	Cfg   *config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	Cache *cache.Cache // 未配置 Redis 时为 nil
	JWT   *auth.JWTer

	Users    *service.UserService
	Snippets *service.SnippetService
	Auth     *service.AuthService
	Audit    *repo.AuditRepo
}

// NewLogger 按配置决定是否写文件切割日志
func NewLogger(cfg *config.Config) (*zap.Logger, func()) {
	f := cfg.Log.File
	if f.Enable {
		return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
			Filename:   f.Filename,
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		})
	}
	return logger.New(cfg.Log.Level, cfg.Log.JSON)
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, func(), error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Writer:             logger.ToStdLogger(log.Named("gorm"), zapcore.WarnLevel),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver), zap.String("dsn", database.MaskDSN(cfg.DB.DSN)))

	if cfg.DB.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("automigrate: %w", err)
		}
		log.Info("automigrate done")
	}

	a := &App{
		Cfg: cfg,
		Log: log,
		DB:  db,
		JWT: &auth.JWTer{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
			TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		},
	}

	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := c.Ping(pctx)
		cancel()
		if err != nil {
			// Redis 只是加速与注销，不可用时降级运行
			log.Warn("redis unavailable, cache and token revocation disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
		} else {
			a.Cache = c
			log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	users := repo.NewUserRepo(db)
	a.Audit = repo.NewAuditRepo(db)
	tx := repo.NewTx(db)
	hasher := utils.BcryptHasher{}

	a.Users = service.NewUserService(users, a.Audit, tx, hasher, log.Named("users"))
	a.Snippets = service.NewSnippetService(repo.NewSnippetRepo(db), a.Audit, tx, log.Named("snippets"))
	a.Auth = service.NewAuthService(users, hasher, a.JWT, log.Named("auth"))
	if a.Cache != nil {
		ttl := time.Duration(cfg.Redis.SnippetTTLSec) * time.Second
		snippets := cache.NewEntity[domain.Snippet](a.Cache, "snippet", ttl)
		a.Snippets.WithCache(snippets)
		a.Users.WithSnippetCache(snippets)
		a.Auth.WithRevoker(a.Cache)
	}

	cleanup := func() {
		if a.Cache != nil {
			_ = a.Cache.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return a, cleanup, nil
}

// Modules 两个引擎注册同一组模块，各自只挂自己实现的接口
func (a *App) Modules() *router.Registry {
	return (&router.Registry{}).Register(
		handler.Root{},
		handler.NewAuth(a.Auth, a.JWT),
		handler.NewAccounts(a.Users),
		handler.NewSnippets(a.Snippets),
		handler.NewAuditLogs(a.Audit),
	)
}

func (a *App) Deps() router.Deps {
	mode := gin.ReleaseMode
	if a.Cfg.App.Env == "local" {
		mode = gin.DebugMode
	}
	d := router.Deps{
		Log:         a.Log,
		Mode:        mode,
		Limits:      a.Cfg.App.Limits,
		CORSOrigins: a.Cfg.App.HTTP.CORSOrigins,
		JWT:         a.JWT,
		Actors:      a.Auth,
		Modules:     a.Modules(),
	}
	// 避免把 nil *cache.Cache 装进接口
	if a.Cache != nil {
		d.Revocations = a.Cache
	}
	return d
}

// Bootstrap 配置了初始管理员且库里没有任何管理员时创建一个
func (a *App) Bootstrap(ctx context.Context) error {
	b := a.Cfg.App.Admin.Bootstrap
	if b.Username == "" || b.Password == "" {
		return nil
	}
	created, err := a.Users.EnsureStaff(ctx, service.CreateUserInput{
		Username: b.Username,
		Email:    b.Email,
		Password: b.Password,
	})
	if err != nil {
		return fmt.Errorf("bootstrap staff user: %w", err)
	}
	if created {
		a.Log.Info("bootstrap staff user created", zap.String("username", b.Username))
	}
	return nil
}
