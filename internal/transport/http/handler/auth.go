package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/core/auth"
	"gin-gorm-snippets/internal/service"
	"gin-gorm-snippets/internal/transport/http/ez"
)

type Auth struct {
	svc   *service.AuthService
	jwter *auth.JWTer
}

func NewAuth(svc *service.AuthService, jwter *auth.JWTer) *Auth {
	return &Auth{svc: svc, jwter: jwter}
}

func (*Auth) Priority() int { return 10 }

func (h *Auth) MountAPI(g *gin.RouterGroup) {
	type tokenIn struct {
		Username string `json:"username" binding:"required,max=150"`
		Password string `json:"password" binding:"required"`
	}
	type tokenOut struct {
		Token string  `json:"token"`
		User  userOut `json:"user"`
	}
	ez.RegisterAction(g, ez.Action[tokenIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/auth/token",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *tokenIn) (tokenOut, error) {
			tok, u, err := h.svc.Login(c.Request.Context(), in.Username, in.Password)
			if err != nil {
				return tokenOut{}, err
			}
			return tokenOut{Token: tok, User: toUser(c, u)}, nil
		},
	})

	// 注销：吊销当前 token 的 jti 直到其过期
	ez.RegisterAction(g, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			claims := ez.ClaimsFrom(c)
			if claims == nil {
				return nil, apperror.Unauthenticated("")
			}
			if err := h.svc.Logout(c.Request.Context(), claims.ID, h.jwter.Remaining(claims)); err != nil {
				return nil, err
			}
			return gin.H{"message": "logged out"}, nil
		},
	})
}
