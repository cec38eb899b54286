package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gin-gorm-snippets/internal/transport/http/ez"
)

// Root GET /api/v1/ 列出顶层资源
type Root struct{}

func (Root) Priority() int { return 0 }

func (Root) MountAPI(g *gin.RouterGroup) {
	ez.RegisterAction(g, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			return gin.H{
				"accounts": ez.AbsURL(c, APIPrefix+"/accounts"),
				"snippets": ez.AbsURL(c, APIPrefix+"/snippets"),
			}, nil
		},
	})
}
