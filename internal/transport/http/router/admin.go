package router

import (
	"github.com/gin-gonic/gin"

	mdw "gin-gorm-snippets/internal/transport/http/middleware"
)

// NewAdminEngine 管理端 v1（统一要求管理员）
func NewAdminEngine(d Deps) *gin.Engine {
	r := d.base("admin")

	admin := r.Group("/admin/v1")
	admin.Use(d.authenticate(), mdw.AdminConsole())
	d.Modules.MountAdmin(admin)

	return r
}
