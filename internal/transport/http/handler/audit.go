package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gin-gorm-snippets/internal/domain"
	"gin-gorm-snippets/internal/policy"
	"gin-gorm-snippets/internal/service"
	resp "gin-gorm-snippets/internal/transport/http/response"
	"gin-gorm-snippets/internal/transport/http/ez"
)

// AuditLogs 管理端只读审计查询
type AuditLogs struct {
	reader domain.AuditReader
}

func NewAuditLogs(reader domain.AuditReader) *AuditLogs { return &AuditLogs{reader: reader} }

func (*AuditLogs) Priority() int { return 90 }

type auditQ struct {
	pageQuery
	ModelName string `form:"model_name" binding:"omitempty,oneof=User Snippet"`
	ObjectID  uint   `form:"object_id"`
	Action    string `form:"action" binding:"omitempty,oneof=create update delete soft-delete"`
}

func (h *AuditLogs) MountAdmin(g *gin.RouterGroup) {
	ez.RegisterAction(g, ez.Action[auditQ, resp.Page[domain.AuditLogEntry]]{
		Method: http.MethodGet,
		Path:   "/audit-logs",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *auditQ) (resp.Page[domain.AuditLogEntry], error) {
			if err := policy.CanReadAudit(ez.ActorFrom(c)); err != nil {
				return resp.Page[domain.AuditLogEntry]{}, err
			}
			p, page, size := service.Paginate(in.Page, in.Size)
			entries, total, err := h.reader.List(c.Request.Context(), domain.AuditFilter{
				ModelName: in.ModelName,
				ObjectID:  in.ObjectID,
				Action:    domain.AuditAction(in.Action),
			}, p)
			if err != nil {
				return resp.Page[domain.AuditLogEntry]{}, err
			}
			return resp.Page[domain.AuditLogEntry]{Count: total, Page: page, Size: size, Results: entries}, nil
		},
	})
}
