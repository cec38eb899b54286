package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gin-gorm-snippets/internal/service"
	resp "gin-gorm-snippets/internal/transport/http/response"
	"gin-gorm-snippets/internal/transport/http/ez"
)

// Snippets 代码片段资源
type Snippets struct {
	svc *service.SnippetService
}

func NewSnippets(svc *service.SnippetService) *Snippets { return &Snippets{svc: svc} }

func (*Snippets) Priority() int { return 30 }

// 入参没有 owner 字段：拥有者总是当前请求方
type createSnippetIn struct {
	Title    string `json:"title" binding:"max=100"`
	Code     string `json:"code" binding:"required"`
	Linenos  bool   `json:"linenos"`
	Language string `json:"language" binding:"omitempty,max=100"`
	Style    string `json:"style" binding:"omitempty,max=100"`
}

type updateSnippetIn struct {
	Title    *string `json:"title" binding:"omitempty,max=100"`
	Code     *string `json:"code"`
	Linenos  *bool   `json:"linenos"`
	Language *string `json:"language" binding:"omitempty,max=100"`
	Style    *string `json:"style" binding:"omitempty,max=100"`
}

func (h *Snippets) MountAPI(g *gin.RouterGroup) {
	h.mountRead(g)

	ez.RegisterAction(g, ez.Action[createSnippetIn, snippetOut]{
		Method: http.MethodPost,
		Path:   "/snippets",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createSnippetIn) (snippetOut, error) {
			s, err := h.svc.Create(c.Request.Context(), ez.ActorFrom(c), service.CreateSnippetInput{
				Title:    in.Title,
				Code:     in.Code,
				Linenos:  in.Linenos,
				Language: in.Language,
				Style:    in.Style,
			})
			if err != nil {
				return snippetOut{}, err
			}
			return toSnippet(c, s), nil
		},
	})

	// 详情与高亮是公开的
	g.GET("/snippets/:id/highlight", func(c *gin.Context) {
		id, err := ez.ParamID(c, "snippet")
		if err != nil {
			ez.Fail(c, err)
			return
		}
		page, err := h.svc.Highlight(c.Request.Context(), ez.ActorFrom(c), id)
		if err != nil {
			ez.Fail(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	})

	h.mountWrite(g)
}

// MountAdmin 管理端：列表、详情、修改、删除；请求方已被标记为管理端
func (h *Snippets) MountAdmin(g *gin.RouterGroup) {
	h.mountRead(g)
	h.mountWrite(g)
}

func (h *Snippets) mountRead(g *gin.RouterGroup) {
	ez.RegisterAction(g, ez.Action[pageQuery, resp.Page[snippetOut]]{
		Method: http.MethodGet,
		Path:   "/snippets",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *pageQuery) (resp.Page[snippetOut], error) {
			p, page, size := service.Paginate(in.Page, in.Size)
			items, total, err := h.svc.List(c.Request.Context(), ez.ActorFrom(c), p)
			if err != nil {
				return resp.Page[snippetOut]{}, err
			}
			return resp.Page[snippetOut]{Count: total, Page: page, Size: size, Results: toSnippets(c, items)}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, snippetOut]{
		Method: http.MethodGet,
		Path:   "/snippets/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (snippetOut, error) {
			id, err := ez.ParamID(c, "snippet")
			if err != nil {
				return snippetOut{}, err
			}
			s, err := h.svc.Get(c.Request.Context(), ez.ActorFrom(c), id)
			if err != nil {
				return snippetOut{}, err
			}
			return toSnippet(c, s), nil
		},
	})
}

func (h *Snippets) mountWrite(g *gin.RouterGroup) {
	update := ez.Action[updateSnippetIn, snippetOut]{
		Path:   "/snippets/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *updateSnippetIn) (snippetOut, error) {
			id, err := ez.ParamID(c, "snippet")
			if err != nil {
				return snippetOut{}, err
			}
			s, err := h.svc.Update(c.Request.Context(), ez.ActorFrom(c), id, service.UpdateSnippetInput{
				Title:    in.Title,
				Code:     in.Code,
				Linenos:  in.Linenos,
				Language: in.Language,
				Style:    in.Style,
			})
			if err != nil {
				return snippetOut{}, err
			}
			return toSnippet(c, s), nil
		},
	}
	for _, m := range []string{http.MethodPatch, http.MethodPut} {
		update.Method = m
		ez.RegisterAction(g, update)
	}

	ez.RegisterAction(g, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete,
		Path:   "/snippets/:id",
		Binder: ez.BindNone,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			id, err := ez.ParamID(c, "snippet")
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, h.svc.Delete(c.Request.Context(), ez.ActorFrom(c), id)
		},
	})
}
