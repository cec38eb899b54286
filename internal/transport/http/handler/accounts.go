package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gin-gorm-snippets/internal/service"
	resp "gin-gorm-snippets/internal/transport/http/response"
	"gin-gorm-snippets/internal/transport/http/ez"
)

// Accounts 用户资源；API 挂在 /accounts，管理端挂在 /users，调用同一个服务
type Accounts struct {
	svc *service.UserService
}

func NewAccounts(svc *service.UserService) *Accounts { return &Accounts{svc: svc} }

func (*Accounts) Priority() int { return 20 }

func (h *Accounts) MountAPI(g *gin.RouterGroup)   { h.mount(g, "/accounts") }
func (h *Accounts) MountAdmin(g *gin.RouterGroup) { h.mount(g, "/users") }

type listUsersQ struct {
	pageQuery
	IncludeAll bool `form:"include_all"`
}

// 详情默认 include_all=true：管理员直接按 id 能看到软删用户
type getUserQ struct {
	IncludeAll *bool `form:"include_all"`
}

type createUserIn struct {
	Username string `json:"username" binding:"required,max=150"`
	Email    string `json:"email" binding:"omitempty,email,max=254"`
	Password string `json:"password" binding:"required,max=128"`
	IsStaff  bool   `json:"isStaff"`
}

type updateUserIn struct {
	Username    *string `json:"username" binding:"omitempty,max=150"`
	Email       *string `json:"email" binding:"omitempty,email,max=254"`
	Password    *string `json:"password" binding:"omitempty,max=128"`
	IsStaff     *bool   `json:"isStaff"`
	SoftDeleted *bool   `json:"softDeleted"`
}

type deletedOut struct {
	ID      uint   `json:"id"`
	Message string `json:"message"`
}

func (h *Accounts) mount(g *gin.RouterGroup, base string) {
	item := base + "/:id"

	ez.RegisterAction(g, ez.Action[listUsersQ, resp.Page[userOut]]{
		Method: http.MethodGet,
		Path:   base,
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listUsersQ) (resp.Page[userOut], error) {
			p, page, size := service.Paginate(in.Page, in.Size)
			users, total, err := h.svc.List(c.Request.Context(), ez.ActorFrom(c), in.IncludeAll, p)
			if err != nil {
				return resp.Page[userOut]{}, err
			}
			return resp.Page[userOut]{Count: total, Page: page, Size: size, Results: toUsers(c, users)}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[getUserQ, userOut]{
		Method: http.MethodGet,
		Path:   item,
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *getUserQ) (userOut, error) {
			id, err := ez.ParamID(c, "user")
			if err != nil {
				return userOut{}, err
			}
			includeAll := in.IncludeAll == nil || *in.IncludeAll
			u, err := h.svc.Get(c.Request.Context(), ez.ActorFrom(c), id, includeAll)
			if err != nil {
				return userOut{}, err
			}
			return toUser(c, u), nil
		},
	})

	ez.RegisterAction(g, ez.Action[createUserIn, userOut]{
		Method: http.MethodPost,
		Path:   base,
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createUserIn) (userOut, error) {
			u, err := h.svc.Create(c.Request.Context(), ez.ActorFrom(c), service.CreateUserInput{
				Username: in.Username,
				Email:    in.Email,
				Password: in.Password,
				IsStaff:  in.IsStaff,
			})
			if err != nil {
				return userOut{}, err
			}
			return toUser(c, u), nil
		},
	})

	update := ez.Action[updateUserIn, userOut]{
		Path:   item,
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *updateUserIn) (userOut, error) {
			id, err := ez.ParamID(c, "user")
			if err != nil {
				return userOut{}, err
			}
			u, err := h.svc.Update(c.Request.Context(), ez.ActorFrom(c), id, service.UpdateUserInput{
				Username:    in.Username,
				Email:       in.Email,
				Password:    in.Password,
				IsStaff:     in.IsStaff,
				SoftDeleted: in.SoftDeleted,
			})
			if err != nil {
				return userOut{}, err
			}
			return toUser(c, u), nil
		},
	}
	for _, m := range []string{http.MethodPatch, http.MethodPut} {
		update.Method = m
		ez.RegisterAction(g, update)
	}

	ez.RegisterAction(g, ez.Action[struct{}, deletedOut]{
		Method: http.MethodDelete,
		Path:   item,
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (deletedOut, error) {
			id, err := ez.ParamID(c, "user")
			if err != nil {
				return deletedOut{}, err
			}
			u, err := h.svc.Delete(c.Request.Context(), ez.ActorFrom(c), id)
			if err != nil {
				return deletedOut{}, err
			}
			return deletedOut{ID: u.ID, Message: service.SoftDeleteMessage}, nil
		},
	})
}

