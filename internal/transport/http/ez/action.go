package ez

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gin-gorm-snippets/internal/apperror"
	resp "gin-gorm-snippets/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string // 例："/auth/token"、"/snippets/:id"
	Binder  Binder
	Status  int // 成功状态码，默认 200；204 不写响应体
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 在分组下注册动作接口；错误统一经 Fail 映射
func RegisterAction[I any, O any](g gin.IRoutes, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		var in I
		var err error
		switch a.Binder {
		case BindJSON:
			err = c.ShouldBindJSON(&in)
		case BindQuery:
			err = c.ShouldBindQuery(&in)
		}
		if err != nil {
			Fail(c, bindError(err))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, err)
			return
		}
		if status == http.StatusNoContent {
			c.Status(status)
			return
		}
		c.JSON(status, resp.OK(out))
	}

	method := strings.ToUpper(a.Method)
	if method == "" {
		method = http.MethodPost
	}
	g.Handle(method, a.Path, h)
}

// CodeOf apperror 哨兵到业务码的唯一映射
func CodeOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		return resp.CodeUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return resp.CodeForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return resp.CodeNotFound
	case errors.Is(err, apperror.ErrValidation):
		return resp.CodeBadRequest
	case errors.Is(err, apperror.ErrConflict):
		return resp.CodeConflict
	default:
		return resp.CodeServerError
	}
}

// Fail 写错误响应并中止；500 不暴露内部信息，原始错误挂到 c.Errors 供访问日志输出
func Fail(c *gin.Context, err error) {
	code := CodeOf(err)
	switch code {
	case resp.CodeServerError:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp.Error(code, ""))
		return
	case resp.CodeUnauthorized:
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
	}
	if fields := apperror.FieldsOf(err); len(fields) > 0 {
		c.AbortWithStatusJSON(resp.Status(code), resp.Invalid(messageOf(err), fields))
		return
	}
	c.AbortWithStatusJSON(resp.Status(code), resp.Error(code, messageOf(err)))
}

// messageOf 优先取 AppError 的对外消息，避免带出包装前缀
func messageOf(err error) string {
	var ae *apperror.AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

func bindError(err error) error {
	var verrs validatorErrors
	if errors.As(err, &verrs) {
		return apperror.Invalid(fieldErrors(verrs))
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return apperror.ValidationFailed(ute.Field, "expected "+ute.Type.String())
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return apperror.Malformed("request body too large")
	}
	if errors.Is(err, io.EOF) {
		return apperror.Malformed("request body is empty")
	}
	return apperror.Malformed(err.Error())
}
