package ez

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gin-gorm-snippets/internal/apperror"
	resp "gin-gorm-snippets/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperror.Unauthenticated(""), resp.CodeUnauthorized},
		{fmt.Errorf("wrapped: %w", apperror.Forbidden("")), resp.CodeForbidden},
		{apperror.NotFound("user", 1), resp.CodeNotFound},
		{apperror.ValidationFailed("x", "bad"), resp.CodeBadRequest},
		{apperror.Conflict("user", 1), resp.CodeConflict},
		{errors.New("db down"), resp.CodeServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CodeOf(tc.err), tc.err.Error())
	}
}

type echoIn struct {
	Name  string `json:"name" binding:"required,max=5"`
	Email string `json:"email" binding:"omitempty,email"`
}

func serve(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, resp.Resp) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out resp.Resp
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestRegisterActionBindsAndMapsErrors(t *testing.T) {
	r := gin.New()
	RegisterAction(r, Action[echoIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/echo",
		Binder: BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *echoIn) (gin.H, error) {
			if in.Name == "boom" {
				return nil, errors.New("secret internal detail")
			}
			if in.Name == "nope" {
				return nil, apperror.Forbidden("")
			}
			return gin.H{"name": in.Name}, nil
		},
	})

	w, out := serve(t, r, http.MethodPost, "/echo", `{"name":"abc"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, resp.CodeOK, out.Code)

	w, out = serve(t, r, http.MethodPost, "/echo", `{"name":"toolongname","email":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out.Errors, "name")
	assert.Contains(t, out.Errors, "email")

	w, _ = serve(t, r, http.MethodPost, "/echo", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = serve(t, r, http.MethodPost, "/echo", ``)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = serve(t, r, http.MethodPost, "/echo", `{"name":"nope"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, out = serve(t, r, http.MethodPost, "/echo", `{"name":"boom"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, out.Msg, "secret")
}

func TestNoContentAction(t *testing.T) {
	r := gin.New()
	RegisterAction(r, Action[struct{}, struct{}]{
		Method: http.MethodDelete,
		Path:   "/things/:id",
		Binder: BindNone,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			_, err := ParamID(c, "thing")
			return struct{}{}, err
		},
	})

	w, _ := serve(t, r, http.MethodDelete, "/things/7", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())

	w, _ = serve(t, r, http.MethodDelete, "/things/x", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
