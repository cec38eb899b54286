package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"gin-gorm-snippets/internal/domain"
	"gin-gorm-snippets/internal/transport/http/ez"
)

// APIPrefix 资源链接统一指向公开 API
const APIPrefix = "/api/v1"

func accountURL(c *gin.Context, id uint) string {
	return ez.AbsURL(c, fmt.Sprintf("%s/accounts/%d", APIPrefix, id))
}

func snippetURL(c *gin.Context, id uint) string {
	return ez.AbsURL(c, fmt.Sprintf("%s/snippets/%d", APIPrefix, id))
}

type userOut struct {
	URL         string   `json:"url"`
	ID          uint     `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	IsStaff     bool     `json:"isStaff"`
	SoftDeleted bool     `json:"softDeleted"`
	Snippets    []string `json:"snippets"`
}

func toUser(c *gin.Context, u *domain.User) userOut {
	links := make([]string, 0, len(u.Snippets))
	for _, s := range u.Snippets {
		links = append(links, snippetURL(c, s.ID))
	}
	return userOut{
		URL:         accountURL(c, u.ID),
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsStaff:     u.IsStaff,
		SoftDeleted: u.SoftDeleted,
		Snippets:    links,
	}
}

func toUsers(c *gin.Context, us []domain.User) []userOut {
	out := make([]userOut, 0, len(us))
	for i := range us {
		out = append(out, toUser(c, &us[i]))
	}
	return out
}

type snippetOut struct {
	URL       string  `json:"url"`
	ID        uint    `json:"id"`
	Highlight string  `json:"highlight"`
	Title     string  `json:"title"`
	Code      string  `json:"code"`
	Linenos   bool    `json:"linenos"`
	Language  string  `json:"language"`
	Style     string  `json:"style"`
	Owner     *string `json:"owner"` // 拥有者用户名；拥有者被删除后为 null
}

func toSnippet(c *gin.Context, s *domain.Snippet) snippetOut {
	out := snippetOut{
		URL:       snippetURL(c, s.ID),
		ID:        s.ID,
		Highlight: snippetURL(c, s.ID) + "/highlight",
		Title:     s.Title,
		Code:      s.Code,
		Linenos:   s.Linenos,
		Language:  s.Language,
		Style:     s.Style,
	}
	if s.Owner != nil {
		name := s.Owner.Username
		out.Owner = &name
	}
	return out
}

func toSnippets(c *gin.Context, ss []domain.Snippet) []snippetOut {
	out := make([]snippetOut, 0, len(ss))
	for i := range ss {
		out = append(out, toSnippet(c, &ss[i]))
	}
	return out
}

type pageQuery struct {
	Page int `form:"page"`
	Size int `form:"size"`
}
