package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"gin-gorm-snippets/internal/apperror"
	"gin-gorm-snippets/internal/domain"
	"gin-gorm-snippets/internal/policy"
)

const (
	MaxTitleLength = 100
	MaxTagLength   = 100
)

var tagPattern = regexp.MustCompile(`^[\w+#.-]+$`)

// SnippetCache 详情读缓存；cache.Entity[domain.Snippet] 实现该接口
type SnippetCache interface {
	Get(ctx context.Context, id uint, load func(ctx context.Context) (*domain.Snippet, error)) (*domain.Snippet, error)
	Invalidate(ctx context.Context, id uint) error
}

type CreateSnippetInput struct {
	Title    string
	Code     string
	Linenos  bool
	Language string
	Style    string
}

type UpdateSnippetInput struct {
	Title    *string
	Code     *string
	Linenos  *bool
	Language *string
	Style    *string
}

type SnippetService struct {
	snippets domain.SnippetRepository
	audit    domain.AuditRecorder
	tx       domain.Transactor
	cache    SnippetCache
	log      *zap.Logger
}

func NewSnippetService(snippets domain.SnippetRepository, audit domain.AuditRecorder, tx domain.Transactor, log *zap.Logger) *SnippetService {
	return &SnippetService{snippets: snippets, audit: audit, tx: tx, log: log}
}

// WithCache 开启详情缓存；未配置 Redis 时不调用
func (s *SnippetService) WithCache(c SnippetCache) *SnippetService {
	s.cache = c
	return s
}

func (s *SnippetService) List(ctx context.Context, actor *domain.Actor, p domain.Page) ([]domain.Snippet, int64, error) {
	if err := policy.CanReadSnippets(actor); err != nil {
		return nil, 0, err
	}
	items, total, err := s.snippets.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("listing snippets: %w", err)
	}
	return items, total, nil
}

func (s *SnippetService) Get(ctx context.Context, actor *domain.Actor, id uint) (*domain.Snippet, error) {
	if err := policy.CanReadSnippets(actor); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return s.snippets.FindByID(ctx, id)
	}
	return s.cache.Get(ctx, id, func(ctx context.Context) (*domain.Snippet, error) {
		return s.snippets.FindByID(ctx, id)
	})
}

// Create 拥有者总是当前请求方，客户端传入的 owner 被忽略
func (s *SnippetService) Create(ctx context.Context, actor *domain.Actor, in CreateSnippetInput) (*domain.Snippet, error) {
	if err := policy.CanCreateSnippet(actor); err != nil {
		return nil, err
	}
	if in.Language == "" {
		in.Language = domain.DefaultLanguage
	}
	if in.Style == "" {
		in.Style = domain.DefaultStyle
	}
	fields := map[string]string{}
	validateSnippet(fields, &in.Title, &in.Code, &in.Language, &in.Style)
	if len(fields) > 0 {
		return nil, apperror.Invalid(fields)
	}

	owner := actor.ID
	sn := &domain.Snippet{
		Title:    in.Title,
		Code:     in.Code,
		Linenos:  in.Linenos,
		Language: in.Language,
		Style:    in.Style,
		OwnerID:  &owner,
	}
	var out *domain.Snippet
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.snippets.Create(ctx, sn); err != nil {
			return err
		}
		if _, err := s.audit.Append(ctx, domain.AuditCreate, domain.ModelSnippet, sn.ID, actor.Ref()); err != nil {
			return err
		}
		// 重新读取以带上 owner
		got, err := s.snippets.FindByID(ctx, sn.ID)
		if err != nil {
			return err
		}
		out = got
		return nil
	})
	if err != nil {
		return nil, s.fail("create snippet", err, zap.Uint("owner", owner))
	}
	recorded(domain.ModelSnippet, domain.AuditCreate)
	s.log.Info("snippet created", zap.Uint("id", out.ID), zap.Uint("owner", owner))
	return out, nil
}

// Update 先认证，再查找，最后判断拥有者；匿名请求不会泄露对象是否存在
func (s *SnippetService) Update(ctx context.Context, actor *domain.Actor, id uint, in UpdateSnippetInput) (*domain.Snippet, error) {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	var out *domain.Snippet
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sn, err := s.snippets.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.CanModifySnippet(actor, sn); err != nil {
			return err
		}
		title, code, lang, style := sn.Title, sn.Code, sn.Language, sn.Style
		if in.Title != nil {
			title = *in.Title
		}
		if in.Code != nil {
			code = *in.Code
		}
		if in.Language != nil {
			lang = *in.Language
		}
		if in.Style != nil {
			style = *in.Style
		}
		fields := map[string]string{}
		validateSnippet(fields, &title, &code, &lang, &style)
		if len(fields) > 0 {
			return apperror.Invalid(fields)
		}
		sn.Title, sn.Code, sn.Language, sn.Style = title, code, lang, style
		if in.Linenos != nil {
			sn.Linenos = *in.Linenos
		}
		if err := s.snippets.Update(ctx, sn); err != nil {
			return err
		}
		if _, err := s.audit.Append(ctx, domain.AuditUpdate, domain.ModelSnippet, sn.ID, actor.Ref()); err != nil {
			return err
		}
		out = sn
		return nil
	})
	if err != nil {
		return nil, s.fail("update snippet", err, zap.Uint("id", id))
	}
	s.invalidate(ctx, id)
	recorded(domain.ModelSnippet, domain.AuditUpdate)
	s.log.Info("snippet updated", zap.Uint("id", id), zap.Uint("by", actor.ID), zap.Bool("admin", actor.ViaAdmin))
	return out, nil
}

// Delete 物理删除
func (s *SnippetService) Delete(ctx context.Context, actor *domain.Actor, id uint) error {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sn, err := s.snippets.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.CanModifySnippet(actor, sn); err != nil {
			return err
		}
		if err := s.snippets.Delete(ctx, sn.ID); err != nil {
			return err
		}
		_, err = s.audit.Append(ctx, domain.AuditDelete, domain.ModelSnippet, sn.ID, actor.Ref())
		return err
	})
	if err != nil {
		return s.fail("delete snippet", err, zap.Uint("id", id))
	}
	s.invalidate(ctx, id)
	recorded(domain.ModelSnippet, domain.AuditDelete)
	s.log.Info("snippet deleted", zap.Uint("id", id), zap.Uint("by", actor.ID), zap.Bool("admin", actor.ViaAdmin))
	return nil
}

// Highlight 返回代码片段的 HTML 渲染
func (s *SnippetService) Highlight(ctx context.Context, actor *domain.Actor, id uint) (string, error) {
	sn, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	return RenderHTML(sn), nil
}

func RenderHTML(sn *domain.Snippet) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(sn.Title))
	b.WriteString("</title>\n</head>\n<body>\n")
	fmt.Fprintf(&b, "<pre class=\"highlight style-%s\" data-language=\"%s\"><code>",
		html.EscapeString(sn.Style), html.EscapeString(sn.Language))
	lines := strings.Split(strings.TrimRight(sn.Code, "\n"), "\n")
	width := len(fmt.Sprint(len(lines)))
	for i, line := range lines {
		if sn.Linenos {
			fmt.Fprintf(&b, "<span class=\"lineno\">%*d</span> ", width, i+1)
		}
		b.WriteString(html.EscapeString(line))
		b.WriteByte('\n')
	}
	b.WriteString("</code></pre>\n</body>\n</html>\n")
	return b.String()
}

func (s *SnippetService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("snippet cache invalidate failed", zap.Uint("id", id), zap.Error(err))
	}
}

func (s *SnippetService) fail(op string, err error, fields ...zap.Field) error {
	var ae *apperror.AppError
	if errors.As(err, &ae) {
		return err
	}
	s.log.Error(op+" failed", append(fields, zap.Error(err))...)
	return fmt.Errorf("%s: %w", op, err)
}

func validateSnippet(fields map[string]string, title, code, lang, style *string) {
	*title = strings.TrimSpace(*title)
	*lang = strings.TrimSpace(*lang)
	*style = strings.TrimSpace(*style)

	if len(*title) > MaxTitleLength {
		fields["title"] = fmt.Sprintf("title must be %d characters or fewer", MaxTitleLength)
	}
	if strings.TrimSpace(*code) == "" {
		fields["code"] = "code is required"
	}
	checkTag(fields, "language", *lang)
	checkTag(fields, "style", *style)
}

func checkTag(fields map[string]string, name, v string) {
	switch {
	case v == "":
		fields[name] = name + " may not be blank"
	case len(v) > MaxTagLength:
		fields[name] = fmt.Sprintf("%s must be %d characters or fewer", name, MaxTagLength)
	case !tagPattern.MatchString(v):
		fields[name] = name + " contains invalid characters"
	}
}
