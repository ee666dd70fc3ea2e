package httpapi

import (
	"net/http"
	"strings"

	"github.com/nevindra/pedforum"
	"github.com/nevindra/pedforum/internal/richtext"
)

// Article body formats accepted by POST /articles.
const (
	formatHTML     = "html"
	formatMarkdown = "markdown"
)

type createArticleRequest struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Content  string `json:"content"`
	Format   string `json:"format"`
}

func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.store.ListArticles(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.internalError(w, r, "Ошибка загрузки статей", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

// createArticle renders Markdown bodies, sanitizes the HTML, and derives an
// excerpt when none is given.
func (s *Server) createArticle(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Название статьи обязательно")
		return
	}

	content := req.Content
	switch strings.ToLower(req.Format) {
	case "", formatHTML:
	case formatMarkdown:
		html, err := richtext.MarkdownToHTML(content)
		if err != nil {
			s.internalError(w, r, "Ошибка обработки статьи", err)
			return
		}
		content = html
	default:
		writeError(w, http.StatusBadRequest, "Неподдерживаемый формат статьи: "+req.Format)
		return
	}
	content = richtext.Sanitize(content)

	excerpt := strings.TrimSpace(req.Excerpt)
	if excerpt == "" && content != "" {
		excerpt = richtext.Excerpt(content, richtext.DefaultExcerptLength)
	}

	article, err := s.store.CreateArticle(r.Context(), pedforum.Article{
		Title:    req.Title,
		Excerpt:  excerpt,
		Author:   strings.TrimSpace(req.Author),
		Category: strings.TrimSpace(req.Category),
		Content:  content,
	})
	if err != nil {
		s.internalError(w, r, "Ошибка сохранения статьи", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"article": article})
}
