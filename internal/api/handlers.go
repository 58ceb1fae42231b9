package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/postconf/internal/index"
	"github.com/starford/postconf/internal/postservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *postservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service) *Handler {
	return &Handler{svc: svc}
}

// postPath extracts the post path from the URL (everything after /api/posts/).
func postPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index must be an integer"))
		return 0, false
	}
	return i, true
}

// GetSession handles GET /api/session.
//
//	@Summary		Get the current article metadata
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Security		BearerAuth
//	@Router			/session [get]
func (h *Handler) GetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

// SetTitle handles PUT /api/session/title.
//
//	@Summary		Replace the title
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TitleRequest	true	"New title"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/title [put]
func (h *Handler) SetTitle(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.SetTitle(*req.Title))
}

// EditTitle handles POST /api/session/title/edits.
//
//	@Summary		Apply one character-offset edit to the title
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TitleEditRequest	true	"Edit"
//	@Success		200		{object}	postservice.TitleEditResult
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/title/edits [post]
func (h *Handler) EditTitle(w http.ResponseWriter, r *http.Request) {
	var req TitleEditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.EditTitle(req.edit())
	if err != nil {
		writeError(w, "edit title", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetDate handles PUT /api/session/date.
//
//	@Summary		Set the publication date (YYYY-MM-DD)
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DateRequest	true	"Date"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/date [put]
func (h *Handler) SetDate(w http.ResponseWriter, r *http.Request) {
	var req DateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.svc.SetDate(req.Date)
	if err != nil {
		writeError(w, "set date", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// AddCategory handles POST /api/session/categories.
//
//	@Summary		Append a category
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TermRequest	true	"Category"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/categories [post]
func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	h.addTerm(w, r, "add category", h.svc.AddCategory)
}

// DeleteCategory handles DELETE /api/session/categories/{index}.
//
//	@Summary		Remove the category at index
//	@Tags			session
//	@Produce		json
//	@Param			index	path		int	true	"Zero-based position"
//	@Success		200		{object}	SessionResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/categories/{index} [delete]
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	h.deleteTerm(w, r, "delete category", h.svc.DeleteCategory)
}

// AddTag handles POST /api/session/tags.
//
//	@Summary		Append a tag
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TermRequest	true	"Tag"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/tags [post]
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	h.addTerm(w, r, "add tag", h.svc.AddTag)
}

// DeleteTag handles DELETE /api/session/tags/{index}.
//
//	@Summary		Remove the tag at index
//	@Tags			session
//	@Produce		json
//	@Param			index	path		int	true	"Zero-based position"
//	@Success		200		{object}	SessionResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/tags/{index} [delete]
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	h.deleteTerm(w, r, "delete tag", h.svc.DeleteTag)
}

func (h *Handler) addTerm(w http.ResponseWriter, r *http.Request, op string, add func(string) (postservice.State, error)) {
	var req TermRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := add(req.Name)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) deleteTerm(w http.ResponseWriter, r *http.Request, op string, del func(int) (postservice.State, error)) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	st, err := del(i)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SetOutputDir handles PUT /api/session/output-dir.
//
//	@Summary		Change the directory posts are saved into
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OutputDirRequest	true	"Existing directory"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/output-dir [put]
func (h *Handler) SetOutputDir(w http.ResponseWriter, r *http.Request) {
	var req OutputDirRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.svc.SetOutputDir(req.Dir)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Save handles POST /api/session/save.
//
//	@Summary		Write the article as a new post file
//	@Tags			session
//	@Produce		json
//	@Success		201	{object}	SaveResponse
//	@Failure		409	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/save [post]
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Save(r.Context())
	if err != nil {
		writeError(w, "save post", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List saved posts, newest first
//	@Tags			posts
//	@Produce		json
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			tag			query		string	false	"Filter by tag"
//	@Param			category	query		string	false	"Filter by category"
//	@Success		200			{object}	PostListResponse
//	@Security		BearerAuth
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListPosts(r.Context(), index.ListFilter{
		Limit:    limit,
		Offset:   offset,
		Tag:      q.Get("tag"),
		Category: q.Get("category"),
	})
	if err != nil {
		writeError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: items, Total: total})
}

// GetPost handles GET /api/posts/*.
//
//	@Summary		Read a saved post by file name
//	@Tags			posts
//	@Produce		json
//	@Param			path	path		string	true	"Post file name"
//	@Success		200		{object}	PostDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{path} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	post, err := h.svc.GetPost(r.Context(), path)
	if err != nil {
		writeError(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across saved posts
//	@Tags			posts
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Vocabulary handles GET /api/vocabulary.
//
//	@Summary		Categories and tags already used by saved posts
//	@Tags			posts
//	@Produce		json
//	@Success		200	{object}	postservice.Vocabulary
//	@Security		BearerAuth
//	@Router			/vocabulary [get]
func (h *Handler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Vocabulary(r.Context())
	if err != nil {
		writeError(w, "vocabulary", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
