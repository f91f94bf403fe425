package http

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/quill/internal/devapi/domain"
	"github.com/aussiebroadwan/quill/internal/devapi/service"
	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/aussiebroadwan/quill/pkg/jwtx"
)

const maxUploadBytes = 8 << 20

type PostHandler struct {
	Posts    *service.PostService
	Verifier jwtx.Verifier
}

// isAdmin reports whether an optional bearer token belongs to an admin.
// Anonymous and invalid tokens are treated the same way.
func (h *PostHandler) isAdmin(r *http.Request) bool {
	raw, ok := httpx.BearerToken(r)
	if !ok {
		return false
	}
	claims, err := h.Verifier.Verify(raw)
	return err == nil && claims.IsAdmin
}

func callerID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(httpx.UserIDFromContext(r.Context()), 10, 64)
	if err != nil {
		return 0, service.ErrInvalidToken
	}
	return id, nil
}

// readPostInput decodes a multipart or url-encoded post form. An uploaded
// cover_image is kept as a data URL.
func readPostInput(w http.ResponseWriter, r *http.Request) (domain.PostInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return domain.PostInput{}, service.FieldErrors{"cover_image": "Upload could not be read."}
		}
		if err := r.ParseForm(); err != nil {
			return domain.PostInput{}, service.FieldErrors{"non_field_errors": "Form could not be read."}
		}
	}

	in := domain.PostInput{
		Title:      r.FormValue("title"),
		Content:    r.FormValue("content"),
		CategoryID: r.FormValue("category_id"),
	}
	if v := r.FormValue("is_published"); v != "" {
		published, err := strconv.ParseBool(v)
		if err != nil {
			return domain.PostInput{}, service.FieldErrors{"is_published": "Must be a valid boolean."}
		}
		in.IsPublished = &published
	}

	file, header, err := r.FormFile("cover_image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, nil
	case err != nil:
		return domain.PostInput{}, service.FieldErrors{"cover_image": "Upload could not be read."}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		return domain.PostInput{}, service.FieldErrors{"cover_image": "The submitted file is empty."}
	}

	ct := header.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return domain.PostInput{}, service.FieldErrors{"cover_image": "Upload a valid image."}
	}
	in.CoverImage = "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data)
	return in, nil
}

// List godoc
//
//	@Summary		List posts
//	@Description	Published posts, newest first. An admin bearer token includes drafts.
//	@Tags			Posts
//	@Produce		json
//	@Success		200	{object}	ListResponse[PostJSON]
//	@Router			/api/post/ [get].
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, postList(h.Posts.List(r.Context(), h.isAdmin(r))))
}

// Get godoc
//
//	@Summary	Get a published post
//	@Tags		Posts
//	@Produce	json
//	@Param		secure_id	path		string	true	"Post secure id"
//	@Success	200			{object}	PostJSON
//	@Failure	404			{object}	DetailResponse
//	@Router		/api/post/{secure_id}/ [get].
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.Posts.Get(r.Context(), r.PathValue("secure_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, postJSON(v))
}

// Categories godoc
//
//	@Summary	List categories
//	@Tags		Posts
//	@Produce	json
//	@Success	200	{object}	ListResponse[CategoryJSON]
//	@Router		/api/categories/ [get].
func (h *PostHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats := h.Posts.Categories(r.Context())
	out := make([]CategoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, *categoryJSON(c))
	}
	httpx.WriteJSON(w, http.StatusOK, ListResponse[CategoryJSON]{Count: len(out), Results: out})
}

// ByCategory godoc
//
//	@Summary	List posts in a category
//	@Tags		Posts
//	@Produce	json
//	@Param		category	query		string	true	"Category secure id"
//	@Success	200			{object}	ListResponse[PostJSON]
//	@Router		/api/category-list/ [get].
func (h *PostHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	views := h.Posts.ByCategory(r.Context(), r.URL.Query().Get("category"))
	httpx.WriteJSON(w, http.StatusOK, postList(views))
}

// Search godoc
//
//	@Summary	Search published posts
//	@Tags		Posts
//	@Produce	json
//	@Param		search	query		string	true	"Text to match in title or content"
//	@Success	200		{object}	ListResponse[PostJSON]
//	@Router		/api/search/ [get].
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, postList(h.Posts.Search(r.Context(), r.URL.Query().Get("search"))))
}

// ============================================================================
// Owner endpoints
// ============================================================================

// UserPosts godoc
//
//	@Summary	List the caller's posts
//	@Tags		User Posts
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	ListResponse[PostJSON]
//	@Failure	401	{object}	DetailResponse
//	@Router		/api/user-posts/ [get].
func (h *PostHandler) UserPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, postList(h.Posts.UserPosts(r.Context(), userID)))
}

// UserPost godoc
//
//	@Summary	Get one of the caller's posts
//	@Tags		User Posts
//	@Security	BearerAuth
//	@Produce	json
//	@Param		secure_id	path		string	true	"Post secure id"
//	@Success	200			{object}	PostJSON
//	@Failure	403			{object}	DetailResponse
//	@Failure	404			{object}	DetailResponse
//	@Router		/api/user-posts/{secure_id}/ [get].
func (h *PostHandler) UserPost(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.Posts.UserPost(r.Context(), userID, r.PathValue("secure_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, postJSON(v))
}

// CreateUserPost godoc
//
//	@Summary	Create a post
//	@Tags		User Posts
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		title		formData	string	true	"Title"
//	@Param		content		formData	string	true	"Content"
//	@Param		category_id	formData	string	true	"Category secure id or numeric id"
//	@Param		cover_image	formData	file	false	"Cover image"
//	@Success	201			{object}	PostJSON
//	@Failure	400			{object}	object	"Field errors"
//	@Router		/api/user-posts/ [post].
func (h *PostHandler) CreateUserPost(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, false)
}

// UpdateUserPost godoc
//
//	@Summary	Replace one of the caller's posts
//	@Tags		User Posts
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		secure_id	path		string	true	"Post secure id"
//	@Param		title		formData	string	true	"Title"
//	@Param		content		formData	string	true	"Content"
//	@Param		category_id	formData	string	true	"Category secure id or numeric id"
//	@Param		cover_image	formData	file	false	"Cover image, omitted to keep the current one"
//	@Success	200			{object}	PostJSON
//	@Failure	400			{object}	object	"Field errors"
//	@Failure	403			{object}	DetailResponse
//	@Router		/api/user-posts/{secure_id}/ [put].
func (h *PostHandler) UpdateUserPost(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := readPostInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.Posts.UpdateOwned(r.Context(), userID, r.PathValue("secure_id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, postJSON(v))
}

// DeleteUserPost godoc
//
//	@Summary	Delete one of the caller's posts
//	@Tags		User Posts
//	@Security	BearerAuth
//	@Param		secure_id	path	string	true	"Post secure id"
//	@Success	204
//	@Failure	403	{object}	DetailResponse
//	@Failure	404	{object}	DetailResponse
//	@Router		/api/user-posts/{secure_id}/ [delete].
func (h *PostHandler) DeleteUserPost(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Posts.DeleteOwned(r.Context(), userID, r.PathValue("secure_id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) create(w http.ResponseWriter, r *http.Request, admin bool) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := readPostInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.Posts.Create(r.Context(), userID, in, admin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, postJSON(v))
}

// ============================================================================
// Admin endpoints
// ============================================================================

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrNotFound
	}
	return id, nil
}

// AdminCreate godoc
//
//	@Summary	Create a post as an admin
//	@Tags		Admin
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		title			formData	string	true	"Title"
//	@Param		content			formData	string	true	"Content"
//	@Param		category_id		formData	string	true	"Category secure id or numeric id"
//	@Param		is_published	formData	bool	false	"Publish immediately (default true)"
//	@Param		cover_image		formData	file	false	"Cover image"
//	@Success	201				{object}	PostJSON
//	@Failure	403				{object}	DetailResponse
//	@Router		/api/post/ [post].
func (h *PostHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, true)
}

// AdminGet godoc
//
//	@Summary	Get any post by numeric id
//	@Tags		Admin
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		int	true	"Post id"
//	@Success	200	{object}	PostJSON
//	@Failure	404	{object}	DetailResponse
//	@Router		/api/admin/retrieve/{id}/ [get].
func (h *PostHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.Posts.AdminGet(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, postJSON(v))
}

// AdminUpdate godoc
//
//	@Summary	Replace any post by numeric id
//	@Tags		Admin
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id				path		int		true	"Post id"
//	@Param		title			formData	string	true	"Title"
//	@Param		content			formData	string	true	"Content"
//	@Param		category_id		formData	string	true	"Category secure id or numeric id"
//	@Param		is_published	formData	bool	false	"Publication state"
//	@Param		cover_image		formData	file	false	"Cover image"
//	@Success	200				{object}	PostJSON
//	@Failure	404				{object}	DetailResponse
//	@Router		/api/admin/update/{id}/ [put].
func (h *PostHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := readPostInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.Posts.AdminUpdate(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, postJSON(v))
}

// AdminDelete godoc
//
//	@Summary	Delete any post by numeric id
//	@Tags		Admin
//	@Security	BearerAuth
//	@Param		id	path	int	true	"Post id"
//	@Success	204
//	@Failure	404	{object}	DetailResponse
//	@Router		/api/admin/delete/{id}/ [delete].
func (h *PostHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Posts.AdminDelete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
