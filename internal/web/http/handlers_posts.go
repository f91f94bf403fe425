package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

const (
	maxCoverBytes  = 5 << 20
	maxUploadBytes = maxCoverBytes + 1<<20
)

// postFormData drives post_form.html for both the author and admin forms.
type postFormData struct {
	Action     string
	Heading    string
	Admin      bool
	Post       *blogsdk.Post
	Categories []blogsdk.Category
}

// postValues prefills the form from an existing post.
func postValues(p *blogsdk.Post) url.Values {
	v := url.Values{
		"title":   {p.Title},
		"content": {p.Content},
	}
	if p.Category != nil {
		v.Set("category_id", p.Category.SecureID)
	}
	if p.IsPublished {
		v.Set("is_published", "on")
	}
	return v
}

// readPostForm parses a multipart post form. Upload problems are recorded on
// form and reported through ok.
func readPostForm(r *http.Request, form *Form, admin bool) (in blogsdk.PostInput, ok bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		form.Errors["cover_image"] = "Upload could not be read"
		return in, false
	}
	form.Values = r.PostForm

	in = blogsdk.PostInput{
		Title:      strings.TrimSpace(r.PostForm.Get("title")),
		Content:    r.PostForm.Get("content"),
		CategoryID: strings.TrimSpace(r.PostForm.Get("category_id")),
	}
	if admin {
		published := r.PostForm.Get("is_published") != ""
		in.IsPublished = &published
	}

	file, header, err := r.FormFile("cover_image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, true
	case err != nil:
		form.Errors["cover_image"] = "Upload could not be read"
		return in, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCoverBytes+1))
	if err != nil {
		form.Errors["cover_image"] = "Upload could not be read"
		return in, false
	}
	if len(data) > maxCoverBytes {
		form.Errors["cover_image"] = fmt.Sprintf("Image must be %d MB or smaller", maxCoverBytes>>20)
		return in, false
	}
	if len(data) > 0 {
		in.Cover = &blogsdk.CoverUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}
	return in, true
}

// renderPostForm shows the post form, loading categories if the caller has
// not. A failed category load leaves the select empty.
func (h *Handlers) renderPostForm(w http.ResponseWriter, r *http.Request, status int, data postFormData, form *Form, msg string) {
	if data.Categories == nil {
		cats, err := h.api(r).ListCategories(r.Context())
		if h.expired(w, r, err) {
			return
		}
		if err != nil {
			slogx.FromContext(r.Context()).Warn("failed to load categories", "err", err)
		}
		data.Categories = cats
	}

	h.render(w, r, status, "post_form", Page{
		Title:   data.Heading,
		Form:    form,
		Message: msg,
		Data:    data,
	})
}
