package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/quill/internal/web/guard"
	"golang.org/x/sync/errgroup"
)

const adminDashboardPath = "/admin/dashboard"

// adminPostID reads the numeric {id}. ok is false for anything that is not a
// positive integer.
func adminPostID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func adminEditPath(id int64) string {
	return "/admin/posts/" + strconv.FormatInt(id, 10) + "/edit"
}

func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	posts, err := h.api(r).ListPosts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "admin_dashboard", Page{Title: "Admin", Data: posts})
}

func (h *Handlers) AdminNewPostForm(w http.ResponseWriter, r *http.Request) {
	h.renderPostForm(w, r, http.StatusOK, postFormData{
		Action:  "/admin/posts/new",
		Heading: "New post",
		Admin:   true,
	}, newForm(nil), "")
}

func (h *Handlers) AdminNewPostSubmit(w http.ResponseWriter, r *http.Request) {
	form := newForm(nil)
	data := postFormData{Action: "/admin/posts/new", Heading: "New post", Admin: true}

	in, ok := readPostForm(r, form, true)
	if !ok {
		h.renderPostForm(w, r, http.StatusUnprocessableEntity, data, form, "")
		return
	}

	if _, err := h.api(r).AdminCreatePost(r.Context(), in); err != nil {
		if h.expired(w, r, err) {
			return
		}
		msg := h.describe(r, err, form, "Could not create the post. Please try again.")
		h.renderPostForm(w, r, http.StatusUnprocessableEntity, data, form, msg)
		return
	}

	done(w, r, adminDashboardPath, "Post created.")
}

func (h *Handlers) AdminEditPostForm(w http.ResponseWriter, r *http.Request) {
	id, ok := adminPostID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	api := h.api(r)
	data := postFormData{Action: adminEditPath(id), Heading: "Edit post", Admin: true}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data.Post, err = api.AdminGetPost(ctx, id)
		return err
	})
	g.Go(func() (err error) {
		data.Categories, err = api.ListCategories(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	h.renderPostForm(w, r, http.StatusOK, data, newForm(postValues(data.Post)), "")
}

func (h *Handlers) AdminEditPostSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := adminPostID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	form := newForm(nil)
	data := postFormData{Action: adminEditPath(id), Heading: "Edit post", Admin: true}

	in, ok := readPostForm(r, form, true)
	if !ok {
		h.renderPostForm(w, r, http.StatusUnprocessableEntity, data, form, "")
		return
	}

	if _, err := h.api(r).AdminUpdatePost(r.Context(), id, in); err != nil {
		if h.expired(w, r, err) {
			return
		}
		if notFound(err) {
			h.NotFound(w, r)
			return
		}
		msg := h.describe(r, err, form, "Could not update the post. Please try again.")
		h.renderPostForm(w, r, http.StatusUnprocessableEntity, data, form, msg)
		return
	}

	done(w, r, adminDashboardPath, "Post updated.")
}

func (h *Handlers) AdminDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := adminPostID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	if err := h.api(r).AdminDeletePost(r.Context(), id); err != nil {
		if h.expired(w, r, err) {
			return
		}
		setFlash(w, flashError, h.describe(r, err, newForm(nil), "Could not delete the post."))
		guard.Redirect(w, r, adminDashboardPath)
		return
	}

	done(w, r, adminDashboardPath, "Post deleted.")
}
