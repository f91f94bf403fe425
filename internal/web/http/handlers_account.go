package http

import (
	"net/http"
	"slices"

	"github.com/aussiebroadwan/quill/internal/web/guard"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardPath   = "/dashboard"
	dashboardLatest = 5
)

type dashboardData struct {
	Profile *blogsdk.UserProfile
	Count   int
	Latest  []blogsdk.Post
}

func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.api(r).Profile(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "profile", Page{Title: "Profile", Data: profile})
}

// Dashboard shows the user's post count and their five newest posts.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	api := h.api(r)

	var (
		data  dashboardData
		posts []blogsdk.Post
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		posts, err = api.ListUserPosts(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.Profile, err = api.Profile(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	slices.SortStableFunc(posts, func(a, b blogsdk.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	data.Count = len(posts)
	data.Latest = posts[:min(len(posts), dashboardLatest)]

	h.render(w, r, http.StatusOK, "dashboard", Page{Title: "Dashboard", Data: data})
}

func (h *Handlers) CreatePostForm(w http.ResponseWriter, r *http.Request) {
	h.renderPostForm(w, r, http.StatusOK, postFormData{Action: "/post/create", Heading: "New post"}, newForm(nil), "")
}

func (h *Handlers) CreatePostSubmit(w http.ResponseWriter, r *http.Request) {
	form := newForm(nil)
	data := postFormData{Action: "/post/create", Heading: "New post"}

	in, ok := readPostForm(r, form, false)
	if !ok {
		h.renderPostForm(w, r, http.StatusUnprocessableEntity, data, form, "")
		return
	}

	if _, err := h.api(r).CreateUserPost(r.Context(), in); err != nil {
		if h.expired(w, r, err) {
			return
		}
		msg := h.describe(r, err, form, "Could not create the post. Please try again.")
		h.renderPostForm(w, r, http.StatusUnprocessableEntity, data, form, msg)
		return
	}

	done(w, r, dashboardPath, "Post created.")
}

func (h *Handlers) UpdatePostForm(w http.ResponseWriter, r *http.Request) {
	secureID := r.PathValue("secure_id")

	post, err := h.api(r).GetUserPost(r.Context(), secureID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.renderPostForm(w, r, http.StatusOK, postFormData{
		Action:  "/post/update/" + secureID,
		Heading: "Edit post",
		Post:    post,
	}, newForm(postValues(post)), "")
}

// UpdatePostSubmit keeps the current cover when no new image is uploaded.
func (h *Handlers) UpdatePostSubmit(w http.ResponseWriter, r *http.Request) {
	secureID := r.PathValue("secure_id")
	form := newForm(nil)
	data := postFormData{Action: "/post/update/" + secureID, Heading: "Edit post"}

	in, ok := readPostForm(r, form, false)
	if !ok {
		h.renderPostForm(w, r, http.StatusUnprocessableEntity, data, form, "")
		return
	}

	if _, err := h.api(r).UpdateUserPost(r.Context(), secureID, in); err != nil {
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

	done(w, r, dashboardPath, "Post updated.")
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.api(r).DeleteUserPost(r.Context(), r.PathValue("secure_id")); err != nil {
		if h.expired(w, r, err) {
			return
		}
		setFlash(w, flashError, h.describe(r, err, newForm(nil), "Could not delete the post."))
		guard.Redirect(w, r, dashboardPath)
		return
	}

	done(w, r, dashboardPath, "Post deleted.")
}
