package http

import (
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"golang.org/x/sync/errgroup"
)

type listingData struct {
	Posts      []blogsdk.Post
	Categories []blogsdk.Category
	Category   *blogsdk.Category
	Query      string
}

func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	api := h.api(r)

	var data listingData
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data.Posts, err = api.ListPosts(ctx)
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
	// Admin tokens also list drafts.
	data.Posts = slices.DeleteFunc(data.Posts, func(p blogsdk.Post) bool { return !p.IsPublished })

	h.render(w, r, http.StatusOK, "home", Page{Title: "Home", Data: data})
}

func (h *Handlers) Category(w http.ResponseWriter, r *http.Request) {
	api := h.api(r)
	secureID := r.PathValue("secure_id")

	var data listingData
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data.Posts, err = api.ListPostsByCategory(ctx, secureID)
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

	for i := range data.Categories {
		if data.Categories[i].SecureID == secureID {
			data.Category = &data.Categories[i]
			break
		}
	}
	if data.Category == nil {
		h.NotFound(w, r)
		return
	}

	h.render(w, r, http.StatusOK, "category", Page{Title: data.Category.Name, Data: data})
}

func (h *Handlers) Post(w http.ResponseWriter, r *http.Request) {
	post, err := h.api(r).GetPost(r.Context(), r.PathValue("secure_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "post", Page{Title: post.Title, Data: post})
}

// Search runs only when q is non-blank; an empty query shows the form.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	data := listingData{Query: strings.TrimSpace(r.URL.Query().Get("q"))}

	if data.Query != "" {
		posts, err := h.api(r).SearchPosts(r.Context(), data.Query)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		data.Posts = posts
	}

	h.render(w, r, http.StatusOK, "search", Page{Title: "Search", Data: data})
}

func (h *Handlers) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", Page{Title: "About"})
}

func (h *Handlers) Contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "contact", Page{Title: "Contact"})
}
