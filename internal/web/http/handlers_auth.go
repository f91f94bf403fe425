package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/quill/internal/web/flow"
	"github.com/aussiebroadwan/quill/internal/web/guard"
	"github.com/aussiebroadwan/quill/internal/web/session"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

// pending returns the live challenge of kind for this browser without
// creating a session.
func (h *Handlers) pending(r *http.Request, kind flow.Kind) (flow.Challenge, bool) {
	hd := session.FromContext(r.Context())
	if hd == nil || hd.ID() == "" {
		return flow.Challenge{}, false
	}
	return h.flows.Pending(hd.ID(), kind)
}

// restart sends the user back to the first step of a flow whose challenge
// is gone.
func restart(w http.ResponseWriter, r *http.Request, location, text string) {
	setFlash(w, flashError, text)
	guard.Redirect(w, r, location)
}

// ============================================================================
// Login
// ============================================================================

func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", Page{Title: "Log in", Form: newForm(nil)})
}

func (h *Handlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := newForm(r.PostForm)

	key, err := h.sessionKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_, err = h.flows.StartLogin(r.Context(), h.api(r), key, blogsdk.LoginRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	})
	if err != nil {
		msg := h.describe(r, err, form, "Login failed. Please check your credentials.")
		h.render(w, r, http.StatusUnprocessableEntity, "login", Page{Title: "Log in", Form: form, Message: msg})
		return
	}

	done(w, r, "/login/otp", "We sent a one-time code to your email.")
}

func (h *Handlers) LoginOTPForm(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.pending(r, flow.KindLogin)
	if !ok {
		restart(w, r, guard.LoginPath, "Your login attempt expired. Please log in again.")
		return
	}
	h.render(w, r, http.StatusOK, "login_otp", Page{Title: "Enter code", Form: newForm(nil), Data: ch.Email})
}

func (h *Handlers) LoginOTPSubmit(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := newForm(r.PostForm)

	ch, ok := h.pending(r, flow.KindLogin)
	if !ok {
		restart(w, r, guard.LoginPath, "Your login attempt expired. Please log in again.")
		return
	}

	err := h.flows.VerifyLogin(r.Context(), h.api(r), session.FromContext(r.Context()).ID(), r.PostForm.Get("otp"))
	switch {
	case errors.Is(err, flow.ErrNoChallenge):
		restart(w, r, guard.LoginPath, "Your login attempt expired. Please log in again.")
	case err != nil:
		msg := h.describe(r, err, form, "Invalid code. Please try again.")
		h.render(w, r, http.StatusUnprocessableEntity, "login_otp", Page{Title: "Enter code", Form: form, Message: msg, Data: ch.Email})
	default:
		done(w, r, guard.HomePath, "Welcome back!")
	}
}

// Logout revokes the refresh token, forgets any flows in progress and drops
// the session cookie. A failed revoke is logged; the user is signed out
// regardless.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.api(r).Logout(ctx); err != nil {
		log.Warn("logout request failed", "err", err)
	}

	if hd := session.FromContext(ctx); hd != nil {
		if id := hd.ID(); id != "" {
			h.flows.Challenges.DeleteSession(id)
		}
		if err := hd.Destroy(ctx); err != nil {
			log.Error("failed to destroy session", "err", err)
		}
	}

	done(w, r, guard.LoginPath, "You have been logged out.")
}

// ============================================================================
// Registration
// ============================================================================

func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", Page{Title: "Register", Form: newForm(nil)})
}

func (h *Handlers) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := newForm(r.PostForm)

	key, err := h.sessionKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_, err = h.flows.StartRegistration(r.Context(), h.api(r), key, blogsdk.RegisterRequest{
		FirstName:       r.PostForm.Get("first_name"),
		LastName:        r.PostForm.Get("last_name"),
		Email:           r.PostForm.Get("email"),
		Username:        r.PostForm.Get("username"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	})
	if err != nil {
		msg := h.describe(r, err, form, "Registration failed. Please try again.")
		h.render(w, r, http.StatusUnprocessableEntity, "register", Page{Title: "Register", Form: form, Message: msg})
		return
	}

	done(w, r, "/register/verify", "Check your email for a verification code.")
}

func (h *Handlers) RegisterVerifyForm(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.pending(r, flow.KindRegister)
	if !ok {
		restart(w, r, "/register", "Your registration expired. Please register again.")
		return
	}
	h.render(w, r, http.StatusOK, "register_verify", Page{Title: "Verify email", Form: newForm(nil), Data: ch.Email})
}

func (h *Handlers) RegisterVerifySubmit(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := newForm(r.PostForm)

	ch, ok := h.pending(r, flow.KindRegister)
	if !ok {
		restart(w, r, "/register", "Your registration expired. Please register again.")
		return
	}

	err := h.flows.VerifyRegistration(r.Context(), h.api(r), session.FromContext(r.Context()).ID(), r.PostForm.Get("code"))
	switch {
	case errors.Is(err, flow.ErrNoChallenge):
		restart(w, r, "/register", "Your registration expired. Please register again.")
	case err != nil:
		msg := h.describe(r, err, form, "Invalid code. Please try again.")
		h.render(w, r, http.StatusUnprocessableEntity, "register_verify", Page{Title: "Verify email", Form: form, Message: msg, Data: ch.Email})
	default:
		done(w, r, guard.LoginPath, "Email verified. You can now log in.")
	}
}
