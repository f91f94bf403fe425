package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/quill/internal/web/flow"
	"github.com/aussiebroadwan/quill/internal/web/guard"
	"github.com/aussiebroadwan/quill/internal/web/session"
)

const (
	resetPath       = "/password-reset"
	msgResetExpired = "Your reset request expired. Please start again."
)

// resetTemplate picks the page for the current step of the reset flow.
func resetTemplate(ch flow.Challenge, ok bool) string {
	switch {
	case !ok:
		return "reset_request"
	case ch.Step == flow.StepNewPassword:
		return "reset_password"
	default:
		return "reset_otp"
	}
}

// ResetForm shows whichever step the browser's reset flow is on.
func (h *Handlers) ResetForm(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.pending(r, flow.KindReset)
	h.render(w, r, http.StatusOK, resetTemplate(ch, ok), Page{
		Title: "Reset password",
		Form:  newForm(nil),
		Data:  ch.Email,
	})
}

func (h *Handlers) ResetRequest(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := newForm(r.PostForm)

	key, err := h.sessionKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.flows.StartReset(r.Context(), h.api(r), key, r.PostForm.Get("email")); err != nil {
		msg := h.describe(r, err, form, "Could not send a reset code. Please try again.")
		h.render(w, r, http.StatusUnprocessableEntity, "reset_request", Page{Title: "Reset password", Form: form, Message: msg})
		return
	}

	done(w, r, resetPath, "We sent a reset code to your email.")
}

// ResetVerify checks the code. A rejected code keeps the user on the code
// step.
func (h *Handlers) ResetVerify(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := newForm(r.PostForm)

	ch, ok := h.pending(r, flow.KindReset)
	if !ok {
		restart(w, r, resetPath, msgResetExpired)
		return
	}

	err := h.flows.VerifyResetOTP(r.Context(), h.api(r), session.FromContext(r.Context()).ID(), r.PostForm.Get("otp"))
	switch {
	case errors.Is(err, flow.ErrNoChallenge):
		restart(w, r, resetPath, msgResetExpired)
	case err != nil:
		msg := h.describe(r, err, form, "Invalid code. Please try again.")
		h.render(w, r, http.StatusUnprocessableEntity, "reset_otp", Page{Title: "Reset password", Form: form, Message: msg, Data: ch.Email})
	default:
		done(w, r, resetPath, "Code accepted. Choose a new password.")
	}
}

// ResetConfirm sets the new password. Mismatched passwords never leave the
// server.
func (h *Handlers) ResetConfirm(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := newForm(r.PostForm)

	ch, ok := h.pending(r, flow.KindReset)
	if !ok {
		restart(w, r, resetPath, msgResetExpired)
		return
	}

	err := h.flows.CompleteReset(r.Context(), h.api(r), session.FromContext(r.Context()).ID(),
		r.PostForm.Get("new_password"), r.PostForm.Get("confirm_password"))
	switch {
	case errors.Is(err, flow.ErrNoChallenge):
		restart(w, r, resetPath, msgResetExpired)
	case err != nil:
		msg := h.describe(r, err, form, "Could not reset your password. Please try again.")
		h.render(w, r, http.StatusUnprocessableEntity, "reset_password", Page{Title: "Reset password", Form: form, Message: msg, Data: ch.Email})
	default:
		done(w, r, guard.LoginPath, "Your password has been reset. Please log in.")
	}
}

func (h *Handlers) ResetCancel(w http.ResponseWriter, r *http.Request) {
	if hd := session.FromContext(r.Context()); hd != nil && hd.ID() != "" {
		h.flows.Abandon(hd.ID(), flow.KindReset)
	}
	guard.Redirect(w, r, resetPath)
}
