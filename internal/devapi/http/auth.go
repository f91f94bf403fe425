package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/quill/internal/devapi/service"
	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/aussiebroadwan/quill/pkg/jwtx"
)

const maxJSONBody = 1 << 20

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		badRequest(w, "JSON parse error.")
		return false
	}
	return true
}

type AuthHandler struct {
	Auth *service.AuthService
}

// Login godoc
//
//	@Summary		Start a login
//	@Description	Checks the credentials and sends a one-time code. The code is logged by the dev mailer.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		object{email=string,password=string}	true	"Credentials"
//	@Success		200		{object}	LoginResponse
//	@Failure		400		{object}	DetailResponse
//	@Failure		403		{object}	DetailResponse	"Email not verified"
//	@Router			/api/auth/login/ [post].
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}

	userID, err := h.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		UserID:  userID,
		Message: "OTP sent to your email.",
	})
}

// VerifyLogin godoc
//
//	@Summary	Complete a login
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		VerifyLoginRequest	true	"Pending login and code"
//	@Success	200		{object}	domain.TokenPair
//	@Failure	400		{object}	DetailResponse
//	@Router		/api/auth/login-verify-otp/ [post].
func (h *AuthHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID jwtx.UserID `json:"user_id"`
		OTP    string      `json:"otp"`
	}
	if !decode(w, r, &body) {
		return
	}

	userID, err := strconv.ParseInt(string(body.UserID), 10, 64)
	if err != nil {
		writeError(w, r, service.FieldErrors{"user_id": "A valid integer is required."})
		return
	}

	pair, err := h.Auth.VerifyLogin(r.Context(), userID, body.OTP)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// Register godoc
//
//	@Summary	Create an account
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		service.RegisterInput	true	"New account"
//	@Success	201		{object}	MessageResponse
//	@Failure	400		{object}	object	"Field errors"
//	@Router		/api/auth/register/ [post].
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decode(w, r, &in) {
		return
	}
	if err := h.Auth.Register(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, MessageResponse{
		Message: "Registration successful. Check your email for the verification code.",
	})
}

// VerifyEmail godoc
//
//	@Summary	Verify an email address
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		object{email=string,code=string}	true	"Address and code"
//	@Success	200		{object}	MessageResponse
//	@Failure	400		{object}	DetailResponse
//	@Router		/api/auth/verify-email/ [post].
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decode(w, r, &body) {
		return
	}
	if err := h.Auth.VerifyEmail(r.Context(), body.Email, body.Code); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Email verified."})
}

// Refresh godoc
//
//	@Summary	Refresh an access token
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		object{refresh=string}	true	"Refresh token"
//	@Success	200		{object}	RefreshResponse
//	@Failure	401		{object}	DetailResponse
//	@Router		/api/auth/token/refresh/ [post].
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Refresh == "" {
		writeError(w, r, service.FieldErrors{"refresh": "This field may not be blank."})
		return
	}

	access, err := h.Auth.Refresh(r.Context(), body.Refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, RefreshResponse{Access: access})
}

// Logout godoc
//
//	@Summary		Revoke a refresh token
//	@Description	Always succeeds; unknown tokens are ignored.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		object{refresh_token=string}	true	"Refresh token"
//	@Success		200		{object}	MessageResponse
//	@Router			/api/auth/logout/ [post].
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh_token"`
	}
	if !decode(w, r, &body) {
		return
	}
	h.Auth.Logout(r.Context(), body.Refresh)
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logged out."})
}

// Profile godoc
//
//	@Summary	Current user
//	@Tags		Auth
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	UserJSON
//	@Failure	401	{object}	DetailResponse
//	@Router		/api/auth/user/ [get].
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Profile(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userJSON(u))
}

// RequestReset godoc
//
//	@Summary		Request a password reset code
//	@Description	Succeeds for unknown addresses too.
//	@Tags			Password Reset
//	@Accept			json
//	@Produce		json
//	@Param			body	body		object{email=string}	true	"Account email"
//	@Success		200		{object}	MessageResponse
//	@Router			/api/auth/password-reset/request-otp/ [post].
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &body) {
		return
	}
	if err := h.Auth.RequestReset(r.Context(), body.Email); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: "If the address is registered, a code has been sent.",
	})
}

// VerifyReset godoc
//
//	@Summary		Verify a reset code, optionally setting a new password
//	@Description	Without new_password and confirm_password the code is only checked.
//	@Tags			Password Reset
//	@Accept			json
//	@Produce		json
//	@Param			body	body		service.ResetInput	true	"Code and optional new password"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	DetailResponse
//	@Router			/api/auth/password-reset/verify-otp/ [post].
func (h *AuthHandler) VerifyReset(w http.ResponseWriter, r *http.Request) {
	var in service.ResetInput
	if !decode(w, r, &in) {
		return
	}
	if err := h.Auth.VerifyReset(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}

	msg := "OTP verified."
	if in.NewPassword != "" {
		msg = "Password has been reset."
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: msg})
}
