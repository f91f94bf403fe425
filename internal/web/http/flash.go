package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const (
	flashCookieName = "quill_flash"

	flashSuccess = "success"
	flashError   = "error"
)

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Kind string `json:"k"` // "success" or "error"
	Text string `json:"t"`
}

func setFlash(w http.ResponseWriter, kind, text string) {
	b, err := json.Marshal(Flash{Kind: kind, Text: text})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads and expires the flash cookie.
func takeFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Text == "" {
		return nil
	}
	return &f
}
