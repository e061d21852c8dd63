package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

// CookieCodec signs session tokens with the process-wide session secret
// before they leave the server, and rejects cookies whose signature does
// not verify. The secret is fixed at startup; rotating it (or restarting
// without SESSION_SECRET set) invalidates every outstanding cookie.
type CookieCodec struct {
	secret []byte
}

func NewCookieCodec(secret string) *CookieCodec {
	return &CookieCodec{secret: []byte(secret)}
}

func (c *CookieCodec) sign(token string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Encode returns the cookie value for a token: "token.signature".
func (c *CookieCodec) Encode(token string) string {
	return token + "." + c.sign(token)
}

// Decode extracts and verifies the token from a cookie value. The second
// return is false for malformed values and bad signatures alike.
func (c *CookieCodec) Decode(value string) (string, bool) {
	token, sig, ok := strings.Cut(value, ".")
	if !ok || token == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(token))) {
		return "", false
	}
	return token, true
}

// SetCookie writes the signed session cookie.
func (c *CookieCodec) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    c.Encode(token),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
}

// ClearCookie expires the session cookie client-side.
func (c *CookieCodec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// ReadCookie extracts a verified token from the request, if any.
func (c *CookieCodec) ReadCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	return c.Decode(cookie.Value)
}
