package session

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	CookieToken = "token"
	CookieName  = "name"
	CookieRole  = "role"
	CookieEmail = "email"
)

// Session is the signed-in user as the dashboard sees it: the display
// cookies plus the JWT that authenticates API calls.
type Session struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Token string `json:"-"`
}

// Options controls the cookies written by Set and Clear.
type Options struct {
	Path    string
	Secure  bool
	Expires time.Time
}

func (o Options) path() string {
	if o.Path == "" {
		return "/"
	}
	return o.Path
}

// Init reads the session cookies of r. Missing cookies yield empty fields.
func Init(r *http.Request) Session {
	return Session{
		Name:  cookieValue(r, CookieName),
		Role:  strings.ToLower(cookieValue(r, CookieRole)),
		Email: cookieValue(r, CookieEmail),
		Token: tokenFrom(r),
	}
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Set writes all session cookies. The token cookie is HttpOnly; the display
// cookies stay readable by the dashboard.
func (s Session) Set(w http.ResponseWriter, opts Options) {
	maxAge := 0
	if !opts.Expires.IsZero() {
		maxAge = int(time.Until(opts.Expires).Seconds())
		if maxAge <= 0 {
			maxAge = -1
		}
	}
	write := func(name, value string, httpOnly bool) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    url.QueryEscape(value),
			Path:     opts.path(),
			Expires:  opts.Expires,
			MaxAge:   maxAge,
			Secure:   opts.Secure,
			HttpOnly: httpOnly,
			SameSite: http.SameSiteLaxMode,
		})
	}
	write(CookieToken, s.Token, true)
	write(CookieName, s.Name, false)
	write(CookieRole, s.Role, false)
	write(CookieEmail, s.Email, false)
}

// Clear expires every session cookie.
func Clear(w http.ResponseWriter, opts Options) {
	for _, name := range []string{CookieToken, CookieName, CookieRole, CookieEmail} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     opts.path(),
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			Secure:   opts.Secure,
			HttpOnly: name == CookieToken,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return strings.TrimSpace(c.Value)
	}
	return strings.TrimSpace(v)
}

// tokenFrom prefers a bearer Authorization header over the token cookie.
func tokenFrom(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
	}
	return cookieValue(r, CookieToken)
}
