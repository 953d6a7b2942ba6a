// Package guard redirects requests based on whether the session cookie is
// present. It never decodes the cookie; the backend validates it on every
// API call.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomly-dev/roomly/internal/api"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"

	CallbackParam = "callbackUrl"
)

// Decision is the outcome of evaluating a request
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToDashboard
)

func (d Decision) String() string {
	switch d {
	case RedirectToLogin:
		return "redirect_login"
	case RedirectToDashboard:
		return "redirect_dashboard"
	default:
		return "allow"
	}
}

// Guard holds the protected and auth-only path sets
type Guard struct {
	protected []string
	authOnly  []string
}

// New creates a guard. Protected entries match the path itself and anything
// below it; auth-only entries match exactly.
func New(protected, authOnly []string) *Guard {
	return &Guard{
		protected: append([]string(nil), protected...),
		authOnly:  append([]string(nil), authOnly...),
	}
}

// IsProtected reports whether path requires a session
func (g *Guard) IsProtected(path string) bool {
	for _, route := range g.protected {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

// IsAuthOnly reports whether path is only for visitors without a session
func (g *Guard) IsAuthOnly(path string) bool {
	for _, route := range g.authOnly {
		if path == route {
			return true
		}
	}
	return false
}

// Decide applies the decision table
func (g *Guard) Decide(path string, hasSession bool) Decision {
	if g.IsProtected(path) && !hasSession {
		return RedirectToLogin
	}
	if g.IsAuthOnly(path) && hasSession {
		return RedirectToDashboard
	}
	return Allow
}

// Evaluate decides for r and returns the redirect location, if any
func (g *Guard) Evaluate(r *http.Request) (Decision, string) {
	decision := g.Decide(r.URL.Path, HasSessionCookie(r))
	switch decision {
	case RedirectToLogin:
		return decision, LoginURL(OriginalURL(r))
	case RedirectToDashboard:
		return decision, DashboardPath
	default:
		return decision, ""
	}
}

// Middleware runs the guard before any page handler
func (g *Guard) Middleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, location := g.Evaluate(c.Request)
		if decision == Allow {
			c.Next()
			return
		}

		log.Debug().
			Str("path", c.Request.URL.Path).
			Str("decision", decision.String()).
			Msg("Route guard redirect")

		c.Redirect(http.StatusFound, location)
		c.Abort()
	}
}

// HasSessionCookie reports whether the session cookie is present, whatever
// its value
func HasSessionCookie(r *http.Request) bool {
	_, err := r.Cookie(api.SessionCookieName)
	return err == nil
}

// LoginURL builds the login redirect carrying the page to return to
func LoginURL(callback string) string {
	q := url.Values{}
	q.Set(CallbackParam, callback)
	return LoginPath + "?" + q.Encode()
}

// OriginalURL reconstructs the absolute URL the client requested
func OriginalURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}
	return u.String()
}

// SafeCallback returns callback when it points back at this site, otherwise
// fallback. It accepts http(s) URLs on host and site-relative paths. Browsers
// read a backslash as a slash, so any callback containing one is refused.
func SafeCallback(callback, host, fallback string) string {
	if callback == "" || strings.Contains(callback, `\`) {
		return fallback
	}
	u, err := url.Parse(callback)
	if err != nil {
		return fallback
	}

	target := callback
	if u.Scheme != "" || u.Host != "" {
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host != host {
			return fallback
		}
		target = u.RequestURI()
	}
	if !isLocalPath(target) {
		return fallback
	}
	return target
}

// isLocalPath reports whether p is a path on this site rather than a
// scheme-relative URL
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//")
}
