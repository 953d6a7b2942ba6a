package server

import (
	"encoding/gob"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"github.com/roomly-dev/roomly/internal/session"
)

const (
	flashSessionName = "flash"
	flashMaxAge      = 60
)

func init() {
	gob.Register(session.Toast{})
}

// toastCollector gathers toasts raised while handling one request
type toastCollector struct {
	toasts []session.Toast
}

func (t *toastCollector) Notify(toast session.Toast) {
	t.toasts = append(t.toasts, toast)
}

func (t *toastCollector) success(title, desc string) {
	t.Notify(session.Toast{Variant: session.VariantDefault, Title: title, Description: desc})
}

func (t *toastCollector) failure(title, desc string) {
	t.Notify(session.Toast{Variant: session.VariantDestructive, Title: title, Description: desc})
}

// navRecorder remembers where the controller wanted to go
type navRecorder struct {
	target string
}

func (n *navRecorder) Navigate(path string) {
	n.target = path
}

// newFlashStore creates the cookie store that carries toasts across a
// redirect. Without a secret the key lives only as long as the process.
func newFlashStore(secret string, secure bool) *sessions.CookieStore {
	key := []byte(secret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// flashSession returns the request's flash session. A cookie that fails to
// decode yields a fresh session.
func (s *Server) flashSession(c *gin.Context) *sessions.Session {
	sess, err := s.flash.Get(c.Request, flashSessionName)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Discarding unreadable flash cookie")
	}
	return sess
}

func drainToasts(sess *sessions.Session) []session.Toast {
	var toasts []session.Toast
	for _, v := range sess.Flashes() {
		if t, ok := v.(session.Toast); ok {
			toasts = append(toasts, t)
		}
	}
	return toasts
}

// putFlash stores toasts so they survive a redirect, keeping any that were
// not shown yet
func (s *Server) putFlash(c *gin.Context, toasts []session.Toast) {
	sess := s.flashSession(c)
	toasts = append(drainToasts(sess), toasts...)
	if len(toasts) == 0 {
		return
	}
	for _, t := range toasts {
		sess.AddFlash(t)
	}
	if err := sess.Save(c.Request, c.Writer); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save flash cookie")
	}
}

// takeFlash reads and clears toasts left by a previous redirect
func (s *Server) takeFlash(c *gin.Context) []session.Toast {
	if _, err := c.Request.Cookie(flashSessionName); err != nil {
		return nil
	}
	sess := s.flashSession(c)
	toasts := drainToasts(sess)

	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request, c.Writer); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear flash cookie")
	}
	return toasts
}
