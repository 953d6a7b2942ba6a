package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roomly-dev/roomly/internal/guard"
	"github.com/roomly-dev/roomly/internal/identity"
	"github.com/roomly-dev/roomly/internal/models"
	"github.com/roomly-dev/roomly/internal/session"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 600

	firebaseLoginPath = "/auth/firebase-login"
)

// FirebaseLoginRequest is posted by browser scripts that signed in with the
// Firebase JS SDK
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken"`
}

// ProfileForm is the profile edit form. Empty fields are left unchanged.
type ProfileForm struct {
	Name        string `form:"name"`
	PhoneNumber string `form:"phoneNumber" binding:"omitempty,phone"`
}

func (s *Server) loginPage(c *gin.Context) {
	s.render(c, http.StatusOK, "login.tmpl", gin.H{
		"Email":       "",
		"CallbackURL": c.Query(guard.CallbackParam),
	})
}

func (s *Server) loginSubmit(c *gin.Context) {
	rs := s.getRequestSession(c)
	callback := c.PostForm(guard.CallbackParam)

	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.render(c, http.StatusBadRequest, "login.tmpl", gin.H{
			"Errors":      formErrors(err),
			"Email":       req.Email,
			"CallbackURL": callback,
		})
		return
	}

	rs.ctrl.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)

	if target := rs.nav.target; target != "" {
		if target == session.DashboardPath {
			target = guard.SafeCallback(callback, c.Request.Host, target)
		}
		s.redirect(c, target)
		return
	}

	s.render(c, http.StatusUnauthorized, "login.tmpl", gin.H{
		"Email":       req.Email,
		"CallbackURL": callback,
	})
}

func (s *Server) registerPage(c *gin.Context) {
	s.render(c, http.StatusOK, "register.tmpl", gin.H{"Form": models.RegisterRequest{}})
}

func (s *Server) registerSubmit(c *gin.Context) {
	rs := s.getRequestSession(c)

	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		s.render(c, http.StatusBadRequest, "register.tmpl", gin.H{
			"Errors": formErrors(err),
			"Form":   req,
		})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	rs.ctrl.Register(c.Request.Context(), req)

	if target := rs.nav.target; target != "" {
		s.redirect(c, target)
		return
	}

	s.render(c, http.StatusUnprocessableEntity, "register.tmpl", gin.H{"Form": req})
}

func (s *Server) logout(c *gin.Context) {
	rs := s.getRequestSession(c)

	rs.ctrl.Logout(c.Request.Context())
	rs.jar.Clear()

	s.redirect(c, rs.nav.target)
}

// googleStart sends the browser to Google with a fresh state value
func (s *Server) googleStart(c *gin.Context) {
	if s.google == nil {
		s.getRequestSession(c).toasts.failure("Login failed", "Google sign-in is not available")
		s.redirect(c, guard.LoginPath)
		return
	}

	state := identity.NewState()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   s.config.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	c.Redirect(http.StatusFound, s.google.AuthCodeURL(state))
}

// googleCallback completes the redirect flow and signs the user in
func (s *Server) googleCallback(c *gin.Context) {
	rs := s.getRequestSession(c)
	if s.google == nil {
		rs.toasts.failure("Login failed", "Google sign-in is not available")
		s.redirect(c, guard.LoginPath)
		return
	}

	expected, _ := c.Cookie(oauthStateCookie)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.Server.CookieSecure,
	})

	popup := s.google.Popup(identity.Callback{
		Code:          c.Query("code"),
		State:         c.Query("state"),
		ExpectedState: expected,
		Error:         c.Query("error"),
	})
	rs.ctrl.LoginWithGoogle(c.Request.Context(), popup)

	target := rs.nav.target
	if target == "" {
		target = guard.LoginPath
	}
	s.redirect(c, target)
}

// firebaseLogin relays an ID token from the browser to the backend and hands
// the resulting session cookie back
func (s *Server) firebaseLogin(c *gin.Context) {
	var req FirebaseLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "ID token is required"})
		return
	}

	rs := s.getRequestSession(c)
	env, err := rs.api.Post(c.Request.Context(), firebaseLoginPath, req)
	if err != nil {
		s.logger.Error().Err(err).Msg("Firebase login relay failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "An error occurred during Firebase authentication",
		})
		return
	}

	if !env.OK() || !env.Success {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": env.MessageOr("Firebase authentication failed"),
		})
		return
	}

	c.JSON(http.StatusOK, env)
}

func (s *Server) profilePage(c *gin.Context) {
	s.render(c, http.StatusOK, "profile.tmpl", nil)
}

func (s *Server) profileSubmit(c *gin.Context) {
	rs := s.getRequestSession(c)

	var form ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusBadRequest, "profile.tmpl", gin.H{"Errors": formErrors(err)})
		return
	}

	var update models.ProfileUpdate
	if name := strings.TrimSpace(form.Name); name != "" {
		update.Name = &name
	}
	if phone := strings.TrimSpace(form.PhoneNumber); phone != "" {
		update.PhoneNumber = &phone
	}
	if update.Name == nil && update.PhoneNumber == nil {
		rs.toasts.failure("Nothing to update", "Change your name or phone number first")
		s.redirect(c, "/profile")
		return
	}

	if _, err := rs.ctrl.UpdateProfile(c.Request.Context(), update); err != nil {
		s.logger.Error().Err(err).Msg("Profile update failed")
		rs.toasts.failure("Update failed", "Failed to update profile")
		s.render(c, http.StatusBadGateway, "profile.tmpl", nil)
		return
	}

	rs.toasts.success("Profile updated", "Your changes have been saved")
	s.redirect(c, "/profile")
}
