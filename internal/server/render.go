package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/roomly-dev/roomly/internal/api"
	"github.com/roomly-dev/roomly/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("Mon 2 Jan 2006, 15:04")
		},
		"fieldErr": func(errs map[string]string, field string) string {
			return errs[field]
		},
		// data: image URLs from the backend are trusted; anything else goes
		// through the normal URL filter
		"imageSrc": func(src string) any {
			if strings.HasPrefix(src, "data:image/") {
				return template.URL(src)
			}
			return src
		},
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
}

// registerValidators adds the custom tags used by the form models
func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return models.RegisterValidations(v)
}

// formErrors turns binding errors into one message per form field
func formErrors(err error) map[string]string {
	out := map[string]string{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_form"] = "Please check your information"
		return out
	}

	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = "This field is required"
		case "email":
			out[field] = "Enter a valid email address"
		case "phone":
			out[field] = "Enter a valid phone number"
		case "min":
			out[field] = fmt.Sprintf("Must be at least %s", fe.Param())
		case "oneof":
			out[field] = fmt.Sprintf("Must be one of: %s", fe.Param())
		default:
			out[field] = "Invalid value"
		}
	}
	return out
}

// render executes a page template with the current user and pending toasts
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	rs := s.getRequestSession(c)
	if data == nil {
		data = gin.H{}
	}

	data["User"] = rs.user()
	data["Toasts"] = append(s.takeFlash(c), rs.toasts.toasts...)
	data["GoogleEnabled"] = s.google != nil
	data["Version"] = s.version
	data["Path"] = c.Request.URL.Path

	c.HTML(status, name, data)
}

// redirect sends the browser to location, carrying pending toasts along
func (s *Server) redirect(c *gin.Context, location string) {
	rs := s.getRequestSession(c)
	s.putFlash(c, rs.toasts.toasts)

	status := http.StatusFound
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	c.Redirect(status, location)
}

// renderError shows the error page
func (s *Server) renderError(c *gin.Context, status int, message string) {
	s.render(c, status, "error.tmpl", gin.H{"Message": message})
}

// fetch GETs a backend resource for the current user and decodes its data
func (s *Server) fetch(c *gin.Context, path string, v any) error {
	rs := s.getRequestSession(c)

	env, err := rs.api.Get(c.Request.Context(), path)
	if err != nil {
		return err
	}
	if !env.OK() || !env.Success {
		return &backendError{status: env.StatusCode, message: env.MessageOr("request failed")}
	}
	if err := env.Decode(v); err != nil && !errors.Is(err, api.ErrNoData) {
		return err
	}
	return nil
}

type backendError struct {
	status  int
	message string
}

func (e *backendError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.status, e.message)
}

// statusFor maps a fetch failure to the status of the error page
func statusFor(err error) int {
	var be *backendError
	if errors.As(err, &be) && be.status == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
