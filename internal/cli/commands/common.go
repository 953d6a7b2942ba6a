package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/roomly-dev/roomly/internal/api"
	"github.com/roomly-dev/roomly/internal/cli/auth"
	"github.com/roomly-dev/roomly/internal/cli/config"
	appconfig "github.com/roomly-dev/roomly/internal/config"
	"github.com/roomly-dev/roomly/internal/identity"
	"github.com/roomly-dev/roomly/internal/logger"
	"github.com/roomly-dev/roomly/internal/models"
	"github.com/roomly-dev/roomly/internal/session"
)

const defaultTimeout = 30 * time.Second

// Globals holds the persistent root flags
type Globals struct {
	APIURL  string
	Verbose bool
}

func (g *Globals) options() []Option {
	return []Option{WithAPIURL(g.APIURL), WithVerbose(g.Verbose)}
}

type runOptions struct {
	apiURL      string
	store       auth.TokenStore
	out         io.Writer
	firebaseKey string
	savedEmail  string
	timeout     time.Duration
	verbose     bool
}

// Option customises how a command runs, mainly for tests
type Option func(*runOptions)

// WithAPIURL pins the backend URL instead of resolving it from config
func WithAPIURL(url string) Option {
	return func(o *runOptions) { o.apiURL = url }
}

// WithTokenStore replaces the OS keyring
func WithTokenStore(store auth.TokenStore) Option {
	return func(o *runOptions) { o.store = store }
}

// WithVerbose logs backend traffic to stderr
func WithVerbose(v bool) Option {
	return func(o *runOptions) { o.verbose = v }
}

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(o *runOptions) { o.out = w }
}

// resolveOptions fills in everything the caller did not pin
func resolveOptions(opts []Option) (*runOptions, error) {
	o := &runOptions{
		store:   auth.Default,
		out:     os.Stdout,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	o.apiURL = cfg.ResolveAPIURL(o.apiURL)
	o.savedEmail = cfg.Email

	o.firebaseKey = os.Getenv("FIREBASE_API_KEY")
	if o.firebaseKey == "" {
		o.firebaseKey = cfg.FirebaseAPIKey
	}
	return o, nil
}

func (o *runOptions) logger() zerolog.Logger {
	if !o.verbose {
		return zerolog.Nop()
	}
	return logger.New(os.Stderr, "console").Level(zerolog.DebugLevel)
}

// cliSession drives the session controller from the terminal: toasts are
// printed and the stored keyring token plays the role of the cookie
type cliSession struct {
	ctrl   *session.Controller
	client *api.Client
	jar    *auth.Jar
	out    io.Writer
	failed []session.Toast
}

func newCLISession(o *runOptions) *cliSession {
	jar := auth.NewJar(o.store, o.apiURL)
	client := api.New(appconfig.APIConfig{URL: o.apiURL}.BaseURL(), o.timeout).WithJar(jar)

	s := &cliSession{client: client, jar: jar, out: o.out}

	var idp session.IdentityProvider
	if o.firebaseKey != "" {
		idp = identity.NewFirebase(o.firebaseKey, "", o.timeout)
	}

	s.ctrl = session.NewController(session.Deps{
		API:      client,
		Identity: idp,
		Notifier: session.NotifierFunc(s.notify),
		Logger:   o.logger(),
	})
	return s
}

// notify prints success toasts; failures become the command's error
func (s *cliSession) notify(t session.Toast) {
	if t.Variant == session.VariantDestructive {
		s.failed = append(s.failed, t)
		return
	}
	if t.Description != "" {
		fmt.Fprintf(s.out, "✓ %s: %s\n", t.Title, t.Description)
		return
	}
	fmt.Fprintf(s.out, "✓ %s\n", t.Title)
}

// requireUser probes the backend and fails when no session is active
func (s *cliSession) requireUser(ctx context.Context) (*models.User, error) {
	if _, ok := s.jar.Token(); !ok {
		return nil, auth.ErrNotAuthenticated
	}
	user := s.ctrl.CheckSession(ctx)
	if user == nil {
		return nil, fmt.Errorf("session expired. Please run 'roomly login' again")
	}
	return user, nil
}

// actionError turns the last failure toast into the command's error
func (s *cliSession) actionError(action string) error {
	if len(s.failed) == 0 {
		return fmt.Errorf("%s failed", action)
	}
	last := s.failed[len(s.failed)-1]
	return fmt.Errorf("%s failed: %s", action, last.Description)
}
