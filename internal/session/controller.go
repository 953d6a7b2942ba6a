package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roomly-dev/roomly/internal/api"
	"github.com/roomly-dev/roomly/internal/identity"
	"github.com/roomly-dev/roomly/internal/models"
)

const (
	identityPath = "/auth/users-me"
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	logoutPath   = "/auth/logout"
	profilePath  = "/users/me"

	DashboardPath = "/dashboard"
	HomePath      = "/"
)

var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrProfileUpdateFailed = errors.New("failed to update profile")
)

// IdentityProvider obtains an ID token for email/password credentials
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Credential, error)
	SignUp(ctx context.Context, email, password string) (*identity.Credential, error)
}

// Popup runs the federated sign-in and blocks until it resolves or is dismissed
type Popup interface {
	SignIn(ctx context.Context) (*identity.Credential, error)
}

// Deps wires a Controller. Identity may be nil, in which case credentials are
// sent to the backend directly.
type Deps struct {
	Store     *Store
	API       *api.Client
	Identity  IdentityProvider
	Notifier  Notifier
	Navigator Navigator
	Logger    zerolog.Logger
}

// Controller mediates every identity transition
type Controller struct {
	store     *Store
	api       *api.Client
	identity  IdentityProvider
	notifier  Notifier
	navigator Navigator
	logger    zerolog.Logger
}

// NewController creates a controller. A nil Store, Notifier or Navigator is
// replaced with a fresh store or a no-op.
func NewController(d Deps) *Controller {
	c := &Controller{
		store:     d.Store,
		api:       d.API,
		identity:  d.Identity,
		notifier:  d.Notifier,
		navigator: d.Navigator,
		logger:    d.Logger,
	}
	if c.store == nil {
		c.store = NewStore()
	}
	if c.notifier == nil {
		c.notifier = noopNotifier{}
	}
	if c.navigator == nil {
		c.navigator = noopNavigator{}
	}
	return c
}

// Store returns the state store the controller writes to
func (c *Controller) Store() *Store {
	return c.store
}

// CheckSession probes the backend identity endpoint. Any failure leaves the
// session without a user; it never returns an error.
func (c *Controller) CheckSession(ctx context.Context) *models.User {
	c.store.Dispatch(Action{Type: ActionLoading})
	defer c.store.Dispatch(Action{Type: ActionLoaded})

	user, err := c.fetchIdentity(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Session probe failed")
		c.store.Dispatch(Action{Type: ActionClearUser})
		return nil
	}

	c.store.Dispatch(Action{Type: ActionSetUser, User: user})
	return c.store.GetState().User
}

// Login exchanges email/password with the backend
func (c *Controller) Login(ctx context.Context, email, password string) {
	c.authenticate(ctx, attempt{
		failTitle:    "Login failed",
		fallback:     "Invalid credentials",
		errorDesc:    "An error occurred during login",
		successTitle: "Login successful",
		successDesc:  "Welcome back!",
	}, func(ctx context.Context) (*api.Envelope, error) {
		var opts []api.RequestOption
		if c.identity != nil {
			cred, err := c.identity.SignInWithPassword(ctx, email, password)
			if err != nil {
				return nil, err
			}
			opts = append(opts, api.WithBearer(cred.IDToken))
		}
		return c.api.Post(ctx, loginPath, models.LoginRequest{Email: email, Password: password}, opts...)
	})
}

// Register creates the account and signs the user in
func (c *Controller) Register(ctx context.Context, req models.RegisterRequest) {
	c.authenticate(ctx, attempt{
		failTitle:    "Registration failed",
		fallback:     "Please check your information",
		errorDesc:    "An error occurred during registration",
		successTitle: "Registration successful",
		successDesc:  "Your account has been created",
	}, func(ctx context.Context) (*api.Envelope, error) {
		var opts []api.RequestOption
		if c.identity != nil {
			cred, err := c.identity.SignUp(ctx, req.Email, req.Password)
			if err != nil {
				return nil, err
			}
			opts = append(opts, api.WithBearer(cred.IDToken))
		}
		return c.api.Post(ctx, registerPath, req, opts...)
	})
}

// LoginWithGoogle runs the federated popup and registers or logs in depending
// on whether the provider just created the account
func (c *Controller) LoginWithGoogle(ctx context.Context, popup Popup) {
	c.authenticate(ctx, attempt{
		failTitle:    "Login failed",
		fallback:     "Authentication failed",
		errorDesc:    "An error occurred during Google login",
		dismissDesc:  "Google sign-in was cancelled",
		successTitle: "Login successful",
		successDesc:  "Welcome back!",
	}, func(ctx context.Context) (*api.Envelope, error) {
		cred, err := popup.SignIn(ctx)
		if err != nil {
			return nil, err
		}

		outcome := outcomeOf(cred)
		c.logger.Debug().Str("outcome", outcome.String()).Str("email", cred.Email).Msg("Federated sign-in resolved")

		body := models.FederatedRequest{Email: cred.Email, Role: models.RoleUser}
		return c.api.Post(ctx, outcome.backendPath(), body, api.WithBearer(cred.IDToken))
	})
}

// UpdateProfile sends a partial profile update. Unlike the other actions it
// returns the failure; state is untouched on error.
func (c *Controller) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	env, err := c.api.Put(ctx, profilePath, update)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileUpdateFailed, err)
	}
	if !env.OK() || !env.Success {
		return nil, fmt.Errorf("%w (status %d)", ErrProfileUpdateFailed, env.StatusCode)
	}

	var merged models.User
	if current := c.store.GetState().User; current != nil {
		merged = *current
	}
	if err := env.Decode(&merged); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileUpdateFailed, err)
	}

	c.store.Dispatch(Action{Type: ActionSetUser, User: &merged})
	return c.store.GetState().User, nil
}

// Logout asks the backend to clear the cookie. Local state is cleared and the
// user is sent home whatever the backend answers.
func (c *Controller) Logout(ctx context.Context) {
	env, err := c.api.Post(ctx, logoutPath, nil)

	c.store.Dispatch(Action{Type: ActionClearUser})
	c.navigator.Navigate(HomePath)

	// The body is never read, so a 2xx that is not JSON still counts
	if errors.Is(err, api.ErrMalformedResponse) && env != nil && env.OK() {
		err = nil
	}
	if err == nil && !env.OK() {
		err = fmt.Errorf("logout returned status %d", env.StatusCode)
	}
	if err != nil {
		c.logger.Error().Err(err).Msg("Logout error")
		c.notifier.Notify(Toast{
			Variant:     VariantDestructive,
			Title:       "Logout failed",
			Description: "An error occurred during logout",
		})
		return
	}

	c.notifier.Notify(Toast{
		Variant:     VariantDefault,
		Title:       "Logged out",
		Description: "You have been logged out successfully",
	})
}

type attempt struct {
	failTitle    string
	fallback     string
	errorDesc    string
	dismissDesc  string
	successTitle string
	successDesc  string
}

// authenticate runs one credential exchange and, on backend success, the
// shared finalize step
func (c *Controller) authenticate(ctx context.Context, a attempt, exchange func(context.Context) (*api.Envelope, error)) {
	c.store.Dispatch(Action{Type: ActionLoading})
	defer c.store.Dispatch(Action{Type: ActionLoaded})

	env, err := exchange(ctx)
	if err != nil {
		desc := a.errorDesc
		if a.dismissDesc != "" && errors.Is(err, identity.ErrPopupDismissed) {
			desc = a.dismissDesc
			c.logger.Info().Msg("Federated sign-in dismissed")
		} else {
			c.logger.Error().Err(err).Str("action", a.failTitle).Msg("Authentication error")
		}
		c.fail(a.failTitle, desc)
		return
	}

	if !env.Success {
		c.fail(a.failTitle, env.MessageOr(a.fallback))
		return
	}

	c.finalizeSession(ctx, a)
}

// finalizeSession re-reads the identity after the backend accepted the
// credentials, then moves to the dashboard
func (c *Controller) finalizeSession(ctx context.Context, a attempt) {
	user, err := c.fetchIdentity(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Identity probe after authentication failed")
		c.store.Dispatch(Action{Type: ActionClearUser})
		c.fail(a.failTitle, "Could not load your account")
		return
	}

	c.store.Dispatch(Action{Type: ActionSetUser, User: user})
	c.navigator.Navigate(DashboardPath)
	c.notifier.Notify(Toast{
		Variant:     VariantDefault,
		Title:       a.successTitle,
		Description: a.successDesc,
	})
}

func (c *Controller) fail(title, desc string) {
	c.notifier.Notify(Toast{
		Variant:     VariantDestructive,
		Title:       title,
		Description: desc,
	})
}

func (c *Controller) fetchIdentity(ctx context.Context) (*models.User, error) {
	env, err := c.api.Get(ctx, identityPath)
	if err != nil {
		return nil, err
	}
	if !env.OK() || !env.Success || !env.HasData() {
		return nil, fmt.Errorf("%w (status %d)", ErrNotAuthenticated, env.StatusCode)
	}

	var user models.User
	if err := env.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}
