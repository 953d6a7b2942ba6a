package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomly-dev/roomly/internal/api"
	"github.com/roomly-dev/roomly/internal/identity"
	"github.com/roomly-dev/roomly/internal/models"
)

// fakeBackend answers per path with a fixed status and body
type fakeBackend struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	requests  []recordedRequest
}

type fakeResponse struct {
	status int
	body   string
}

type recordedRequest struct {
	method        string
	path          string
	authorization string
	body          map[string]any
}

func newFakeBackend(t *testing.T) (*fakeBackend, *api.Client) {
	t.Helper()
	fb := &fakeBackend{responses: make(map[string]fakeResponse)}
	server := httptest.NewServer(fb)
	t.Cleanup(server.Close)
	return fb, api.New(server.URL, 5*time.Second)
}

func (f *fakeBackend) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = fakeResponse{status: status, body: body}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{method: r.Method, path: r.URL.Path, authorization: r.Header.Get("Authorization")}
	_ = json.NewDecoder(r.Body).Decode(&rec.body)

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"not found"}`))
		return
	}
	w.WriteHeader(resp.status)
	w.Write([]byte(resp.body))
}

func (f *fakeBackend) find(method, path string) (recordedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.method == method && r.path == path {
			return r, true
		}
	}
	return recordedRequest{}, false
}

type recorder struct {
	toasts []Toast
	paths  []string
}

func (r *recorder) Notify(t Toast)        { r.toasts = append(r.toasts, t) }
func (r *recorder) Navigate(path string) { r.paths = append(r.paths, path) }

type fakeIdentity struct {
	signInFunc func(ctx context.Context, email, password string) (*identity.Credential, error)
	signUpFunc func(ctx context.Context, email, password string) (*identity.Credential, error)
}

func (f *fakeIdentity) SignInWithPassword(ctx context.Context, email, password string) (*identity.Credential, error) {
	return f.signInFunc(ctx, email, password)
}

func (f *fakeIdentity) SignUp(ctx context.Context, email, password string) (*identity.Credential, error) {
	return f.signUpFunc(ctx, email, password)
}

type popupFunc func(ctx context.Context) (*identity.Credential, error)

func (f popupFunc) SignIn(ctx context.Context) (*identity.Credential, error) { return f(ctx) }

const meBody = `{"success":true,"data":{"_id":"u1","name":"Ada","email":"a@b.com","role":"user"}}`

func newController(client *api.Client, rec *recorder, idp IdentityProvider) *Controller {
	return NewController(Deps{
		API:       client,
		Identity:  idp,
		Notifier:  rec,
		Navigator: rec,
		Logger:    zerolog.Nop(),
	})
}

func TestCheckSession(t *testing.T) {
	t.Run("success sets user", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("GET", "/auth/users-me", 200, meBody)
		c := newController(client, &recorder{}, nil)

		user := c.CheckSession(context.Background())

		require.NotNil(t, user)
		state := c.Store().GetState()
		assert.Equal(t, &models.User{ID: "u1", Name: "Ada", Email: "a@b.com", Role: models.RoleUser}, state.User)
		assert.False(t, state.Loading)
	})

	t.Run("success false clears user", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("GET", "/auth/users-me", 200, `{"success":false}`)
		c := newController(client, &recorder{}, nil)
		c.Store().Dispatch(Action{Type: ActionSetUser, User: &models.User{ID: "stale"}})

		assert.Nil(t, c.CheckSession(context.Background()))
		assert.Nil(t, c.Store().GetState().User)
	})

	t.Run("non 2xx clears user", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("GET", "/auth/users-me", 401, meBody)
		c := newController(client, &recorder{}, nil)

		assert.Nil(t, c.CheckSession(context.Background()))
	})

	t.Run("transport error clears user", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		client := api.New(server.URL, time.Second)
		server.Close()
		c := newController(client, &recorder{}, nil)
		c.Store().Dispatch(Action{Type: ActionSetUser, User: &models.User{ID: "stale"}})

		assert.Nil(t, c.CheckSession(context.Background()))
		assert.False(t, c.Store().GetState().Authenticated())
		assert.False(t, c.Store().GetState().Loading)
	})
}

func TestLogin(t *testing.T) {
	t.Run("backend success probes identity and navigates", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("POST", "/auth/login", 200, `{"success":true}`)
		backend.on("GET", "/auth/users-me", 200, meBody)
		rec := &recorder{}
		c := newController(client, rec, nil)

		c.Login(context.Background(), "a@b.com", "pw")

		state := c.Store().GetState()
		require.NotNil(t, state.User)
		assert.Equal(t, "u1", state.User.ID)
		assert.False(t, state.Loading)
		assert.Equal(t, []string{"/dashboard"}, rec.paths)
		require.Len(t, rec.toasts, 1)
		assert.Equal(t, "Login successful", rec.toasts[0].Title)

		req, ok := backend.find("POST", "/auth/login")
		require.True(t, ok)
		assert.Equal(t, "a@b.com", req.body["email"])
		assert.Equal(t, "pw", req.body["password"])
		assert.Empty(t, req.authorization)
	})

	t.Run("backend failure shows its message", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("POST", "/auth/login", 401, `{"success":false,"message":"Invalid credentials"}`)
		rec := &recorder{}
		c := newController(client, rec, nil)

		c.Login(context.Background(), "a@b.com", "pw")

		assert.Nil(t, c.Store().GetState().User)
		assert.Empty(t, rec.paths)
		require.Len(t, rec.toasts, 1)
		assert.Equal(t, VariantDestructive, rec.toasts[0].Variant)
		assert.Equal(t, "Invalid credentials", rec.toasts[0].Description)
	})

	t.Run("backend failure without message uses fallback", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("POST", "/auth/login", 200, `{"success":false}`)
		rec := &recorder{}
		c := newController(client, rec, nil)

		c.Login(context.Background(), "a@b.com", "pw")

		require.Len(t, rec.toasts, 1)
		assert.Equal(t, "Invalid credentials", rec.toasts[0].Description)
	})

	t.Run("identity token is sent as bearer", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("POST", "/auth/login", 200, `{"success":true}`)
		backend.on("GET", "/auth/users-me", 200, meBody)
		idp := &fakeIdentity{signInFunc: func(ctx context.Context, email, password string) (*identity.Credential, error) {
			return &identity.Credential{IDToken: "fb-token", Email: email}, nil
		}}
		c := newController(client, &recorder{}, idp)

		c.Login(context.Background(), "a@b.com", "pw")

		req, ok := backend.find("POST", "/auth/login")
		require.True(t, ok)
		assert.Equal(t, "Bearer fb-token", req.authorization)
	})

	t.Run("identity provider error is generic", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		idp := &fakeIdentity{signInFunc: func(ctx context.Context, email, password string) (*identity.Credential, error) {
			return nil, &identity.Error{StatusCode: 400, Code: "INVALID_PASSWORD"}
		}}
		rec := &recorder{}
		c := newController(client, rec, idp)

		c.Login(context.Background(), "a@b.com", "pw")

		_, called := backend.find("POST", "/auth/login")
		assert.False(t, called)
		require.Len(t, rec.toasts, 1)
		assert.Equal(t, "An error occurred during login", rec.toasts[0].Description)
		assert.Nil(t, c.Store().GetState().User)
	})

	t.Run("failed probe after success leaves no user", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("POST", "/auth/login", 200, `{"success":true}`)
		backend.on("GET", "/auth/users-me", 500, `{"success":false}`)
		rec := &recorder{}
		c := newController(client, rec, nil)

		c.Login(context.Background(), "a@b.com", "pw")

		assert.Nil(t, c.Store().GetState().User)
		assert.Empty(t, rec.paths)
		require.Len(t, rec.toasts, 1)
		assert.Equal(t, VariantDestructive, rec.toasts[0].Variant)
	})
}

func TestRegister_SendsBothPhoneKeys(t *testing.T) {
	backend, client := newFakeBackend(t)
	backend.on("POST", "/auth/register", 201, `{"success":true}`)
	backend.on("GET", "/auth/users-me", 200, meBody)
	idp := &fakeIdentity{signUpFunc: func(ctx context.Context, email, password string) (*identity.Credential, error) {
		return &identity.Credential{IDToken: "new-token", IsNewUser: true}, nil
	}}
	rec := &recorder{}
	c := newController(client, rec, idp)

	c.Register(context.Background(), models.RegisterRequest{
		Name: "Ada", Email: "a@b.com", Password: "secret", PhoneNumber: "0812345678",
	})

	req, ok := backend.find("POST", "/auth/register")
	require.True(t, ok)
	assert.Equal(t, "0812345678", req.body["phoneNumber"])
	assert.Equal(t, "0812345678", req.body["phonenumber"])
	assert.Equal(t, "Bearer new-token", req.authorization)
	assert.Equal(t, []string{"/dashboard"}, rec.paths)
	assert.Equal(t, "Registration successful", rec.toasts[0].Title)
}

func TestRegister_Failure(t *testing.T) {
	backend, client := newFakeBackend(t)
	backend.on("POST", "/auth/register", 400, `{"success":false}`)
	rec := &recorder{}
	c := newController(client, rec, nil)

	c.Register(context.Background(), models.RegisterRequest{Email: "a@b.com"})

	require.Len(t, rec.toasts, 1)
	assert.Equal(t, "Registration failed", rec.toasts[0].Title)
	assert.Equal(t, "Please check your information", rec.toasts[0].Description)
}

func TestLoginWithGoogle(t *testing.T) {
	tests := []struct {
		name      string
		isNewUser bool
		wantPath  string
	}{
		{name: "new account registers", isNewUser: true, wantPath: "/auth/register"},
		{name: "existing account logs in", isNewUser: false, wantPath: "/auth/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, client := newFakeBackend(t)
			backend.on("POST", tt.wantPath, 200, `{"success":true}`)
			backend.on("GET", "/auth/users-me", 200, meBody)
			rec := &recorder{}
			c := newController(client, rec, nil)

			c.LoginWithGoogle(context.Background(), popupFunc(func(ctx context.Context) (*identity.Credential, error) {
				return &identity.Credential{IDToken: "g-token", Email: "g@example.com", IsNewUser: tt.isNewUser}, nil
			}))

			req, ok := backend.find("POST", tt.wantPath)
			require.True(t, ok)
			assert.Equal(t, "Bearer g-token", req.authorization)
			assert.Equal(t, "g@example.com", req.body["email"])
			assert.Equal(t, "user", req.body["role"])
			assert.Len(t, backend.requests, 2)

			assert.NotNil(t, c.Store().GetState().User)
			assert.Equal(t, []string{"/dashboard"}, rec.paths)
		})
	}
}

func TestLoginWithGoogle_Dismissed(t *testing.T) {
	backend, client := newFakeBackend(t)
	rec := &recorder{}
	c := newController(client, rec, nil)

	c.LoginWithGoogle(context.Background(), popupFunc(func(ctx context.Context) (*identity.Credential, error) {
		return nil, identity.ErrPopupDismissed
	}))

	assert.Empty(t, backend.requests)
	state := c.Store().GetState()
	assert.Nil(t, state.User)
	assert.False(t, state.Loading)
	require.Len(t, rec.toasts, 1)
	assert.Equal(t, "Google sign-in was cancelled", rec.toasts[0].Description)
}

func TestLoginWithGoogle_BackendFailure(t *testing.T) {
	backend, client := newFakeBackend(t)
	backend.on("POST", "/auth/login", 403, `{"success":false}`)
	rec := &recorder{}
	c := newController(client, rec, nil)

	c.LoginWithGoogle(context.Background(), popupFunc(func(ctx context.Context) (*identity.Credential, error) {
		return &identity.Credential{IDToken: "g-token", Email: "g@example.com"}, nil
	}))

	require.Len(t, rec.toasts, 1)
	assert.Equal(t, "Authentication failed", rec.toasts[0].Description)
}

func TestUpdateProfile(t *testing.T) {
	t.Run("success merges returned fields", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("PUT", "/users/me", 200, `{"success":true,"data":{"name":"X"}}`)
		c := newController(client, &recorder{}, nil)
		c.Store().Dispatch(Action{Type: ActionSetUser, User: &models.User{ID: "u1", Name: "Ada", Email: "a@b.com", Role: models.RoleUser}})

		name := "X"
		user, err := c.UpdateProfile(context.Background(), models.ProfileUpdate{Name: &name})

		require.NoError(t, err)
		assert.Equal(t, "X", user.Name)
		assert.Equal(t, &models.User{ID: "u1", Name: "X", Email: "a@b.com", Role: models.RoleUser}, c.Store().GetState().User)

		req, _ := backend.find("PUT", "/users/me")
		assert.Equal(t, map[string]any{"name": "X"}, req.body)
	})

	t.Run("non 2xx returns error and keeps state", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("PUT", "/users/me", 500, `{"success":false}`)
		c := newController(client, &recorder{}, nil)
		original := &models.User{ID: "u1", Name: "Ada"}
		c.Store().Dispatch(Action{Type: ActionSetUser, User: original})

		name := "X"
		_, err := c.UpdateProfile(context.Background(), models.ProfileUpdate{Name: &name})

		assert.True(t, errors.Is(err, ErrProfileUpdateFailed))
		assert.Equal(t, original, c.Store().GetState().User)
	})
}

func TestLogout(t *testing.T) {
	t.Run("success clears and navigates home", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("POST", "/auth/logout", 200, `{"success":true}`)
		rec := &recorder{}
		c := newController(client, rec, nil)
		c.Store().Dispatch(Action{Type: ActionSetUser, User: &models.User{ID: "u1"}})

		c.Logout(context.Background())

		assert.Nil(t, c.Store().GetState().User)
		assert.Equal(t, []string{"/"}, rec.paths)
		require.Len(t, rec.toasts, 1)
		assert.Equal(t, "Logged out", rec.toasts[0].Title)
	})

	t.Run("non-JSON 2xx body counts as success", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("POST", "/auth/logout", 200, "OK")
		rec := &recorder{}
		c := newController(client, rec, nil)
		c.Store().Dispatch(Action{Type: ActionSetUser, User: &models.User{ID: "u1"}})

		c.Logout(context.Background())

		assert.Nil(t, c.Store().GetState().User)
		assert.Equal(t, []string{"/"}, rec.paths)
		require.Len(t, rec.toasts, 1)
		assert.Equal(t, "Logged out", rec.toasts[0].Title)
	})

	t.Run("non-JSON error body is still a failure", func(t *testing.T) {
		backend, client := newFakeBackend(t)
		backend.on("POST", "/auth/logout", 502, "<html>Bad Gateway</html>")
		rec := &recorder{}
		c := newController(client, rec, nil)

		c.Logout(context.Background())

		require.Len(t, rec.toasts, 1)
		assert.Equal(t, "Logout failed", rec.toasts[0].Title)
	})

	t.Run("backend failure still clears and navigates", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		client := api.New(server.URL, time.Second)
		server.Close()
		rec := &recorder{}
		c := newController(client, rec, nil)
		c.Store().Dispatch(Action{Type: ActionSetUser, User: &models.User{ID: "u1"}})

		c.Logout(context.Background())

		assert.Nil(t, c.Store().GetState().User)
		assert.Equal(t, []string{"/"}, rec.paths)
		require.Len(t, rec.toasts, 1)
		assert.Equal(t, "Logout failed", rec.toasts[0].Title)
		assert.Equal(t, VariantDestructive, rec.toasts[0].Variant)
	})
}
