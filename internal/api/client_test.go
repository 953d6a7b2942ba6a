package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJar struct {
	token   string
	cookies []*http.Cookie
}

func (j *fakeJar) Token() (string, bool) {
	return j.token, j.token != ""
}

func (j *fakeJar) SetCookies(cookies []*http.Cookie) {
	j.cookies = append(j.cookies, cookies...)
}

func TestClient_AttachesTokenFromJar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/spaces", r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		if cookie, err := r.Cookie(SessionCookieName); assert.NoError(t, err) {
			assert.Equal(t, "abc", cookie.Value)
		}

		w.Write([]byte(`{"success":true,"data":[{"_id":"s1"}]}`))
	}))
	defer server.Close()

	client := New(server.URL+"/api/v1", 5*time.Second).WithJar(&fakeJar{token: "abc"})
	env, err := client.Get(context.Background(), "/spaces")

	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.True(t, env.OK())
	assert.True(t, env.HasData())
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Cookies())
		w.Write([]byte(`{"success":false,"message":"nope"}`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second).WithJar(&fakeJar{})
	env, err := client.Get(context.Background(), "/auth/users-me")

	require.NoError(t, err)
	assert.False(t, env.Success)
	assert.Equal(t, "nope", env.MessageOr("fallback"))
}

func TestClient_PostSendsJSONAndRelaysCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer id-token", r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])

		http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: "session-1", HttpOnly: true})
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	jar := &fakeJar{}
	client := New(server.URL, 5*time.Second).WithJar(jar)
	env, err := client.Post(context.Background(), "/auth/login", map[string]string{"email": "a@b.com"}, WithBearer("id-token"))

	require.NoError(t, err)
	assert.True(t, env.Success)
	require.Len(t, jar.cookies, 1)
	assert.Equal(t, "session-1", jar.cookies[0].Value)
}

func TestClient_NonSuccessStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"Unauthorized"}`))
	}))
	defer server.Close()

	env, err := New(server.URL, 5*time.Second).Put(context.Background(), "/users/me", map[string]string{"name": "X"})

	require.NoError(t, err)
	assert.False(t, env.OK())
	assert.Equal(t, http.StatusUnauthorized, env.StatusCode)
}

func TestClient_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	env, err := New(server.URL, 5*time.Second).Delete(context.Background(), "/reservation/r1")

	require.NoError(t, err)
	assert.True(t, env.OK())
	assert.False(t, env.HasData())
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	_, err := New(server.URL, 5*time.Second).Get(context.Background(), "/spaces")

	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url, time.Second).Get(context.Background(), "/spaces")

	assert.ErrorContains(t, err, "failed to send request")
}

func TestEnvelope_HasData(t *testing.T) {
	tests := []struct {
		data string
		want bool
	}{
		{"", false},
		{"null", false},
		{"false", false},
		{`""`, false},
		{"0", false},
		{"{}", true},
		{`{"id":"u1"}`, true},
		{"[]", true},
	}
	for _, tt := range tests {
		env := Envelope{Data: json.RawMessage(tt.data)}
		assert.Equal(t, tt.want, env.HasData(), tt.data)
	}
}

func TestEnvelope_DecodeNoData(t *testing.T) {
	var v map[string]any
	err := (&Envelope{}).Decode(&v)
	assert.ErrorIs(t, err, ErrNoData)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_SetHTTPClient(t *testing.T) {
	var seen *http.Request
	client := New("http://backend.test/api/v1", time.Second)
	client.SetHTTPClient(&http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"success":true,"message":"hi"}`)),
			Request:    r,
		}, nil
	})})

	env, err := client.Get(context.Background(), "/spaces")

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "http://backend.test/api/v1/spaces", seen.URL.String())
	assert.True(t, env.Success)
	assert.Equal(t, "hi", env.Message)

	// Clients bound to a jar share the injected transport
	boom := errors.New("boom")
	client.SetHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})})
	_, err = client.WithJar(&fakeJar{token: "abc"}).Get(context.Background(), "/spaces")
	assert.ErrorIs(t, err, boom)
}
