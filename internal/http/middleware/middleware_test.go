package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/authz"
	"github.com/sebastian05-bossu/1337loader/internal/identity"
	"github.com/sebastian05-bossu/1337loader/internal/navigation"
)

type fakeSessions map[string]string

func (f fakeSessions) ParseSession(token string) (identity.Session, error) {
	userID, ok := f[token]
	if !ok {
		return identity.Session{}, identity.ErrInvalidSession
	}
	return identity.Session{Token: token, UserID: userID, Email: userID + "@example.com"}, nil
}

type fakeResolver struct {
	states map[string]authz.State
	err    error
}

func (f fakeResolver) Resolve(_ context.Context, userID string) (authz.State, error) {
	if f.err != nil {
		return authz.Restrictive(), f.err
	}
	return f.states[userID], nil
}

func newRouter(resolver StateResolver, level navigation.Level) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	sessions := fakeSessions{"tok-user": "user", "tok-owner": "owner", "tok-banned": "banned"}
	r.GET("/protected", RequireSession(sessions), RequireAccess(resolver, level), func(c *gin.Context) {
		state, resolved := State(c)
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "owner": state.IsOwner, "resolved": resolved})
	})
	return r
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireSession(t *testing.T) {
	r := newRouter(fakeResolver{}, navigation.LevelAuthenticated)

	if w := doRequest(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := doRequest(r, "forged"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", w.Code)
	}
	if w := doRequest(r, "tok-user"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireAccessOwner(t *testing.T) {
	resolver := fakeResolver{states: map[string]authz.State{
		"owner":  {IsAdmin: true, IsOwner: true},
		"banned": {IsAdmin: true, IsOwner: true, IsBanned: true},
	}}
	r := newRouter(resolver, navigation.LevelOwner)

	if w := doRequest(r, "tok-owner"); w.Code != http.StatusOK {
		t.Fatalf("expected owner allowed, got %d", w.Code)
	}
	if w := doRequest(r, "tok-user"); w.Code != http.StatusForbidden {
		t.Fatalf("expected plain user forbidden, got %d", w.Code)
	}
	w := doRequest(r, "tok-banned")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected banned owner forbidden, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"error":"account banned","redirect":"/banned"}` {
		t.Fatalf("unexpected banned body %s", body)
	}
}

func TestRequireAccessUnresolved(t *testing.T) {
	outage := fakeResolver{err: errors.Join(authz.ErrResolutionUnavailable, errors.New("db down"))}

	r := newRouter(outage, navigation.LevelAuthenticated)
	w := doRequest(r, "tok-user")
	if w.Code != http.StatusOK {
		t.Fatalf("expected ordinary access during outage, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"owner":false,"resolved":false,"user_id":"user"}` {
		t.Fatalf("unexpected body %s", body)
	}

	r = newRouter(outage, navigation.LevelOwner)
	if w = doRequest(r, "tok-owner"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected elevated access denied during outage, got %d", w.Code)
	}
}
