package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ayush/todo-webapp/internal/auth"
	"github.com/ayush/todo-webapp/internal/models"
	"github.com/ayush/todo-webapp/internal/web"
)

// stubStrategy deserializes from a fixed user set; Authenticate is never
// called by the middleware under test.
type stubStrategy struct {
	users map[string]*models.User
}

func (s stubStrategy) Authenticate(context.Context, string, string) (*models.User, error) {
	panic("not used")
}

func (s stubStrategy) Serialize(u *models.User) string { return u.ID }

func (s stubStrategy) Deserialize(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNoIdentity
	}
	return u, nil
}

type fixture struct {
	carrier  *auth.MemoryCarrier
	codec    *auth.CookieCodec
	strategy stubStrategy
	respond  *web.Responder
}

func newFixture() *fixture {
	return &fixture{
		carrier: auth.NewMemoryCarrier(),
		codec:   auth.NewCookieCodec("test-secret"),
		strategy: stubStrategy{users: map[string]*models.User{
			"user-1": {ID: "user-1", Username: "alice"},
			"adm-1":  {ID: "adm-1", Username: "root", IsAdmin: true},
		}},
		respond: web.NewResponder(web.NewTemplateRenderer()),
	}
}

// login creates a carrier session for userID and returns its cookie.
func (f *fixture) login(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	token, err := f.carrier.Create(context.Background(), auth.State{UserID: userID})
	if err != nil {
		t.Fatal("Error:", err)
	}
	return &http.Cookie{Name: auth.SessionCookie, Value: f.codec.Encode(token)}
}

// whoami reports the identity WithSession restored.
func (f *fixture) whoami() http.Handler {
	return WithSession(f.carrier, f.codec, f.strategy)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u := CurrentUser(r); u != nil {
				fmt.Fprint(w, u.Username)
				return
			}
			fmt.Fprint(w, "anonymous")
		}))
}

func serve(h http.Handler, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestWithSessionRestoresIdentity(t *testing.T) {
	t.Parallel()
	f := newFixture()

	rec := serve(f.whoami(), f.login(t, "user-1"))
	if got := rec.Body.String(); got != "alice" {
		t.Fatalf("got %q, want alice", got)
	}
}

func TestWithSessionAnonymousCases(t *testing.T) {
	t.Parallel()
	f := newFixture()
	valid := f.login(t, "user-1")

	for _, test := range []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"unsigned token", &http.Cookie{Name: auth.SessionCookie, Value: "raw-token"}},
		{"foreign signature", &http.Cookie{
			Name:  auth.SessionCookie,
			Value: auth.NewCookieCodec("other-secret").Encode("raw-token"),
		}},
		{"destroyed session", func() *http.Cookie {
			c := f.login(t, "user-1")
			token, _ := f.codec.Decode(c.Value)
			f.carrier.Destroy(context.Background(), token)
			return c
		}()},
		{"deleted user", f.login(t, "gone-user")},
	} {
		var rec *httptest.ResponseRecorder
		if test.cookie == nil {
			rec = serve(f.whoami())
		} else {
			rec = serve(f.whoami(), test.cookie)
		}
		if got := rec.Body.String(); got != "anonymous" {
			t.Fatalf("%s: got %q, want anonymous", test.name, got)
		}
	}

	// the untouched valid session still works
	if got := serve(f.whoami(), valid).Body.String(); got != "alice" {
		t.Fatalf("valid session broken: %q", got)
	}
}

func gateChain(f *fixture, gate func(http.Handler) http.Handler) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	return WithSession(f.carrier, f.codec, f.strategy)(gate(ok))
}

func TestRequireUser(t *testing.T) {
	t.Parallel()
	f := newFixture()
	h := gateChain(f, RequireUser(f.respond))

	if rec := serve(h); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: got %d, want 401", rec.Code)
	}
	rec := serve(h, f.login(t, "user-1"))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("authenticated: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture()
	h := gateChain(f, RequireAdmin(f.carrier, f.codec, f.respond))

	rec := serve(h)
	if rec.Code != http.StatusFound {
		t.Fatalf("anonymous: got %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("anonymous redirected to %q", loc)
	}

	if rec := serve(h, f.login(t, "user-1")); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: got %d, want 403", rec.Code)
	}

	rec = serve(h, f.login(t, "adm-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: got %d, want 200", rec.Code)
	}
}

// An anonymous visitor bounced off an admin route gets a session holding
// the one-shot flash notice.
func TestRequireAdminFlash(t *testing.T) {
	t.Parallel()
	f := newFixture()
	h := gateChain(f, RequireAdmin(f.carrier, f.codec, f.respond))

	rec := serve(h)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	token, ok := f.codec.Decode(cookies[0].Value)
	if !ok {
		t.Fatal("issued cookie does not verify")
	}
	st, err := f.carrier.Get(context.Background(), token)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if len(st.Flash) != 1 || !strings.Contains(st.Flash[0], "sign in") {
		t.Fatalf("flash = %v", st.Flash)
	}
	if st.UserID != "" {
		t.Fatal("flash session carries an identity")
	}
}
