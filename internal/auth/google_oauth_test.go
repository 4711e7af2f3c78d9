package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/mosaicedu/gradelens/internal/config"
	"github.com/mosaicedu/gradelens/internal/db"
	"github.com/mosaicedu/gradelens/internal/rbac"
)

// fakeGoogle stands in for the token and userinfo endpoints so the
// callback can run against a local server.
func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"google-at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"sub123","email":"ada@example.com","name":"Ada"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	origEndpoint, origUserinfo := googleEndpoint, googleUserinfoURL
	googleEndpoint.TokenURL = srv.URL + "/token"
	googleUserinfoURL = srv.URL + "/userinfo"
	t.Cleanup(func() { googleEndpoint, googleUserinfoURL = origEndpoint, origUserinfo })
	return srv
}

func TestGoogleCallback_TokenReachesProtectedRoutes(t *testing.T) {
	fakeGoogle(t)

	dbh, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer dbh.Close()

	a := NewAuthService("test-secret")
	cfg := config.Config{
		PublicURL:          "http://localhost:3000",
		GoogleClientID:     "cid",
		GoogleClientSecret: "csec",
		GoogleRedirectURI:  "http://localhost:3000/auth/google/callback",
	}

	req := httptest.NewRequest("GET", "/auth/google/callback?state=st1&code=code1", nil)
	req.AddCookie(&http.Cookie{Name: "gl_oauth_state", Value: "st1"})
	req.AddCookie(&http.Cookie{Name: "gl_post_auth_redirect", Value: url.QueryEscape("/dashboard")})
	rec := httptest.NewRecorder()
	GoogleCallbackHandler(a, dbh, cfg)(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect location: %v", err)
	}
	if loc.Path != "/dashboard" {
		t.Fatalf("redirect path = %q, want /dashboard", loc.Path)
	}
	token := loc.Query().Get("access_token")
	if token == "" {
		t.Fatalf("redirect must carry access_token, got %q", rec.Header().Get("Location"))
	}

	// First login through Google onboards as teacher.
	var role string
	if err := dbh.QueryRow(`SELECT role FROM users WHERE username='google:sub123'`).Scan(&role); err != nil {
		t.Fatalf("user not upserted: %v", err)
	}
	if role != "teacher" {
		t.Fatalf("role = %q, want teacher", role)
	}

	// The handed-off token must open protected routes.
	var gotRole string
	protected := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = rbac.RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	apiReq := httptest.NewRequest("GET", "/courses", nil)
	apiReq.Header.Set("Authorization", "Bearer "+token)
	apiRec := httptest.NewRecorder()
	protected.ServeHTTP(apiRec, apiReq)

	if apiRec.Code != http.StatusOK {
		t.Fatalf("protected route = %d, want 200", apiRec.Code)
	}
	if gotRole != "teacher" {
		t.Fatalf("role in context = %q, want teacher", gotRole)
	}
}

func TestGoogleCallback_StateMismatchRejected(t *testing.T) {
	fakeGoogle(t)
	a := NewAuthService("test-secret")

	req := httptest.NewRequest("GET", "/auth/google/callback?state=evil&code=code1", nil)
	req.AddCookie(&http.Cookie{Name: "gl_oauth_state", Value: "st1"})
	rec := httptest.NewRecorder()
	GoogleCallbackHandler(a, nil, config.Config{})(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
