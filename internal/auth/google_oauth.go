package auth

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/mosaicedu/gradelens/internal/config"
)

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

var googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

func googleOAuthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     googleEndpoint,
	}
}

// /auth/google/login → redirect to Google OAuth
func GoogleLoginHandler(cfg config.Config) http.HandlerFunc {
	oc := googleOAuthConfig(cfg)
	return func(w http.ResponseWriter, r *http.Request) {
		next := r.URL.Query().Get("redirect")
		if next == "" {
			next = strings.TrimRight(cfg.PublicURL, "/") + "/"
		}
		// Only same-origin (or localhost dev) redirect targets.
		if u, err := url.Parse(next); err == nil {
			if base, err2 := url.Parse(cfg.PublicURL); err2 == nil && base.Host != "" {
				if !(u.Host == "" || (u.Scheme == base.Scheme && u.Host == base.Host) || strings.HasPrefix(u.Host, "localhost")) {
					http.Error(w, "bad redirect", http.StatusBadRequest)
					return
				}
			}
		}

		state := fmt.Sprintf("s-%d", time.Now().UnixNano())
		http.SetCookie(w, &http.Cookie{
			Name:     "gl_oauth_state",
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(10 * time.Minute),
		})
		http.SetCookie(w, &http.Cookie{
			Name:    "gl_post_auth_redirect",
			Value:   url.QueryEscape(next),
			Path:    "/",
			Secure:  true,
			Expires: time.Now().Add(10 * time.Minute),
		})

		var opts []oauth2.AuthCodeOption
		if cfg.GoogleAllowedHD != "" {
			opts = append(opts, oauth2.SetAuthURLParam("hd", cfg.GoogleAllowedHD))
		}
		http.Redirect(w, r, oc.AuthCodeURL(state, opts...), http.StatusFound)
	}
}

// /auth/google/callback → exchange code, fetch profile, upsert user,
// mint internal JWT, redirect back to the dashboard.
func GoogleCallbackHandler(a *AuthService, db *sql.DB, cfg config.Config) http.HandlerFunc {
	oc := googleOAuthConfig(cfg)
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		if state == "" {
			http.Error(w, "missing state", http.StatusBadRequest)
			return
		}
		if c, err := r.Cookie("gl_oauth_state"); err != nil || c.Value != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		tok, err := oc.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, "token exchange: "+err.Error(), http.StatusBadGateway)
			return
		}

		res, err := oc.Client(r.Context(), tok).Get(googleUserinfoURL)
		if err != nil {
			http.Error(w, "userinfo: "+err.Error(), http.StatusBadGateway)
			return
		}
		defer res.Body.Close()
		var info struct {
			Sub   string `json:"sub"`
			Email string `json:"email"`
			Name  string `json:"name"`
			Hd    string `json:"hd"`
		}
		if err := json.NewDecoder(res.Body).Decode(&info); err != nil || info.Sub == "" {
			http.Error(w, "bad userinfo", http.StatusBadGateway)
			return
		}
		if cfg.GoogleAllowedHD != "" && info.Hd != cfg.GoogleAllowedHD {
			http.Error(w, "domain not allowed", http.StatusForbidden)
			return
		}

		id, role, err := upsertGoogleUser(r, db, info.Sub, info.Email, info.Name)
		if err != nil {
			http.Error(w, "user upsert: "+err.Error(), http.StatusInternalServerError)
			return
		}

		jwtStr, err := a.IssueJWT(id, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		next := "/"
		if c, err := r.Cookie("gl_post_auth_redirect"); err == nil {
			if v, err := url.QueryUnescape(c.Value); err == nil && v != "" {
				next = v
			}
		}

		http.SetCookie(w, &http.Cookie{Name: "gl_oauth_state", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
		http.SetCookie(w, &http.Cookie{Name: "gl_post_auth_redirect", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})

		// The SPA reads the token off the redirect URL and sends it back
		// as Authorization: Bearer on every API call.
		u, err := url.Parse(next)
		if err != nil {
			u = &url.URL{Path: "/"}
		}
		q := u.Query()
		q.Set("access_token", jwtStr)
		u.RawQuery = q.Encode()
		http.Redirect(w, r, u.String(), http.StatusFound)
	}
}

func upsertGoogleUser(r *http.Request, db *sql.DB, sub, email, name string) (id, role string, err error) {
	username := "google:" + sub
	err = db.QueryRowContext(r.Context(),
		`SELECT id, role FROM users WHERE username=$1`, username).Scan(&id, &role)
	if err == nil {
		return id, role, nil
	}
	if err != sql.ErrNoRows {
		return "", "", err
	}
	// First login: teachers onboard through Google, students come from sync.
	id, role = uuid.NewString(), "teacher"
	_, err = db.ExecContext(r.Context(),
		`INSERT INTO users (id, username, pass_hash, role, name, created_at)
		 VALUES ($1,$2,'',$3,$4,$5)`,
		id, username, role, nameOr(name, email), time.Now().Unix())
	if err != nil {
		return "", "", err
	}
	return id, role, nil
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
