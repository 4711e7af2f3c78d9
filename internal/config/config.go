package config

import (
	"os"
	"strings"
	"time"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	BlobBasePath string

	AuthHMACSecret string

	// Classroom service (OAuth2 client credentials)
	ClassroomBaseURL      string
	ClassroomTokenURL     string
	ClassroomClientID     string
	ClassroomClientSecret string
	ClassroomTimeout      time.Duration

	// Hosted LLM for rubric grading
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	EnableGoogleAuth   bool
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string // e.g., PUBLIC_URL + "/auth/google/callback"
	GoogleAllowedHD    string // optional: restrict to one workspace domain

	CORSOrigins []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeDev
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	pub := os.Getenv("PUBLIC_URL")
	return Config{
		Mode:         mode,
		HTTPAddr:     addr,
		PublicURL:    pub,
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", ""),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),

		ClassroomBaseURL:      envOr("CLASSROOM_BASE_URL", "https://classroom.example.com/api"),
		ClassroomTokenURL:     envOr("CLASSROOM_TOKEN_URL", "https://classroom.example.com/oauth/token"),
		ClassroomClientID:     os.Getenv("CLASSROOM_CLIENT_ID"),
		ClassroomClientSecret: os.Getenv("CLASSROOM_CLIENT_SECRET"),
		ClassroomTimeout:      envDuration("CLASSROOM_TIMEOUT", 30*time.Second),

		LLMBaseURL: envOr("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   envOr("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout: envDuration("LLM_TIMEOUT", 60*time.Second),

		EnableGoogleAuth:   envBool("ENABLE_GOOGLE_AUTH", false),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  envOr("GOOGLE_REDIRECT_URI", strings.TrimSuffix(pub, "/")+"/auth/google/callback"),
		GoogleAllowedHD:    os.Getenv("GOOGLE_ALLOWED_HD"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
