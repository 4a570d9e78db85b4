package config

import (
	"os"
	"strings"
)

type Config struct {
	PostgresURI    string
	RedisURI       string
	Port           string
	AdminToken     string   // Shared admin bearer token; compared constant-time
	ResendAPIKey   string   // Empty disables email dispatch (claims will fail)
	EmailFrom      string   // From header for verification emails
	SiteURL        string   // Public site URL used in emails and the install script
	AllowedOrigins []string // CORS: browser origins allowed through the edge
	Environment    string   // ENV: production, development, etc.
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	siteURL := strings.TrimRight(getEnv("SITE_URL", "https://clawding.app"), "/")

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{siteURL}
		if host := strings.TrimPrefix(siteURL, "https://"); !strings.HasPrefix(host, "www.") {
			allowedOrigins = append(allowedOrigins, "https://www."+host)
		}
	}
	if env != "production" && !containsOrigin(allowedOrigins, "http://localhost:3000") {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000")
	}

	return &Config{
		PostgresURI:    getEnv("POSTGRES_URI", "postgres://localhost:5432/clawding?sslmode=disable"),
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		Port:           getEnv("PORT", "8080"),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),
		ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "Clawding <noreply@clawding.app>"),
		SiteURL:        siteURL,
		AllowedOrigins: allowedOrigins,
		Environment:    env,
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
