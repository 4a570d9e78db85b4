package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// systemSlugs cover platform routes, API paths, and pages we might build.
var systemSlugs = []string{
	"api", "admin", "settings", "i", "skill", "login", "logout", "signup",
	"register", "auth", "oauth", "callback", "webhook", "webhooks", "feed",
	"feeds", "global", "check", "claim", "post", "delete", "update", "updates",
	"user", "users", "profile", "profiles", "health", "notify", "activity",
	"skills", "manifest", "discover", "active", "stats", "recover", "vote",
	"static", "assets", "public", "src", "app", "lib", "components",
	"about", "about-us", "contact", "contact-us", "help", "help-center",
	"terms", "terms-of-service", "privacy", "privacy-policy",
	"legal", "tos", "dmca", "security", "cookies", "cookie-policy",
	"pricing", "plans", "pro", "premium", "upgrade", "billing",
	"guide", "guides", "docs", "documentation", "faq", "faqs",
	"blog", "news", "changelog", "change-log", "roadmap", "road-map",
	"status", "uptime", "incidents",
	"event", "events", "hackathon", "hackathons", "hack",
	"tournament", "tournaments", "challenge", "challenges",
	"competition", "competitions", "contest", "contests", "jam", "jams",
	"search", "explore", "browse",
	"notification", "notifications", "inbox", "message", "messages",
	"leaderboard", "leaderboards", "ranking", "rankings", "streak", "streaks",
	"team", "teams", "org", "orgs", "organization", "organizations",
	"project", "projects", "shared", "shared-projects",
	"badge", "badges", "achievement", "achievements", "reward", "rewards",
	"sponsor", "sponsors", "partner", "partners", "advertise",
	"download", "install", "setup", "set-up", "onboarding", "welcome", "get-started",
	"home", "index", "root", "null", "undefined", "error", "not-found",
	"featured", "spotlight", "picks", "curated", "trending", "popular", "top",
	"winner", "winners", "hall-of-fame",
	"credits", "credit", "points", "point", "score", "scores",
	"tokens", "token", "coins", "coin", "xp", "level", "levels", "tier", "tiers",
	"store", "shop", "marketplace", "redeem",
	"log", "logs", "journal", "journals", "history",
	"sitemap", "robots", "favicon", "rss", "atom",
}

// ownerSlugs are brand names and squatter-bait handles held back from users.
var ownerSlugs = []string{
	"cast", "slash", "slashcast", "slashcash", "slashfeed",
	"brandonbuilds", "brandoncodes", "latenightapps", "latenight", "late-night",
	"claude", "claudeai", "claude-ai", "claudecode", "claude-code", "anthropic",
	"sonnet", "opus", "haiku",
	"openai", "gpt", "chatgpt", "copilot", "github-copilot",
	"cursor", "windsurf", "codeium", "gemini", "devin", "mistral", "perplexity", "llama", "meta-ai",
	"official", "staff", "mod", "moderator", "support",
	"hello", "info", "system", "bot",
	"test", "demo", "example", "first", "dev", "hacker", "coder", "builder",
	"bitcoin", "btc", "ethereum", "eth", "doge", "dogecoin", "crypto",
	"gme", "gamestop", "treasury", "stonks", "hodl",
	"usa", "america", "new-york", "newyork", "nyc", "longisland", "long-island",
	"today",
}

var reservedSlugs = func() map[string]struct{} {
	m := make(map[string]struct{}, len(systemSlugs)+len(ownerSlugs))
	for _, s := range systemSlugs {
		m[s] = struct{}{}
	}
	for _, s := range ownerSlugs {
		m[s] = struct{}{}
	}
	return m
}()

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var (
	ErrSlugRequired = errors.New("slug is required")
	ErrSlugLength   = errors.New("slug must be 3-20 characters")
	ErrSlugCharset  = errors.New("slug can only contain lowercase letters, numbers, and hyphens")
	ErrSlugHyphen   = errors.New("slug cannot start or end with a hyphen")
	ErrSlugReserved = errors.New("this username is reserved")
)

// ValidateSlug checks a requested handle against the registration rules.
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrSlugRequired
	}
	if len(slug) < 3 || len(slug) > 20 {
		return ErrSlugLength
	}
	if !slugPattern.MatchString(slug) {
		return ErrSlugCharset
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return ErrSlugHyphen
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return ErrSlugReserved
	}
	return nil
}

var suggestionSuffixes = []string{"dev", "codes", "builds", "ships", "99", "io", "hq"}

// GenerateSuggestions returns up to 3 alternative handles for a taken slug.
func GenerateSuggestions(slug string) []string {
	out := make([]string, 0, 3)
	for _, suffix := range suggestionSuffixes {
		s := slug + suffix
		if len(s) > 20 {
			continue
		}
		out = append(out, s)
		if len(out) == 3 {
			break
		}
	}
	return out
}

var controlChars = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")

// SanitizeContent strips control characters and truncates to at most max
// characters, never splitting a multi-byte sequence.
func SanitizeContent(content string, max int) string {
	cleaned := strings.TrimSpace(controlChars.ReplaceAllString(content, ""))
	if utf8.RuneCountInString(cleaned) > max {
		runes := []rune(cleaned)
		cleaned = string(runes[:max])
	}
	return cleaned
}
