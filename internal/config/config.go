package config

import (
	"os"
	"strconv"
)

type Config struct {
	ListenAddr   string
	PublicDir    string
	HomePage     string
	ThemeDefault string
	RevisionMax  int
	SearchLimit  int
}

func Load() Config {
	loadEnvFile()

	return Config{
		ListenAddr:   envOr("WIKI_LISTEN_ADDR", "127.0.0.1:8080"),
		PublicDir:    envOr("WIKI_PUBLIC_DIR", "public"),
		HomePage:     envOr("WIKI_HOME_PAGE", "Home"),
		ThemeDefault: themeOr("WIKI_THEME_DEFAULT", "dark"),
		RevisionMax:  parseIntOr("WIKI_REVISION_MAX", 50),
		SearchLimit:  parseIntOr("WIKI_SEARCH_LIMIT", 20),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func themeOr(key, fallback string) string {
	switch os.Getenv(key) {
	case "dark":
		return "dark"
	case "light":
		return "light"
	}
	return fallback
}
