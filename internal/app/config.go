package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string

	TMDBAPIKey          string
	TMDBReadAccessToken string
	TMDBBaseURL         string
	ITunesBaseURL       string
	SerpAPIKey          string
	SerpBaseURL         string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	RedisURL      string
	CacheTTL      time.Duration
	CacheDisabled bool
	GenreCacheTTL time.Duration
}

// LoadConfig reads configuration from the environment, first loading keys.env
// when present so local runs need no exported variables.
func LoadConfig() Config {
	_ = godotenv.Load("keys.env")

	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8090"),
		RequestTimeout: time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 30)) * time.Second,
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),

		TMDBAPIKey:          strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TMDBReadAccessToken: strings.TrimSpace(os.Getenv("TMDB_TOKEN")),
		TMDBBaseURL:         getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		ITunesBaseURL:       getEnv("ITUNES_BASE_URL", "https://itunes.apple.com/search"),
		SerpAPIKey:          strings.TrimSpace(os.Getenv("SERP_API_KEY")),
		SerpBaseURL:         getEnv("SERP_BASE_URL", "https://serpapi.com/search"),

		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("TOGETHER_API_KEY")),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.together.xyz/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free"),

		RedisURL:      getEnv("REDIS_URL", ""),
		CacheTTL:      time.Duration(getEnvInt("SEARCH_CACHE_TTL_MINUTES", 15)) * time.Minute,
		CacheDisabled: getEnvBool("SEARCH_CACHE_DISABLED", false),
		GenreCacheTTL: time.Duration(getEnvInt("TMDB_GENRE_CACHE_TTL_DAYS", 7)) * 24 * time.Hour,
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
