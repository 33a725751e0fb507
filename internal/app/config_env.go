package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. It runs after the config file overlay so env beats file; explicitly set
// flags are re-applied by the caller afterwards.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, envKey string) {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			*dst = v
		}
	}
	setString(&cfg.LLMProvider, "LLM_PROVIDER")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL_NAME")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.UploadsDir, "UPLOADS_DIR")
	setString(&cfg.OutputsDir, "OUTPUTS_DIR")
	setString(&cfg.TemplatesDir, "TEMPLATES_DIR")
	setString(&cfg.StylesFile, "STYLES_FILE")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.OCRProvider, "OCR_PROVIDER")
	setString(&cfg.PDFConverter, "PDF_CONVERTER")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")

	// Malformed numbers are ignored and leave the previous value.
	if s := os.Getenv("LLM_TEMPERATURE"); s != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			cfg.LLMTemperature = f
		}
	}
	if s := os.Getenv("GEMINI_TEMPERATURE"); s != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 32); err == nil {
			cfg.Gemini.Temperature = float32(f)
		}
	}
	if s := os.Getenv("GEMINI_TOP_P"); s != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 32); err == nil {
			cfg.Gemini.TopP = float32(f)
		}
	}
	if s := os.Getenv("GEMINI_MAX_TOKENS"); s != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32); err == nil {
			cfg.Gemini.MaxTokens = int32(n)
		}
	}
	if s := os.Getenv("GEMINI_TOP_K"); s != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32); err == nil {
			cfg.Gemini.TopK = int32(n)
		}
	}
	if s := os.Getenv("REDIS_DB"); s != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			cfg.RedisDB = n
		}
	}

	setDuration := func(dst *time.Duration, envKey string) {
		if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
			if d, err := parseAge(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setDuration(&cfg.FilesMaxAge, "FILES_MAX_AGE")

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// parseAge parses a Go duration and additionally accepts whole days as "7d".
func parseAge(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		if n, err := strconv.Atoi(strings.TrimSuffix(s, "d")); err == nil {
			return time.Duration(n) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
