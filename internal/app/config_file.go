package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/goreport/internal/llm"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map onto the dotted flag names.
type FileConfig struct {
	Style       string `yaml:"style" json:"style"`
	CollegeName string `yaml:"college" json:"college"`
	Department  string `yaml:"department" json:"department"`
	Template    string `yaml:"template" json:"template"`
	Verbose     bool   `yaml:"verbose" json:"verbose"`

	LLM struct {
		Provider    string        `yaml:"provider" json:"provider"`
		BaseURL     string        `yaml:"base" json:"base"`
		Model       string        `yaml:"model" json:"model"`
		APIKey      string        `yaml:"key" json:"key"`
		Temperature float64       `yaml:"temperature" json:"temperature"`
		Pacing      time.Duration `yaml:"pacing" json:"pacing"`
	} `yaml:"llm" json:"llm"`

	Gemini struct {
		APIKey      string  `yaml:"key" json:"key"`
		Model       string  `yaml:"model" json:"model"`
		Temperature float32 `yaml:"temperature" json:"temperature"`
		MaxTokens   int32   `yaml:"maxTokens" json:"maxTokens"`
		TopP        float32 `yaml:"topP" json:"topP"`
		TopK        int32   `yaml:"topK" json:"topK"`
	} `yaml:"gemini" json:"gemini"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Files struct {
		Uploads   string        `yaml:"uploads" json:"uploads"`
		Outputs   string        `yaml:"outputs" json:"outputs"`
		Templates string        `yaml:"templates" json:"templates"`
		Styles    string        `yaml:"styles" json:"styles"`
		MaxAge    time.Duration `yaml:"maxAge" json:"maxAge"`
	} `yaml:"files" json:"files"`

	Redis struct {
		Addr     string        `yaml:"addr" json:"addr"`
		Password string        `yaml:"password" json:"password"`
		DB       int           `yaml:"db" json:"db"`
		TTL      time.Duration `yaml:"ttl" json:"ttl"`
	} `yaml:"redis" json:"redis"`

	OCR struct {
		Provider string `yaml:"provider" json:"provider"`
	} `yaml:"ocr" json:"ocr"`

	PDF struct {
		Converter string `yaml:"converter" json:"converter"`
	} `yaml:"pdf" json:"pdf"`

	Server struct {
		Listen string `yaml:"listen" json:"listen"`
	} `yaml:"server" json:"server"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for fields that are still
// zero or at their flag default, so explicit flags keep precedence.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	gd := llm.DefaultGeminiConfig()

	if (cfg.Style == "" || cfg.Style == defaultStyle) && fc.Style != "" {
		cfg.Style = fc.Style
	}
	if (cfg.CollegeName == "" || cfg.CollegeName == defaultCollegeName) && fc.CollegeName != "" {
		cfg.CollegeName = fc.CollegeName
	}
	if (cfg.Department == "" || cfg.Department == defaultDepartment) && fc.Department != "" {
		cfg.Department = fc.Department
	}
	if cfg.TemplatePath == "" && fc.Template != "" {
		cfg.TemplatePath = fc.Template
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if (cfg.LLMProvider == "" || cfg.LLMProvider == defaultProvider) && fc.LLM.Provider != "" {
		cfg.LLMProvider = fc.LLM.Provider
	}
	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if (cfg.LLMTemperature == 0 || cfg.LLMTemperature == defaultLLMTemperature) && fc.LLM.Temperature > 0 {
		cfg.LLMTemperature = fc.LLM.Temperature
	}
	if cfg.Pacing == 0 && fc.LLM.Pacing > 0 {
		cfg.Pacing = fc.LLM.Pacing
	}

	if cfg.Gemini.APIKey == "" && fc.Gemini.APIKey != "" {
		cfg.Gemini.APIKey = fc.Gemini.APIKey
	}
	if (cfg.Gemini.Model == "" || cfg.Gemini.Model == gd.Model) && fc.Gemini.Model != "" {
		cfg.Gemini.Model = fc.Gemini.Model
	}
	if (cfg.Gemini.Temperature == 0 || cfg.Gemini.Temperature == gd.Temperature) && fc.Gemini.Temperature > 0 {
		cfg.Gemini.Temperature = fc.Gemini.Temperature
	}
	if (cfg.Gemini.MaxTokens == 0 || cfg.Gemini.MaxTokens == gd.MaxTokens) && fc.Gemini.MaxTokens > 0 {
		cfg.Gemini.MaxTokens = fc.Gemini.MaxTokens
	}
	if (cfg.Gemini.TopP == 0 || cfg.Gemini.TopP == gd.TopP) && fc.Gemini.TopP > 0 {
		cfg.Gemini.TopP = fc.Gemini.TopP
	}
	if (cfg.Gemini.TopK == 0 || cfg.Gemini.TopK == gd.TopK) && fc.Gemini.TopK > 0 {
		cfg.Gemini.TopK = fc.Gemini.TopK
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == defaultCacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if (cfg.UploadsDir == "" || cfg.UploadsDir == defaultUploadsDir) && fc.Files.Uploads != "" {
		cfg.UploadsDir = fc.Files.Uploads
	}
	if (cfg.OutputsDir == "" || cfg.OutputsDir == defaultOutputsDir) && fc.Files.Outputs != "" {
		cfg.OutputsDir = fc.Files.Outputs
	}
	if (cfg.TemplatesDir == "" || cfg.TemplatesDir == defaultTemplatesDir) && fc.Files.Templates != "" {
		cfg.TemplatesDir = fc.Files.Templates
	}
	if cfg.StylesFile == "" && fc.Files.Styles != "" {
		cfg.StylesFile = fc.Files.Styles
	}
	if (cfg.FilesMaxAge == 0 || cfg.FilesMaxAge == defaultFilesMaxAge) && fc.Files.MaxAge > 0 {
		cfg.FilesMaxAge = fc.Files.MaxAge
	}

	if cfg.RedisAddr == "" && fc.Redis.Addr != "" {
		cfg.RedisAddr = fc.Redis.Addr
	}
	if cfg.RedisPassword == "" && fc.Redis.Password != "" {
		cfg.RedisPassword = fc.Redis.Password
	}
	if cfg.RedisDB == 0 && fc.Redis.DB > 0 {
		cfg.RedisDB = fc.Redis.DB
	}
	if cfg.ProfileTTL == 0 && fc.Redis.TTL > 0 {
		cfg.ProfileTTL = fc.Redis.TTL
	}

	if (cfg.OCRProvider == "" || cfg.OCRProvider == defaultOCRProvider) && fc.OCR.Provider != "" {
		cfg.OCRProvider = fc.OCR.Provider
	}
	if (cfg.PDFConverter == "" || cfg.PDFConverter == defaultPDFConverter) && fc.PDF.Converter != "" {
		cfg.PDFConverter = fc.PDF.Converter
	}
	if (cfg.ListenAddr == "" || cfg.ListenAddr == defaultListenAddr) && fc.Server.Listen != "" {
		cfg.ListenAddr = fc.Server.Listen
	}
}

// ValidateConfig performs minimal schema validation. The topic is checked per
// request, not here, so serve mode validates without one.
func ValidateConfig(cfg Config) error {
	if cfg.CacheMaxAge < 0 || cfg.FilesMaxAge < 0 || cfg.ProfileTTL < 0 || cfg.Pacing < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if cfg.RedisDB < 0 || cfg.Gemini.MaxTokens < 0 || cfg.Gemini.TopK < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 2 {
		return fmt.Errorf("config: llm.temperature %v out of range [0,2]", cfg.LLMTemperature)
	}
	if cfg.Gemini.TopP < 0 || cfg.Gemini.TopP > 1 {
		return fmt.Errorf("config: gemini.topP %v out of range [0,1]", cfg.Gemini.TopP)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", llm.ProviderNone, llm.ProviderGemini, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("config: unknown llm.provider %q", cfg.LLMProvider)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.OCRProvider)) {
	case "", ocrNone, ocrVision:
	default:
		return fmt.Errorf("config: unknown ocr.provider %q", cfg.OCRProvider)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.PDFConverter)) {
	case "", "none", "builtin", "gofpdf", "soffice", "libreoffice":
	default:
		return fmt.Errorf("config: unknown pdf.converter %q", cfg.PDFConverter)
	}
	if cfg.Serve && strings.TrimSpace(cfg.ListenAddr) == "" {
		return errors.New("config: server.listen is required in serve mode")
	}
	return nil
}
