package app

import (
	"time"

	"github.com/hyperifyio/goreport/internal/llm"
)

// Config holds runtime configuration for the application.
type Config struct {
	// CLI request
	Topic        string
	Sections     []string
	Style        string
	StudentName  string
	RollNo       string
	CollegeName  string
	Department   string
	SamplePath   string
	ImagesPath   string
	OutputPath   string
	ReportPath   string
	TemplatePath string
	PDF          bool

	// AI
	LLMProvider    string
	LLMBaseURL     string
	LLMModel       string
	LLMAPIKey      string
	LLMTemperature float64
	Gemini         llm.GeminiConfig
	Pacing         time.Duration

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Files
	UploadsDir   string
	OutputsDir   string
	TemplatesDir string
	StylesFile   string
	FilesMaxAge  time.Duration

	// Profile store; an empty RedisAddr keeps profiles in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ProfileTTL    time.Duration

	OCRProvider  string
	PDFConverter string

	// Server
	Serve      bool
	ListenAddr string

	Verbose bool
}

// Defaults shared by flag parsing and file config overlay.
const (
	defaultStyle        = "academic"
	defaultCollegeName  = "Sinhgad College of Engineering, Pune"
	defaultDepartment   = "Computer Engineering"
	defaultOutput       = "-"
	defaultCacheDir     = ".goreport-cache"
	defaultUploadsDir   = "uploads"
	defaultOutputsDir   = "outputs"
	defaultTemplatesDir = "templates"
	defaultListenAddr   = ":8000"
	defaultFilesMaxAge  = 7 * 24 * time.Hour
	defaultProvider     = llm.ProviderGemini
	defaultPDFConverter = "soffice"
	defaultOCRProvider  = ocrNone

	defaultLLMTemperature = 0.7
)

// OCR provider names.
const (
	ocrNone   = "none"
	ocrVision = "vision"
)

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		Style:          defaultStyle,
		CollegeName:    defaultCollegeName,
		Department:     defaultDepartment,
		OutputPath:     defaultOutput,
		LLMProvider:    defaultProvider,
		LLMTemperature: defaultLLMTemperature,
		Gemini:         llm.DefaultGeminiConfig(),
		CacheDir:       defaultCacheDir,
		UploadsDir:     defaultUploadsDir,
		OutputsDir:     defaultOutputsDir,
		TemplatesDir:   defaultTemplatesDir,
		FilesMaxAge:    defaultFilesMaxAge,
		OCRProvider:    defaultOCRProvider,
		PDFConverter:   defaultPDFConverter,
		ListenAddr:     defaultListenAddr,
	}
}
