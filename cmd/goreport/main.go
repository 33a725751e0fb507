package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goreport/internal/api"
	"github.com/hyperifyio/goreport/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := parseConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if errors.Is(err, errVersion) {
		fmt.Printf("goreport %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		os.Exit(0)
	}
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.Serve {
		err = serve(cfg)
	} else {
		err = run(cfg)
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		// Caller mistakes exit 2, everything else 1.
		if errors.Is(err, app.ErrInvalidRequest) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errVersion = errors.New("version requested")

// parseConfig resolves configuration with precedence flags > env > config
// file > defaults. Flags are parsed a second time after the overlays so that
// explicitly given flags win.
func parseConfig(args []string) (app.Config, error) {
	cfg := app.DefaultConfig()
	fs := flag.NewFlagSet("goreport", flag.ContinueOnError)

	var (
		configPath  string
		envFiles    string
		sectionsCSV string
		showVersion bool
	)
	fs.StringVar(&configPath, "config", os.Getenv("GOREPORT_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files; missing files are ignored")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	fs.StringVar(&cfg.Topic, "topic", "", "Report topic")
	fs.StringVar(&sectionsCSV, "sections", "", "Comma-separated section names (default: derived from topic or sample)")
	fs.StringVar(&cfg.Style, "style", cfg.Style, "Content style template (academic, technical)")
	fs.StringVar(&cfg.StudentName, "student", "", "Student name")
	fs.StringVar(&cfg.RollNo, "roll", "", "Roll number")
	fs.StringVar(&cfg.CollegeName, "college", cfg.CollegeName, "College name")
	fs.StringVar(&cfg.Department, "department", cfg.Department, "Department")
	fs.StringVar(&cfg.SamplePath, "sample", "", "Sample DOCX or HTML document to analyze")
	fs.StringVar(&cfg.ImagesPath, "images", "", "JSON file listing images with captions; image files are resolved next to it")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Path for the JSON result ('-' for stdout)")
	fs.StringVar(&cfg.ReportPath, "report", "", "Render a DOCX report to this path")
	fs.StringVar(&cfg.TemplatePath, "template", "", "DOCX template with {{PLACEHOLDER}} fields (default: built-in)")
	fs.BoolVar(&cfg.PDF, "pdf", false, "Also convert the report to PDF")

	fs.StringVar(&cfg.LLMProvider, "llm.provider", cfg.LLMProvider, "AI provider: gemini, openai or none")
	fs.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	fs.StringVar(&cfg.LLMModel, "llm.model", "", "OpenAI-compatible model name")
	fs.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for OpenAI-compatible server")
	fs.Float64Var(&cfg.LLMTemperature, "llm.temperature", cfg.LLMTemperature, "Sampling temperature for the OpenAI-compatible provider")
	fs.DurationVar(&cfg.Pacing, "llm.pacing", 0, "Delay between AI section calls (default 100ms; negative disables)")
	fs.StringVar(&cfg.Gemini.APIKey, "gemini.key", "", "Gemini API key")
	fs.StringVar(&cfg.Gemini.Model, "gemini.model", cfg.Gemini.Model, "Gemini model name")

	fs.StringVar(&cfg.CacheDir, "cache.dir", cfg.CacheDir, "Cache directory path")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge; 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")

	fs.StringVar(&cfg.UploadsDir, "files.uploads", cfg.UploadsDir, "Directory for uploaded samples and images")
	fs.StringVar(&cfg.OutputsDir, "files.outputs", cfg.OutputsDir, "Directory for generated reports")
	fs.StringVar(&cfg.TemplatesDir, "files.templates", cfg.TemplatesDir, "Directory holding the default template")
	fs.StringVar(&cfg.StylesFile, "files.styles", "", "YAML file replacing the built-in style templates")
	fs.DurationVar(&cfg.FilesMaxAge, "files.maxAge", cfg.FilesMaxAge, "Age after which uploads and outputs are purged in serve mode")

	fs.StringVar(&cfg.RedisAddr, "redis.addr", "", "Redis address for the profile store (default: in-memory)")
	fs.StringVar(&cfg.RedisPassword, "redis.password", "", "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis.db", 0, "Redis database number")
	fs.DurationVar(&cfg.ProfileTTL, "redis.ttl", 0, "Profile expiry in Redis; 0 keeps profiles")

	fs.StringVar(&cfg.OCRProvider, "ocr.provider", cfg.OCRProvider, "OCR provider: vision or none")
	fs.StringVar(&cfg.PDFConverter, "pdf.converter", cfg.PDFConverter, "PDF converter: soffice, builtin or none")

	fs.BoolVar(&cfg.Serve, "serve", false, "Run the HTTP API instead of a single CLI request")
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address in serve mode")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if showVersion {
		return cfg, errVersion
	}

	if err := app.LoadEnvFiles(strings.Split(envFiles, ",")...); err != nil {
		log.Warn().Err(err).Msg("dotenv load failed")
	}
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Sections = splitList(sectionsCSV)
	return cfg, app.ValidateConfig(cfg)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}

func serve(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	api.NewCleaner(a, cfg.FilesMaxAge, time.Hour).Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.NewServer(a).Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("version", app.BuildVersion).Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
