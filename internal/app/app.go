package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goreport/internal/cache"
	"github.com/hyperifyio/goreport/internal/docanalysis"
	"github.com/hyperifyio/goreport/internal/docmodel"
	"github.com/hyperifyio/goreport/internal/engine"
	"github.com/hyperifyio/goreport/internal/imagematch"
	"github.com/hyperifyio/goreport/internal/llm"
	"github.com/hyperifyio/goreport/internal/render"
	"github.com/hyperifyio/goreport/internal/sections"
	"github.com/hyperifyio/goreport/internal/store"
	"github.com/hyperifyio/goreport/internal/style"
	"github.com/hyperifyio/goreport/internal/synth"
	"github.com/hyperifyio/goreport/internal/topic"
)

// imagesSubdir holds uploaded figures under the uploads directory.
const imagesSubdir = "images"

// maxImageBytes is the size above which uploaded figures are downsampled.
const maxImageBytes = 5 << 20

// maxCacheEntries bounds the on-disk section cache at startup.
const maxCacheEntries = 5000

// maxMemoryProfiles bounds the in-memory profile store.
const maxMemoryProfiles = 1000

// App owns the shared pipeline components. They are built once and are safe
// for concurrent use by request handlers.
type App struct {
	cfg     Config
	styles  *style.Registry
	engine  *engine.Engine
	ocr     imagematch.TextExtractor
	store   store.Store
	pdf     render.PDFConverter
	closers []io.Closer
}

func New(ctx context.Context, cfg Config) (*App, error) {
	for _, dir := range []string{cfg.UploadsDir, imageDir(cfg), cfg.OutputsDir, cfg.TemplatesDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	registry, err := loadStyles(cfg.StylesFile)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, styles: registry, ocr: imagematch.NoopExtractor{}}

	sy, err := synth.New(registry)
	if err != nil {
		log.Warn().Err(err).Msg("rule-based synthesizer unavailable")
		sy = nil
	}

	var sectionCache *cache.SectionCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		// Purge and eviction errors never fail startup.
		if cfg.CacheMaxAge > 0 {
			_, _ = cache.PurgeEntriesByAge(cfg.CacheDir, cfg.CacheMaxAge)
		}
		if n, err := cache.EnforceEntryLimits(cfg.CacheDir, 0, maxCacheEntries); err == nil && n > 0 {
			log.Debug().Int("evicted", n).Msg("section cache trimmed")
		}
		sectionCache = &cache.SectionCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	writer, err := llm.NewWriter(ctx, llm.Config{
		Provider:    cfg.LLMProvider,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		APIKey:      cfg.LLMAPIKey,
		Temperature: float32(cfg.LLMTemperature),
		Gemini:      cfg.Gemini,
		Cache:       sectionCache,
		Verbose:     cfg.Verbose,
	})
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Info().Str("provider", cfg.LLMProvider).Msg("AI provider not configured")
		writer = nil
	case err != nil:
		log.Warn().Err(err).Msg("AI writer construction failed; using rule-based generation")
		writer = nil
	}
	if c, ok := writer.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	a.engine = engine.New(ctx, engine.Options{Writer: writer, Synth: sy, Pacing: cfg.Pacing})

	if strings.EqualFold(strings.TrimSpace(cfg.OCRProvider), ocrVision) {
		v, err := imagematch.NewVisionExtractor(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("OCR unavailable; continuing without image text")
		} else {
			a.ocr = v
			a.closers = append(a.closers, v)
		}
	}

	if cfg.RedisAddr != "" {
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.ProfileTTL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("profile store: %w", err)
		}
		a.store = rs
	} else {
		a.store = store.NewMemoryStore(maxMemoryProfiles)
	}
	a.closers = append(a.closers, a.store)

	a.pdf, err = render.NewPDFConverter(cfg.PDFConverter)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func loadStyles(path string) (*style.Registry, error) {
	if strings.TrimSpace(path) == "" {
		return style.Default()
	}
	r, err := style.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load styles: %w", err)
	}
	return r, nil
}

func imageDir(cfg Config) string {
	if cfg.UploadsDir == "" {
		return ""
	}
	return filepath.Join(cfg.UploadsDir, imagesSubdir)
}

// Close releases provider clients and the profile store.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}

// StatusReport describes the configured engines and adapters.
type StatusReport struct {
	engine.Status
	Styles       []string `json:"styles"`
	ProfileStore string   `json:"profile_store"`
	OCRProvider  string   `json:"ocr_provider"`
	PDFConverter string   `json:"pdf_converter"`
	Version      string   `json:"version"`
}

// Status reports which generation path requests will take.
func (a *App) Status() StatusReport {
	s := StatusReport{
		Status:       a.engine.Status(),
		Styles:       a.styles.Names(),
		ProfileStore: "memory",
		OCRProvider:  ocrNone,
		PDFConverter: "none",
		Version:      BuildVersion,
	}
	if _, ok := a.store.(*store.RedisStore); ok {
		s.ProfileStore = "redis"
	}
	if _, ok := a.ocr.(*imagematch.VisionExtractor); ok {
		s.OCRProvider = ocrVision
	}
	switch a.pdf.(type) {
	case render.BuiltinPDF:
		s.PDFConverter = "builtin"
	case render.SofficeConverter:
		s.PDFConverter = "soffice"
	}
	return s
}

// StoreSample saves an uploaded sample document under a fresh document id.
func (a *App) StoreSample(r io.Reader, originalFilename string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(originalFilename)); ext {
	case ".docx", ".html", ".htm":
	default:
		return "", fmt.Errorf("%w: %q", docmodel.ErrUnsupportedFormat, ext)
	}
	id := store.NewID()
	if err := writeFile(filepath.Join(a.cfg.UploadsDir, uploadName(id, originalFilename)), r); err != nil {
		return "", fmt.Errorf("store sample: %w", err)
	}
	return id, nil
}

// AnalyzeSample analyzes a stored sample and keeps its profile.
func (a *App) AnalyzeSample(ctx context.Context, id string) (docanalysis.Profile, error) {
	if !store.ValidID(id) {
		return docanalysis.Profile{}, fmt.Errorf("%w: bad document id %q", ErrInvalidRequest, id)
	}
	path, err := findSample(a.cfg.UploadsDir, id)
	if err != nil {
		return docanalysis.Profile{}, fmt.Errorf("sample %s: %w", id, store.ErrNotFound)
	}
	p, err := docanalysis.AnalyzeFile(path, originalName(id, path))
	if err != nil {
		return docanalysis.Profile{}, fmt.Errorf("analyze sample: %w", err)
	}
	p.ID = id
	if err := a.store.Put(ctx, p); err != nil {
		return docanalysis.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	log.Info().Str("document_id", id).Str("compatibility", p.Compatibility).Int("sections", len(p.ContentSections)).Msg("sample analyzed")
	return p, nil
}

// UploadSample stores and analyzes a sample. Samples that fail analysis are
// removed again.
func (a *App) UploadSample(ctx context.Context, r io.Reader, originalFilename string) (docanalysis.Profile, error) {
	id, err := a.StoreSample(r, originalFilename)
	if err != nil {
		return docanalysis.Profile{}, err
	}
	p, err := a.AnalyzeSample(ctx, id)
	if err != nil {
		if path, ferr := findSample(a.cfg.UploadsDir, id); ferr == nil {
			_ = os.Remove(path)
		}
		return docanalysis.Profile{}, err
	}
	return p, nil
}

// Profile returns a stored sample profile.
func (a *App) Profile(ctx context.Context, id string) (docanalysis.Profile, error) {
	return a.store.Get(ctx, id)
}

// StoreImage saves an uploaded figure for later report requests, downsampling
// oversized files. Files that are not supported images are rejected.
func (a *App) StoreImage(r io.Reader, filename string) (imagematch.Image, error) {
	name := safeComponent(filepath.Base(filename))
	if name == "" || strings.HasPrefix(name, ".") {
		return imagematch.Image{}, fmt.Errorf("%w: bad image name %q", ErrInvalidRequest, filename)
	}
	path := filepath.Join(imageDir(a.cfg), name)
	if err := writeFile(path, r); err != nil {
		return imagematch.Image{}, fmt.Errorf("store image: %w", err)
	}
	if _, err := imagematch.ValidateImageFormat(path); err != nil {
		_ = os.Remove(path)
		if errors.Is(err, imagematch.ErrImageTooLarge) {
			return imagematch.Image{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return imagematch.Image{}, err
	}
	resized, err := imagematch.ResizeIfNeeded(path, maxImageBytes)
	if errors.Is(err, imagematch.ErrImageTooLarge) {
		_ = os.Remove(path)
		return imagematch.Image{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err != nil {
		log.Warn().Err(err).Str("image", name).Msg("resize failed; keeping original")
	} else if resized != path {
		if err := os.Rename(resized, path); err != nil {
			return imagematch.Image{}, fmt.Errorf("replace resized image: %w", err)
		}
	}
	img := imagematch.Image{Filename: name}
	if st, err := os.Stat(path); err == nil {
		img.FileSize = st.Size()
	}
	return img, nil
}

// GenerateContent produces section text. Sections come from the request, then
// from the referenced sample's headings, then from the topic's suggestions.
func (a *App) GenerateContent(ctx context.Context, req ContentRequest) (sections.GeneratedContent, error) {
	if err := req.Validate(); err != nil {
		return sections.GeneratedContent{}, err
	}
	names, err := a.sectionsFor(ctx, req)
	if err != nil {
		return sections.GeneratedContent{}, err
	}
	styleName := req.ContentStyle
	if styleName == "" {
		styleName = a.cfg.Style
	}
	return a.engine.Generate(ctx, engine.Request{
		Topic:    req.Topic,
		Sections: names,
		Style:    styleName,
		Context:  req.llmContext(),
	}), nil
}

func (a *App) sectionsFor(ctx context.Context, req ContentRequest) ([]string, error) {
	if len(req.Sections) > 0 {
		return req.Sections, nil
	}
	if req.DocumentID == "" {
		return nil, nil
	}
	p, err := a.store.Get(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", req.DocumentID, err)
	}
	if len(p.ContentSections) > 0 {
		return p.ContentSections, nil
	}
	return sections.Canonical, nil
}

// report is the internal result of one report build.
type report struct {
	content         sections.GeneratedContent
	placements      []imagematch.Placement
	path            string
	formatPreserved bool
}

// GenerateReport generates content, places images and renders the report
// into the outputs directory.
func (a *App) GenerateReport(ctx context.Context, req ReportRequest) ReportResponse {
	start := time.Now()
	resp := ReportResponse{ReportID: store.NewID(), ContentSectionsGenerated: []string{}}
	rep, err := a.buildReport(ctx, req, "", imagematch.New(a.ocr, imageDir(a.cfg)))
	resp.GenerationTime = time.Since(start).Seconds()
	if err != nil {
		log.Warn().Err(err).Str("topic", req.Topic).Msg("report generation failed")
		resp.Message = "Generation failed: " + err.Error()
		resp.Err = err
		return resp
	}
	name := filepath.Base(rep.path)
	resp.Filename = name
	resp.DownloadURL = "/api/v1/reports/" + url.PathEscape(name)
	if st, err := os.Stat(rep.path); err == nil {
		resp.FileSize = st.Size()
	}
	resp.FormatPreserved = rep.formatPreserved
	resp.ContentSectionsGenerated = append(resp.ContentSectionsGenerated, rep.content.Order...)
	resp.ImagesProcessed = len(rep.placements)
	resp.Success = true
	resp.Message = "Report generated successfully"
	log.Info().Str("report", name).Str("engine", rep.content.Engine).Float64("seconds", resp.GenerationTime).Msg("report generated")
	return resp
}

// buildReport renders to outPath, or to a derived name under the outputs dir
// when outPath is empty. The returned path is the final artifact, which is the
// PDF when conversion was requested and succeeded.
func (a *App) buildReport(ctx context.Context, req ReportRequest, outPath string, m *imagematch.Matcher) (report, error) {
	if err := req.Validate(); err != nil {
		return report{}, err
	}
	req = req.withDefaults(a.cfg)
	content, err := a.GenerateContent(ctx, req.Content())
	if err != nil {
		return report{}, err
	}
	placements := placeImages(ctx, m, req.Images, content)
	rctx := render.BuildContext(req.Fields(), &content, req.Overrides(), placements)

	tmpl, preserved, err := a.templateFor(ctx, req.DocumentID)
	if err != nil {
		return report{}, err
	}
	if outPath == "" {
		outPath = filepath.Join(a.cfg.OutputsDir, reportFilename(req.StudentName, req.RollNo, time.Now()))
	}
	if err := (render.DocxRenderer{TemplatePath: tmpl}).Render(rctx, outPath); err != nil {
		return report{}, err
	}
	final := outPath
	if req.ConvertToPDF {
		if a.pdf == nil {
			log.Warn().Str("report", outPath).Msg("PDF requested but no converter configured; keeping DOCX")
		} else {
			final = render.ConvertOrOriginal(ctx, a.pdf, outPath, rctx)
		}
	}

	st := a.engine.Status()
	meta := manifestMeta{
		Topic:        content.Topic,
		Engine:       content.Engine,
		Provider:     st.Provider,
		Model:        st.Model,
		Style:        req.ContentStyle,
		QualityScore: content.QualityScore,
		Template:     filepath.Base(tmpl),
		Version:      BuildVersion,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := writeManifest(final, meta, content, placements); err != nil {
		log.Warn().Err(err).Str("report", final).Msg("manifest write failed")
	}
	return report{content: content, placements: placements, path: final, formatPreserved: preserved}, nil
}

// templateFor picks the configured template, then a referenced DOCX sample
// that carries placeholders, then the built-in default. The flag reports
// whether a user-supplied layout was used.
func (a *App) templateFor(ctx context.Context, documentID string) (string, bool, error) {
	if a.cfg.TemplatePath != "" {
		return a.cfg.TemplatePath, true, nil
	}
	if documentID != "" {
		p, err := a.store.Get(ctx, documentID)
		if err == nil && p.TemplateValid && len(p.PlaceholderTokens) > 0 {
			if path, ferr := findSample(a.cfg.UploadsDir, documentID); ferr == nil && strings.EqualFold(filepath.Ext(path), ".docx") {
				return path, true, nil
			}
		}
	}
	p, err := render.EnsureDefaultTemplate(a.cfg.TemplatesDir)
	return p, false, err
}

func placeImages(ctx context.Context, m *imagematch.Matcher, images []imagematch.Image, content sections.GeneratedContent) []imagematch.Placement {
	if len(images) == 0 {
		return nil
	}
	ordered := content.Ordered()
	secs := make([]imagematch.SectionText, 0, len(ordered))
	for _, s := range ordered {
		secs = append(secs, imagematch.SectionText{Name: s.Name, Body: s.Body})
	}
	return m.Match(ctx, images, secs)
}

// Cleanup removes uploads and outputs older than maxAge.
func (a *App) Cleanup(maxAge time.Duration) (int, error) {
	total := 0
	var errs []error
	for _, dir := range []string{a.cfg.UploadsDir, a.cfg.OutputsDir} {
		if dir == "" {
			continue
		}
		n, err := cache.PurgeFilesByAge(dir, maxAge)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("purge %s: %w", dir, err))
		}
	}
	if total > 0 {
		log.Info().Int("removed", total).Dur("max_age", maxAge).Msg("cleaned up old files")
	}
	return total, errors.Join(errs...)
}

// runResult is the CLI's JSON output.
type runResult struct {
	TopicAnalysis topic.Profile             `json:"topic_analysis"`
	Sample        *docanalysis.Profile      `json:"sample_analysis,omitempty"`
	Content       sections.GeneratedContent `json:"content"`
	Placements    []imagematch.Placement    `json:"image_placements,omitempty"`
	Report        string                    `json:"report,omitempty"`
	Status        StatusReport              `json:"status"`
}

// Run is the CLI flow: optional sample analysis, content generation, image
// placement, and a rendered report when ReportPath is set. The JSON result
// goes to OutputPath, "-" meaning stdout.
func (a *App) Run(ctx context.Context) error {
	if strings.TrimSpace(a.cfg.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	res := runResult{TopicAnalysis: topic.Classify(a.cfg.Topic), Status: a.Status()}

	req := ReportRequest{
		StudentName:  a.cfg.StudentName,
		RollNo:       a.cfg.RollNo,
		Topic:        a.cfg.Topic,
		Sections:     a.cfg.Sections,
		ContentStyle: a.cfg.Style,
		ConvertToPDF: a.cfg.PDF,
	}.withDefaults(a.cfg)

	if a.cfg.SamplePath != "" {
		p, err := a.uploadLocalSample(ctx, a.cfg.SamplePath)
		if err != nil {
			return err
		}
		res.Sample = &p
		req.DocumentID = p.ID
	}

	m := imagematch.New(a.ocr, "")
	if a.cfg.ImagesPath != "" {
		images, err := loadImages(a.cfg.ImagesPath)
		if err != nil {
			return err
		}
		req.Images = images
		m = imagematch.New(a.ocr, filepath.Dir(a.cfg.ImagesPath))
	}

	if a.cfg.ReportPath != "" {
		rep, err := a.buildReport(ctx, req, a.cfg.ReportPath, m)
		if err != nil {
			return fmt.Errorf("build report: %w", err)
		}
		res.Content, res.Placements, res.Report = rep.content, rep.placements, rep.path
		log.Info().Str("report", rep.path).Msg("wrote report")
	} else {
		content, err := a.GenerateContent(ctx, req.Content())
		if err != nil {
			return err
		}
		res.Content = content
		res.Placements = placeImages(ctx, m, req.Images, content)
	}
	return writeJSON(a.cfg.OutputPath, res)
}

func (a *App) uploadLocalSample(ctx context.Context, path string) (docanalysis.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return docanalysis.Profile{}, fmt.Errorf("open sample: %w", err)
	}
	defer f.Close()
	return a.UploadSample(ctx, f, filepath.Base(path))
}

// loadImages reads a JSON array of image descriptors.
func loadImages(path string) ([]imagematch.Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read images: %w", err)
	}
	var images []imagematch.Image
	if err := json.Unmarshal(b, &images); err != nil {
		return nil, fmt.Errorf("parse images: %w", err)
	}
	return images, nil
}

func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	b = append(b, '\n')
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
