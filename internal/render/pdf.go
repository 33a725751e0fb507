package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"
)

// PDFConverter turns a rendered report into a PDF and returns its path.
// src is the DOCX artifact; c carries the same content as placeholders.
type PDFConverter interface {
	Convert(ctx context.Context, src string, c *Context) (string, error)
}

// ConvertOrOriginal converts src and falls back to src on any failure.
func ConvertOrOriginal(ctx context.Context, conv PDFConverter, src string, c *Context) string {
	if conv == nil {
		return src
	}
	out, err := conv.Convert(ctx, src, c)
	if err != nil {
		log.Warn().Err(err).Str("src", filepath.Base(src)).Msg("pdf conversion failed; keeping original")
		return src
	}
	return out
}

func pdfPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".pdf"
}

// BuiltinPDF lays the report out with gofpdf directly from the placeholder
// context. It needs no external tools.
type BuiltinPDF struct{}

func (BuiltinPDF) Convert(_ context.Context, src string, c *Context) (string, error) {
	out := pdfPath(src)
	if err := writePDF(c, out); err != nil {
		return "", fmt.Errorf("builtin pdf: %w", err)
	}
	return out, nil
}

func writePDF(c *Context, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(c.Value("TOPIC")), false)
	pdf.SetAuthor(tr(c.Value("STUDENT_NAME")), false)
	pdf.AddPage()

	centered := func(size float64, style, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		pdf.SetFont("Helvetica", style, size)
		pdf.MultiCell(0, size*0.5, tr(text), "", "C", false)
		pdf.Ln(2)
	}
	centered(18, "B", c.Value("COLLEGE_NAME"))
	centered(14, "", c.Value("DEPARTMENT"))
	pdf.Ln(20)
	centered(16, "B", "REPORT ON: "+c.Value("TOPIC"))
	pdf.Ln(20)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Submitted by:", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Name: "+c.Value("STUDENT_NAME")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Roll No: "+c.Value("ROLL_NO")), "", 1, "L", false, 0, "")

	pdf.AddPage()
	for _, s := range c.Sections {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, tr(s.Title), "", 1, "L", false, 0, "")
		for _, para := range strings.Split(c.Value(s.Key), "\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				pdf.Ln(3)
				continue
			}
			style := ""
			if strings.HasPrefix(para, "Figure ") {
				style = "I"
			}
			pdf.SetFont("Helvetica", style, 11)
			pdf.MultiCell(0, 5, tr(para), "", "J", false)
		}
		pdf.Ln(6)
	}
	return pdf.OutputFileAndClose(outPath)
}

// SofficeConverter shells out to LibreOffice in headless mode.
type SofficeConverter struct {
	// Binary defaults to "soffice".
	Binary string
}

func (s SofficeConverter) Convert(ctx context.Context, src string, _ *Context) (string, error) {
	bin := s.Binary
	if bin == "" {
		bin = "soffice"
	}
	outDir := filepath.Dir(src)
	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, src)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", bin, err, strings.TrimSpace(string(out)))
	}
	pdf := pdfPath(src)
	if _, err := os.Stat(pdf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s produced no pdf for %s", bin, filepath.Base(src))
		}
		return "", err
	}
	return pdf, nil
}

// NewPDFConverter maps a configured name to a converter: "builtin",
// "soffice", or "none"/"" for no conversion.
func NewPDFConverter(name string) (PDFConverter, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return nil, nil
	case "builtin", "gofpdf":
		return BuiltinPDF{}, nil
	case "soffice", "libreoffice":
		return SofficeConverter{}, nil
	}
	return nil, fmt.Errorf("unknown pdf converter %q", name)
}
