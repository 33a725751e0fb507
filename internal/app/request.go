package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperifyio/goreport/internal/imagematch"
	"github.com/hyperifyio/goreport/internal/llm"
	"github.com/hyperifyio/goreport/internal/render"
)

// ErrInvalidRequest marks caller mistakes such as a missing topic.
var ErrInvalidRequest = errors.New("invalid request")

// ContentRequest asks for section text only.
type ContentRequest struct {
	Topic        string   `json:"topic"`
	Sections     []string `json:"sections,omitempty"`
	DocumentID   string   `json:"document_id,omitempty"`
	ContentStyle string   `json:"content_style,omitempty"`
	StudentName  string   `json:"student_name,omitempty"`
	CollegeName  string   `json:"college_name,omitempty"`
	Department   string   `json:"department,omitempty"`
}

// ReportRequest asks for a rendered report. The section fields are user text
// used where generation leaves a placeholder empty.
type ReportRequest struct {
	DocumentID  string   `json:"document_id,omitempty"`
	StudentName string   `json:"student_name"`
	RollNo      string   `json:"roll_no"`
	Topic       string   `json:"topic"`
	CollegeName string   `json:"college_name,omitempty"`
	Department  string   `json:"department,omitempty"`
	Sections    []string `json:"sections,omitempty"`

	Introduction string `json:"introduction,omitempty"`
	Objectives   string `json:"objectives,omitempty"`
	Methodology  string `json:"methodology,omitempty"`
	Result       string `json:"result,omitempty"`
	Conclusion   string `json:"conclusion,omitempty"`
	References   string `json:"references,omitempty"`

	Images       []imagematch.Image `json:"images_with_captions,omitempty"`
	ContentStyle string             `json:"content_style,omitempty"`
	ConvertToPDF bool               `json:"convert_to_pdf"`
}

// ReportResponse describes the outcome of one report generation. Failures are
// reported with Success=false rather than as an error.
type ReportResponse struct {
	ReportID                 string   `json:"report_id"`
	Filename                 string   `json:"filename"`
	DownloadURL              string   `json:"download_url"`
	FileSize                 int64    `json:"file_size"`
	GenerationTime           float64  `json:"generation_time"`
	FormatPreserved          bool     `json:"format_preserved"`
	ContentSectionsGenerated []string `json:"content_sections_generated"`
	ImagesProcessed          int      `json:"images_processed"`
	Success                  bool     `json:"success"`
	Message                  string   `json:"message"`
	// Err is the failure cause when Success is false.
	Err error `json:"-"`
}

// Validate checks the fields generation cannot do without.
func (r ContentRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	return nil
}

// Validate checks the fields generation cannot do without.
func (r ReportRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Topic) == "":
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	case strings.TrimSpace(r.StudentName) == "":
		return fmt.Errorf("%w: student_name is required", ErrInvalidRequest)
	case strings.TrimSpace(r.RollNo) == "":
		return fmt.Errorf("%w: roll_no is required", ErrInvalidRequest)
	}
	return nil
}

// Content returns the generation part of the report request.
func (r ReportRequest) Content() ContentRequest {
	return ContentRequest{
		Topic:        r.Topic,
		Sections:     r.Sections,
		DocumentID:   r.DocumentID,
		ContentStyle: r.ContentStyle,
		StudentName:  r.StudentName,
		CollegeName:  r.CollegeName,
		Department:   r.Department,
	}
}

// Fields returns the identity placeholders.
func (r ReportRequest) Fields() render.Fields {
	return render.Fields{
		StudentName: r.StudentName,
		RollNo:      r.RollNo,
		Topic:       r.Topic,
		CollegeName: r.CollegeName,
		Department:  r.Department,
	}
}

// Overrides maps the user-supplied section text onto canonical placeholders.
func (r ReportRequest) Overrides() map[string]string {
	return map[string]string{
		"INTRODUCTION": r.Introduction,
		"OBJECTIVES":   r.Objectives,
		"METHODOLOGY":  r.Methodology,
		"RESULT":       r.Result,
		"CONCLUSION":   r.Conclusion,
		"REFERENCES":   r.References,
	}
}

func (r ContentRequest) llmContext() llm.ContextFields {
	return llm.ContextFields{StudentName: r.StudentName, CollegeName: r.CollegeName, Department: r.Department}
}

// withDefaults fills institution and style from configuration.
func (r ReportRequest) withDefaults(cfg Config) ReportRequest {
	if strings.TrimSpace(r.CollegeName) == "" {
		r.CollegeName = cfg.CollegeName
	}
	if strings.TrimSpace(r.Department) == "" {
		r.Department = cfg.Department
	}
	if strings.TrimSpace(r.ContentStyle) == "" {
		r.ContentStyle = cfg.Style
	}
	return r
}
