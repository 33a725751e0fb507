// Package render turns generated content into report artifacts: the
// placeholder context, a DOCX rendered from a template, and a PDF.
package render

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/goreport/internal/imagematch"
	"github.com/hyperifyio/goreport/internal/sections"
)

// Fields are the report's identity placeholders.
type Fields struct {
	StudentName string `json:"student_name"`
	RollNo      string `json:"roll_no"`
	Topic       string `json:"topic"`
	CollegeName string `json:"college_name"`
	Department  string `json:"department"`
}

// Section names one body placeholder in report order.
type Section struct {
	Title string
	Key   string
}

// Context is the placeholder map handed to renderers.
type Context struct {
	Values   map[string]string
	Sections []Section
}

// Value returns the placeholder value or "".
func (c *Context) Value(key string) string {
	return c.Values[key]
}

// TemplateData converts the values to the map form template engines take.
func (c *Context) TemplateData() map[string]interface{} {
	out := make(map[string]interface{}, len(c.Values))
	for k, v := range c.Values {
		out[k] = v
	}
	return out
}

// PlaceholderKey is the uppercase placeholder for a section name.
func PlaceholderKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// BuildContext merges report fields, generated sections, user overrides and
// figure captions.
//
// Every generated section is stored under its uppercase key and, when that
// slot is still empty, under its canonical placeholder (RESULT for Results).
// Overrides only fill placeholders that are missing or empty. Captions are
// numbered in placement order and go before the section body for top
// placements and after it otherwise. Canonical placeholders never end up
// missing so templates always resolve.
func BuildContext(f Fields, content *sections.GeneratedContent, overrides map[string]string, placements []imagematch.Placement) *Context {
	c := &Context{Values: map[string]string{
		"STUDENT_NAME": f.StudentName,
		"ROLL_NO":      f.RollNo,
		"TOPIC":        f.Topic,
		"COLLEGE_NAME": f.CollegeName,
		"DEPARTMENT":   f.Department,
	}}
	aliases := map[string][]string{}

	if content != nil {
		for _, s := range content.Ordered() {
			key := PlaceholderKey(s.Name)
			c.Values[key] = s.Body
			keys := []string{key}
			if canon := sections.Classify(s.Name).Placeholder(); canon != "" && canon != key && c.Values[canon] == "" {
				c.Values[canon] = s.Body
				keys = append(keys, canon)
			}
			aliases[sections.Key(s.Name)] = keys
			c.Sections = append(c.Sections, Section{Title: s.Name, Key: keys[len(keys)-1]})
		}
	}

	for k, v := range overrides {
		if v != "" && c.Values[k] == "" {
			c.Values[k] = v
		}
	}

	for i, p := range placements {
		keys := aliases[sections.Key(p.TargetSection)]
		if len(keys) == 0 {
			canon := sections.Classify(p.TargetSection).Placeholder()
			if canon == "" {
				canon = PlaceholderKey(p.TargetSection)
			}
			keys = []string{canon}
		}
		caption := fmt.Sprintf("Figure %d: %s", i+1, p.Caption)
		for _, k := range keys {
			c.Values[k] = addCaption(c.Values[k], caption, p.Mode == imagematch.Top)
		}
	}

	for _, k := range sections.Placeholders {
		if _, ok := c.Values[k]; !ok {
			c.Values[k] = ""
		}
	}
	if len(c.Sections) == 0 {
		for _, name := range sections.Canonical {
			c.Sections = append(c.Sections, Section{Title: name, Key: sections.Classify(name).Placeholder()})
		}
	}
	return c
}

func addCaption(body, caption string, before bool) string {
	switch {
	case body == "":
		return caption
	case before:
		return caption + "\n\n" + body
	default:
		return body + "\n\n" + caption
	}
}
