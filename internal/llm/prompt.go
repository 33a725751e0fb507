package llm

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/goreport/internal/sections"
)

const systemMessage = "You are an expert academic writer. Write original, plagiarism-free report sections in formal academic English. Output only the section body as plain prose or simple lists, without a heading."

// BuildPrompt renders the user prompt for one section.
func BuildPrompt(spec SectionSpec) string {
	domain := spec.Domain
	if domain == "" {
		domain = "general"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert academic writer specializing in %s fields.\n", domain)
	sb.WriteString("Generate high-quality, original academic content for a student report.\n\n")
	fmt.Fprintf(&sb, "TOPIC: %s\nSECTION: %s\nDOMAIN: %s\n\n", spec.Topic, spec.Section, domain)
	sb.WriteString("REQUIREMENTS:\n")
	sb.WriteString("- Write in formal academic English\n")
	sb.WriteString("- Maintain proper academic tone and structure\n")
	fmt.Fprintf(&sb, "- Include relevant technical terminology for %s\n", domain)
	sb.WriteString("- Ensure content is plagiarism-free and original\n")
	sb.WriteString("- Follow standard academic writing conventions\n")
	sb.WriteString("- Keep content focused and well-organized\n\n")
	sb.WriteString(sectionGuidance(spec.Section, spec.Topic, domain))
	if spec.Context.StudentName != "" {
		fmt.Fprintf(&sb, "\nStudent Name: %s", spec.Context.StudentName)
	}
	if spec.Context.CollegeName != "" {
		fmt.Fprintf(&sb, "\nInstitution: %s", spec.Context.CollegeName)
	}
	if spec.Context.Department != "" {
		fmt.Fprintf(&sb, "\nDepartment: %s", spec.Context.Department)
	}
	words := spec.TargetWordCount
	if words <= 0 {
		words = 300
	}
	fmt.Fprintf(&sb, "\n\nTarget length: approximately %d words", words)
	sb.WriteString("\n\nGenerate the content now:")
	return sb.String()
}

func sectionGuidance(section, topic, domain string) string {
	switch sections.Classify(section) {
	case sections.Introduction:
		return fmt.Sprintf("Write an engaging introduction that:\n- Provides context for %s in %s\n- States the importance and relevance of this topic\n- Outlines what the report will cover\n- Includes a clear thesis or purpose statement\n- Uses %s-appropriate terminology\n", topic, domain, domain)
	case sections.Objectives:
		return fmt.Sprintf("List 4-6 specific, measurable objectives that:\n- Are directly related to %s\n- Use action verbs (analyze, evaluate, demonstrate)\n- Are achievable within the report scope\n- Follow SMART criteria\n- Reflect %s standards and practices\n", topic, domain)
	case sections.Methodology:
		return fmt.Sprintf("Describe the research approach:\n- Explain the research design\n- Detail methods, tools and procedures\n- Justify methodology choices for %s\n- Include technical specifications relevant to %s\n- Address limitations and considerations\n", domain, topic)
	case sections.Results:
		return fmt.Sprintf("Present findings and analysis:\n- Report key findings related to %s\n- Use %s-appropriate data presentation\n- Include relevant metrics and measurements\n- Analyze patterns and significance\n- Connect findings to methodology\n", topic, domain)
	case sections.Conclusion:
		return fmt.Sprintf("Provide a comprehensive conclusion that:\n- Summarizes key findings about %s\n- Discusses implications for %s\n- Identifies limitations and future research\n- Makes recommendations based on findings\n- Emphasizes the significance of the work\n", topic, domain)
	case sections.References:
		return fmt.Sprintf("List academic sources in an appropriate format:\n- Include relevant %s literature\n- Use a consistent citation style\n- Ensure sources are credible and recent\n- Cover theoretical and practical aspects\n- Include diverse source types\n", domain)
	default:
		return fmt.Sprintf("Write a comprehensive %s section about %s in the %s field.\n", section, topic, domain)
	}
}
