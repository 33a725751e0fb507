package synth

import "github.com/hyperifyio/goreport/internal/topic"

var domainIntro = map[string]string{
	topic.ComputerScience: "In the rapidly evolving field of computer science",
	topic.Engineering:     "Modern engineering practices continue to advance",
	topic.Business:        "Contemporary business environments require",
	topic.Science:         "Scientific research in this area has shown",
	topic.General:         "This study focuses on",
}

var methodologies = map[string][]string{
	topic.ComputerScience: {"literature review", "algorithm analysis", "experimental evaluation", "case studies"},
	topic.Engineering:     {"design analysis", "testing procedures", "simulation modeling", "experimental validation"},
	topic.Business:        {"market research", "data analysis", "case study methodology", "statistical evaluation"},
	topic.Science:         {"experimental research", "data collection", "statistical analysis", "literature synthesis"},
	topic.General:         {"research methodology", "data collection", "analysis techniques", "evaluation methods"},
}

var findings = map[string][]string{
	topic.ComputerScience: {
		"Performance evaluation shows significant improvements",
		"Algorithm efficiency has been enhanced by optimization techniques",
		"User experience metrics demonstrate positive outcomes",
	},
	topic.Engineering: {
		"Design parameters meet specified requirements",
		"Testing results validate theoretical predictions",
		"Performance benchmarks exceed industry standards",
	},
	topic.Business: {
		"Market analysis reveals emerging trends",
		"Financial metrics indicate positive performance",
		"Customer feedback shows high satisfaction levels",
	},
	topic.Science: {
		"Experimental data supports theoretical hypotheses",
		"Statistical analysis confirms significant correlations",
		"Observations align with established scientific principles",
	},
	topic.General: {
		"Analysis results demonstrate key findings",
		"Data evaluation reveals important insights",
		"Research outcomes contribute to understanding",
	},
}

var referenceTypes = map[string][]string{
	topic.ComputerScience: {"academic journals", "conference proceedings", "technical documentation"},
	topic.Engineering:     {"technical standards", "industry reports", "research publications"},
	topic.Business:        {"market reports", "academic journals", "industry publications"},
	topic.Science:         {"peer-reviewed journals", "scientific publications", "research databases"},
	topic.General:         {"academic sources", "research publications"},
}

var takeaways = map[string]string{
	topic.Basic:        "The fundamental concepts have been clearly established",
	topic.Intermediate: "Practical applications and theoretical frameworks have been explored",
	topic.Advanced:     "Sophisticated methodologies and cutting-edge developments have been analyzed",
}

// lookup returns the entry for domain, or the general entry.
func lookup[T any](m map[string]T, domain string) T {
	if v, ok := m[domain]; ok {
		return v
	}
	return m[topic.General]
}
