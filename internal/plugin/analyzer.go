package plugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"golang.org/x/text/cases"
)

// HeuristicConfidence is reported by keyword analysis
const HeuristicConfidence = 0.6

// Severity labels for issues
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Issue is one class of problem found in the logs
type Issue struct {
	Type     string `json:"type"`
	Count    int    `json:"count"`
	Severity string `json:"severity"`
}

// Analysis is the result of Analyze
type Analysis struct {
	Summary              string         `json:"summary"`
	Issues               []Issue        `json:"issues"`
	Recommendations      []string       `json:"recommendations"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
	Confidence           float64        `json:"confidence"`
}

type issueClass struct {
	name           string
	keywords       []string
	recommendation string
}

var issueClasses = []issueClass{
	{
		name:           "authentication",
		keywords:       []string{"unauthorized", "forbidden", "access denied", "invalid credentials", "no valid credential", "expired token", "403"},
		recommendation: "Check provider credentials and the permissions of the identity Terraform runs as",
	},
	{
		name:           "configuration",
		keywords:       []string{"unsupported argument", "invalid value", "missing required argument", "invalid configuration", "unsupported attribute"},
		recommendation: "Review the Terraform configuration for invalid or missing arguments",
	},
	{
		name:           "dependency",
		keywords:       []string{"cycle", "depends_on", "dependency", "dependencies"},
		recommendation: "Check resource dependencies and explicit depends_on ordering",
	},
	{
		name:           "network",
		keywords:       []string{"timeout", "timed out", "connection refused", "connection reset", "dial tcp", "no such host"},
		recommendation: "Verify network reachability of the provider endpoints",
	},
	{
		name:           "rate limit",
		keywords:       []string{"throttl", "rate exceeded", "too many requests", "429", "limit exceeded"},
		recommendation: "Reduce parallelism or add provider retry settings to stay under API rate limits",
	},
}

var generalRecommendations = []string{
	"Check the Terraform configuration files",
	"Check provider authentication",
	"Check resource dependencies",
}

// Analyze classifies records by keyword and level. It never calls out to a model;
// Confidence is always HeuristicConfidence.
func Analyze(records []model.LogRecord) Analysis {
	fold := cases.Fold()

	dist := make(map[string]int)
	errors, warnings := 0, 0
	for _, r := range records {
		dist[string(r.Level)]++
		switch r.Level {
		case model.LevelError:
			errors++
		case model.LevelWarning:
			warnings++
		}
	}

	issues := make([]Issue, 0)
	recs := make([]string, 0)
	for _, class := range issueClasses {
		issue := Issue{Type: class.name}
		for _, r := range records {
			text := fold.String(r.Excerpt + " " + r.RawJSON)
			if !containsAny(text, class.keywords) {
				continue
			}
			issue.Count++
			issue.Severity = maxSeverity(issue.Severity, severityOf(r.Level))
		}
		if issue.Count > 0 {
			issues = append(issues, issue)
			recs = append(recs, class.recommendation)
		}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Count > issues[j].Count
	})
	if len(recs) == 0 {
		recs = append(recs, generalRecommendations...)
	}

	return Analysis{
		Summary:              fmt.Sprintf("Analyzed %d logs: %d errors, %d warnings, %d issue classes", len(records), errors, warnings, len(issues)),
		Issues:               issues,
		Recommendations:      recs,
		SeverityDistribution: dist,
		Confidence:           HeuristicConfidence,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func severityOf(level model.Level) string {
	switch level {
	case model.LevelError:
		return SeverityHigh
	case model.LevelWarning:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func severityRank(s string) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

func maxSeverity(a, b string) string {
	if severityRank(b) > severityRank(a) {
		return b
	}
	return a
}
