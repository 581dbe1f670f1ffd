package score

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/cv-assessor/internal/utils"
)

// CriterionScore is the oracle's verdict on one weighted criterion.
type CriterionScore struct {
	Name        string  `mapstructure:"name" json:"name"`
	Score       float64 `mapstructure:"score" json:"score"`
	Explanation string  `mapstructure:"explanation" json:"explanation,omitempty"`
}

// Report is the structured assessment returned by the oracle.
type Report struct {
	CandidateName           string           `mapstructure:"candidate_name" json:"candidate_name"`
	OverallScore            *float64         `mapstructure:"overall_score" json:"overall_score,omitempty"`
	FitLevel                string           `mapstructure:"fit_level" json:"fit_level"`
	Criteria                []CriterionScore `mapstructure:"criteria_scores" json:"criteria_scores,omitempty"`
	Strengths               []string         `mapstructure:"key_strengths" json:"key_strengths,omitempty"`
	Weaknesses              []string         `mapstructure:"key_weaknesses" json:"key_weaknesses,omitempty"`
	MissingRequirements     []string         `mapstructure:"missing_requirements" json:"missing_requirements,omitempty"`
	RedFlags                []string         `mapstructure:"red_flags" json:"red_flags,omitempty"`
	Recommendation          string           `mapstructure:"recommendation" json:"recommendation"`
	RecommendationReasoning string           `mapstructure:"recommendation_reasoning" json:"recommendation_reasoning,omitempty"`
	Confidence              string           `mapstructure:"confidence_level" json:"confidence_level"`
	InterviewFocusAreas     []string         `mapstructure:"interview_focus_areas" json:"interview_focus_areas,omitempty"`
	ExecutiveSummary        string           `mapstructure:"executive_summary" json:"executive_summary,omitempty"`
	WhyThisScore            string           `mapstructure:"why_this_score" json:"why_this_score,omitempty"`

	// Missing lists expected keys the oracle left out; defaults were applied.
	Missing []string `mapstructure:"-" json:"missing,omitempty"`
}

// expectedFields is the checklist a complete report satisfies, with the
// default applied when a key is absent.
var expectedFields = []struct {
	key   string
	apply func(*Report)
}{
	{key: "candidate_name", apply: func(r *Report) { r.CandidateName = "Unknown" }},
	{key: "overall_score"},
	{key: "fit_level"},
	{key: "criteria_scores"},
	{key: "key_strengths", apply: func(r *Report) { r.Strengths = []string{} }},
	{key: "key_weaknesses", apply: func(r *Report) { r.Weaknesses = []string{} }},
	{key: "missing_requirements", apply: func(r *Report) { r.MissingRequirements = []string{} }},
	{key: "red_flags", apply: func(r *Report) { r.RedFlags = []string{} }},
	{key: "recommendation", apply: func(r *Report) { r.Recommendation = "consider" }},
	{key: "confidence_level", apply: func(r *Report) { r.Confidence = "low" }},
	{key: "executive_summary"},
}

// legacyCriteria maps flat per-area keys onto criterion names.
var legacyCriteria = []struct {
	score, explanation, name string
}{
	{score: "experience_score", explanation: "experience_explanation", name: "Experience"},
	{score: "skills_score", explanation: "skills_explanation", name: "Skills"},
	{score: "education_score", explanation: "education_explanation", name: "Education"},
	{score: "cultural_fit_score", explanation: "cultural_fit_explanation", name: "Cultural fit"},
}

// ParseReport decodes a JSON report. The answer may be wrapped in code fences
// or prose. Absent keys get defaults and are listed in Report.Missing; an
// answer that is not a JSON object is an error.
func ParseReport(raw string) (Report, error) {
	cleaned := utils.ExtractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return Report{}, fmt.Errorf("parse report: %w", err)
	}
	if data == nil {
		return Report{}, fmt.Errorf("parse report: empty object")
	}

	data = normalizeCriteria(data)

	var report Report
	var meta mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Metadata:         &meta,
		Result:           &report,
	})
	if err != nil {
		return Report{}, err
	}
	if err := decoder.Decode(data); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}

	present := make(map[string]bool, len(meta.Keys))
	for _, k := range meta.Keys {
		present[k] = true
	}
	for _, field := range expectedFields {
		if present[field.key] && data[field.key] != nil {
			continue
		}
		report.Missing = append(report.Missing, field.key)
		if field.apply != nil {
			field.apply(&report)
		}
	}

	if report.OverallScore != nil && math.IsNaN(*report.OverallScore) {
		report.OverallScore = nil
	}
	report.CandidateName = strings.TrimSpace(report.CandidateName)
	report.FitLevel = strings.TrimSpace(report.FitLevel)
	if report.FitLevel == "" && report.OverallScore != nil {
		report.FitLevel = FitLevel(Percent(*report.OverallScore))
	}

	return report, nil
}

// Scores returns criterion scores keyed by name.
func (r Report) Scores() map[string]float64 {
	out := make(map[string]float64, len(r.Criteria))
	for _, c := range r.Criteria {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		out[c.Name] = c.Score
	}
	return out
}

// Narrative returns the free text fields most likely to carry a score.
func (r Report) Narrative() string {
	return strings.Join([]string{r.WhyThisScore, r.ExecutiveSummary, r.RecommendationReasoning}, "\n")
}

// normalizeCriteria accepts criteria_scores as an object of name to score,
// and falls back to flat experience/skills/education keys.
func normalizeCriteria(data map[string]any) map[string]any {
	switch v := data["criteria_scores"].(type) {
	case []any:
		return data
	case map[string]any:
		list := make([]any, 0, len(v))
		for name, s := range v {
			entry := map[string]any{"name": name}
			if nested, ok := s.(map[string]any); ok {
				entry["score"] = nested["score"]
				entry["explanation"] = nested["explanation"]
			} else {
				entry["score"] = s
			}
			list = append(list, entry)
		}
		data["criteria_scores"] = list
		return data
	}

	var list []any
	for _, legacy := range legacyCriteria {
		s, ok := data[legacy.score]
		if !ok || s == nil {
			continue
		}
		list = append(list, map[string]any{
			"name":        legacy.name,
			"score":       s,
			"explanation": data[legacy.explanation],
		})
	}
	if len(list) > 0 {
		data["criteria_scores"] = list
	}
	return data
}

// Percent maps a score with no stated scale onto 0-100. Only values strictly
// between 0 and 1 are read as fractions, so a 1 stays 1.
func Percent(v float64) float64 {
	if v > 0 && v < 1 {
		v *= 100
	}
	return math.Max(0, math.Min(100, v))
}

// FitLevel buckets a 0-100 score.
func FitLevel(score float64) string {
	switch {
	case score >= 85:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Fair"
	default:
		return "Poor"
	}
}
