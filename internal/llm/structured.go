package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

const (
	// StructuredTemperature and StructuredMaxTokens are the generation
	// settings used for job-posting parsing.
	StructuredTemperature = 0.2
	StructuredMaxTokens   = 1000
)

// JobPosting is the structured record extracted from a job posting.
type JobPosting struct {
	Title             string   `json:"title"`
	Company           string   `json:"company,omitempty"`
	Location          string   `json:"location,omitempty"`
	Summary           string   `json:"summary,omitempty"`
	TechnicalSkills   []string `json:"technicalSkills"`
	SoftSkills        []string `json:"softSkills"`
	Responsibilities  []string `json:"responsibilities"`
	Qualifications    []string `json:"qualifications"`
	ExperienceLevel   string   `json:"experienceLevel,omitempty"`
	ParsedByProvider  string   `json:"parsedByProvider"`
	RawProviderOutput string   `json:"rawProviderOutput"`
}

// jobPostingPayload is the schema the job_parser template asks the model to emit.
type jobPostingPayload struct {
	Title            *string  `json:"title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	Summary          string   `json:"summary"`
	TechnicalSkills  []string `json:"technical_skills"`
	SoftSkills       []string `json:"soft_skills"`
	Responsibilities []string `json:"responsibilities"`
	Qualifications   []string `json:"qualifications"`
	ExperienceLevel  string   `json:"experience_level"`
}

// StripCodeFence removes a surrounding Markdown code fence (``` or ```json) if present.
func StripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(cleaned, "```"), "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		tag := strings.TrimSpace(inner[:nl])
		if tag == "" || isFenceTag(tag) {
			inner = inner[nl+1:]
		}
	} else if strings.HasPrefix(strings.ToLower(inner), "json") {
		inner = inner[len("json"):]
	}
	return strings.TrimSpace(inner)
}

func isFenceTag(tag string) bool {
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// DecodeJobPosting strips code fences from raw model output and decodes it.
// The returned record always carries RawProviderOutput, even on error.
func DecodeJobPosting(provider, raw string) (JobPosting, error) {
	out := JobPosting{
		ParsedByProvider:  provider,
		RawProviderOutput: raw,
	}
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return out, &MalformedOutputError{Provider: provider, Raw: raw, Err: errors.New("empty output")}
	}

	var payload jobPostingPayload
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	if err := dec.Decode(&payload); err != nil {
		return out, &MalformedOutputError{Provider: provider, Raw: raw, Err: err}
	}
	if dec.More() {
		return out, &MalformedOutputError{Provider: provider, Raw: raw, Err: errors.New("trailing data after json object")}
	}
	if payload.Title == nil || strings.TrimSpace(*payload.Title) == "" {
		return out, &MalformedOutputError{Provider: provider, Raw: raw, Err: errors.New("missing title")}
	}

	out.Title = strings.TrimSpace(*payload.Title)
	out.Company = strings.TrimSpace(payload.Company)
	out.Location = strings.TrimSpace(payload.Location)
	out.Summary = strings.TrimSpace(payload.Summary)
	out.TechnicalSkills = cleanList(payload.TechnicalSkills)
	out.SoftSkills = cleanList(payload.SoftSkills)
	out.Responsibilities = cleanList(payload.Responsibilities)
	out.Qualifications = cleanList(payload.Qualifications)
	out.ExperienceLevel = strings.TrimSpace(payload.ExperienceLevel)
	return out, nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
