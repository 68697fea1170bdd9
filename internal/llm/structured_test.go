package llm

import (
	"errors"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "json fence", raw: "```json\n{\"title\":\"Eng\"}\n```", want: `{"title":"Eng"}`},
		{name: "bare fence", raw: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "inline fence", raw: "```{\"a\":1}```", want: `{"a":1}`},
		{name: "inline json fence", raw: "```json{\"a\":1}```", want: `{"a":1}`},
		{name: "no fence", raw: "  {\"a\":1}  ", want: `{"a":1}`},
		{name: "unterminated", raw: "```json\n{\"a\":1}", want: "```json\n{\"a\":1}"},
		{name: "plain text", raw: "not json", want: "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.raw); got != tt.want {
				t.Fatalf("StripCodeFence(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeJobPostingFenced(t *testing.T) {
	raw := "```json\n{\"title\":\"Eng\"}\n```"
	got, err := DecodeJobPosting("gemini", raw)
	if err != nil {
		t.Fatalf("DecodeJobPosting: %v", err)
	}
	if got.Title != "Eng" {
		t.Fatalf("expected title Eng, got %q", got.Title)
	}
	if got.RawProviderOutput != raw {
		t.Fatalf("expected raw output preserved")
	}
	if got.ParsedByProvider != "gemini" {
		t.Fatalf("expected parsedByProvider gemini, got %q", got.ParsedByProvider)
	}
	if got.TechnicalSkills == nil || got.SoftSkills == nil {
		t.Fatalf("expected non-nil skill lists")
	}
}

func TestDecodeJobPostingFullPayload(t *testing.T) {
	raw := `{"title":" Backend Engineer ","company":"Acme","technical_skills":["Go"," ","SQL"],"soft_skills":["communication"],"experience_level":"senior","extra":true}`
	got, err := DecodeJobPosting("anthropic", raw)
	if err != nil {
		t.Fatalf("DecodeJobPosting: %v", err)
	}
	if got.Title != "Backend Engineer" || got.Company != "Acme" || got.ExperienceLevel != "senior" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(got.TechnicalSkills) != 2 || got.TechnicalSkills[1] != "SQL" {
		t.Fatalf("unexpected technical skills: %v", got.TechnicalSkills)
	}
}

func TestDecodeJobPostingMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "not json"},
		{name: "empty", raw: "   "},
		{name: "missing title", raw: `{"company":"Acme"}`},
		{name: "wrong type", raw: `{"title":"Eng","technical_skills":"Go"}`},
		{name: "trailing data", raw: `{"title":"Eng"} {"title":"Other"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJobPosting("gemini", tt.raw)
			var me *MalformedOutputError
			if !errors.As(err, &me) {
				t.Fatalf("expected MalformedOutputError, got %v", err)
			}
			if me.Raw != tt.raw {
				t.Fatalf("expected raw %q preserved, got %q", tt.raw, me.Raw)
			}
			if got.RawProviderOutput != tt.raw {
				t.Fatalf("expected record to carry raw output")
			}
		})
	}
}
