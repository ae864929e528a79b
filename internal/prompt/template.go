package prompt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultContext grounds the assistant when retrieval supplied nothing.
const DefaultContext = "The Sexual Harassment of Women at Workplace (Prevention, Prohibition and Redressal) Act, 2013 (the POSH Act) " +
	"requires every employer with ten or more employees to constitute an Internal Committee that receives, inquires into " +
	"and resolves complaints of sexual harassment at the workplace."

// Separator is placed between consecutive context chunks.
const Separator = "\n\n---\n\n"

// Template holds the fixed parts of the assistant system prompt.
type Template struct {
	Persona        string   `yaml:"persona"`
	Intro          string   `yaml:"intro"`
	Guidelines     []string `yaml:"guidelines"`
	DefaultContext string   `yaml:"default_context"`
	Separator      string   `yaml:"separator"`
}

func DefaultTemplate() Template {
	return Template{
		Persona: "Sakhi",
		Intro:   "a confidential assistant that helps employees understand their rights under the POSH Act and the organisation's complaint process.",
		Guidelines: []string{
			"Be warm, empathetic and non-judgmental. Acknowledge the person's feelings before giving information.",
			"Answer only from the context below. Do not invent laws, policies, timelines or contacts.",
			"Keep replies concise: a few short paragraphs or a brief list.",
			"When someone describes an incident, gently point them to the in-app complaint form so the Internal Committee can act on it.",
			"If someone is in immediate danger or mentions self-harm, tell them to contact emergency services (112) or the Women Helpline (181) right away.",
			"Never ask for or repeat names of other people, and remind users that what they share is handled confidentially.",
			"If the context does not contain the answer, say \"I don't know\" and suggest contacting the Internal Committee.",
			"Use plain language and avoid legal jargon; explain any legal term you must use.",
		},
		DefaultContext: DefaultContext,
		Separator:      Separator,
	}
}

// LoadTemplate reads a YAML override from path. Fields the file leaves empty
// keep their default values.
func LoadTemplate(path string) (Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Template{}, err
	}
	var override Template
	if err := yaml.Unmarshal(b, &override); err != nil {
		return Template{}, fmt.Errorf("parse prompt template %s: %w", path, err)
	}
	t := DefaultTemplate()
	if override.Persona != "" {
		t.Persona = override.Persona
	}
	if override.Intro != "" {
		t.Intro = override.Intro
	}
	if len(override.Guidelines) > 0 {
		t.Guidelines = override.Guidelines
	}
	if override.DefaultContext != "" {
		t.DefaultContext = override.DefaultContext
	}
	if override.Separator != "" {
		t.Separator = override.Separator
	}
	return t, nil
}
