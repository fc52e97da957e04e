package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// CritiqueResult is either the model's JSON object, kept verbatim, or the
// fallback {"raw": text} when the model output could not be parsed.
type CritiqueResult struct {
	structured json.RawMessage
	raw        string
}

// Critique is the canonical shape requested from the model.
type Critique struct {
	Rating     float64  `json:"rating"`
	Strengths  []string `json:"Strengths"`
	Weaknesses []string `json:"Weaknesses"`
	Tips       []string `json:"Tips"`
}

type fallbackBody struct {
	Raw string `json:"raw"`
}

func NewStructuredCritique(object json.RawMessage) *CritiqueResult {
	return &CritiqueResult{structured: append(json.RawMessage(nil), object...)}
}

func NewFallbackCritique(text string) *CritiqueResult {
	return &CritiqueResult{raw: text}
}

// IsFallback reports whether the result carries unparsed model text.
func (r *CritiqueResult) IsFallback() bool {
	return r.structured == nil
}

// Raw returns the unparsed text of a fallback result.
func (r *CritiqueResult) Raw() string {
	return r.raw
}

// Object returns the verbatim JSON object of a structured result.
func (r *CritiqueResult) Object() json.RawMessage {
	return r.structured
}

// Critique decodes a structured result into the canonical schema. Models
// sometimes answer with the singular "Strength" key; it is accepted as an
// alias when "Strengths" is absent.
func (r *CritiqueResult) Critique() (*Critique, bool) {
	if r.IsFallback() {
		return nil, false
	}

	var body struct {
		Critique
		Strength []string `json:"Strength"`
	}
	if err := json.Unmarshal(r.structured, &body); err != nil {
		return nil, false
	}

	c := body.Critique
	if len(c.Strengths) == 0 && len(body.Strength) > 0 {
		c.Strengths = body.Strength
	}
	return &c, true
}

func (r *CritiqueResult) MarshalJSON() ([]byte, error) {
	if r.IsFallback() {
		return json.Marshal(fallbackBody{Raw: r.raw})
	}
	return r.structured, nil
}

func (r *CritiqueResult) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return errors.New("critique result must be a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if rawField, ok := fields["raw"]; ok && len(fields) == 1 {
		var text string
		if err := json.Unmarshal(rawField, &text); err == nil {
			r.structured = nil
			r.raw = text
			return nil
		}
	}

	r.structured = append(json.RawMessage(nil), data...)
	r.raw = ""
	return nil
}
