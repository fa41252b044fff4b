package resume

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrInvalid marks a résumé or analysis that does not satisfy the schema.
var ErrInvalid = errors.New("invalid resume document")

// Parse decodes generated text into a validated, normalized résumé.
// Fenced code block wrapping is stripped first; unknown fields are rejected.
func Parse(raw string) (*Resume, error) {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty document", ErrInvalid)
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()

	var r Resume
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalid, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalid)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	r.Normalize()
	return &r, nil
}

// Validate checks the structural rules of the résumé schema.
func (r *Resume) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: document is null", ErrInvalid)
	}
	if r.Person == nil {
		return fmt.Errorf("%w: person is required", ErrInvalid)
	}

	for i, s := range r.Skills {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: skills[%d]: name is required", ErrInvalid, i)
		}
	}

	for i, p := range r.Projects {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: projects[%d]: name is required", ErrInvalid, i)
		}
		if !unitInterval(p.Completeness.Score) {
			return fmt.Errorf("%w: projects[%d]: completeness score %v out of [0,1]", ErrInvalid, i, p.Completeness.Score)
		}
	}

	for i, c := range r.Career {
		if strings.TrimSpace(c.Company) == "" {
			return fmt.Errorf("%w: career[%d]: company is required", ErrInvalid, i)
		}
	}

	for i, e := range r.Education {
		if strings.TrimSpace(e.Institution) == "" {
			return fmt.Errorf("%w: education[%d]: institution is required", ErrInvalid, i)
		}
	}

	return nil
}

// ExtractJSON strips optional fenced code block wrapping from generated output.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

// Marshal encodes the résumé compactly for storage.
func (r *Resume) Marshal() ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("resume is nil")
	}
	return encodeJSON(r, "")
}

func unitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
