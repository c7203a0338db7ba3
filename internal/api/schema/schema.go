// Package schema validates loosely-typed completion output against a declared shape.
package schema

import (
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/genai"
)

type Kind int

const (
	String Kind = iota
	Number
	Array
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

type Format int

const (
	FormatNone Format = iota
	// FormatURL requires an absolute URL; the empty string is rejected.
	FormatURL
	// FormatURLOrEmpty accepts an absolute URL or "" as a placeholder to be filtered later.
	FormatURLOrEmpty
)

// Constraint names reported in a Violation.
const (
	ConstraintRequired = "required"
	ConstraintType     = "type"
	ConstraintNonEmpty = "non_empty"
	ConstraintFormat   = "format"
)

// Field declares one property of a Shape.
type Field struct {
	Name        string
	Description string
	Kind        Kind
	Required    bool
	NonEmpty    bool
	Nullable    bool
	// EmptyAsAbsent treats a blank string as if the field were missing.
	EmptyAsAbsent bool
	Format        Format
	Items         *Field
}

// Shape is the declared structure of a completion output object.
type Shape struct {
	Fields []Field
}

type Violation struct {
	Field      string
	Constraint string
	Detail     string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.Field, v.Constraint, v.Detail)
}

// Result is either a validated value or the list of violations found.
type Result struct {
	Value      map[string]any
	Violations []Violation
}

func (r Result) OK() bool {
	return len(r.Violations) == 0
}

// FieldOK reports whether the named field itself has no violation.
// Violations on array items ("links[2]") do not count against the field.
func (r Result) FieldOK(name string) bool {
	for _, v := range r.Violations {
		if v.Field == name {
			return false
		}
	}
	return true
}

func (r Result) String(name string) (string, bool) {
	s, ok := r.Value[name].(string)
	return s, ok
}

func (r Result) Slice(name string) ([]any, bool) {
	s, ok := r.Value[name].([]any)
	return s, ok
}

func (r Result) Error() string {
	parts := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}

// Validate checks raw against the shape. A nil raw object fails every required field.
// The returned Value only holds fields that are present; absent and null fields are dropped.
func (s Shape) Validate(raw map[string]any) Result {
	res := Result{Value: make(map[string]any, len(s.Fields))}
	for _, f := range s.Fields {
		v, present := raw[f.Name]
		if present && v == nil && f.Nullable {
			present = false
		}
		if present && f.EmptyAsAbsent {
			if str, ok := v.(string); ok && strings.TrimSpace(str) == "" {
				present = false
			}
		}
		if !present || v == nil {
			if f.Required {
				res.Violations = append(res.Violations, Violation{Field: f.Name, Constraint: ConstraintRequired, Detail: "field is missing"})
			}
			continue
		}
		before := len(res.Violations)
		res.Violations = append(res.Violations, f.check(f.Name, v)...)
		if len(res.Violations) == before || f.Kind == Array && res.FieldOK(f.Name) {
			res.Value[f.Name] = v
		}
	}
	return res
}

func (f Field) check(path string, v any) []Violation {
	switch f.Kind {
	case String:
		str, ok := v.(string)
		if !ok {
			return []Violation{{Field: path, Constraint: ConstraintType, Detail: fmt.Sprintf("expected string, got %T", v)}}
		}
		if f.NonEmpty && strings.TrimSpace(str) == "" {
			return []Violation{{Field: path, Constraint: ConstraintNonEmpty, Detail: "string is empty"}}
		}
		switch f.Format {
		case FormatURL:
			if !IsAbsoluteURL(str) {
				return []Violation{{Field: path, Constraint: ConstraintFormat, Detail: "must be an absolute URL"}}
			}
		case FormatURLOrEmpty:
			if str != "" && !IsAbsoluteURL(str) {
				return []Violation{{Field: path, Constraint: ConstraintFormat, Detail: "must be an absolute URL or empty"}}
			}
		}
	case Number:
		switch v.(type) {
		case float64, float32, int, int64:
		default:
			return []Violation{{Field: path, Constraint: ConstraintType, Detail: fmt.Sprintf("expected number, got %T", v)}}
		}
	case Array:
		items, ok := v.([]any)
		if !ok {
			return []Violation{{Field: path, Constraint: ConstraintType, Detail: fmt.Sprintf("expected array, got %T", v)}}
		}
		if f.Items == nil {
			return nil
		}
		var out []Violation
		for i, item := range items {
			out = append(out, f.Items.check(fmt.Sprintf("%s[%d]", path, i), item)...)
		}
		return out
	}
	return nil
}

// IsAbsoluteURL reports whether s is non-blank, parses, and carries a scheme plus a host, opaque part or path.
func IsAbsoluteURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != "" || u.Path != ""
}

// GenAISchema renders the shape as a Gemini response schema.
func (s Shape) GenAISchema() *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(s.Fields)),
	}
	for _, f := range s.Fields {
		out.Properties[f.Name] = f.genAI()
		if f.Required {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}

func (f Field) genAI() *genai.Schema {
	sc := &genai.Schema{Description: f.Description}
	switch f.Kind {
	case String:
		sc.Type = genai.TypeString
	case Number:
		sc.Type = genai.TypeNumber
	case Array:
		sc.Type = genai.TypeArray
		if f.Items != nil {
			sc.Items = f.Items.genAI()
		}
	}
	if f.Nullable {
		sc.Nullable = genai.Ptr(true)
	}
	return sc
}
