// Package schema checks untyped API responses against the shapes the client
// expects before anything else trusts them. Decode JSON with UseNumber so
// numbers arrive as json.Number.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Violation is one field that did not match
type Violation struct {
	Field   string
	Problem string
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Problem
	}
	return v.Field + ": " + v.Problem
}

// Error lists every violation found for one shape
type Error struct {
	Shape      string
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("invalid %s: %s", e.Shape, strings.Join(parts, "; "))
}

// Decode parses a JSON body into an untyped value, keeping numbers exact
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// checker accumulates violations while walking one object
type checker struct {
	path       string
	violations []Violation
}

func (c *checker) fail(field, problem string) {
	c.violations = append(c.violations, Violation{Field: c.join(field), Problem: problem})
}

func (c *checker) join(field string) string {
	switch {
	case c.path == "":
		return field
	case field == "":
		return c.path
	default:
		return c.path + "." + field
	}
}

func (c *checker) err(shape string) error {
	if len(c.violations) == 0 {
		return nil
	}
	return &Error{Shape: shape, Violations: c.violations}
}

// object rejects nil and anything that is not a JSON object
func (c *checker) object(v any) (map[string]any, bool) {
	if v == nil {
		c.fail("", "is null")
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		c.fail("", fmt.Sprintf("expected object, got %s", typeName(v)))
		return nil, false
	}
	return obj, true
}

func (c *checker) requireString(obj map[string]any, field string) string {
	v, present := obj[field]
	if !present {
		c.fail(field, "is required")
		return ""
	}
	s, ok := v.(string)
	if !ok {
		c.fail(field, fmt.Sprintf("expected string, got %s", typeName(v)))
		return ""
	}
	return s
}

// optionalString accepts an absent field or null
func (c *checker) optionalString(obj map[string]any, field string) *string {
	v, present := obj[field]
	if !present || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		c.fail(field, fmt.Sprintf("expected string or null, got %s", typeName(v)))
		return nil
	}
	return &s
}

func (c *checker) optionalBool(obj map[string]any, field string) *bool {
	v, present := obj[field]
	if !present || v == nil {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		c.fail(field, fmt.Sprintf("expected boolean or null, got %s", typeName(v)))
		return nil
	}
	return &b
}

func (c *checker) requireInt(obj map[string]any, field string) int {
	v, present := obj[field]
	if !present {
		c.fail(field, "is required")
		return 0
	}
	n, ok := asInt(v)
	if !ok {
		c.fail(field, fmt.Sprintf("expected integer, got %s", typeName(v)))
		return 0
	}
	return n
}

func (c *checker) requireArray(obj map[string]any, field string) ([]any, bool) {
	v, present := obj[field]
	if !present {
		c.fail(field, "is required")
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		c.fail(field, fmt.Sprintf("expected array, got %s", typeName(v)))
		return nil, false
	}
	return arr, true
}

// nested runs fn with a checker rooted at field and merges its violations
func (c *checker) nested(field string, fn func(sub *checker)) {
	sub := &checker{path: c.join(field)}
	fn(sub)
	c.violations = append(c.violations, sub.violations...)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
