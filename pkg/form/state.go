// Package form holds the editable state of the console's entity forms.
//
// A State keeps committed values separate from the text shown for
// structured fields, so a half-typed JSON edit never replaces the last value
// that parsed. All methods are safe for concurrent use; scan sessions write
// fields from their own goroutine.
package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Kind is how a field's text is interpreted.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindStructured
)

// Field declares one form field.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
}

// State is the committed and displayed content of one form.
type State struct {
	mu     sync.RWMutex
	fields []Field
	byName map[string]Field
	values map[string]any
	text   map[string]string
	errs   map[string]error
}

// New creates a State for fields with the given initial values. Structured
// initial values have their text rendered up front.
func New(fields []Field, initial map[string]any) *State {
	s := &State{
		fields: append([]Field(nil), fields...),
		byName: make(map[string]Field, len(fields)),
		values: make(map[string]any, len(initial)),
		text:   make(map[string]string),
		errs:   make(map[string]error),
	}
	for _, f := range fields {
		s.byName[f.Name] = f
	}
	for k, v := range initial {
		s.setLocked(k, v)
	}
	return s
}

// Fields returns the declared fields in display order.
func (s *State) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// SetField commits value for name. Setting a structured field also
// resynchronizes its text and clears its error. A nil value removes the field.
func (s *State) SetField(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(name, value)
}

func (s *State) setLocked(name string, value any) {
	if value == nil {
		delete(s.values, name)
	} else {
		s.values[name] = value
	}
	if s.byName[name].Kind != KindStructured {
		return
	}
	delete(s.errs, name)
	if value == nil {
		s.text[name] = ""
		return
	}
	s.text[name] = canonicalText(value)
}

// SetStructuredFieldFromText applies raw user text to a structured field.
// Empty text makes the field absent. Text that parses to a JSON object
// replaces the committed value and is rewritten in canonical form. Anything
// else keeps the committed value, retains the raw text for display and
// returns a *StructuredFieldError.
func (s *State) SetStructuredFieldFromText(name, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		delete(s.values, name)
		delete(s.errs, name)
		s.text[name] = ""
		return nil
	}

	obj, err := parseObject(text)
	if err != nil {
		ferr := &StructuredFieldError{Field: name, Err: err}
		s.text[name] = text
		s.errs[name] = ferr
		return ferr
	}
	s.values[name] = obj
	s.text[name] = canonicalText(obj)
	delete(s.errs, name)
	return nil
}

// SetFieldFromText converts text according to the field's declared kind.
func (s *State) SetFieldFromText(name, text string) error {
	f, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	switch f.Kind {
	case KindStructured:
		return s.SetStructuredFieldFromText(name, text)
	case KindInt:
		text = strings.TrimSpace(text)
		if text == "" {
			s.SetField(name, nil)
			return nil
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return &InvalidValueError{Field: name, Text: text, Err: err}
		}
		s.SetField(name, n)
		return nil
	default:
		s.SetField(name, text)
		return nil
	}
}

// Value returns the committed value of name.
func (s *State) Value(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// String returns the committed value of name as a string, or "".
func (s *State) String(name string) string {
	v, _ := s.Value(name)
	str, _ := v.(string)
	return str
}

// Int returns the committed integer value of name.
func (s *State) Int(name string) (int64, bool) {
	v, ok := s.Value(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// Map returns a copy of the committed structured value of name.
func (s *State) Map(name string) map[string]any {
	v, _ := s.Value(name)
	m, _ := v.(map[string]any)
	if m == nil {
		return nil
	}
	return deepCopy(m).(map[string]any)
}

// Text returns what the user sees for name: the raw text of a structured
// field, or the committed value rendered as text.
func (s *State) Text(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.byName[name].Kind == KindStructured {
		return s.text[name]
	}
	v, ok := s.values[name]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

// Err returns the validation error recorded for name.
func (s *State) Err(name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errs[name]
}

// Valid reports whether no field holds a validation error.
func (s *State) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.errs) == 0
}

// Validate returns ErrInvalidForm, joined with the field errors, while any
// field is invalid, then a *MissingFieldError for empty required fields.
func (s *State) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.errs) > 0 {
		errs := []error{ErrInvalidForm}
		for _, f := range s.fields {
			if err := s.errs[f.Name]; err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var missing []string
	for _, f := range s.fields {
		if !f.Required {
			continue
		}
		v, ok := s.values[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldError{Fields: missing}
	}
	return nil
}

// Snapshot returns the committed values. Structured values are deep copies.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = deepCopy(v)
	}
	return out
}

func parseObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("value must be a JSON object")
	}
	return obj, nil
}

func canonicalText(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}
