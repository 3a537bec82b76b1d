// Package eepjson wraps the restricted JSON object codec the storage
// engine's document format uses: a flat string-to-string mapping, nothing
// nested, no non-string values. spec.md §4.8 specifies this as an external
// adapter with a one-line contract ("parse-object, emit-object, mapping
// get/set/remove/iterate, string values only"); Go's encoding/json already
// expresses exactly this shape with map[string]any plus a type assertion, so
// (as with pkg/eepdigest) this is a thin wrapper over the standard library
// rather than an adapter over a third-party JSON library — none of the
// retrieved examples reach for a third-party JSON codec for a shape this
// simple (the teacher's own mddb/frontmatter front matter uses YAML, not
// JSON, for its nested documents).
package eepjson

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrParseFail means data did not parse as JSON at all.
var ErrParseFail = errors.New("eepjson: parse failure")

// ErrRootNotObject means data parsed but the top-level value is not a JSON
// object.
var ErrRootNotObject = errors.New("eepjson: root is not an object")

// ErrValueNotString means a key's value parsed but is not a JSON string.
var ErrValueNotString = errors.New("eepjson: value is not a string")

// Object is an in-memory flat string-to-string mapping, the only document
// shape the storage engine ever writes or reads. Keys() is an
// order-undefined enumeration per spec.md §4.7, so Object makes no attempt
// to preserve insertion order.
type Object struct {
	values map[string]string
}

// New returns an empty Object, equivalent to parsing the literal `{}`.
func New() *Object {
	return &Object{values: make(map[string]string)}
}

// Parse decodes data as a JSON object whose values are all strings.
//
// Returns ErrParseFail if data is not valid JSON, ErrRootNotObject if it
// parses but the root value is not a JSON object, or ErrValueNotString if
// any value is present but not a string.
func Parse(data []byte) (*Object, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFail, err)
	}

	raw, ok := root.(map[string]any)
	if !ok {
		return nil, ErrRootNotObject
	}

	obj := New()
	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("%w: key %q", ErrValueNotString, key)
		}
		obj.values[key] = s
	}

	return obj, nil
}

// Get returns the string value for key and whether it was present.
func (o *Object) Get(key string) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set inserts or replaces key with value.
func (o *Object) Set(key, value string) {
	o.values[key] = value
}

// Delete removes key if present. Reports whether it was present.
func (o *Object) Delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	return true
}

// Keys returns an order-undefined enumeration of the currently defined keys.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of keys currently defined.
func (o *Object) Len() int {
	return len(o.values)
}

// Emit serialises the object in compact form.
func (o *Object) Emit() ([]byte, error) {
	out, err := json.Marshal(o.values)
	if err != nil {
		return nil, fmt.Errorf("eepjson: emit: %w", err)
	}
	return out, nil
}
