package service

import (
	"fmt"
	"sort"
)

// Attributes are key-value properties fixed for the lifetime of a service
// at creation time, for example protocol mappings or sensor calibration
// data. Openers may require specific attributes to be present.
type Attributes map[string]string

// Define returns a copy of the attributes with key set; it allows chained
// construction starting from nil.
func (a Attributes) Define(key, value string) Attributes {
	out := make(Attributes, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[key] = value
	return out
}

// Get returns the value for key and whether it was defined.
func (a Attributes) Get(key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// Keys returns the defined keys in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Verifier states what an opener requires from an existing service's
// attributes.
type Verifier struct {
	required     Attributes
	requiredKeys []string
}

// NewVerifier creates an empty verifier.
func NewVerifier() *Verifier {
	return &Verifier{required: Attributes{}}
}

// Require demands key to be defined with exactly value.
func (v *Verifier) Require(key, value string) *Verifier {
	v.required = v.required.Define(key, value)
	return v
}

// RequireKey demands key to be defined with any value.
func (v *Verifier) RequireKey(key string) *Verifier {
	v.requiredKeys = append(v.requiredKeys, key)
	return v
}

// Verify checks actual against the requirements and returns the first
// unsatisfied one. A nil verifier requires nothing.
func (v *Verifier) Verify(actual Attributes) error {
	if v == nil {
		return nil
	}
	for _, key := range v.required.Keys() {
		want := v.required[key]
		got, ok := actual.Get(key)
		if !ok {
			return fmt.Errorf("%w: attribute %q is not defined", ErrIncompatibleAttributes, key)
		}
		if got != want {
			return fmt.Errorf("%w: attribute %q is %q, required %q",
				ErrIncompatibleAttributes, key, got, want)
		}
	}
	for _, key := range v.requiredKeys {
		if _, ok := actual.Get(key); !ok {
			return fmt.Errorf("%w: attribute key %q is not defined", ErrIncompatibleAttributes, key)
		}
	}
	return nil
}
