// Package names implements the validated identifier types used for every
// name in the system. Identifiers are bounded byte strings that are embedded
// directly into shared memory and file system paths, so every value is
// validated and normalized before it becomes visible to other processes.
//
// The package is split into the generic engine (Semantic) and the concrete
// families (ServiceName, NodeName, FileName, PathName). Families differ only
// in their Rules; all algorithms live in the engine.
package names

import (
	"errors"
	"fmt"
	"hash/fnv"
	"unicode/utf8"
)

// Validation errors. Every failing operation leaves the identifier
// byte-for-byte unchanged.
var (
	// ErrInvalidCharacter reports bytes outside the family's character set
	// (or byte sequences that are not valid UTF-8).
	ErrInvalidCharacter = errors.New("identifier contains invalid characters")

	// ErrExceedsMaximumLength reports an operation that would grow the
	// identifier beyond its family capacity.
	ErrExceedsMaximumLength = errors.New("identifier exceeds maximum length")

	// ErrInvalidName reports content that is character-wise fine but
	// semantically illegal for the family (for example an empty service name).
	ErrInvalidName = errors.New("identifier content is not a valid name")
)

// Rules fixes the per-family behavior of the engine: the capacity bound, the
// character set, the content predicate and the normalization.
//
// Implementer obligations for Normalize: it must be idempotent
// (Normalize(Normalize(b)) == Normalize(b)), must never grow the value
// beyond the capacity and must never introduce characters the family
// rejects. The engine relies on these properties and does not re-check them.
type Rules interface {
	// Capacity is the fixed maximum length in bytes.
	Capacity() int

	// HasInvalidCharacters reports whether b contains bytes outside the
	// family character set. The engine additionally rejects invalid UTF-8
	// before this is consulted.
	HasInvalidCharacters(b []byte) bool

	// IsInvalidContent reports whether b, taken as a whole, is an illegal
	// name for the family.
	IsInvalidContent(b []byte) bool

	// Normalize maps b to the canonical representation used for equality
	// and hashing. It must not mutate b.
	Normalize(b []byte) []byte
}

// Semantic is a validated, fixed-capacity identifier. The zero value is
// unusable; construct values through New, NewUnchecked or a family
// constructor. A Semantic is owned by value and is not safe for concurrent
// mutation.
type Semantic struct {
	rules Rules
	// data holds the current content. The backing array is allocated with
	// one spare byte so Terminated can expose a NUL-terminated view without
	// reallocating; terminate is the only place that writes the spare byte.
	data []byte
}

// New validates b against r and returns the identifier. It fails with
// ErrInvalidCharacter, ErrExceedsMaximumLength or ErrInvalidName.
func New(r Rules, b []byte) (Semantic, error) {
	s := NewUnchecked(r, nil)
	if err := s.PushBytes(b); err != nil {
		return Semantic{}, fmt.Errorf("creating identifier from %q: %w", b, err)
	}
	return s, nil
}

// NewUnchecked constructs an identifier from bytes that bypassed validation,
// for example bytes read back from a registry file this process wrote or a
// NUL-terminated foreign buffer. The caller must uphold the family
// invariants; until it does, the value violates the package contract.
func NewUnchecked(r Rules, b []byte) Semantic {
	spare := r.Capacity() + 1
	if len(b)+1 > spare {
		spare = len(b) + 1
	}
	data := make([]byte, len(b), spare)
	copy(data, b)
	return Semantic{rules: r, data: data}
}

// Bytes returns a copy of the identifier's content.
func (s Semantic) Bytes() []byte {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// String returns the content as a string. Validated identifiers are always
// valid UTF-8.
func (s Semantic) String() string { return string(s.data) }

// Len returns the current length in bytes.
func (s Semantic) Len() int { return len(s.data) }

// Capacity returns the fixed maximum length in bytes.
func (s Semantic) Capacity() int { return s.rules.Capacity() }

// IsEmpty reports whether the identifier holds no bytes.
func (s Semantic) IsEmpty() bool { return len(s.data) == 0 }

// IsFull reports whether the identifier is at capacity.
func (s Semantic) IsFull() bool { return len(s.data) == s.rules.Capacity() }

// Rules returns the family rules the identifier was built with.
func (s Semantic) Rules() Rules { return s.rules }

// Terminated returns the content followed by a NUL byte, suitable for export
// across a foreign boundary expecting C strings. The returned slice aliases
// the identifier and is invalidated by the next mutation.
func (s *Semantic) Terminated() []byte {
	s.terminate()
	return s.data[: len(s.data)+1 : len(s.data)+1]
}

// terminate writes the trailing NUL into the spare capacity byte. This is
// the only code that touches bytes past Len.
func (s *Semantic) terminate() {
	if cap(s.data) < len(s.data)+1 {
		// Only reachable for values built by NewUnchecked from an
		// over-capacity slice; restore the spare byte.
		grown := make([]byte, len(s.data), len(s.data)+1)
		copy(grown, s.data)
		s.data = grown
	}
	s.data[:len(s.data)+1][len(s.data)] = 0
}

// Normalize returns the canonical form of the identifier. Equality and
// hashing route through it.
func (s Semantic) Normalize() Semantic {
	return NewUnchecked(s.rules, s.rules.Normalize(s.data))
}

// Normalized returns the canonical byte representation.
func (s Semantic) Normalized() []byte {
	out := s.rules.Normalize(s.data)
	cp := make([]byte, len(out))
	copy(cp, out)
	return cp
}

// Key returns the normalized content as a string, usable as a map key. Two
// identifiers of the same family are semantically equal iff their keys match.
func (s Semantic) Key() string { return string(s.rules.Normalize(s.data)) }

// Equal reports whether the normalized forms of both identifiers are
// byte-equal.
func (s Semantic) Equal(o Semantic) bool { return s.Key() == o.Key() }

// Hash returns a 64-bit FNV-1a hash of the normalized content. Equal
// identifiers hash identically.
func (s Semantic) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write(s.rules.Normalize(s.data))
	return h.Sum64()
}

// hasInvalidCharacters applies the engine-wide UTF-8 requirement before the
// family character set.
func (s Semantic) hasInvalidCharacters(b []byte) bool {
	return !utf8.Valid(b) || s.rules.HasInvalidCharacters(b)
}

func (s Semantic) boundsCheck(idx, max int) {
	if idx < 0 || idx > max {
		panic(fmt.Sprintf("names: index %d out of range [0, %d]", idx, max))
	}
}

// Insert inserts a single byte at idx. It fails with ErrInvalidCharacter,
// ErrExceedsMaximumLength or ErrInvalidName; on failure the identifier is
// unchanged.
func (s *Semantic) Insert(idx int, b byte) error {
	return s.InsertBytes(idx, []byte{b})
}

// InsertBytes inserts b at idx. Characters are validated first, then the
// bounded insertion is attempted, then the resulting content is validated;
// any failure leaves the identifier unchanged.
func (s *Semantic) InsertBytes(idx int, b []byte) error {
	s.boundsCheck(idx, len(s.data))
	if s.hasInvalidCharacters(b) {
		return fmt.Errorf("inserting %q: %w", b, ErrInvalidCharacter)
	}
	if len(s.data)+len(b) > s.rules.Capacity() {
		return fmt.Errorf("inserting %q would exceed capacity %d: %w",
			b, s.rules.Capacity(), ErrExceedsMaximumLength)
	}

	scratch := make([]byte, 0, s.rules.Capacity()+1)
	scratch = append(scratch, s.data[:idx]...)
	scratch = append(scratch, b...)
	scratch = append(scratch, s.data[idx:]...)
	if s.rules.IsInvalidContent(scratch) {
		return fmt.Errorf("inserting %q would produce an illegal name: %w", b, ErrInvalidName)
	}

	s.data = scratch
	return nil
}

// InsertBytesUnchecked inserts b at idx without validating characters,
// capacity or content. The caller must ensure the result is a valid
// identifier of the family.
func (s *Semantic) InsertBytesUnchecked(idx int, b []byte) {
	s.boundsCheck(idx, len(s.data))
	scratch := make([]byte, 0, len(s.data)+len(b)+1)
	scratch = append(scratch, s.data[:idx]...)
	scratch = append(scratch, b...)
	scratch = append(scratch, s.data[idx:]...)
	s.data = scratch
}

// Push appends a single byte.
func (s *Semantic) Push(b byte) error { return s.Insert(len(s.data), b) }

// PushBytes appends b.
func (s *Semantic) PushBytes(b []byte) error { return s.InsertBytes(len(s.data), b) }

// Pop removes and returns the trailing byte. An empty identifier is not an
// error: Pop returns ok == false. A removal that would produce an illegal
// name fails with ErrInvalidName.
func (s *Semantic) Pop() (b byte, ok bool, err error) {
	if len(s.data) == 0 {
		return 0, false, nil
	}
	b, err = s.Remove(len(s.data) - 1)
	if err != nil {
		return 0, false, err
	}
	return b, true, nil
}

// Remove removes and returns the byte at idx. It fails with ErrInvalidName
// if the remaining content would be illegal; the identifier is unchanged on
// failure.
func (s *Semantic) Remove(idx int) (byte, error) {
	s.boundsCheck(idx, len(s.data)-1)
	b := s.data[idx]
	if err := s.RemoveRange(idx, 1); err != nil {
		return 0, err
	}
	return b, nil
}

// RemoveRange removes n bytes starting at idx. It fails with ErrInvalidName
// if the remaining content would be illegal; the identifier is unchanged on
// failure.
func (s *Semantic) RemoveRange(idx, n int) error {
	s.boundsCheck(idx, len(s.data))
	s.boundsCheck(idx+n, len(s.data))

	scratch := make([]byte, 0, s.rules.Capacity()+1)
	scratch = append(scratch, s.data[:idx]...)
	scratch = append(scratch, s.data[idx+n:]...)
	if s.rules.IsInvalidContent(scratch) {
		return fmt.Errorf("removing %d bytes at %d would produce an illegal name: %w",
			n, idx, ErrInvalidName)
	}

	s.data = scratch
	return nil
}

// Retain keeps only the bytes for which keep returns true. It fails with
// ErrInvalidName if the remaining content would be illegal; the identifier
// is unchanged on failure.
func (s *Semantic) Retain(keep func(byte) bool) error {
	scratch := make([]byte, 0, s.rules.Capacity()+1)
	for _, b := range s.data {
		if keep(b) {
			scratch = append(scratch, b)
		}
	}
	if s.rules.IsInvalidContent(scratch) {
		return fmt.Errorf("retain would produce an illegal name: %w", ErrInvalidName)
	}

	s.data = scratch
	return nil
}

// StripPrefix removes prefix from the front. A missing prefix is not an
// error: it returns (false, nil) and leaves the value unchanged. A removal
// that would produce an illegal name fails with ErrInvalidName.
func (s *Semantic) StripPrefix(prefix []byte) (bool, error) {
	if len(prefix) > len(s.data) || string(s.data[:len(prefix)]) != string(prefix) {
		return false, nil
	}

	scratch := make([]byte, 0, s.rules.Capacity()+1)
	scratch = append(scratch, s.data[len(prefix):]...)
	if s.rules.IsInvalidContent(scratch) {
		return false, fmt.Errorf("stripping prefix %q would produce an illegal name: %w",
			prefix, ErrInvalidName)
	}

	s.data = scratch
	return true, nil
}

// StripSuffix removes suffix from the end, with the same contract as
// StripPrefix.
func (s *Semantic) StripSuffix(suffix []byte) (bool, error) {
	if len(suffix) > len(s.data) || string(s.data[len(s.data)-len(suffix):]) != string(suffix) {
		return false, nil
	}

	scratch := make([]byte, 0, s.rules.Capacity()+1)
	scratch = append(scratch, s.data[:len(s.data)-len(suffix)]...)
	if s.rules.IsInvalidContent(scratch) {
		return false, fmt.Errorf("stripping suffix %q would produce an illegal name: %w",
			suffix, ErrInvalidName)
	}

	s.data = scratch
	return true, nil
}

// Truncate shortens the identifier to n bytes; truncating to the current
// length or beyond is a no-op. It fails with ErrInvalidName if the truncated
// content would be illegal; the identifier is unchanged on failure.
func (s *Semantic) Truncate(n int) error {
	if n < 0 {
		panic(fmt.Sprintf("names: negative truncation length %d", n))
	}
	if n >= len(s.data) {
		return nil
	}
	if s.rules.IsInvalidContent(s.data[:n]) {
		return fmt.Errorf("truncating to %d bytes would produce an illegal name: %w",
			n, ErrInvalidName)
	}

	s.data = s.data[:n]
	return nil
}
