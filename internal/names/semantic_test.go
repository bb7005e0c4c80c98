package names

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// trimRules is the engine test family: capacity 8, letters, digits and
// spaces, must not be empty after trimming spaces, normalizes by folding to
// lower case.
type trimRules struct{}

func (trimRules) Capacity() int { return 8 }

func (trimRules) HasInvalidCharacters(b []byte) bool {
	for _, c := range b {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == ' ':
		default:
			return true
		}
	}
	return false
}

func (trimRules) IsInvalidContent(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0
}

func (trimRules) Normalize(b []byte) []byte { return bytes.ToLower(b) }

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "simple value", input: "ab"},
		{name: "at capacity", input: "12345678"},
		{name: "mixed case", input: "AbC 12"},
		{name: "exceeds capacity", input: "123456789", wantErr: ErrExceedsMaximumLength},
		{name: "invalid character", input: "ab#c", wantErr: ErrInvalidCharacter},
		{name: "invalid utf8", input: "ab\xffc", wantErr: ErrInvalidCharacter},
		{name: "empty", input: "", wantErr: ErrInvalidName},
		{name: "only spaces", input: "   ", wantErr: ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(trimRules{}, []byte(tt.input))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, []byte(tt.input), s.Bytes())
			require.Equal(t, len(tt.input), s.Len())
		})
	}
}

func TestSemantic_Accessors(t *testing.T) {
	s, err := New(trimRules{}, []byte("ab"))
	require.NoError(t, err)

	require.Equal(t, 8, s.Capacity())
	require.False(t, s.IsEmpty())
	require.False(t, s.IsFull())
	require.Equal(t, "ab", s.String())

	full, err := New(trimRules{}, []byte("abcdefgh"))
	require.NoError(t, err)
	require.True(t, full.IsFull())
}

func TestSemantic_Terminated(t *testing.T) {
	s, err := New(trimRules{}, []byte("abc"))
	require.NoError(t, err)

	term := s.Terminated()
	require.Equal(t, []byte{'a', 'b', 'c', 0}, term)
	// Content length is unaffected by the exported terminator.
	require.Equal(t, 3, s.Len())
}

func TestSemantic_InsertBytes(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		idx     int
		insert  string
		want    string
		wantErr error
	}{
		{name: "append", start: "ab", idx: 2, insert: "cd", want: "abcd"},
		{name: "prepend", start: "ab", idx: 0, insert: "xy", want: "xyab"},
		{name: "middle", start: "ab", idx: 1, insert: "Z", want: "aZb"},
		{name: "invalid character", start: "ab", idx: 0, insert: "a/b", wantErr: ErrInvalidCharacter},
		{name: "capacity exceeded", start: "abcdef", idx: 0, insert: "ghi", wantErr: ErrExceedsMaximumLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(trimRules{}, []byte(tt.start))
			require.NoError(t, err)

			err = s.InsertBytes(tt.idx, []byte(tt.insert))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, []byte(tt.start), s.Bytes())
				return
			}
			require.NoError(t, err)
			require.Equal(t, []byte(tt.want), s.Bytes())
		})
	}
}

func TestSemantic_RemoveLeavesValueOnContentViolation(t *testing.T) {
	s, err := New(trimRules{}, []byte("a"))
	require.NoError(t, err)

	// Removing the only letter would leave an empty (illegal) name.
	_, err = s.Remove(0)
	require.ErrorIs(t, err, ErrInvalidName)
	require.Equal(t, []byte("a"), s.Bytes())
}

func TestSemantic_RemoveRange(t *testing.T) {
	s, err := New(trimRules{}, []byte("abcdef"))
	require.NoError(t, err)

	require.NoError(t, s.RemoveRange(1, 3))
	require.Equal(t, []byte("aef"), s.Bytes())

	// Removing everything violates the content rule and rolls back.
	err = s.RemoveRange(0, 3)
	require.ErrorIs(t, err, ErrInvalidName)
	require.Equal(t, []byte("aef"), s.Bytes())
}

func TestSemantic_Retain(t *testing.T) {
	s, err := New(trimRules{}, []byte("a1b2c3"))
	require.NoError(t, err)

	require.NoError(t, s.Retain(func(b byte) bool { return b >= 'a' && b <= 'z' }))
	require.Equal(t, []byte("abc"), s.Bytes())

	err = s.Retain(func(byte) bool { return false })
	require.ErrorIs(t, err, ErrInvalidName)
	require.Equal(t, []byte("abc"), s.Bytes())
}

func TestSemantic_StripPrefixSuffix(t *testing.T) {
	s, err := New(trimRules{}, []byte("prefix1"))
	require.NoError(t, err)

	// Absent prefix is a non-match, not an error.
	matched, err := s.StripPrefix([]byte("nope"))
	require.NoError(t, err)
	require.False(t, matched)
	require.Equal(t, []byte("prefix1"), s.Bytes())

	matched, err = s.StripPrefix([]byte("pre"))
	require.NoError(t, err)
	require.True(t, matched)
	require.Equal(t, []byte("fix1"), s.Bytes())

	matched, err = s.StripSuffix([]byte("x1"))
	require.NoError(t, err)
	require.True(t, matched)
	require.Equal(t, []byte("fi"), s.Bytes())

	matched, err = s.StripSuffix([]byte("zz"))
	require.NoError(t, err)
	require.False(t, matched)

	// Stripping the whole content would be illegal and rolls back.
	matched, err = s.StripSuffix([]byte("fi"))
	require.ErrorIs(t, err, ErrInvalidName)
	require.False(t, matched)
	require.Equal(t, []byte("fi"), s.Bytes())
}

func TestSemantic_Truncate(t *testing.T) {
	s, err := New(trimRules{}, []byte("abcdef"))
	require.NoError(t, err)

	require.NoError(t, s.Truncate(3))
	require.Equal(t, []byte("abc"), s.Bytes())

	// Truncating beyond the current length is a no-op.
	require.NoError(t, s.Truncate(10))
	require.Equal(t, []byte("abc"), s.Bytes())

	err = s.Truncate(0)
	require.ErrorIs(t, err, ErrInvalidName)
	require.Equal(t, []byte("abc"), s.Bytes())
}

func TestSemantic_Pop(t *testing.T) {
	s, err := New(trimRules{}, []byte("ab"))
	require.NoError(t, err)

	b, ok, err := s.Pop()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byte('b'), b)

	// Popping the last byte would leave an illegal empty name.
	_, _, err = s.Pop()
	require.ErrorIs(t, err, ErrInvalidName)
	require.Equal(t, []byte("a"), s.Bytes())

	empty := NewUnchecked(trimRules{}, nil)
	_, ok, err = empty.Pop()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSemantic_EqualityRoutesThroughNormalization(t *testing.T) {
	a, err := New(trimRules{}, []byte("NoDe"))
	require.NoError(t, err)
	b, err := New(trimRules{}, []byte("node"))
	require.NoError(t, err)
	c, err := New(trimRules{}, []byte("other"))
	require.NoError(t, err)

	require.True(t, a.Equal(b))
	require.Equal(t, a.Hash(), b.Hash())
	require.Equal(t, a.Key(), b.Key())
	require.False(t, a.Equal(c))
}

func TestSemantic_NewUnchecked(t *testing.T) {
	// Unchecked construction accepts content the validating path rejects.
	s := NewUnchecked(trimRules{}, []byte("   "))
	require.Equal(t, []byte("   "), s.Bytes())

	// Even over-capacity input must not corrupt the terminator region.
	long := bytes.Repeat([]byte("x"), 20)
	s = NewUnchecked(trimRules{}, long)
	require.Equal(t, long, s.Bytes())
	require.Equal(t, byte(0), s.Terminated()[20])
}

// validTrimInput draws byte strings that the trim family accepts.
func validTrimInput() *rapid.Generator[[]byte] {
	return rapid.Custom(func(t *rapid.T) []byte {
		head := rapid.SampledFrom([]byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")).Draw(t, "head")
		tail := rapid.SliceOfN(
			rapid.SampledFrom([]byte("abcXYZ019 ")), 0, 7).Draw(t, "tail")
		return append([]byte{head}, tail...)
	})
}

func TestSemantic_ValidInputRoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := validTrimInput().Draw(t, "in")

		s, err := New(trimRules{}, in)
		if err != nil {
			t.Fatalf("valid input rejected: %v", err)
		}
		if !bytes.Equal(s.Bytes(), in) {
			t.Fatalf("content %q does not round-trip input %q", s.Bytes(), in)
		}
	})
}

func TestSemantic_NormalizeIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := validTrimInput().Draw(t, "in")

		s, err := New(trimRules{}, in)
		if err != nil {
			t.Fatalf("valid input rejected: %v", err)
		}
		once := s.Normalize()
		twice := once.Normalize()
		if !bytes.Equal(once.Bytes(), twice.Bytes()) {
			t.Fatalf("normalize not idempotent: %q != %q", once.Bytes(), twice.Bytes())
		}
	})
}

func TestSemantic_InsertionAtomicity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := validTrimInput().Draw(t, "in")
		s, err := New(trimRules{}, in)
		if err != nil {
			t.Fatalf("valid input rejected: %v", err)
		}
		before := s.Bytes()

		idx := rapid.IntRange(0, s.Len()).Draw(t, "idx")
		insert := rapid.SliceOfN(rapid.Byte(), 1, 12).Draw(t, "insert")

		if err := s.InsertBytes(idx, insert); err != nil {
			if !bytes.Equal(before, s.Bytes()) {
				t.Fatalf("failed insert mutated value: %q -> %q", before, s.Bytes())
			}
		}
	})
}

func TestSemantic_EqualImpliesEqualHash(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := validTrimInput().Draw(t, "in")

		a, err := New(trimRules{}, in)
		if err != nil {
			t.Fatalf("valid input rejected: %v", err)
		}
		b, err := New(trimRules{}, bytes.ToUpper(in))
		if err != nil {
			t.Fatalf("upper-cased input rejected: %v", err)
		}

		if !a.Equal(b) {
			t.Fatalf("case variants %q and %q not equal", a.Bytes(), b.Bytes())
		}
		if a.Hash() != b.Hash() {
			t.Fatalf("equal values hash differently")
		}
	})
}
