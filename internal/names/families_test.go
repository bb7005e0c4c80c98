package names

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewServiceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "plain", input: "telemetry/front-camera"},
		{name: "spaces allowed", input: "My Funky Service"},
		{name: "unicode allowed", input: "Fuß-Service"},
		{name: "at capacity", input: strings.Repeat("a", ServiceNameCapacity)},
		{name: "too long", input: strings.Repeat("a", ServiceNameCapacity+1), wantErr: ErrExceedsMaximumLength},
		{name: "empty", input: "", wantErr: ErrInvalidName},
		{name: "control character", input: "a\nb", wantErr: ErrInvalidCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sn, err := NewServiceName([]byte(tt.input))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.input, sn.String())
		})
	}
}

func TestNewNodeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "plain", input: "hypnotoad"},
		{name: "empty is allowed", input: ""},
		{name: "at capacity", input: strings.Repeat("n", NodeNameCapacity)},
		{name: "too long", input: strings.Repeat("n", NodeNameCapacity+1), wantErr: ErrExceedsMaximumLength},
		{name: "control character", input: "a\x00b", wantErr: ErrInvalidCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nn, err := NewNodeName([]byte(tt.input))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.input, nn.String())
		})
	}
}

func TestNewFileName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "plain", input: "node_details.yaml"},
		{name: "uuid shaped", input: "1b4e28ba-2fa1-11d2-883f-0016d3cca427"},
		{name: "dot file", input: ".memlink"},
		{name: "separator rejected", input: "a/b", wantErr: ErrInvalidCharacter},
		{name: "space rejected", input: "a b", wantErr: ErrInvalidCharacter},
		{name: "empty", input: "", wantErr: ErrInvalidName},
		{name: "current dir", input: ".", wantErr: ErrInvalidName},
		{name: "parent dir", input: "..", wantErr: ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := NewFileName([]byte(tt.input))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.input, fn.String())
		})
	}
}

func TestNewPathName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "absolute", input: "/tmp/memlink"},
		{name: "relative", input: "memlink/nodes"},
		{name: "root", input: "/"},
		{name: "trailing separator", input: "/tmp/memlink/"},
		{name: "empty", input: "", wantErr: ErrInvalidName},
		{name: "double separator", input: "/tmp//memlink", wantErr: ErrInvalidName},
		{name: "parent component", input: "/tmp/../etc", wantErr: ErrInvalidName},
		{name: "space rejected", input: "/tmp/a b", wantErr: ErrInvalidCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pn, err := NewPathName([]byte(tt.input))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.input, pn.String())
		})
	}
}

func TestPathName_NormalizeStripsTrailingSeparator(t *testing.T) {
	a, err := NewPathName([]byte("/tmp/memlink"))
	require.NoError(t, err)
	b, err := NewPathName([]byte("/tmp/memlink/"))
	require.NoError(t, err)

	require.True(t, a.Equal(b.Semantic))
	require.Equal(t, a.Hash(), b.Hash())
	require.Equal(t, "/tmp/memlink", b.Key())

	// The root path keeps its single separator.
	root, err := NewPathName([]byte("/"))
	require.NoError(t, err)
	require.Equal(t, "/", root.Key())
}

func TestPathName_Join(t *testing.T) {
	p, err := NewPathName([]byte("/tmp/memlink"))
	require.NoError(t, err)
	f, err := NewFileName([]byte("nodes"))
	require.NoError(t, err)

	require.NoError(t, p.Join(f))
	require.Equal(t, "/tmp/memlink/nodes", p.String())

	// Joining beyond capacity fails and leaves the path unchanged.
	long, err := NewFileName([]byte(strings.Repeat("x", FileNameCapacity)))
	require.NoError(t, err)
	before := p.String()
	for {
		if err := p.Join(long); err != nil {
			require.ErrorIs(t, err, ErrExceedsMaximumLength)
			require.Equal(t, before, p.String())
			break
		}
		before = p.String()
	}
}
