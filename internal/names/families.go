package names

import "bytes"

// Family capacities. Names cross the process boundary embedded in
// fixed-capacity shared-memory records, so these are part of the on-disk and
// in-memory contract and must not shrink.
const (
	ServiceNameCapacity = 255
	NodeNameCapacity    = 128
	FileNameCapacity    = 255
	PathNameCapacity    = 1024
)

// isPortableFileByte reports whether b belongs to the portable file name
// character set shared by the file and path families.
func isPortableFileByte(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return true
	case b == '-', b == '_', b == '.':
		return true
	default:
		return false
	}
}

// isControlByte reports ASCII control characters, which no family accepts.
func isControlByte(b byte) bool { return b < 0x20 || b == 0x7f }

func identity(b []byte) []byte { return b }

// ServiceName names a communication channel. Any printable UTF-8 is allowed;
// the empty name is not.
type ServiceName struct{ Semantic }

type serviceNameRules struct{}

func (serviceNameRules) Capacity() int { return ServiceNameCapacity }

func (serviceNameRules) HasInvalidCharacters(b []byte) bool {
	for _, c := range b {
		if isControlByte(c) {
			return true
		}
	}
	return false
}

func (serviceNameRules) IsInvalidContent(b []byte) bool { return len(b) == 0 }

func (serviceNameRules) Normalize(b []byte) []byte { return identity(b) }

// NewServiceName validates b and returns it as a service name.
func NewServiceName(b []byte) (ServiceName, error) {
	s, err := New(serviceNameRules{}, b)
	if err != nil {
		return ServiceName{}, err
	}
	return ServiceName{s}, nil
}

// ServiceNameUnchecked wraps already-validated bytes. See NewUnchecked.
func ServiceNameUnchecked(b []byte) ServiceName {
	return ServiceName{NewUnchecked(serviceNameRules{}, b)}
}

// NodeName labels a node for humans. Any printable UTF-8 including the empty
// string is allowed; nodes are identified by their ID, not their name.
type NodeName struct{ Semantic }

type nodeNameRules struct{}

func (nodeNameRules) Capacity() int { return NodeNameCapacity }

func (nodeNameRules) HasInvalidCharacters(b []byte) bool {
	for _, c := range b {
		if isControlByte(c) {
			return true
		}
	}
	return false
}

func (nodeNameRules) IsInvalidContent([]byte) bool { return false }

func (nodeNameRules) Normalize(b []byte) []byte { return identity(b) }

// NewNodeName validates b and returns it as a node name.
func NewNodeName(b []byte) (NodeName, error) {
	s, err := New(nodeNameRules{}, b)
	if err != nil {
		return NodeName{}, err
	}
	return NodeName{s}, nil
}

// NodeNameUnchecked wraps already-validated bytes. See NewUnchecked.
func NodeNameUnchecked(b []byte) NodeName {
	return NodeName{NewUnchecked(nodeNameRules{}, b)}
}

// FileName names a single registry entry on disk: portable file name
// characters only, never empty and never the "." or ".." directory links.
type FileName struct{ Semantic }

type fileNameRules struct{}

func (fileNameRules) Capacity() int { return FileNameCapacity }

func (fileNameRules) HasInvalidCharacters(b []byte) bool {
	for _, c := range b {
		if !isPortableFileByte(c) {
			return true
		}
	}
	return false
}

func (fileNameRules) IsInvalidContent(b []byte) bool {
	switch string(b) {
	case "", ".", "..":
		return true
	}
	return false
}

func (fileNameRules) Normalize(b []byte) []byte { return identity(b) }

// NewFileName validates b and returns it as a file name.
func NewFileName(b []byte) (FileName, error) {
	s, err := New(fileNameRules{}, b)
	if err != nil {
		return FileName{}, err
	}
	return FileName{s}, nil
}

// FileNameUnchecked wraps already-validated bytes. See NewUnchecked.
func FileNameUnchecked(b []byte) FileName {
	return FileName{NewUnchecked(fileNameRules{}, b)}
}

// PathName names a registry location: '/'-separated file name components,
// optionally rooted. Empty paths, empty components and "."/".." components
// are illegal. Normalization strips redundant trailing separators, so
// "/tmp/memlink" and "/tmp/memlink/" compare equal.
type PathName struct{ Semantic }

type pathNameRules struct{}

func (pathNameRules) Capacity() int { return PathNameCapacity }

func (pathNameRules) HasInvalidCharacters(b []byte) bool {
	for _, c := range b {
		if c != '/' && !isPortableFileByte(c) {
			return true
		}
	}
	return false
}

func (pathNameRules) IsInvalidContent(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	rest := b
	if rest[0] == '/' {
		rest = rest[1:]
	}
	// A bare root "/" is a valid path.
	if len(rest) == 0 {
		return len(b) == 0
	}
	if rest[len(rest)-1] == '/' {
		rest = rest[:len(rest)-1]
	}
	for _, comp := range bytes.Split(rest, []byte("/")) {
		switch string(comp) {
		case "", ".", "..":
			return true
		}
	}
	return false
}

func (pathNameRules) Normalize(b []byte) []byte {
	for len(b) > 1 && b[len(b)-1] == '/' {
		b = b[:len(b)-1]
	}
	return b
}

// NewPathName validates b and returns it as a path name.
func NewPathName(b []byte) (PathName, error) {
	s, err := New(pathNameRules{}, b)
	if err != nil {
		return PathName{}, err
	}
	return PathName{s}, nil
}

// PathNameUnchecked wraps already-validated bytes. See NewUnchecked.
func PathNameUnchecked(b []byte) PathName {
	return PathName{NewUnchecked(pathNameRules{}, b)}
}

// Join appends a file name component to the path, inserting the separator
// when needed. It fails with ErrExceedsMaximumLength if the result would not
// fit; the path is unchanged on failure.
func (p *PathName) Join(f FileName) error {
	component := f.Bytes()
	if !p.IsEmpty() && p.Bytes()[p.Len()-1] != '/' {
		component = append([]byte("/"), component...)
	}
	return p.PushBytes(component)
}
