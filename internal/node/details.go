package node

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/names"
)

// Registry entry files inside a node's directory.
const (
	// DetailsFile holds the node's details document.
	DetailsFile = "details.yaml"

	// LivenessFile is the flock-guarded liveness marker. The lock is held
	// for the whole lifetime of the owning node; a file whose lock can be
	// acquired belongs to a dead node.
	LivenessFile = "liveness"
)

// Details is the descriptive part of a node's registration: its
// human-readable name, the configuration domain it was created in and the
// process that owns it. Details exist only while the details document is
// readable; inaccessible or half-created nodes have none.
type Details struct {
	Name   names.NodeName
	Config config.Config
	Pid    int
}

// detailsDoc is the on-disk yaml shape of Details. The name travels as raw
// bytes and is re-validated on the way in.
type detailsDoc struct {
	Name   string        `yaml:"name"`
	Pid    int           `yaml:"pid"`
	Config config.Config `yaml:"config"`
}

// MarshalYAML implements yaml.Marshaler.
func (d Details) MarshalYAML() (any, error) {
	return detailsDoc{
		Name:   d.Name.String(),
		Pid:    d.Pid,
		Config: d.Config,
	}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Details) UnmarshalYAML(value *yaml.Node) error {
	var doc detailsDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	name, err := names.NewNodeName([]byte(doc.Name))
	if err != nil {
		return fmt.Errorf("node details carry an invalid name: %w", err)
	}
	d.Name = name
	d.Pid = doc.Pid
	d.Config = doc.Config
	return nil
}

// WriteDetails writes the details document to path with permissions that
// let every domain participant read it.
func WriteDetails(path string, d Details) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding node details: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: every domain participant reads the registry
		return fmt.Errorf("writing node details: %w", err)
	}
	return nil
}

// ReadDetails reads and validates a details document.
func ReadDetails(path string) (Details, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the validated domain config
	if err != nil {
		return Details{}, err
	}
	var d Details
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Details{}, fmt.Errorf("decoding node details: %w", err)
	}
	return d, nil
}
