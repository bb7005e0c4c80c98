package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/names"
)

// Service lookup and compatibility errors.
var (
	// ErrAlreadyExists reports a create for a service name that is already
	// registered in the domain.
	ErrAlreadyExists = errors.New("service already exists")

	// ErrDoesNotExist reports an open for a service name with no
	// registration in the domain.
	ErrDoesNotExist = errors.New("service does not exist")

	// ErrIncompatibleMessagingPattern reports an open whose pattern does
	// not match the existing service.
	ErrIncompatibleMessagingPattern = errors.New("service has an incompatible messaging pattern")

	// ErrIncompatibleTypes reports an open whose payload or user-header
	// layout does not match the existing service.
	ErrIncompatibleTypes = errors.New("service has incompatible type details")

	// ErrIncompatibleAttributes reports an open whose attribute
	// requirements the existing service does not satisfy.
	ErrIncompatibleAttributes = errors.New("service has incompatible attributes")
)

// serviceNamespace seeds the deterministic service ID derivation. It must
// never change: every process in a domain derives the same ID for the same
// service name.
var serviceNamespace = uuid.MustParse("c1a63f24-88a1-49b5-9f0a-1d3e6d6f5ab0")

// IDFor derives the stable registry ID for a service name. IDs are derived
// from the normalized name, so representations that compare equal share a
// registration.
func IDFor(name names.ServiceName) string {
	return uuid.NewSHA1(serviceNamespace, []byte(name.Key())).String()
}

// EventConfig holds the pattern-specific limits of an event service.
type EventConfig struct {
	MaxNotifiers int    `yaml:"max_notifiers"`
	MaxListeners int    `yaml:"max_listeners"`
	EventIDMax   uint64 `yaml:"event_id_max"`
}

// PubSubConfig holds the pattern-specific limits and type contract of a
// publish-subscribe service.
type PubSubConfig struct {
	MaxPublishers           int        `yaml:"max_publishers"`
	MaxSubscribers          int        `yaml:"max_subscribers"`
	HistorySize             int        `yaml:"history_size"`
	SubscriberMaxBufferSize int        `yaml:"subscriber_max_buffer_size"`
	Payload                 TypeDetail `yaml:"payload"`
	UserHeader              TypeDetail `yaml:"user_header,omitempty"`
}

// StaticConfig is everything about a service that never changes during its
// lifetime. It is the document persisted in the domain's service registry.
type StaticConfig struct {
	ServiceID  string           `yaml:"service_id"`
	Name       string           `yaml:"name"`
	Backend    string           `yaml:"backend"`
	Pattern    MessagingPattern `yaml:"messaging_pattern"`
	Attributes Attributes       `yaml:"attributes,omitempty"`
	Event      *EventConfig     `yaml:"event,omitempty"`
	PubSub     *PubSubConfig    `yaml:"publish_subscribe,omitempty"`
}

// staticPath returns the registry file for a service ID.
func staticPath(cfg config.Config, serviceID string) string {
	return filepath.Join(cfg.ServiceDir(), serviceID+".yaml")
}

// writeStatic persists the static config, failing with ErrAlreadyExists if
// the service is already registered.
func writeStatic(cfg config.Config, sc StaticConfig) error {
	if err := os.MkdirAll(cfg.ServiceDir(), 0o755); err != nil {
		return fmt.Errorf("creating service directory: %w", err)
	}

	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encoding static config: %w", err)
	}

	f, err := os.OpenFile(staticPath(cfg, sc.ServiceID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("service %q: %w", sc.Name, ErrAlreadyExists)
		}
		return fmt.Errorf("creating static config: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing static config: %w", err)
	}
	return nil
}

// readStatic loads the static config for a service ID, failing with
// ErrDoesNotExist if the service is not registered.
func readStatic(cfg config.Config, serviceID string) (StaticConfig, error) {
	data, err := os.ReadFile(staticPath(cfg, serviceID))
	if err != nil {
		if os.IsNotExist(err) {
			return StaticConfig{}, ErrDoesNotExist
		}
		return StaticConfig{}, fmt.Errorf("reading static config: %w", err)
	}

	var sc StaticConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return StaticConfig{}, fmt.Errorf("decoding static config: %w", err)
	}
	return sc, nil
}

// removeStatic deletes a service's registration. Missing files are fine;
// another participant may have removed the service first.
func removeStatic(cfg config.Config, serviceID string) error {
	if err := os.Remove(staticPath(cfg, serviceID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing static config: %w", err)
	}
	return nil
}

// ListStatic enumerates every service registered in the domain. Documents
// that cannot be read or parsed are skipped: a service being created or
// torn down concurrently is not an enumeration error.
func ListStatic(cfg config.Config) ([]StaticConfig, error) {
	entries, err := os.ReadDir(cfg.ServiceDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing service directory: %w", err)
	}

	var out []StaticConfig
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		sc, err := readStatic(cfg, strings.TrimSuffix(entry.Name(), ".yaml"))
		if err != nil {
			continue
		}
		out = append(out, sc)
	}
	return out, nil
}
