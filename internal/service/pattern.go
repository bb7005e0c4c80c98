package service

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MessagingPattern identifies the communication pattern a service was
// created with. It is fixed at specialization time and persisted in the
// static config.
type MessagingPattern int

const (
	// PatternEvent is fire-and-forget notification between notifiers and
	// listeners.
	PatternEvent MessagingPattern = iota

	// PatternPublishSubscribe is typed sample delivery from publishers to
	// subscribers.
	PatternPublishSubscribe
)

func (p MessagingPattern) String() string {
	switch p {
	case PatternEvent:
		return "event"
	case PatternPublishSubscribe:
		return "publish-subscribe"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// MarshalYAML persists the pattern by name; the numeric values are not part
// of the on-disk contract.
func (p MessagingPattern) MarshalYAML() (any, error) {
	switch p {
	case PatternEvent, PatternPublishSubscribe:
		return p.String(), nil
	default:
		return nil, fmt.Errorf("cannot persist unknown messaging pattern %d", int(p))
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *MessagingPattern) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch raw {
	case "event":
		*p = PatternEvent
	case "publish-subscribe":
		*p = PatternPublishSubscribe
	default:
		return fmt.Errorf("unknown messaging pattern %q", raw)
	}
	return nil
}
