package service

import (
	"fmt"
	"sync"

	"github.com/memlink-ipc/memlink/internal/config"
)

// store abstracts where static configs live. The inter-process backend keeps
// them in the domain's service directory; the intra-process backend keeps
// them in process memory only.
type store interface {
	create(sc StaticConfig) error
	read(serviceID string) (StaticConfig, error)
	remove(serviceID string) error
	list() ([]StaticConfig, error)
}

type fsStore struct {
	cfg config.Config
}

func (s fsStore) create(sc StaticConfig) error         { return writeStatic(s.cfg, sc) }
func (s fsStore) read(id string) (StaticConfig, error) { return readStatic(s.cfg, id) }
func (s fsStore) remove(id string) error               { return removeStatic(s.cfg, id) }
func (s fsStore) list() ([]StaticConfig, error)        { return ListStatic(s.cfg) }

// memStore backs intra-process services. It is shared process-wide so that
// two local nodes in the same process see each other's services, mirroring
// how two processes share the filesystem registry.
type memStore struct {
	mu   sync.RWMutex
	docs map[string]StaticConfig
}

var defaultMemStore = &memStore{docs: make(map[string]StaticConfig)}

func (s *memStore) create(sc StaticConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[sc.ServiceID]; ok {
		return fmt.Errorf("service %q: %w", sc.Name, ErrAlreadyExists)
	}
	s.docs[sc.ServiceID] = sc
	return nil
}

func (s *memStore) read(id string) (StaticConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.docs[id]
	if !ok {
		return StaticConfig{}, ErrDoesNotExist
	}
	return sc, nil
}

func (s *memStore) remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *memStore) list() ([]StaticConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StaticConfig, 0, len(s.docs))
	for _, sc := range s.docs {
		out = append(out, sc)
	}
	return out, nil
}

// storeFor selects the registry store for a backend.
func storeFor[B Backend](cfg config.Config) store {
	switch backendOf[B]().(type) {
	case InterProcess:
		return fsStore{cfg: cfg}
	default:
		return defaultMemStore
	}
}
