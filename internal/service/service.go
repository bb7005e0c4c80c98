package service

import (
	"errors"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/log"
	"github.com/memlink-ipc/memlink/internal/names"
)

// Service is a handle to an acquired service. The type parameter pins the
// backend so inter- and intra-process handles cannot be mixed up.
type Service[B Backend] struct {
	static StaticConfig
	st     store
}

// Name returns the service name.
func (s *Service[B]) Name() string { return s.static.Name }

// ID returns the stable registry ID derived from the name.
func (s *Service[B]) ID() string { return s.static.ServiceID }

// Pattern returns the service's messaging pattern.
func (s *Service[B]) Pattern() MessagingPattern { return s.static.Pattern }

// Attributes returns the attributes fixed at creation.
func (s *Service[B]) Attributes() Attributes { return s.static.Attributes }

// StaticConfig returns the full registered description of the service.
func (s *Service[B]) StaticConfig() StaticConfig { return s.static }

// Remove deletes the service's registration from the domain. Handles held
// by other participants keep working against their copy of the static
// config; removal only stops new opens.
func (s *Service[B]) Remove() error {
	if err := s.st.remove(s.static.ServiceID); err != nil {
		return err
	}
	log.Debug(log.CatService, "service removed", "name", s.static.Name)
	return nil
}

// Exists reports whether a service with the given name is registered for
// backend B in the domain.
func Exists[B Backend](cfg config.Config, name names.ServiceName) (bool, error) {
	_, err := storeFor[B](cfg).read(IDFor(name))
	if err != nil {
		if errors.Is(err, ErrDoesNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Details returns the static config of a registered service without
// opening it.
func Details[B Backend](cfg config.Config, name names.ServiceName) (StaticConfig, error) {
	return storeFor[B](cfg).read(IDFor(name))
}

// List enumerates every service registered for backend B in the domain.
func List[B Backend](cfg config.Config) ([]StaticConfig, error) {
	return storeFor[B](cfg).list()
}
