// Package service implements named communication channels and the staged
// builder that creates them. A builder starts generic and is specialized
// exactly once into a messaging pattern; the backend it targets is a type
// parameter, so inter-process and intra-process builders can never mix.
package service

// Backend discriminates where a service's registry lives. It is sealed:
// the only implementations are InterProcess and IntraProcess, and generic
// service code is instantiated per backend rather than branching at run
// time on foreign values.
type Backend interface {
	isBackend()

	// BackendName returns the short discriminant used in logs and static
	// config documents.
	BackendName() string
}

// InterProcess services register on the file system and are visible to
// every process sharing the configuration domain.
type InterProcess struct{}

func (InterProcess) isBackend() {}

// BackendName implements Backend.
func (InterProcess) BackendName() string { return "ipc" }

// IntraProcess services register in process-local memory and are visible
// only within the creating process.
type IntraProcess struct{}

func (IntraProcess) isBackend() {}

// BackendName implements Backend.
func (IntraProcess) BackendName() string { return "local" }

// backendOf returns the value of the backend type parameter.
func backendOf[B Backend]() Backend {
	var b B
	return b
}
