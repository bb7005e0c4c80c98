// Package abi is the foreign boundary of memlink: it maps the library's
// error values to stable integer codes and parks Go values behind opaque
// handles so callers outside the Go world can hold and consume them.
package abi

import (
	"errors"

	"github.com/memlink-ipc/memlink/internal/discovery"
	"github.com/memlink-ipc/memlink/internal/names"
	"github.com/memlink-ipc/memlink/internal/service"
)

// Code is a stable integer error code. The manifest below is additive:
// codes are never renumbered or reused, so a foreign caller compiled
// against an older manifest keeps decoding newer libraries correctly.
type Code int32

const (
	CodeOK Code = 0

	// Identifier engine.
	CodeInvalidCharacter     Code = 1
	CodeExceedsMaximumLength Code = 2
	CodeInvalidName          Code = 3

	// Registry scanner.
	CodeInsufficientPermissions Code = 10
	CodeInterrupt               Code = 11
	CodeInternalError           Code = 12

	// Service registry.
	CodeServiceAlreadyExists         Code = 20
	CodeServiceDoesNotExist          Code = 21
	CodeIncompatibleMessagingPattern Code = 22
	CodeIncompatibleTypes            Code = 23
	CodeIncompatibleAttributes       Code = 24

	// Anything not covered by the manifest.
	CodeUnknown Code = 1000
)

// codeTable pairs each sentinel with its manifest constant. Order matters
// only for documentation; matching goes through errors.Is.
var codeTable = []struct {
	err  error
	code Code
}{
	{names.ErrInvalidCharacter, CodeInvalidCharacter},
	{names.ErrExceedsMaximumLength, CodeExceedsMaximumLength},
	{names.ErrInvalidName, CodeInvalidName},
	{discovery.ErrInsufficientPermissions, CodeInsufficientPermissions},
	{discovery.ErrInterrupt, CodeInterrupt},
	{discovery.ErrInternalError, CodeInternalError},
	{service.ErrAlreadyExists, CodeServiceAlreadyExists},
	{service.ErrDoesNotExist, CodeServiceDoesNotExist},
	{service.ErrIncompatibleMessagingPattern, CodeIncompatibleMessagingPattern},
	{service.ErrIncompatibleTypes, CodeIncompatibleTypes},
	{service.ErrIncompatibleAttributes, CodeIncompatibleAttributes},
}

// CodeOf maps an error to its manifest code. Wrapped errors resolve to the
// sentinel they carry; nil maps to CodeOK and unrecognized errors to
// CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	for _, entry := range codeTable {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeUnknown
}

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidCharacter:
		return "invalid_character"
	case CodeExceedsMaximumLength:
		return "exceeds_maximum_length"
	case CodeInvalidName:
		return "invalid_name"
	case CodeInsufficientPermissions:
		return "insufficient_permissions"
	case CodeInterrupt:
		return "interrupt"
	case CodeInternalError:
		return "internal_error"
	case CodeServiceAlreadyExists:
		return "service_already_exists"
	case CodeServiceDoesNotExist:
		return "service_does_not_exist"
	case CodeIncompatibleMessagingPattern:
		return "incompatible_messaging_pattern"
	case CodeIncompatibleTypes:
		return "incompatible_types"
	case CodeIncompatibleAttributes:
		return "incompatible_attributes"
	default:
		return "unknown"
	}
}
