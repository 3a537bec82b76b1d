package eepman

import (
	"errors"
	"fmt"

	"github.com/eepman/eepman/pkg/eepjson"
	"github.com/eepman/eepman/pkg/quorum"
	"github.com/eepman/eepman/pkg/replica"
)

// Kind classifies the outcome of a Store operation, following spec.md §7's
// error taxonomy. Each Kind maps to a stable negative integer, matching the
// CLI's process exit code (see cmd/eepman).
type Kind int

// Kind values. KindSuccess is zero so a zero Error is never mistaken for a
// real failure; every other Kind is negative, per spec.md §7/§6 ("negative
// typed codes for engine errors").
const (
	KindSuccess Kind = 0
	KindErrno   Kind = -1

	KindNoGoodDevices    Kind = -2
	KindMetadataBadMagic Kind = -3
	KindChecksumFailed   Kind = -4

	KindJSONParseFail     Kind = -5
	KindJSONRootNotObject Kind = -6
	KindJSONError         Kind = -7
	KindJSONKeyNotFound   Kind = -8
	KindJSONKeyNotString  Kind = -9

	KindWriteJSONTooLong  Kind = -10
	KindWriteVerifyFailed Kind = -11
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindErrno:
		return "errno"
	case KindNoGoodDevices:
		return "no_good_devices"
	case KindMetadataBadMagic:
		return "metadata_bad_magic"
	case KindChecksumFailed:
		return "checksum_failed"
	case KindJSONParseFail:
		return "json_parse_fail"
	case KindJSONRootNotObject:
		return "json_root_not_object"
	case KindJSONError:
		return "json_error"
	case KindJSONKeyNotFound:
		return "json_key_not_found"
	case KindJSONKeyNotString:
		return "json_key_not_string"
	case KindWriteJSONTooLong:
		return "write_json_too_long"
	case KindWriteVerifyFailed:
		return "write_verify_failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the concrete error type every Store method returns on failure.
// Code() is the stable taxonomy value the CLI surfaces as its process exit
// code (spec.md §6).
type Error struct {
	Kind  Kind
	Cause error // underlying errno/*os.PathError/wrapped internal error, if any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("eepman: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("eepman: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Code returns e's stable negative integer taxonomy value.
func (e *Error) Code() int { return int(e.Kind) }

// Sentinel errors, one per non-success Kind, so library callers can
// classify failures with errors.Is instead of switching on Code(). Each
// carries no Cause; errors returned by Store methods are built by newError
// with the same Kind, so errors.Is still matches through (*Error).Is, while
// Code()/Unwrap() expose the underlying detail.
var (
	ErrNoGoodDevices     = &Error{Kind: KindNoGoodDevices}
	ErrMetadataBadMagic  = &Error{Kind: KindMetadataBadMagic}
	ErrChecksumFailed    = &Error{Kind: KindChecksumFailed}
	ErrJSONParseFail     = &Error{Kind: KindJSONParseFail}
	ErrJSONRootNotObject = &Error{Kind: KindJSONRootNotObject}
	ErrJSONError         = &Error{Kind: KindJSONError}
	ErrKeyNotFound       = &Error{Kind: KindJSONKeyNotFound}
	ErrKeyNotString      = &Error{Kind: KindJSONKeyNotString}
	ErrTooLong           = &Error{Kind: KindWriteJSONTooLong}
	ErrWriteVerifyFailed = &Error{Kind: KindWriteVerifyFailed}
)

// Is lets errors.Is(err, eepman.ErrNoGoodDevices) (and friends) succeed
// against any *Error of the same Kind, regardless of Cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// classify maps an internal package error into the spec.md §7 taxonomy.
// Internal packages (blockio, footer, replica, lockmgr, quorum, repair)
// keep their own sentinels; pkg/eepman is the only layer that performs
// this translation, mirroring how the teacher's root package translates
// internal/fs errors into ticket-domain errors.
func classify(err error) *Error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, quorum.ErrNoGoodDevices):
		return newError(KindNoGoodDevices, err)
	case errors.Is(err, eepjson.ErrParseFail):
		return newError(KindJSONParseFail, err)
	case errors.Is(err, eepjson.ErrRootNotObject):
		return newError(KindJSONRootNotObject, err)
	case errors.Is(err, eepjson.ErrValueNotString):
		return newError(KindJSONKeyNotString, err)
	case errors.Is(err, replica.ErrDocumentTooLarge):
		return newError(KindWriteJSONTooLong, err)
	default:
		return newError(KindErrno, err)
	}
}
