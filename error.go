package ping

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvable is matched by every *DNSError.
	ErrUnresolvable = errors.New("unresolvable host")

	ErrRegistryFull          = fmt.Errorf("target registry full (max. %d targets)", MaxTargets)
	ErrDuplicateTarget       = errors.New("target address already registered")
	ErrNoTargets             = errors.New("no targets registered")
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrInsufficientPrivilege = errors.New("insufficient privilege to open a raw socket")
	ErrRunning               = errors.New("probing already running")
	ErrClosed                = errors.New("engine closed")

	errNoIPv4 = errors.New("no IPv4 address")
)

// DNSError is returned when a target name does not resolve to an IPv4
// address.
type DNSError struct {
	Host string
	Err  error
}

func (e *DNSError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrUnresolvable, e.Host, e.Err)
}

func (e *DNSError) Unwrap() error { return e.Err }

func (e *DNSError) Is(target error) bool { return target == ErrUnresolvable }

// SocketError is returned by Start when the raw socket could not be
// created or configured.
type SocketError struct {
	Err error
}

func (e *SocketError) Error() string { return "Error creating socket: " + e.Err.Error() }
func (e *SocketError) Unwrap() error { return e.Err }
