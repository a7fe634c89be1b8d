//go:build !linux

package internal

import "errors"

func openRaw() (Conn, error) {
	return nil, errors.New("raw ICMP sockets are not supported on this platform")
}
