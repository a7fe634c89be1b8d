package ping

import "github.com/digineo/go-fping/internal"

var (
	log = internal.Logger

	// SetLogger allows updating the Logger. For details, see
	// "github.com/digineo/go-logwrap".Instance.SetLogger.
	SetLogger = log.SetLogger
)
