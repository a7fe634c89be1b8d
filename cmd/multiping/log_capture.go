package main

import (
	"bytes"
	"strings"
	"sync"
)

type logInterceptor struct {
	keep     int
	messages []string
	mtx      sync.Mutex
}

func (li *logInterceptor) Write(p []byte) (n int, err error) {
	li.mtx.Lock()
	li.messages = append(li.messages, string(bytes.TrimSpace(p)))

	if li.keep > 0 {
		li.truncate()
	}
	li.mtx.Unlock()

	return len(p), nil
}

func (li *logInterceptor) truncate() {
	if delta := len(li.messages) - li.keep; delta > 0 {
		li.messages = li.messages[delta:len(li.messages)]
	}
}

// String returns the kept messages, oldest first.
func (li *logInterceptor) String() string {
	li.mtx.Lock()
	defer li.mtx.Unlock()
	return strings.Join(li.messages, "\n")
}
