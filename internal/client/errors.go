package client

import "errors"

var (
	// errOpenSession wraps a failure to establish the local/remote
	// socket pair during Mount.
	errOpenSession = errors.New("failed to open session")

	// errConnection wraps a failure writing a request or reading a
	// reply on an already-mounted session.
	errConnection = errors.New("connection error")
)
