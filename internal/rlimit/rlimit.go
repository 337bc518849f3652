// Package rlimit picks process-limit-aware defaults.
package rlimit

import (
	"log"

	"golang.org/x/sys/unix"
)

// DefaultWorkers chooses a worker-pool size from the process's open
// file descriptor limit. Workers all share the single listening
// unixgram socket, but a pool sized without regard for the process's
// descriptor budget is still a bad default on a constrained host.
func DefaultWorkers(fallback int) int {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		log.Printf("rlimit: query RLIMIT_NOFILE: %v, using default of %d workers", err, fallback)
		return fallback
	}

	// Heuristic: a small slice of the descriptor budget, floored at the
	// caller's fallback and capped well short of the limit itself.
	n := int(rl.Cur / 64)
	if n < fallback {
		return fallback
	}
	const reasonableMax = 256
	if n > reasonableMax {
		return reasonableMax
	}
	return n
}
