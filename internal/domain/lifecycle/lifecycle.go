// Package lifecycle holds timing constants shared by process start and stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds start probes (database ping, broker dial) and graceful shutdowns.
const DefaultTimeout = 10 * time.Second
