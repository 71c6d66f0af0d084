package transfer

import (
	"fmt"
	"strings"
	"sync"

	"planetshelf/internal/faults"
)

// Method selects how pairs are transferred.
type Method string

const (
	MethodCopy Method = "copy"
	MethodLink Method = "link"
)

// ParseMethod maps a flag or config value onto a Method.
func ParseMethod(value string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(value))) {
	case MethodCopy, "":
		return MethodCopy, nil
	case MethodLink:
		return MethodLink, nil
	default:
		return "", faults.Wrap(faults.ErrConfiguration, "config", "parse transfer method", fmt.Sprintf("unsupported method %q (use copy or link)", value), nil)
	}
}

// Capabilities describes what the platform and volumes allow.
type Capabilities struct {
	Hardlinks bool
	// Reason explains why Hardlinks is false.
	Reason string
}

// ProbeFunc reports the capabilities for moving files from src to dst.
type ProbeFunc func(src, dst string) Capabilities

var (
	probeMu sync.RWMutex
	probe   ProbeFunc = platformProbe
)

// Probe reports whether hard links can be made from src into dst.
func Probe(src, dst string) Capabilities {
	probeMu.RLock()
	fn := probe
	probeMu.RUnlock()
	return fn(src, dst)
}

// SetProbeForTests overrides the capability probe. The returned function
// restores the previous probe.
func SetProbeForTests(fn ProbeFunc) func() {
	probeMu.Lock()
	prev := probe
	probe = fn
	probeMu.Unlock()
	return func() {
		probeMu.Lock()
		probe = prev
		probeMu.Unlock()
	}
}
