// Package version carries build metadata for the zor binary.
package version

import (
	"fmt"
	"runtime"
)

// Name is the service name reported by the HTTP descriptor.
const Name = "ZOR API - Assistente de Pintura"

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/zor/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/zor/internal/version.Commit=abc123
//	  -X github.com/soyeahso/zor/internal/version.Date=2026-01-01"
var (
	Version = "1.0.0"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("zor %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
