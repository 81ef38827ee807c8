package antivirus

import (
	"context"
	"io"
)

// ScanResult contains the result of a malware scan
type ScanResult struct {
	Infected    bool   // True if malware was detected
	ThreatName  string // Name of detected threat (empty if clean)
	ScannerName string // Name of scanner that produced this result
	Error       error  // Scan could not complete; Infected is set too (fail closed)
}

// Clean reports whether the scan completed without a detection
func (r ScanResult) Clean() bool {
	return !r.Infected && r.Error == nil
}

// Scanner is the interface for pluggable antivirus implementations.
// Uploads are rejected on detection; there is no quarantine.
type Scanner interface {
	// Scan checks content for malware. Errors are reported with Infected=true.
	Scan(ctx context.Context, filename string, data io.Reader) ScanResult

	// Name returns the scanner implementation name (for logging)
	Name() string

	// Available checks if the scanner is operational
	Available(ctx context.Context) bool
}

// NoOpScanner reports every file as clean. Used when no scanner is configured.
type NoOpScanner struct{}

var _ Scanner = (*NoOpScanner)(nil) // Compile-time interface check

func NewNoOpScanner() *NoOpScanner {
	return &NoOpScanner{}
}

func (n *NoOpScanner) Scan(ctx context.Context, filename string, data io.Reader) ScanResult {
	return ScanResult{ScannerName: n.Name()}
}

func (n *NoOpScanner) Name() string {
	return "noop"
}

func (n *NoOpScanner) Available(ctx context.Context) bool {
	return true
}
