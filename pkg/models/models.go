// ===== pkg/models/models.go =====
package models

import (
	"time"
)

// Credentials holds the portal account as supplied by the settings provider.
// The values are opaque; nothing in the core validates them.
type Credentials struct {
	Account  string `json:"account"`
	Password string `json:"-"`
}

// AddressOverride replaces automatic address detection per field.
// A nil field means auto-detect; a non-nil field (even "") is used verbatim.
type AddressOverride struct {
	IPv4 *string `json:"ipv4,omitempty"`
	IPv6 *string `json:"ipv6,omitempty"`
}

// StringPtr returns a pointer to s, for building overrides.
func StringPtr(s string) *string {
	return &s
}

// PortalOutcome is the interpreted reply of one login request
type PortalOutcome struct {
	HTTPStatus int    `json:"httpStatus,omitempty"`
	Summary    string `json:"summary"`
	Raw        string `json:"raw"`
}

// ResultKind tags a CycleResult
type ResultKind int

const (
	ResultConnected ResultKind = iota
	ResultDisconnected
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultConnected:
		return "connected"
	case ResultDisconnected:
		return "disconnected"
	case ResultError:
		return "error"
	}
	return "unknown"
}

// MarshalText lets the kind appear by name in JSON status payloads
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// CycleResult is what the scheduler reports for every tick.
// Outcome is set for Connected and Disconnected results whenever the
// portal answered; Message is set for ResultError.
type CycleResult struct {
	Kind    ResultKind     `json:"kind"`
	Outcome *PortalOutcome `json:"outcome,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Status is the event pushed to the status sink once per cycle and on
// start/stop transitions.
type Status struct {
	Network     string       `json:"networkStatus"`
	LastURL     string       `json:"lastUrl,omitempty"`
	LastSummary string       `json:"lastSummary,omitempty"`
	Running     bool         `json:"serviceRunning"`
	Result      *CycleResult `json:"result,omitempty"`
	Cycle       uint64       `json:"cycle"`
	When        time.Time    `json:"when"`
}

// LogEntry represents a log entry
type LogEntry struct {
	Timestamp time.Time `json:"when"`
	UnixTime  int64     `json:"utime"`
	Message   string    `json:"message"`
}
