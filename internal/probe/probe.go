// ===== internal/probe/probe.go =====
package probe

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Result is the outcome of a connectivity probe
type Result int

const (
	Disconnected Result = iota
	Connected
)

// Label returns the status text shown to users
func (r Result) Label() string {
	if r == Connected {
		return "已联网"
	}
	return "未联网"
}

func (r Result) String() string {
	if r == Connected {
		return "connected"
	}
	return "disconnected"
}

// Prober checks general internet reachability with a single GET
type Prober struct {
	url    string
	client *http.Client
}

// New creates a prober against url. Redirects are not followed so that a
// captive portal's 302 counts as disconnected.
func New(url string, timeout time.Duration) *Prober {
	return &Prober{
		url: url,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Probe reports Connected only for an HTTP 200 reply
func (p *Prober) Probe(ctx context.Context) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		zap.S().Debugf("Probe request for %s: %v", p.url, err)
		return Disconnected
	}

	resp, err := p.client.Do(req)
	if err != nil {
		zap.S().Debugf("Probe %s failed: %v", p.url, err)
		return Disconnected
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Disconnected
	}
	return Connected
}
