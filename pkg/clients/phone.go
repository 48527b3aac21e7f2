package clients

import (
	"context"
	"io"
	"net/http"
	"time"
)

// PhoneProber checks the liveness of the phone bridge device.
type PhoneProber struct {
	httpClient *http.Client
}

// NewPhoneProber creates a prober with a per-probe timeout
// (default 3s when zero).
func NewPhoneProber(timeout time.Duration) *PhoneProber {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &PhoneProber{httpClient: &http.Client{Timeout: timeout}}
}

// Probe GETs <base>/health. A nil return means the bridge is connected; the
// error message otherwise becomes the monitor's last_error.
func (p *PhoneProber) Probe(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return nil
}
