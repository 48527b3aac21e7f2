// Package phone tracks the emergency phone bridge: its configured address,
// the latest probe result, and a background monitor that keeps both fresh.
package phone

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/monkedh/monkedh/pkg/models"
)

// DefaultBridgePort is assumed when the configured address carries no port.
const DefaultBridgePort = 5005

// ErrNotConfigured is returned when no bridge address has been set.
var ErrNotConfigured = errors.New("Phone IP not configured")

// NormalizeIP strips any URL scheme and trailing slashes from a user-entered
// bridge address, leaving host or host:port.
func NormalizeIP(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimRight(s, "/")
}

// State holds the bridge address and the latest connectivity verdict.
// All methods are safe for concurrent use.
type State struct {
	mu          sync.RWMutex
	ip          string
	port        int
	connected   bool
	lastChecked string
	lastError   string
}

// NewState creates bridge state with the given default port
// (DefaultBridgePort when zero).
func NewState(port int) *State {
	if port <= 0 {
		port = DefaultBridgePort
	}
	return &State{port: port}
}

// SetIP stores a normalized bridge address and clears the stale verdict.
func (s *State) SetIP(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ip = NormalizeIP(ip)
	s.connected = false
	s.lastChecked = ""
	s.lastError = ""
}

// IP returns the configured bridge address, empty when unset.
func (s *State) IP() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ip
}

// BaseURL builds the probe URL for the configured address. An address that
// already carries a port is used as-is; otherwise the default port applies.
func (s *State) BaseURL() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ip == "" {
		return "", ErrNotConfigured
	}
	if strings.Contains(s.ip, ":") {
		return "http://" + s.ip, nil
	}
	return fmt.Sprintf("http://%s:%d", s.ip, s.port), nil
}

// SetResult records the outcome of one probe. It returns true when the
// connected flag flipped, so callers can broadcast only on change.
func (s *State) SetResult(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.connected
	s.lastChecked = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		s.connected = false
		s.lastError = err.Error()
	} else {
		s.connected = true
		s.lastError = ""
	}
	return s.connected != was
}

// Snapshot returns the current status for API and WebSocket consumers.
// Unset fields serialize as JSON null.
func (s *State) Snapshot() models.PhoneStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := models.PhoneStatus{Connected: s.connected}
	if s.ip != "" {
		ip := s.ip
		st.IP = &ip
	}
	if s.lastChecked != "" {
		checked := s.lastChecked
		st.LastChecked = &checked
	}
	if s.lastError != "" {
		lastErr := s.lastError
		st.LastError = &lastErr
	}
	return st
}
