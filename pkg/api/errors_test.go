package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/monkedh/monkedh/pkg/clients"
)

func TestMapClientError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"bad status passthrough", &clients.StatusError{Code: 422, Body: "nope"}, 422},
		{"decode error", &clients.DecodeError{Err: errors.New("bad json")}, http.StatusBadGateway},
		{"timeout", fmt.Errorf("vision: %w", clients.ErrTimeout), http.StatusGatewayTimeout},
		{"unreachable", fmt.Errorf("vision: %w", clients.ErrUnreachable), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := mapClientError(tt.err)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}
