package api

import (
	"net"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/monkedh/monkedh/pkg/phone"
)

// phoneStatusHandler handles GET /phone/status.
func (s *Server) phoneStatusHandler(c *echo.Context) error {
	if s.phoneMonitor != nil {
		s.phoneMonitor.Refresh(c.Request().Context())
	}
	return c.JSON(http.StatusOK, s.phoneState.Snapshot())
}

// phoneUpdateIPHandler handles POST /phone/update_ip: stores the bridge
// address and forces an immediate probe so the response reflects it.
func (s *Server) phoneUpdateIPHandler(c *echo.Context) error {
	var req UpdatePhoneIPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ip := phone.NormalizeIP(req.IP)
	if !validBridgeAddress(ip) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid IP address")
	}

	s.phoneState.SetIP(ip)
	if s.phoneMonitor != nil {
		s.phoneMonitor.CheckNow(c.Request().Context())
	}
	return c.JSON(http.StatusOK, &UpdatePhoneIPResponse{Saved: true, IP: ip})
}

// validBridgeAddress accepts host or host:port, where host is an IP address
// or a hostname.
func validBridgeAddress(addr string) bool {
	if addr == "" {
		return false
	}
	host := addr
	if strings.Contains(addr, ":") {
		h, port, err := net.SplitHostPort(addr)
		if err != nil || port == "" {
			return false
		}
		host = h
	}
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	// Hostnames are allowed: letters, digits, dots, hyphens.
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}
