package cast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/castplay/internal/domain"
)

// ErrNotReady is returned by a Dialer when the session did not become ready
// before the readiness timeout.
var ErrNotReady = errors.New("cast session not ready")

// Session is an open cast-control connection to one device.
// A session is used by a single play request and then closed.
type Session interface {
	// StopMedia stops whatever the device is currently playing.
	StopMedia() error
	// Load asks the device to fetch and play mediaURL.
	Load(mediaURL, contentType string) error
	// Close releases the connection. It never stops playback.
	Close() error
}

// Dialer opens sessions. Dial blocks until the session is ready to accept
// media commands, ctx is done, or the dialer's own readiness timeout elapses.
type Dialer interface {
	Dial(ctx context.Context, address string) (Session, error)
}

// SplitAddress parses "host" or "host:port" into its parts, defaulting the
// port to domain.DefaultCastPort.
// Example: "192.168.1.50" -> ("192.168.1.50", 8009)
func SplitAddress(address string) (string, int, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", 0, fmt.Errorf("empty device address")
	}

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		// bare host, possibly a bracketed IPv6 literal
		return strings.Trim(address, "[]"), domain.DefaultCastPort, nil
	}
	if host == "" {
		return "", 0, fmt.Errorf("invalid device address %q: empty host", address)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid device address %q: bad port", address)
	}
	return host, port, nil
}
