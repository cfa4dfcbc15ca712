package cast

import (
	"context"
	"fmt"
	"time"

	"github.com/vishen/go-chromecast/application"
	gocast "github.com/vishen/go-chromecast/cast"

	"github.com/MrSnakeDoc/castplay/internal/logger"
)

const (
	// DefaultReadyTimeout bounds the wait for a session to become ready
	DefaultReadyTimeout = 10 * time.Second
	// DefaultConnectionRetries is passed to the cast client for receiver status requests
	DefaultConnectionRetries = 3
)

// ChromecastDialer opens sessions with github.com/vishen/go-chromecast.
type ChromecastDialer struct {
	ReadyTimeout      time.Duration
	ConnectionRetries int
	Debug             bool
	Logger            logger.Logger

	// abandoned is called once a handshake that Dial gave up on has finished
	abandoned func(error)
}

// NewChromecastDialer returns a dialer with the given readiness timeout
// (DefaultReadyTimeout when zero).
func NewChromecastDialer(readyTimeout time.Duration, log logger.Logger) *ChromecastDialer {
	if readyTimeout <= 0 {
		readyTimeout = DefaultReadyTimeout
	}
	return &ChromecastDialer{
		ReadyTimeout:      readyTimeout,
		ConnectionRetries: DefaultConnectionRetries,
		Logger:            log,
	}
}

type handshake struct {
	app *application.Application
	err error
}

// Dial connects to the device and waits for its receiver status.
// The connect itself cannot be interrupted, so on timeout the handshake is
// left to finish in the background and its connection closed afterwards.
func (d *ChromecastDialer) Dial(ctx context.Context, address string) (Session, error) {
	host, port, err := SplitAddress(address)
	if err != nil {
		return nil, err
	}

	ready := make(chan handshake, 1)
	go func() {
		ready <- d.handshake(host, port)
	}()

	timeout := d.ReadyTimeout
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case h := <-ready:
		if h.err != nil {
			return nil, h.err
		}
		return &chromecastSession{app: h.app}, nil
	case <-timer.C:
		go d.abandon(ready, address)
		return nil, fmt.Errorf("%w: %s after %s", ErrNotReady, address, timeout)
	case <-ctx.Done():
		go d.abandon(ready, address)
		return nil, ctx.Err()
	}
}

// handshake dials the TLS connection before building the application so a
// failed connect never reaches Close, which the library does not guard
// against a connection that was never opened.
func (d *ChromecastDialer) handshake(host string, port int) handshake {
	conn := gocast.NewConnection()
	conn.SetDebug(d.Debug)
	if err := conn.Start(host, port); err != nil {
		return handshake{err: fmt.Errorf("connect %s:%d: %w", host, port, err)}
	}

	retries := d.ConnectionRetries
	if retries <= 0 {
		retries = DefaultConnectionRetries
	}
	app := application.NewApplication(
		application.WithConnection(conn),
		application.WithDebug(d.Debug),
		application.WithCacheDisabled(true),
		application.WithConnectionRetries(retries),
	)

	// Start reuses the open connection and fetches the receiver status.
	if err := app.Start(host, port); err != nil {
		_ = app.Close(false)
		return handshake{err: fmt.Errorf("receiver status %s:%d: %w", host, port, err)}
	}
	return handshake{app: app}
}

// abandon waits for a handshake nobody is waiting on and closes it
func (d *ChromecastDialer) abandon(ready <-chan handshake, address string) {
	h := <-ready
	if h.app != nil {
		if err := h.app.Close(false); err != nil && d.Logger != nil {
			d.Logger.Debug("failed to close abandoned cast session",
				logger.String("address", address), logger.Error(err))
		}
	}
	if d.abandoned != nil {
		d.abandoned(h.err)
	}
}

type chromecastSession struct {
	app *application.Application
}

func (s *chromecastSession) StopMedia() error {
	return s.app.StopMedia()
}

// Load sends a detached load command and does not wait for the device to
// answer it. Errors only cover launching and connecting to the default
// media receiver; a device that rejects the media is not reported here.
func (s *chromecastSession) Load(mediaURL, contentType string) error {
	return s.app.Load(mediaURL, 0, contentType, false, true, false)
}

func (s *chromecastSession) Close() error {
	return s.app.Close(false)
}
