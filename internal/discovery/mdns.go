package discovery

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/MrSnakeDoc/castplay/internal/domain"
)

const (
	// ServiceName is the mDNS service announced by cast devices
	ServiceName = "_googlecast._tcp"
	// DefaultTimeout is how long Discover listens for answers
	DefaultTimeout = 3 * time.Second
)

// Discover queries the local network for cast devices and returns them
// sorted by name. Devices sharing a friendly name get their IP appended.
func Discover(ctx context.Context, timeout time.Duration) ([]domain.Device, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	entries := make(chan *mdns.ServiceEntry, 64)
	params := mdns.DefaultParams(ServiceName)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	params.Logger = log.New(io.Discard, "", 0)

	errCh := make(chan error, 1)
	go func() {
		errCh <- mdns.QueryContext(ctx, params)
	}()

	found := newCollector()
	for {
		select {
		case e, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			found.add(e)
		case err := <-errCh:
			found.drain(entries)
			if err != nil && ctx.Err() == nil {
				return nil, fmt.Errorf("mdns query: %w", err)
			}
			return found.devices(), nil
		}
	}
}

type collector struct {
	byAddr map[string]domain.Device
}

func newCollector() *collector {
	return &collector{byAddr: make(map[string]domain.Device)}
}

func (c *collector) add(e *mdns.ServiceEntry) {
	if d, ok := deviceFromEntry(e); ok {
		c.byAddr[d.Address] = d
	}
}

// drain picks up answers still buffered once the query returned
func (c *collector) drain(entries chan *mdns.ServiceEntry) {
	if entries == nil {
		return
	}
	for {
		select {
		case e, ok := <-entries:
			if !ok {
				return
			}
			c.add(e)
		default:
			return
		}
	}
}

func (c *collector) devices() []domain.Device {
	out := make([]domain.Device, 0, len(c.byAddr))
	for _, d := range c.byAddr {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Address < out[j].Address
	})

	seen := make(map[string]int, len(out))
	for _, d := range out {
		seen[d.Name]++
	}
	for i := range out {
		if seen[out[i].Name] > 1 {
			host, _, _ := net.SplitHostPort(out[i].Address)
			if host == "" {
				host = out[i].Address
			}
			out[i].Name = out[i].Name + " (" + host + ")"
		}
	}
	return out
}

// deviceFromEntry turns an mDNS answer into a device. The friendly name
// comes from the fn= TXT record; the port is omitted when it is the default.
func deviceFromEntry(e *mdns.ServiceEntry) (domain.Device, bool) {
	if e == nil || e.AddrV4 == nil || !strings.Contains(e.Name, "_googlecast") {
		return domain.Device{}, false
	}

	name := e.Name
	for _, txt := range e.InfoFields {
		if after, ok := strings.CutPrefix(txt, "fn="); ok && after != "" {
			name = after
			break
		}
	}
	if idx := strings.Index(name, "._googlecast"); idx > 0 {
		name = name[:idx]
	}

	addr := e.AddrV4.String()
	if e.Port != 0 && e.Port != domain.DefaultCastPort {
		addr = net.JoinHostPort(addr, strconv.Itoa(e.Port))
	}
	return domain.Device{Name: strings.TrimSpace(name), Address: addr}, true
}
