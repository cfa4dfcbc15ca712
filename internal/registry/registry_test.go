package registry

import (
	"sync"
	"testing"

	"github.com/MrSnakeDoc/castplay/internal/domain"
)

func TestNewRegistryEmpty(t *testing.T) {
	reg := New(nil)
	if reg == nil {
		t.Fatal("New() returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("Count() = %d, want 0", reg.Count())
	}
	if len(reg.Names()) != 0 {
		t.Errorf("Names() = %v, want empty", reg.Names())
	}
	if reg.LoadedAt().IsZero() {
		t.Error("LoadedAt() should be set")
	}
}

func TestLookup(t *testing.T) {
	reg := New([]domain.Device{
		{Name: "Kitchen", Address: "192.168.1.50"},
		{Name: "Living Room", Address: "192.168.1.51:8009"},
	})

	d, ok := reg.Lookup("Living Room")
	if !ok {
		t.Fatal("Lookup(Living Room) not found")
	}
	if d.Address != "192.168.1.51:8009" {
		t.Errorf("Lookup(Living Room).Address = %q", d.Address)
	}

	if _, ok := reg.Lookup("living room"); ok {
		t.Error("Lookup() should be case-sensitive")
	}
	if _, ok := reg.Lookup("Garage"); ok {
		t.Error("Lookup(Garage) should not be found")
	}
}

func TestNamesSorted(t *testing.T) {
	reg := New([]domain.Device{
		{Name: "Office", Address: "10.0.0.3"},
		{Name: "Bedroom", Address: "10.0.0.1"},
		{Name: "Kitchen", Address: "10.0.0.2"},
	})

	want := []string{"Bedroom", "Kitchen", "Office"}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	devices := reg.Devices()
	if devices[0].Name != "Bedroom" || devices[2].Address != "10.0.0.3" {
		t.Errorf("Devices() = %+v, want sorted by name", devices)
	}
}

func TestNamesReturnsCopy(t *testing.T) {
	reg := New([]domain.Device{{Name: "Kitchen", Address: "10.0.0.2"}})

	names := reg.Names()
	names[0] = "mutated"

	if reg.Names()[0] != "Kitchen" {
		t.Error("Names() should return a copy")
	}
}

func TestConcurrentLookup(t *testing.T) {
	reg := New([]domain.Device{{Name: "Kitchen", Address: "10.0.0.2"}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := reg.Lookup("Kitchen"); !ok {
				t.Error("Lookup(Kitchen) not found")
			}
			_ = reg.Names()
		}()
	}
	wg.Wait()
}
