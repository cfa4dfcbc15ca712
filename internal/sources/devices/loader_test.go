package devices

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "devices.yaml")

	yamlContent := `---
devices:
  - name: Living Room speaker
    address: 192.168.1.50
  - name: Kitchen
    address: 192.168.1.51:8009
`

	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	loader := NewLoader(yamlPath, "")
	props, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(props) != 2 {
		t.Fatalf("Load() returned %d devices, want 2", len(props))
	}
	if props[0].Name != "Living Room speaker" || props[0].Address != "192.168.1.50" {
		t.Errorf("Load()[0] = %+v", props[0])
	}
}

func TestLoaderLoadExpandsEnv(t *testing.T) {
	t.Setenv("CASTPLAY_TEST_KITCHEN_IP", "10.0.0.7")

	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "devices.yaml")

	yamlContent := `devices:
  - name: Kitchen
    address: ${CASTPLAY_TEST_KITCHEN_IP}
`
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	props, err := NewLoader(yamlPath, "").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(props) != 1 || props[0].Address != "10.0.0.7" {
		t.Errorf("Load() = %+v, want address 10.0.0.7", props)
	}
}

func TestLoaderLoadMergesInline(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "devices.yaml")
	if err := os.WriteFile(yamlPath, []byte("devices:\n  - name: Kitchen\n    address: 10.0.0.7\n"), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	props, err := NewLoader(yamlPath, "Office=10.0.0.8").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(props) != 2 || props[1].Name != "Office" {
		t.Errorf("Load() = %+v, want file entry then inline entry", props)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/devices.yaml", "")
	if _, err := loader.Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestParseInline(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []DeviceProps
		wantErr bool
	}{
		{
			name:  "empty",
			input: "  ",
			want:  nil,
		},
		{
			name:  "single device",
			input: "Kitchen=192.168.1.50",
			want:  []DeviceProps{{Name: "Kitchen", Address: "192.168.1.50"}},
		},
		{
			name:  "multiple devices with spaces",
			input: "Kitchen = 192.168.1.50 , Living Room=192.168.1.51:8009,",
			want: []DeviceProps{
				{Name: "Kitchen", Address: "192.168.1.50"},
				{Name: "Living Room", Address: "192.168.1.51:8009"},
			},
		},
		{
			name:    "missing separator",
			input:   "Kitchen",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInline(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInline() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseInline() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseInline()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
