package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root string, m Manifest) string {
	t.Helper()

	dir := filepath.Join(root, m.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return dir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()

	dir := writeManifest(t, tmpDir, Manifest{
		Name:        "notify",
		Version:     "1.0.0",
		Description: "Desktop notification",
		Executable:  "notify",
		Events:      []string{"eyes_closed", "danger"},
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "notify" {
		t.Errorf("expected plugin name 'notify', got %q", plugin.Manifest.Name)
	}
	if plugin.Manifest.Description != "Desktop notification" {
		t.Errorf("unexpected description %q", plugin.Manifest.Description)
	}
	if len(plugin.Manifest.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(plugin.Manifest.Events))
	}
	if plugin.Path != dir {
		t.Errorf("expected path %q, got %q", dir, plugin.Path)
	}
	if plugin.Executable != filepath.Join(dir, "notify") {
		t.Errorf("unexpected executable %q", plugin.Executable)
	}
}

func TestManager_List_SortedByName(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		writeManifest(t, tmpDir, Manifest{Name: name, Executable: name})
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 3 {
		t.Fatalf("expected 3 plugins, got %d", len(plugins))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if plugins[i].Manifest.Name != want {
			t.Errorf("plugin %d: got %q, want %q", i, plugins[i].Manifest.Name, want)
		}
	}
}

func TestManager_Discover_Skips(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{
			name: "invalid json",
			setup: func(t *testing.T, dir string) {
				bad := filepath.Join(dir, "bad")
				os.MkdirAll(bad, 0755)
				if err := os.WriteFile(filepath.Join(bad, ManifestFile), []byte("not valid json"), 0644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "missing executable",
			setup: func(t *testing.T, dir string) {
				writeManifest(t, dir, Manifest{Name: "no-exec"})
			},
		},
		{
			name: "directory without manifest",
			setup: func(t *testing.T, dir string) {
				os.MkdirAll(filepath.Join(dir, "empty"), 0755)
			},
		},
		{
			name: "plain file",
			setup: func(t *testing.T, dir string) {
				os.WriteFile(filepath.Join(dir, "README"), []byte("hi"), 0644)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			manager := NewManager(dir)
			if err := manager.Discover(); err != nil {
				t.Fatalf("Discover() failed unexpectedly: %v", err)
			}
			if n := len(manager.List()); n != 0 {
				t.Errorf("expected 0 plugins, got %d", n)
			}
		})
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager("/path/that/does/not/exist")

	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on non-existent dir: %v", err)
	}
	if len(manager.List()) != 0 {
		t.Fatal("expected no plugins")
	}
}

func TestManager_Get(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, Manifest{Name: "my-hook", Version: "2.0.0", Executable: "run"})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugin, err := manager.Get("my-hook")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if plugin.Manifest.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %q", plugin.Manifest.Version)
	}

	if _, err := manager.Get("nonexistent"); err != ErrPluginNotFound {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_Subscribers(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, Manifest{Name: "all", Executable: "all"})
	writeManifest(t, tmpDir, Manifest{Name: "eyes", Executable: "eyes", Events: []string{"eyes_closed"}})
	writeManifest(t, tmpDir, Manifest{Name: "mood", Executable: "mood", Events: []string{"smile", "danger"}})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	tests := []struct {
		kind string
		want []string
	}{
		{kind: "eyes_closed", want: []string{"all", "eyes"}},
		{kind: "smile", want: []string{"all", "mood"}},
		{kind: "danger", want: []string{"all", "mood"}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			subs := manager.Subscribers(tt.kind)
			if len(subs) != len(tt.want) {
				t.Fatalf("expected %d subscribers, got %d", len(tt.want), len(subs))
			}
			for i, name := range tt.want {
				if subs[i].Manifest.Name != name {
					t.Errorf("subscriber %d: got %q, want %q", i, subs[i].Manifest.Name, name)
				}
			}
		})
	}
}

func TestManager_PluginDir(t *testing.T) {
	manager := NewManager("/path/to/hooks")
	if manager.PluginDir() != "/path/to/hooks" {
		t.Errorf("unexpected plugin dir %q", manager.PluginDir())
	}
}
