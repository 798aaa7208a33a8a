package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Image.Name != DefaultImage {
		t.Errorf("defaultConfig().Image.Name = %q, want %q", cfg.Image.Name, DefaultImage)
	}

	if cfg.Image.Tag != "latest" {
		t.Errorf("defaultConfig().Image.Tag = %q, want latest", cfg.Image.Tag)
	}

	if cfg.Image.SkipPull {
		t.Error("defaultConfig().Image.SkipPull should be false")
	}

	if cfg.Runtime.Backend != BackendCLI {
		t.Errorf("defaultConfig().Runtime.Backend = %q, want %q", cfg.Runtime.Backend, BackendCLI)
	}

	if cfg.Convert.TargetExtension != "yaml" {
		t.Errorf("defaultConfig().Convert.TargetExtension = %q, want yaml", cfg.Convert.TargetExtension)
	}

	if cfg.Convert.MountTarget != "/opt/data" {
		t.Errorf("defaultConfig().Convert.MountTarget = %q, want /opt/data", cfg.Convert.MountTarget)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("image.tag", "7.2.2")
	viper.Set("runtime.backend", BackendAPI)

	cfg := LoadConfig()

	if cfg.Image.Tag != "7.2.2" {
		t.Errorf("LoadConfig().Image.Tag = %q, want 7.2.2", cfg.Image.Tag)
	}

	if cfg.Runtime.Backend != BackendAPI {
		t.Errorf("LoadConfig().Runtime.Backend = %q, want %q", cfg.Runtime.Backend, BackendAPI)
	}

	// Untouched keys fall back to defaults
	if cfg.Image.Name != DefaultImage {
		t.Errorf("LoadConfig().Image.Name = %q, want %q", cfg.Image.Name, DefaultImage)
	}
	if cfg.Runtime.Binary != "docker" {
		t.Errorf("LoadConfig().Runtime.Binary = %q, want docker", cfg.Runtime.Binary)
	}
}

func TestRender(t *testing.T) {
	out, err := Render(defaultConfig())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	expectedStrings := []string{
		"name: nwchemorg/nwchem-qc",
		"tag: latest",
		"skip_pull: false",
		"backend: cli",
		"target_extension: yaml",
		"mount_target: /opt/data",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(out, expected) {
			t.Errorf("Render() missing expected string: %s", expected)
		}
	}
}
