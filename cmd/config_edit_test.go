package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vcnty/config"
)

func TestResolveConfigEditPath(t *testing.T) {
	t.Run("uses explicit flag first", func(t *testing.T) {
		got, err := resolveConfigEditPath("./custom.yaml", "/tmp/active.yaml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "./custom.yaml" {
			t.Fatalf("expected explicit config path, got %q", got)
		}
	})

	t.Run("uses active config when flag is empty", func(t *testing.T) {
		got, err := resolveConfigEditPath("", "/tmp/active.yaml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "/tmp/active.yaml" {
			t.Fatalf("expected active config path, got %q", got)
		}
	})

	t.Run("falls back to home config path", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		got, err := resolveConfigEditPath("", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := filepath.Join(home, ".vcnty.yaml")
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})
}

func TestEnsureConfigFileWithTemplate(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "myconfig.yaml")

	created, err := ensureConfigFileWithTemplate(configPath)
	if err != nil {
		t.Fatalf("unexpected error creating template config: %v", err)
	}
	if !created {
		t.Fatalf("expected file to be created")
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error reading config file: %v", err)
	}
	if !strings.Contains(string(content), "# vcnty configuration") {
		t.Fatalf("expected example config content, got:\n%s", string(content))
	}
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("unexpected error stat config file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected config file mode 0600, got %o", info.Mode().Perm())
	}

	created, err = ensureConfigFileWithTemplate(configPath)
	if err != nil {
		t.Fatalf("unexpected error on existing config file: %v", err)
	}
	if created {
		t.Fatalf("did not expect existing file to be recreated")
	}
}

func TestResolveEditorValue(t *testing.T) {
	tests := []struct {
		name   string
		visual string
		editor string
		want   string
	}{
		{name: "visual wins", visual: "code --wait", editor: "nano", want: "code --wait"},
		{name: "editor fallback", visual: "", editor: "nano", want: "nano"},
		{name: "default vi", visual: "", editor: "", want: "vi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveEditorValue(tt.visual, tt.editor)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBuildEditorCommand(t *testing.T) {
	t.Run("splits editor args and appends config path", func(t *testing.T) {
		cmd, err := buildEditorCommand("code --wait", "/tmp/cfg.yaml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd.Path != "code" {
			t.Fatalf("expected command path %q, got %q", "code", cmd.Path)
		}
		if len(cmd.Args) != 3 {
			t.Fatalf("expected 3 args, got %d", len(cmd.Args))
		}
		if cmd.Args[1] != "--wait" || cmd.Args[2] != "/tmp/cfg.yaml" {
			t.Fatalf("unexpected command args: %#v", cmd.Args)
		}
	})

	t.Run("fails on empty editor", func(t *testing.T) {
		if _, err := buildEditorCommand("   ", "/tmp/cfg.yaml"); err == nil {
			t.Fatalf("expected error for empty editor")
		}
	})
}

func TestSettleEditedConfig(t *testing.T) {
	valid := []byte(config.ExampleYAML())

	t.Run("accepts valid edit", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vcnty.yaml")
		edited := "api:\n  url: \"https://api.vcnty.example\"\nrules:\n  - name: \"corner\"\n    file_template: \"corner-*.csv\"\n    store_id: \"store-1\"\n"
		if err := os.WriteFile(path, []byte(edited), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, err := settleEditedConfig(path, valid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.API.URL != "https://api.vcnty.example" || len(cfg.Rules) != 1 {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	})

	t.Run("restores previous config on invalid rule", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vcnty.yaml")
		edited := "rules:\n  - name: \"corner\"\n    file_template: \"corner-*.csv\"\n"
		if err := os.WriteFile(path, []byte(edited), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		_, err := settleEditedConfig(path, valid)
		if !errors.Is(err, errConfigRestored) {
			t.Fatalf("expected restored error, got %v", err)
		}
		if !strings.Contains(err.Error(), "requires store_id") {
			t.Fatalf("expected validation reason in error, got %v", err)
		}

		current, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read config: %v", err)
		}
		if string(current) != string(valid) {
			t.Fatalf("expected previous config to be restored, got:\n%s", current)
		}
		rejected, err := os.ReadFile(path + ".rejected")
		if err != nil {
			t.Fatalf("expected rejected edit to be kept: %v", err)
		}
		if string(rejected) != edited {
			t.Fatalf("unexpected rejected content:\n%s", rejected)
		}
	})

	t.Run("keeps invalid edit when previous config was invalid too", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vcnty.yaml")
		edited := "server:\n  port: 70000\n"
		if err := os.WriteFile(path, []byte(edited), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		_, err := settleEditedConfig(path, []byte("log:\n  env: \"staging\"\n"))
		if err == nil || errors.Is(err, errConfigRestored) {
			t.Fatalf("expected plain validation error, got %v", err)
		}
		if _, statErr := os.Stat(path + ".rejected"); !os.IsNotExist(statErr) {
			t.Fatalf("did not expect a rejected copy")
		}
		current, _ := os.ReadFile(path)
		if string(current) != edited {
			t.Fatalf("expected edit to stay in place")
		}
	})
}
