package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vcnty/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active vcnty config file in your editor.

Editor selection order:
1) $VISUAL
2) $EDITOR
3) vi

If no config file exists yet, this command creates one with an example template first.
After the editor exits, the content is validated including the import rules. When
the previous content was valid and the edit is not, the previous content is
restored and the rejected edit is kept next to it as <config>.rejected.`,
	Example: `
  # Edit active config
  vcnty config edit

  # Edit with a specific editor
  EDITOR="code --wait" vcnty config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		created, err := ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "No config file found. Created example config at: %s\n", configPath)
		}

		before, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading config failed: %w", err)
		}

		editor := resolveEditorValue(os.Getenv("VISUAL"), os.Getenv("EDITOR"))
		editorCommand, err := buildEditorCommand(editor, configPath)
		if err != nil {
			return err
		}
		editorCommand.Stdin = os.Stdin
		editorCommand.Stdout = os.Stdout
		editorCommand.Stderr = os.Stderr
		if err := editorCommand.Run(); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}

		cfg, err := settleEditedConfig(configPath, before)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Configuration saved and validated: %s\n", configPath)
		printConfig(out, cfg)
		printConfigWarnings(out, cfg)
		return nil
	},
}

var errConfigRestored = errors.New("edited config is invalid, previous config restored")

// settleEditedConfig validates the edited file. An invalid edit of a
// previously valid file is moved aside and the previous content restored.
func settleEditedConfig(path string, before []byte) (*config.Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading edited config failed: %w", err)
	}
	cfg, validateErr := config.ValidateYAMLContent(content)
	if validateErr == nil {
		return cfg, nil
	}

	if _, err := config.ValidateYAMLContent(before); err != nil {
		return nil, fmt.Errorf("config validation failed in %s: %w", path, validateErr)
	}

	rejectedPath := path + ".rejected"
	if err := os.WriteFile(rejectedPath, content, 0o600); err != nil {
		return nil, fmt.Errorf("saving rejected config failed: %w", err)
	}
	if err := os.WriteFile(path, before, 0o600); err != nil {
		return nil, fmt.Errorf("restoring previous config failed: %w", err)
	}
	return nil, fmt.Errorf("%w (edit kept at %s): %w", errConfigRestored, rejectedPath, validateErr)
}

func resolveConfigEditPath(configFileFlag, configFileUsed string) (string, error) {
	if strings.TrimSpace(configFileFlag) != "" {
		return configFileFlag, nil
	}
	if strings.TrimSpace(configFileUsed) != "" {
		return configFileUsed, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".vcnty.yaml"), nil
}

func resolveEditorValue(visual, editor string) string {
	if strings.TrimSpace(visual) != "" {
		return visual
	}
	if strings.TrimSpace(editor) != "" {
		return editor
	}
	return "vi"
}

func buildEditorCommand(editorValue, configPath string) (*exec.Cmd, error) {
	fields := strings.Fields(strings.TrimSpace(editorValue))
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}

	args := append(fields[1:], configPath)
	return exec.Command(fields[0], args...), nil
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
