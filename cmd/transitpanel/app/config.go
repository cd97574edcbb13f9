package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/autopeer-io/transitpanel/pkg/app"
)

// redacted lists the settings never printed in clear.
var redacted = [][]string{
	{"wlan", "password"},
	{"mqtt", "password"},
}

func newConfigCommand(application func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printConfig(cmd.OutOrStdout(), application().Viper().AllSettings())
		},
	}
}

func printConfig(w io.Writer, settings map[string]any) error {
	for _, path := range redacted {
		redact(settings, path)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

func redact(settings map[string]any, path []string) {
	for _, key := range path[:len(path)-1] {
		next, ok := settings[key].(map[string]any)
		if !ok {
			return
		}
		settings = next
	}
	last := path[len(path)-1]
	if v, ok := settings[last].(string); ok && v != "" {
		settings[last] = "******"
	}
}
