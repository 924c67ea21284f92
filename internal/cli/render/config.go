package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// ConfigRenderer renders config-related output
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{
		out: out,
	}
}

// RenderConfig renders the configuration display
func (r *ConfigRenderer) RenderConfig(result *usecase.ShowConfigResult) error {
	if !result.Exists {
		fmt.Fprintf(r.out, "❌ No .esdeploy/config.local.json file found\n")
		fmt.Fprintf(r.out, "⚠️  Without config, commands use --network/--sender flags or their defaults\n")
	} else {
		fmt.Fprintln(r.out, "📋 Current config:")

		network := result.Config.Network
		if network == "" {
			network = "(not set)"
		}
		fmt.Fprintf(r.out, "Network:   %s\n", network)
		fmt.Fprintf(r.out, "Sender:    %s\n", result.Config.Sender)
		fmt.Fprintf(r.out, "📁 config file: %s\n", getRelativePath(result.ConfigPath))
	}

	if len(result.Networks) > 0 {
		fmt.Fprintf(r.out, "\nNetworks in esdeploy.toml: %s\n", strings.Join(result.Networks, ", "))
	}
	if len(result.Senders) > 0 {
		fmt.Fprintf(r.out, "Senders in esdeploy.toml:  %s\n", strings.Join(result.Senders, ", "))
	}

	return nil
}

// RenderSet renders the result of setting a configuration value
func (r *ConfigRenderer) RenderSet(result *usecase.SetConfigResult) error {
	fmt.Fprintf(r.out, "✅ Set %s to: %s\n", result.Key, result.Value)
	fmt.Fprintf(r.out, "📁 config saved to: %s\n", getRelativePath(result.ConfigPath))
	return nil
}

// RenderRemove renders the result of removing a configuration value
func (r *ConfigRenderer) RenderRemove(result *usecase.RemoveConfigResult) error {
	if result.RemovedValue == "" {
		fmt.Fprintf(r.out, "⚠️  %s was not set\n", result.Key)
	} else {
		fmt.Fprintf(r.out, "✅ Removed %s (was: %s)\n", result.Key, result.RemovedValue)
	}
	fmt.Fprintf(r.out, "📁 config saved to: %s\n", getRelativePath(result.ConfigPath))
	return nil
}
