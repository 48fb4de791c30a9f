package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/vidsub/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/vidsub/config.toml ($VIDSUB_CONFIG
overrides the location). Some settings can also be overridden via
environment variables:

  scratch_dir   (env: ` + config.EnvScratchDir + `)
  output_dir    (env: ` + config.EnvOutputDir + `)

Keys: ` + strings.Join(config.Keys(), ", "),
		Example: `  vidsub config set transcriber.model small
  vidsub config set output_dir ~/Videos/subtitles
  vidsub config get transcriber.model
  vidsub config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

The value is validated before the file is written.`,
		Example: `  vidsub config set transcriber.backend openai
  vidsub config set max_concurrent 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get the effective value of a configuration key.

Prints the value to stdout, or an empty line if not set.`,
		Example: `  vidsub config get scratch_dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List the effective value of every configuration key.

Values coming from environment variables are marked.`,
		Example: `  vidsub config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	p, err := env.ConfigLoader.Path()
	if err != nil {
		return err
	}

	cfg, _, err := config.Read(p)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.Save(p, cfg); err != nil {
		return err
	}

	stored, _ := cfg.Get(key)
	_, _ = fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, stored)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}

	value, err := cfg.Get(key)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(env.Stdout, value)
	return nil
}

// envKeys maps keys to the environment variable that overrides them.
var envKeys = map[string]string{
	"scratch_dir": config.EnvScratchDir,
	"output_dir":  config.EnvOutputDir,
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}

	entries := cfg.List()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		source := ""
		if name, ok := envKeys[e.Key]; ok && env.Getenv(name) != "" {
			source = "env: " + name
		}
		rows = append(rows, []string{e.Key, e.Value, source})
	}

	_, _ = fmt.Fprintln(env.Stdout, renderTable([]string{"Key", "Value", "Source"}, rows, nil))
	if p, err := env.ConfigLoader.Path(); err == nil {
		_, _ = fmt.Fprintf(env.Stderr, "Config file: %s\n", p)
	}
	return nil
}
