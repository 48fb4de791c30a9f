package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/vidsub/internal/session"
)

// CleanCmd creates the clean command.
func CleanCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete temporary files",
		Long: `Delete every file in the scratch directory.

Refuses to run while "vidsub serve" holds the scratch directory; use the
"Clear Temporary Files" button of the web page instead.`,
		Example: `  vidsub clean`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(env)
		},
	}
}

func runClean(env *Env) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}

	ws, err := session.NewWorkspace(cfg.ScratchDir)
	if err != nil {
		return err
	}
	if err := ws.Lock(); err != nil {
		return err
	}
	defer func() { _ = ws.Unlock() }()

	n, err := ws.Clear()
	if err != nil {
		return fmt.Errorf("clear temporary files: %w", err)
	}
	_, _ = fmt.Fprintf(env.Stderr, "Temporary files cleared! (%d removed from %s)\n", n, ws.Root())
	return nil
}
