package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/vidsub/internal/format"
	"github.com/alnah/vidsub/internal/subtitle"
)

// inspectTextWidth bounds the cue text column.
const inspectTextWidth = 60

// InspectCmd creates the inspect command.
func InspectCmd(env *Env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect <file.srt>",
		Short: "Show the cues of a subtitle file",
		Long: `Parse a SubRip file and print its cues as a table.

Fails if the file is not valid SubRip.`,
		Example: `  vidsub inspect talk.srt
  vidsub inspect talk.srt --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(env, args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n cues (0 shows all)")

	return cmd
}

func runInspect(env *Env, path string, limit int) error {
	// #nosec G304 -- user-specified subtitle file
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("cannot open subtitle file: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := subtitle.Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	cues := doc.Cues
	if limit > 0 && len(cues) > limit {
		cues = cues[:limit]
	}

	rows := make([][]string, 0, len(cues))
	for _, c := range cues {
		rows = append(rows, []string{
			strconv.Itoa(c.Index),
			format.Timestamp(c.Start),
			format.Timestamp(c.End),
			strconv.FormatFloat(c.End-c.Start, 'f', 2, 64) + "s",
			truncate(c.Text, inspectTextWidth),
		})
	}
	if len(rows) > 0 {
		headers := []string{"#", "Start", "End", "Length", "Text"}
		aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}
		_, _ = fmt.Fprintln(env.Stdout, renderTable(headers, rows, aligns))
	}

	var span float64
	if n := doc.Len(); n > 0 {
		span = doc.Cues[n-1].End
	}
	_, _ = fmt.Fprintf(env.Stdout, "%d cues, %s\n", doc.Len(), format.Duration(seconds(span)))
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
