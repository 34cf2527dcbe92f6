package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/7c/procmon/internal/display"
	"github.com/7c/procmon/internal/stats"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <data.json>",
	Short: "Print the aggregate table for a saved session",
	Example: `  procmon summary report/001_20260825_103000/data.json
  procmon summary data.json --json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		series := loadDataFile(args[0])
		all := stats.AnalyzeAll(series)
		if len(all) == 0 {
			exitError("no samples in data file")
		}

		if jsonOutput {
			printJSON(all)
			return
		}
		display.RenderSummary(os.Stdout, all)
		fmt.Printf("%s %s\n", display.Dim("source:"), args[0])
	},
}
