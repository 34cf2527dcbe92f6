package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/7c/procmon/internal/display"
	"github.com/7c/procmon/internal/report"
	"github.com/7c/procmon/internal/stats"
)

var flagReportOut string

var reportCmd = &cobra.Command{
	Use:   "report <data.json>",
	Short: "Generate a markdown report from a saved session",
	Example: `  procmon report report/001_20260825_103000/data.json
  procmon report data.json -o report.md`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		series := loadDataFile(args[0])
		all := stats.AnalyzeAll(series)

		info := report.SessionInfo{
			Targets:  sortedKeys(series),
			DataFile: args[0],
		}

		out := os.Stdout
		if flagReportOut != "" {
			f, err := os.Create(flagReportOut)
			if err != nil {
				exitError(err.Error())
			}
			defer f.Close()
			out = f
		}

		if err := report.Generate(out, info, all); err != nil {
			exitError(err.Error())
		}
		if flagReportOut != "" {
			fmt.Printf("%s %s\n", display.Dim("report:"), flagReportOut)
		}
	},
}

func init() {
	reportCmd.Flags().StringVarP(&flagReportOut, "output", "o", "", "write the report to a file instead of stdout")
}
