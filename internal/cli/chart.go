package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var chartCmd = &cobra.Command{
	Use:     "chart <data.json>",
	Short:   "Print braille charts for a saved session",
	Example: `  procmon chart report/001_20260825_103000/data.json`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		series := loadDataFile(args[0])
		renderSessionCharts(os.Stdout, series)
	},
}
