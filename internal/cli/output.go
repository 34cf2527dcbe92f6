package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/7c/procmon/internal/monitor"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitError(err.Error())
	}
	fmt.Println(string(data))
}

func sortedKeys(series map[string][]monitor.Sample) []string {
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// loadDataFile reads a saved data.json, exiting with a message if it
// cannot be read or parsed.
func loadDataFile(path string) map[string][]monitor.Sample {
	if _, err := os.Stat(path); err != nil {
		exitError(fmt.Sprintf("data file not found: %s", path))
	}
	series, err := monitor.LoadSamples(path)
	if err != nil {
		exitError(err.Error())
	}
	if len(series) == 0 {
		exitError(fmt.Sprintf("data file is empty: %s", path))
	}
	return series
}
