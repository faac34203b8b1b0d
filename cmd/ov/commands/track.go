package commands

import (
	"fmt"

	"opvault/pkg/track"

	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track <path>...",
	Short: "Explain whether paths would be tracked",
	Long: `Checks each path against the ignore rules (.ovignore plus built-in
defaults) and the sparse working-copy patterns. A path outside the sparse set
is reported as excluded, not silently skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			fmt.Println(trackLine(path, OV.Track.Decide(path)))
		}
		return nil
	},
}

// trackLine 渲染一条决策结论；非 tracked 的结论带上原因
func trackLine(path string, outcome track.Outcome) string {
	if outcome == track.OutcomeTracked {
		return fmt.Sprintf("✅ %s: tracked", path)
	}
	return fmt.Sprintf("⚠️  %s: %s", path, outcome)
}

func init() {
	rootCmd.AddCommand(trackCmd)
}
