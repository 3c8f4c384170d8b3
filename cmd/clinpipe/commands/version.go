package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinpipe/clinpipe/display"
	"github.com/clinpipe/clinpipe/version"
)

// VersionCmd shows version information.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show clinpipe version information",
	Long:  `Display version, build time, commit hash, and platform information for the clinpipe binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()

		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(info)
		}
		fmt.Println(info.String())
		fmt.Printf("Engine: %s\n", version.EngineVersion)
		fmt.Printf("Platform: %s\n", info.Platform)
		fmt.Printf("Go: %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}
