package version

import (
	"github.com/spf13/cobra"
)

// AttachCobraVersion wires `--version` on the root command.
// A `version` subcommand would collide with the positional URI argument.
func AttachCobraVersion(root *cobra.Command) {
	root.Version = Full()
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")
}
