package version

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short, Full and UserAgent agree with each other.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Equal(t, "spotify-launcher/"+Short(), UserAgent())
}

func TestAttachCobraVersion(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "spotify-launcher", RunE: func(*cobra.Command, []string) error { return nil }}
	AttachCobraVersion(root)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), Short())
}
