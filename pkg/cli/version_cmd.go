package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newVersionCmd(conn *connFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if conn.output == "json" {
				return json.NewEncoder(os.Stdout).Encode(map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			fmt.Printf("adlens version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
