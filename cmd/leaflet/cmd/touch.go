package cmd

import (
	"github.com/spf13/cobra"
)

var touchCmd = &cobra.Command{
	Use:   "touch <file>",
	Short: "Index one file immediately",
	Long: `Touch indexes a single file, relative to the notebook root, without
walking the rest of the tree, then resolves any links it introduced.
Meant for editor integrations that know exactly what was saved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}
		defer ix.Close()

		if err := ix.TouchFile(args[0]); err != nil {
			return err
		}
		return ix.Update()
	},
}

func init() {
	rootCmd.AddCommand(touchCmd)
}
