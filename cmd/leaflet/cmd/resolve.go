package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"leaflet/internal/pagename"
	"leaflet/internal/views"
)

var resolveFrom string

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a page name or link the way the index would",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}
		defer ix.Close()

		reference := pagename.Root
		if resolveFrom != "" {
			reference, err = pagename.ValidName(resolveFrom)
			if err != nil {
				return err
			}
		}

		pages := views.NewPages(ix.DB())
		name, err := pages.ResolveUserInput(args[0], reference)
		if err != nil {
			return err
		}
		fmt.Println(name)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFrom, "from", "", "page the name is written on")
	rootCmd.AddCommand(resolveCmd)
}
