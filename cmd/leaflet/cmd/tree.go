package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"leaflet/internal/pagename"
	"leaflet/internal/store"
	"leaflet/internal/views"
)

var treePlaceholders bool

var treeCmd = &cobra.Command{
	Use:   "tree [page]",
	Short: "Print the page tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}
		defer ix.Close()

		root := pagename.Root
		if len(args) > 0 {
			name, err := pagename.ValidName(args[0])
			if err != nil {
				return err
			}
			root = name
		}

		pages := views.NewPages(ix.DB())
		return pages.Walk(root, func(row store.PageRow) error {
			if row.Placeholder && !treePlaceholders {
				return nil
			}
			depth := row.Name.Depth() - root.Depth()
			if !root.IsRoot() {
				depth--
			}
			marker := ""
			if row.Placeholder {
				marker = " (placeholder)"
			}
			fmt.Printf("%s%s%s\n", strings.Repeat("  ", depth), row.Name.Basename(), marker)
			return nil
		})
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treePlaceholders, "placeholders", false, "include placeholder pages")
	rootCmd.AddCommand(treeCmd)
}
