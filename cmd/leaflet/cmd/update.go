package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	updateRebuild bool
	updateReparse bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Bring the index up to date with the notebook files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}
		defer ix.Close()

		switch {
		case updateRebuild:
			if err := ix.Rebuild(); err != nil {
				return err
			}
		case updateReparse:
			if err := ix.FlagReindex(); err != nil {
				return err
			}
			if err := ix.Update(); err != nil {
				return err
			}
		default:
			if err := ix.CheckAndUpdate(); err != nil {
				return err
			}
		}

		fmt.Println("index up to date")
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateRebuild, "rebuild", false, "drop the database and index from scratch")
	updateCmd.Flags().BoolVar(&updateReparse, "reparse", false, "re-parse every page without re-walking the tree")
	rootCmd.AddCommand(updateCmd)
}
