package cmd

import (
	"github.com/spf13/cobra"
)

var checkRecursive bool

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Re-check part of the notebook and update what changed",
	Long: `Re-check flags a path, relative to the notebook root, for comparison
against the index, then drains the resulting work. Without a path the
whole notebook is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}
		defer ix.Close()

		if len(args) == 0 {
			return ix.CheckAndUpdate()
		}
		if err := ix.QueueCheck(args[0], checkRecursive); err != nil {
			return err
		}
		for {
			more, outOfDate, err := ix.CheckStep()
			if err != nil {
				return err
			}
			if outOfDate {
				if err := ix.Update(); err != nil {
					return err
				}
			}
			if !more {
				return nil
			}
		}
	},
}

func init() {
	checkCmd.Flags().BoolVarP(&checkRecursive, "recursive", "r", false, "check the whole subtree")
	rootCmd.AddCommand(checkCmd)
}
