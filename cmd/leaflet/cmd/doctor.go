package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"leaflet/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify the internal consistency of the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Reader().CheckConsistency(); err != nil {
			return err
		}
		fmt.Println("index is consistent")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
