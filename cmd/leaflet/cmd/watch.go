package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"leaflet/internal/index"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index up to date until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}
		defer ix.Close()

		interval := watchInterval
		if interval == 0 {
			interval = time.Duration(cfg.CheckIntervalSeconds) * time.Second
		}

		checker := index.NewBackgroundChecker(ix)
		checker.Start(interval)
		defer checker.Stop()

		fmt.Printf("watching %s, checking every %s\n", cfg.Root, interval)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "override the configured check interval")
	rootCmd.AddCommand(watchCmd)
}
