package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"leaflet/internal/config"
	"leaflet/internal/index"
)

var (
	notebookPath string
	configPath   string
	verbosity    int

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "leaflet",
	Short: "Index and query a notebook of linked pages",
	Long: `leaflet maintains a SQLite index over a folder of wiki pages:
the page tree, the resolved links between pages, and their tags.
The index is incremental; interrupted runs resume where they stopped.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		commonlog.Configure(verbosity, nil)

		var err error
		cfg, err = config.FromFile(configPath)
		if err != nil {
			return err
		}
		if notebookPath != "" {
			cfg.Root = notebookPath
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&notebookPath, "notebook", "n", "", "notebook directory (default \".\")")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".leaflet.json", "path to the config file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
}

// openIndex opens the engine for the configured notebook.
func openIndex() (*index.Index, error) {
	return index.Open(cfg.DatabasePath(), cfg.Root)
}
