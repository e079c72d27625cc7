package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcol480/fink-broker/internal/config"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fink-sciencedb",
	Short: "Push processed alert data to the science-portal store",
	Long: `fink-sciencedb reads processed astronomical alerts from a Kafka topic or a
SQL table, maps them onto the science-portal wide-column table (column
selection, family assignment, row-key construction), and pushes the data
together with its catalog and a self-describing schema row.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgPath == "" {
			return fmt.Errorf("--config is required")
		}
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (required)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
