package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcol480/fink-broker/pkg/sciencedb"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Compile and print the catalog for one batch of alerts without writing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		df, err := loadAlerts(ctx)
		if err != nil {
			return err
		}
		if df.Count() == 0 {
			return fmt.Errorf("no alerts available to derive a catalog from")
		}

		client, err := sciencedb.NewClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()

		catalogJSON, err := client.Catalog(df)
		if err != nil {
			return err
		}

		fmt.Println(catalogJSON)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
