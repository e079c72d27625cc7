package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/source"
	"github.com/marcol480/fink-broker/pkg/sciencedb"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push one batch of alerts to the science-portal table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		df, err := loadAlerts(ctx)
		if err != nil {
			return err
		}
		if df.Count() == 0 {
			fmt.Println("no alerts to push")
			return nil
		}

		client, err := sciencedb.NewClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Push(ctx, df); err != nil {
			return err
		}

		fmt.Printf("pushed %d alerts to table %s\n", df.Count(), cfg.Table.Name)
		return nil
	},
}

// loadAlerts reads one batch of alert data from the configured source.
func loadAlerts(ctx context.Context) (core.Dataset, error) {
	switch cfg.Source.Type {
	case "kafka":
		src, err := source.NewKafkaSource(source.KafkaConfig{
			Brokers: cfg.Source.Kafka.Brokers,
			Topic:   cfg.Source.Kafka.Topic,
			GroupID: cfg.Source.Kafka.GroupID,
		}, source.ZTFAlertSchema())
		if err != nil {
			return nil, fmt.Errorf("creating Kafka source: %w", err)
		}
		defer src.Close()
		return src.Fetch(ctx, cfg.Source.Kafka.MaxAlerts)

	case "mysql":
		src, err := source.NewSQLSource(source.SQLConfig{
			Host:     cfg.Source.MySQL.Host,
			Port:     cfg.Source.MySQL.Port,
			Database: cfg.Source.MySQL.Database,
			Username: cfg.Source.MySQL.Username,
			Password: cfg.Source.MySQL.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("creating SQL source: %w", err)
		}
		defer src.Close()
		return src.LoadTable(ctx, cfg.Source.MySQL.Table)

	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Source.Type)
	}
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
