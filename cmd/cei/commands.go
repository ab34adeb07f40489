package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"cei-crawler/internal/cei"
	"cei-crawler/internal/export"
	"cei-crawler/internal/interfaces"
)

var (
	startDate  string
	endDate    string
	incomeDate string
)

var brokersCmd = &cobra.Command{
	Use:   "brokers",
	Short: "Lists the brokers and accounts of the login.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), func(ctx context.Context, c interfaces.Crawler) (export.Extract, error) {
			brokers, err := c.Brokers(ctx)
			if err != nil {
				return export.Extract{}, err
			}
			return export.Brokers(brokers), nil
		})
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Extracts the trade history of every broker.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := optionalDate(startDate)
		if err != nil {
			return err
		}
		end, err := optionalDate(endDate)
		if err != nil {
			return err
		}
		return run(cmd.Context(), func(ctx context.Context, c interfaces.Crawler) (export.Extract, error) {
			extracts, err := c.AssetsExtract(ctx, interfaces.AssetsQuery{Start: start, End: end})
			if err != nil {
				return export.Extract{}, err
			}
			return export.Assets(extracts), nil
		})
	},
}

var incomesCmd = &cobra.Command{
	Use:   "incomes",
	Short: "Extracts provisioned and credited passive incomes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := optionalDate(incomeDate)
		if err != nil {
			return err
		}
		return run(cmd.Context(), func(ctx context.Context, c interfaces.Crawler) (export.Extract, error) {
			incomes, err := c.PassiveIncomesExtract(ctx, date)
			if err != nil {
				return export.Extract{}, err
			}
			return export.PassiveIncomes(incomes), nil
		})
	},
}

func init() {
	assetsCmd.Flags().StringVar(&startDate, "start", "", "first trade date, DD/MM/YYYY (default: start of the broker's period)")
	assetsCmd.Flags().StringVar(&endDate, "end", "", "last trade date, DD/MM/YYYY (default: end of the broker's period)")
	incomesCmd.Flags().StringVar(&incomeDate, "date", "", "reference date, DD/MM/YYYY (default: latest available)")
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return cei.ParseDate(s)
}
