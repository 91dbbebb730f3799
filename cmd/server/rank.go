package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"ideaboard/internal/config"
	"ideaboard/internal/models"
	"ideaboard/internal/observability"
	"ideaboard/internal/service"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func newRankCmd() *cobra.Command {
	var (
		username string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print a user's ranked and classified ideas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			profile, err := profileFor(cfg, username)
			if err != nil {
				return err
			}

			loader := service.NewCatalogService(cfg.Catalog.ScanConcurrency, observability.GetLogger())
			catalog, err := loader.Load(cmd.Context(), profile.CatalogConfig())
			if err != nil {
				return err
			}

			resp := service.RankingResponse(catalog, profile.PageTitle, profile.Threshold())
			if asJSON {
				enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printRanking(cmd.OutOrStdout(), cmd.ErrOrStderr(), profile, resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "user profile to rank")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the ranking as JSON")
	return cmd
}

func printRanking(out, errOut io.Writer, profile config.UserProfile, resp models.RankingResponse) {
	if resp.PageTitle != "" {
		fmt.Fprintln(out, resp.PageTitle)
	}
	mode := "results"
	if resp.Synthetic {
		mode = "synthetic"
	}
	fmt.Fprintf(out, "%s (%s), threshold %.4f, best %.4f, %s from %s\n\n",
		resp.MetricName, mode, resp.ThresholdScore, resp.BestValue, pluralIdeas(len(resp.Ideas)), profile.BaseDir)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\t\tIDEA\tVALUE\tCLASS")
	for _, idea := range resp.Ideas {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%s\n", idea.Rank, idea.Marker, idea.DisplayName, idea.MetricValue, idea.Classification)
	}
	tw.Flush()

	for _, w := range resp.Warnings {
		fmt.Fprintf(errOut, "warning: %s\n", w.Message)
	}
}

func pluralIdeas(n int) string {
	if n == 1 {
		return "1 idea"
	}
	return fmt.Sprintf("%d ideas", n)
}
