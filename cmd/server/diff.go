package main

import (
	"fmt"
	"path/filepath"

	"ideaboard/internal/observability"
	"ideaboard/internal/service"

	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var (
		username     string
		contextLines int
	)

	cmd := &cobra.Command{
		Use:   "diff <idea>",
		Short: "Print the unified diff of an idea's candidate against the baseline",
		Args:  cobra.ExactArgs(1),
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
			result, ok := catalog.Find(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", service.ErrUnknownIdea, args[0])
			}

			candidate := filepath.Join(result.SourcePath, profile.CandidateFileName())
			in, err := service.PrepareDiff(profile.BaselineFile, candidate)
			if err != nil {
				return err
			}

			opts := service.DefaultDiffOptions()
			opts.Context = contextLines
			opts.BaselineName = profile.BaselineFile
			opts.CandidateName = candidate
			rendered := service.NewDiffRenderer().Render(in, opts)
			if rendered.Unified == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "no differences")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered.Unified)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "user profile whose idea to diff")
	cmd.Flags().IntVar(&contextLines, "context", 3, "lines of context around each change")
	return cmd
}
