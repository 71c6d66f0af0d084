package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"planetshelf/internal/config"
	"planetshelf/internal/logging"
	"planetshelf/internal/manifest"
)

func newManifestsCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "manifests <data_directory>",
		Short: "Derive per-scene manifests from order manifests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dataDir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve data directory: %w", err)
			}
			logger, _, err := logging.NewFromConfig(cfg, "", "")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store := manifest.NewStore(logger)
			masters, err := store.FindMasterManifests(dataDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(masters) == 0 {
				fmt.Fprintf(out, "No master manifests found under %s\n", dataDir)
				return nil
			}

			opts := manifest.DeriveOptions{Overwrite: overwrite, DryRun: dryRun}
			rows := make([][]string, 0, len(masters))
			var derived int
			for _, master := range masters {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				label, relErr := filepath.Rel(dataDir, master)
				if relErr != nil {
					label = master
				}
				result, err := store.DeriveSceneManifests(master, opts)
				if err != nil {
					rows = append(rows, []string{label, "-", "-", "-", "-", err.Error()})
					continue
				}
				written := result.Count(manifest.DeriveWritten) + result.Count(manifest.DerivePlanned)
				derived += written
				problems := result.Count(manifest.DeriveMissingScene) + result.Count(manifest.DeriveInvalid) + result.Count(manifest.DeriveFailed)
				rows = append(rows, []string{
					label,
					formatCount(written),
					formatCount(result.Count(manifest.DeriveExisting)),
					formatCount(result.Ignored),
					formatCount(problems),
					"",
				})
			}

			title := "Scene manifests"
			if dryRun {
				title += " (dry run)"
			}
			fmt.Fprintln(out, renderTable(title,
				[]string{"Order manifest", "Derived", "Existing", "Ignored", "Problems", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%s scene manifests derived from %s order manifests\n", formatCount(derived), formatCount(len(masters)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Rewrite per-scene manifests that already exist")
	cmd.Flags().BoolVar(&dryRun, "dryrun", false, "Report what would be written without writing")
	return cmd
}
