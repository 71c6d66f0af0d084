package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"planetshelf/internal/ledger"
)

func newOnhandCommand(ctx *commandContext) *cobra.Command {
	var itemType string

	cmd := &cobra.Command{
		Use:   "onhand",
		Short: "List scenes recorded as shelved",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Ledger.Enabled {
				return errors.New("ledger is disabled; set [ledger] enabled = true in the config")
			}
			store, err := ledger.Open(cfg.Ledger.Path)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			scenes, err := store.List(cmd.Context(), itemType)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(scenes) == 0 {
				fmt.Fprintln(out, "No scenes on hand")
				return nil
			}

			rows := make([][]string, 0, len(scenes))
			for _, scene := range scenes {
				rows = append(rows, []string{
					scene.SceneID,
					scene.ItemType,
					formatTimestamp(scene.Acquired),
					scene.Instrument,
					scene.StripID,
					scene.Method,
					formatTimestamp(scene.ShelvedAt),
				})
			}
			fmt.Fprintln(out, renderTable("",
				[]string{"Scene", "Item type", "Acquired", "Instrument", "Strip", "Method", "Shelved"},
				rows, nil,
			))
			fmt.Fprintf(out, "%s scenes on hand\n", formatCount(len(scenes)))
			return nil
		},
	}

	cmd.Flags().StringVar(&itemType, "item-type", "", "Only list scenes of this item type")
	return cmd
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
