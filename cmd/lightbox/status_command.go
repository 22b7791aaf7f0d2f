package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lightbox/internal/catalog"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog contents and resolved paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}

			cat, err := catalog.Open(cfg)
			if err != nil {
				return err
			}
			defer cat.Close()

			count, err := cat.Count(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, renderCounts("Lightbox status", [][2]string{
				countRow("Processed files", count),
				{"Library directory", cfg.Paths.LibraryDir},
				{"Catalog database", cat.Path()},
				{"Log directory", cfg.Paths.LogDir},
			}))
			return nil
		},
	}
}
