package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dscarebd/quran-insight-sub003/internal/domain/reciter"
)

var recitersCmd = &cobra.Command{
	Use:   "reciters",
	Short: "List available reciters",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, r := range reciter.NewRegistry().List() {
			marker := " "
			if r.ID == cfg.Playback.Reciter {
				marker = "*"
			}
			fmt.Printf("%s %-12s %s (%s)\n", marker, r.ID, r.Name, r.Bitrate)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recitersCmd)
}
