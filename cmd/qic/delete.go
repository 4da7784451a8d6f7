package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dscarebd/quran-insight-sub003/internal/domain/quran"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/audiocache"
)

var deleteReciter string

var deleteCmd = &cobra.Command{
	Use:   "delete <surah> [surah...]",
	Short: "Remove cached surahs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reciterID := deleteReciter
		if reciterID == "" {
			reciterID = cfg.Playback.Reciter
		}

		store := audiocache.NewStore(cfg.Cache.DBPath)
		if err := store.Open(); err != nil {
			return fmt.Errorf("opening audio cache: %w", err)
		}
		defer store.Close()

		for _, arg := range args {
			surah, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("invalid surah number %q", arg)
			}
			if _, err := quran.Get(surah); err != nil {
				return err
			}
			removed := store.CountForSurah(surah, reciterID)
			store.DeleteSurah(surah, reciterID)
			fmt.Printf("Surah %d: removed %d cached verses (%s)\n", surah, removed, reciterID)
		}
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVarP(&deleteReciter, "reciter", "r", "",
		"reciter id (default from config)")
	rootCmd.AddCommand(deleteCmd)
}
