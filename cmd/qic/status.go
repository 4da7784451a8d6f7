package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dscarebd/quran-insight-sub003/internal/domain/quran"
	"github.com/dscarebd/quran-insight-sub003/internal/domain/reciter"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/audiocache"
)

var statusReciter string

var statusCmd = &cobra.Command{
	Use:   "status [surah]",
	Short: "Show cache statistics or per-surah completeness",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := audiocache.NewStore(cfg.Cache.DBPath)
		if err := store.Open(); err != nil {
			return fmt.Errorf("opening audio cache: %w", err)
		}
		defer store.Close()

		if len(args) == 0 {
			stats, err := store.GetStats()
			if err != nil {
				return err
			}
			fmt.Printf("Entries:   %d verses\n", stats.Entries)
			fmt.Printf("Size:      %.1f MB\n", float64(stats.TotalBytes)/(1024*1024))
			fmt.Printf("Reciters:  %d\n", stats.Reciters)
			fmt.Printf("Database:  %s (schema v%s)\n", cfg.Cache.DBPath, stats.SchemaVersion)
			return nil
		}

		surah, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid surah number %q", args[0])
		}
		info, err := quran.Get(surah)
		if err != nil {
			return err
		}

		reciterID := statusReciter
		if reciterID == "" {
			reciterID = cfg.Playback.Reciter
		}
		if _, err := reciter.NewRegistry().Resolve(reciterID); err != nil {
			return err
		}

		cached := store.CountForSurah(surah, reciterID)
		state := "incomplete"
		if cached >= info.Verses {
			state = "complete"
		} else if cached == 0 {
			state = "not cached"
		}
		fmt.Printf("Surah %d (%s): %d/%d verses cached — %s\n",
			surah, info.EnglishName, cached, info.Verses, state)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusReciter, "reciter", "r", "",
		"reciter id (default from config)")
	rootCmd.AddCommand(statusCmd)
}
