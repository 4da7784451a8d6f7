package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dscarebd/quran-insight-sub003/internal/domain/quran"
	"github.com/dscarebd/quran-insight-sub003/internal/domain/reciter"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/audiocache"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/download"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/everyayah"
)

var downloadReciter string

var downloadCmd = &cobra.Command{
	Use:   "download <surah> [surah...]",
	Short: "Download surahs into the local audio cache",
	Long: `Download fetches every verse of the given surahs from everyayah.com
into the local cache, one verse at a time. Already-cached verses are
skipped, so an interrupted download can be resumed by running the same
command again.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		surahs := make([]int, 0, len(args))
		for _, arg := range args {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("invalid surah number %q", arg)
			}
			if _, err := quran.Get(n); err != nil {
				return err
			}
			surahs = append(surahs, n)
		}

		reciterID := downloadReciter
		if reciterID == "" {
			reciterID = cfg.Playback.Reciter
		}
		registry := reciter.NewRegistry()
		rec, err := registry.Resolve(reciterID)
		if err != nil {
			return err
		}

		store := audiocache.NewStore(cfg.Cache.DBPath)
		if err := store.Open(); err != nil {
			return fmt.Errorf("opening audio cache: %w", err)
		}
		defer store.Close()

		source := everyayah.NewClient(
			everyayah.WithBaseURL(cfg.Everyayah.BaseURL),
			everyayah.WithRateLimit(cfg.Everyayah.RateLimit),
		)

		manager := download.NewManager(store, source, registry,
			download.WithProgressFunc(printProgress))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		for _, surah := range surahs {
			info, _ := quran.Get(surah)
			fmt.Printf("Downloading surah %d (%s) — %s\n", surah, info.EnglishName, rec.Name)
			if err := manager.DownloadSurah(ctx, surah, reciterID); err != nil {
				return fmt.Errorf("surah %d: %w", surah, err)
			}
			fmt.Println()
		}
		return nil
	},
}

// printProgress renders a single-line progress indicator.
func printProgress(p download.Progress) {
	if !p.InProgress {
		return
	}
	done := p.Downloaded + p.Skipped
	fmt.Fprintf(os.Stdout, "\r  %3d/%3d verses (%d skipped) %s   ",
		done, p.Total, p.Skipped, p.CurrentFile)
	if done == p.Total {
		fmt.Fprintln(os.Stdout)
	}
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadReciter, "reciter", "r", "",
		"reciter id (default from config)")
	rootCmd.AddCommand(downloadCmd)
}
