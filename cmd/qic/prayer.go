package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dscarebd/quran-insight-sub003/internal/domain/prayer"
)

var (
	prayerLat    float64
	prayerLon    float64
	prayerMethod string
	prayerDate   string
)

var prayerCmd = &cobra.Command{
	Use:   "prayer",
	Short: "Print prayer times for the configured location",
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lon := cfg.Prayer.Latitude, cfg.Prayer.Longitude
		if cmd.Flags().Changed("lat") {
			lat = prayerLat
		}
		if cmd.Flags().Changed("lon") {
			lon = prayerLon
		}
		methodName := cfg.Prayer.Method
		if prayerMethod != "" {
			methodName = prayerMethod
		}
		method, err := prayer.ParseMethod(methodName)
		if err != nil {
			return err
		}

		calc, err := prayer.NewCalculator(lat, lon, prayer.WithMethod(method))
		if err != nil {
			return err
		}

		day := time.Now()
		if prayerDate != "" {
			day, err = time.ParseInLocation("2006-01-02", prayerDate, time.Local)
			if err != nil {
				return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", prayerDate)
			}
		}

		pt := calc.TimesFor(day)
		fmt.Printf("Prayer times for %.4f, %.4f on %s (%s)\n\n",
			lat, lon, pt.Date.Format("2006-01-02"), method)
		fmt.Printf("  Fajr     %s\n", pt.Fajr.Format("15:04"))
		fmt.Printf("  Sunrise  %s\n", pt.Sunrise.Format("15:04"))
		fmt.Printf("  Dhuhr    %s\n", pt.Dhuhr.Format("15:04"))
		fmt.Printf("  Asr      %s\n", pt.Asr.Format("15:04"))
		fmt.Printf("  Maghrib  %s\n", pt.Maghrib.Format("15:04"))
		fmt.Printf("  Isha     %s\n", pt.Isha.Format("15:04"))

		if name, at, ok := pt.Next(time.Now()); ok && prayerDate == "" {
			fmt.Printf("\nNext: %s at %s\n", name, at.Format("15:04"))
		}
		return nil
	},
}

func init() {
	prayerCmd.Flags().Float64Var(&prayerLat, "lat", 0, "latitude (default from config)")
	prayerCmd.Flags().Float64Var(&prayerLon, "lon", 0, "longitude (default from config)")
	prayerCmd.Flags().StringVarP(&prayerMethod, "method", "m", "",
		"calculation method: mwl, isna, karachi, ummalqura, egypt")
	prayerCmd.Flags().StringVar(&prayerDate, "date", "", "date (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(prayerCmd)
}
