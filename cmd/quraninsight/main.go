// Package main is the entry point for the Quran Insight playback daemon.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dscarebd/quran-insight-sub003/internal/audio"
	"github.com/dscarebd/quran-insight-sub003/internal/config"
	"github.com/dscarebd/quran-insight-sub003/internal/domain/player"
	"github.com/dscarebd/quran-insight-sub003/internal/domain/prayer"
	"github.com/dscarebd/quran-insight-sub003/internal/domain/quran"
	"github.com/dscarebd/quran-insight-sub003/internal/domain/reciter"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/audiocache"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/bookmarks"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/download"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/everyayah"
	"github.com/dscarebd/quran-insight-sub003/internal/transport/socketio"
	"github.com/dscarebd/quran-insight-sub003/internal/version"
)

const maxExternalClients = 4

func main() {
	// Command line flags
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	configPath := flag.String("config", "", "Config file path")
	noAudio := flag.Bool("no-audio", false, "Disable local audio output")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if !*debug {
		if lvl, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *noAudio {
		cfg.Playback.AudioOutput = false
	}

	// Print startup banner
	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Quran Recitation Playback Daemon")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Int("port", cfg.Server.Port).
		Str("reciter", cfg.Playback.Reciter).
		Bool("auto_play_next", cfg.Playback.AutoPlayNext).
		Bool("audio_output", cfg.Playback.AudioOutput).
		Str("cache_db", cfg.Cache.DBPath).
		Msg("Configuration")

	// Open the audio cache
	store := audiocache.NewStore(cfg.Cache.DBPath)
	if err := store.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open audio cache")
	}
	defer store.Close()

	// Open the bookmark store
	marks, err := bookmarks.Open(cfg.Cache.BookmarksPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open bookmark store")
	}
	defer marks.Close()

	// Remote recitation source
	source := everyayah.NewClient(
		everyayah.WithBaseURL(cfg.Everyayah.BaseURL),
		everyayah.WithRateLimit(cfg.Everyayah.RateLimit),
	)

	registry := reciter.NewRegistry()
	sink := audio.NewSink(cfg.Playback.AudioOutput)

	controller := player.NewController(store, source, registry, sink,
		player.WithReciter(cfg.Playback.Reciter),
		player.WithAutoPlayNext(cfg.Playback.AutoPlayNext),
	)

	downloads := download.NewManager(store, source, registry)

	// Create Socket.io server
	socketServer, err := socketio.NewServer(controller, downloads, marks,
		socketio.WithMaxExternalClients(maxExternalClients),
		socketio.WithReciterChangedFunc(func(id string) {
			if err := config.SaveReciter(id); err != nil {
				log.Warn().Err(err).Msg("Failed to persist reciter preference")
			}
		}),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()

	// Debounce bursts of state/progress updates into batched broadcasts
	debouncer := socketio.NewBroadcastDebouncer(100*time.Millisecond,
		socketServer.BroadcastState,
		func() { socketServer.BroadcastDownloadProgress(downloads.Progress()) },
	)
	defer debouncer.Stop()

	controller.OnStateChange(func(player.State) { debouncer.TriggerState() })
	downloads.OnProgress(func(download.Progress) { debouncer.TriggerDownload() })

	var prayerCalc *prayer.Calculator
	if c, err := buildPrayerCalculator(cfg); err != nil {
		log.Warn().Err(err).Msg("Prayer times disabled")
	} else {
		prayerCalc = c
	}

	// Setup HTTP server
	mux := http.NewServeMux()

	// Socket.io endpoint
	mux.Handle("/socket.io/", socketServer)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := store.GetStats(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","cache":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Version endpoint
	mux.HandleFunc("/api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(version.GetInfo())
	})

	// Playback state (REST fallback)
	mux.HandleFunc("/api/v1/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(controller.State().ToJSON())
	})

	// Cache statistics
	mux.HandleFunc("/api/v1/cache/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetStats()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	})

	// Per-surah cache status
	mux.HandleFunc("/api/v1/surah", func(w http.ResponseWriter, r *http.Request) {
		surah, err := strconv.Atoi(r.URL.Query().Get("number"))
		if err != nil {
			http.Error(w, "number parameter required", http.StatusBadRequest)
			return
		}
		info, err := quran.Get(surah)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		reciterID := r.URL.Query().Get("reciter")
		if reciterID == "" {
			reciterID = controller.State().ReciterID
		}
		cached, total, err := downloads.CachedVerses(surah, reciterID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"surah":       info,
			"reciter":     reciterID,
			"cached":      cached,
			"total":       total,
			"isComplete":  cached >= total,
			"downloading": downloads.IsRunning(),
		})
	})

	// Prayer times
	mux.HandleFunc("/api/v1/prayer", func(w http.ResponseWriter, r *http.Request) {
		if prayerCalc == nil {
			http.Error(w, "prayer times not configured", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prayerCalc.TimesFor(time.Now()))
	})

	// Start HTTP server
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		controller.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Server stopped")
}

func buildPrayerCalculator(cfg *config.Config) (*prayer.Calculator, error) {
	method, err := prayer.ParseMethod(cfg.Prayer.Method)
	if err != nil {
		return nil, err
	}
	return prayer.NewCalculator(cfg.Prayer.Latitude, cfg.Prayer.Longitude, prayer.WithMethod(method))
}
