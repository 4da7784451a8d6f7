// Package socketio provides the Socket.io server for client communication.
package socketio

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/dscarebd/quran-insight-sub003/internal/domain/player"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/bookmarks"
	"github.com/dscarebd/quran-insight-sub003/internal/infra/download"
)

// ReciterChangedFunc is invoked after a client switches the reciter,
// so the preference can be persisted.
type ReciterChangedFunc func(id string)

// Server handles Socket.io connections and events.
type Server struct {
	io         *socket.Server
	controller *player.Controller
	downloads  *download.Manager
	bookmarks  *bookmarks.Store
	limiter    *ConnectionLimiter
	onReciter  ReciterChangedFunc

	mu      sync.RWMutex
	clients map[string]*socket.Socket
}

// Option is a functional option for the server.
type Option func(*Server)

// WithReciterChangedFunc sets the reciter-change callback.
func WithReciterChangedFunc(fn ReciterChangedFunc) Option {
	return func(s *Server) { s.onReciter = fn }
}

// WithMaxExternalClients caps concurrent non-localhost connections.
func WithMaxExternalClients(n int) Option {
	return func(s *Server) { s.limiter = NewConnectionLimiter(n) }
}

// NewServer creates a new Socket.io server.
func NewServer(controller *player.Controller, downloads *download.Manager, store *bookmarks.Store, opts ...Option) (*Server, error) {
	serverOpts := socket.DefaultServerOptions()
	serverOpts.SetPingTimeout(20 * time.Second)
	serverOpts.SetPingInterval(25 * time.Second)
	serverOpts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	server := socket.NewServer(nil, serverOpts)

	s := &Server{
		io:         server,
		controller: controller,
		downloads:  downloads,
		bookmarks:  store,
		clients:    make(map[string]*socket.Socket),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupHandlers()

	return s, nil
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())
		remoteIP := clientIP(client)

		if s.limiter != nil {
			_, evicted := s.limiter.TryAdd(clientID, remoteIP)
			if evicted != "" {
				s.mu.RLock()
				old := s.clients[evicted]
				s.mu.RUnlock()
				if old != nil {
					log.Warn().Str("id", evicted).Msg("Evicting oldest external client")
					old.Disconnect(true)
				}
			}
		}

		log.Info().Str("id", clientID).Str("ip", remoteIP).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		// Send initial state after small delay
		go func() {
			time.Sleep(100 * time.Millisecond)
			client.Emit("pushState", s.controller.State().ToJSON())
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			if s.limiter != nil {
				s.limiter.Remove(clientID)
			}
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		// Playback control events
		client.On("getState", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getState")
			client.Emit("pushState", s.controller.State().ToJSON())
		})

		client.On("playVerse", func(args ...any) {
			log.Debug().Str("id", clientID).Interface("data", args).Msg("playVerse")
			surah, verse, ok := verseArgs(args)
			if !ok {
				return
			}
			if err := s.controller.PlayVerse(surah, verse, 0); err != nil {
				log.Error().Err(err).Int("surah", surah).Int("verse", verse).Msg("PlayVerse failed")
			}
		})

		client.On("togglePlay", func(args ...any) {
			log.Debug().Str("id", clientID).Interface("data", args).Msg("togglePlay")
			surah, verse, ok := verseArgs(args)
			if !ok {
				return
			}
			if err := s.controller.TogglePlay(surah, verse, 0); err != nil {
				log.Error().Err(err).Msg("TogglePlay failed")
			}
		})

		client.On("pause", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("pause")
			s.controller.Pause()
		})

		client.On("resume", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("resume")
			s.controller.Resume()
		})

		client.On("stop", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("stop")
			s.controller.Stop()
		})

		client.On("seek", func(args ...any) {
			if len(args) > 0 {
				if pos, ok := args[0].(float64); ok {
					log.Debug().Str("id", clientID).Float64("pos", pos).Msg("seek")
					if err := s.controller.Seek(pos); err != nil {
						log.Error().Err(err).Msg("Seek failed")
					}
				}
			}
		})

		client.On("toggleRepeat", func(args ...any) {
			mode := s.controller.CycleRepeatMode()
			log.Debug().Str("id", clientID).Str("mode", mode.String()).Msg("toggleRepeat")
		})

		client.On("setABStart", func(args ...any) {
			if verse, ok := intArg(args, "verse"); ok {
				log.Debug().Str("id", clientID).Int("verse", verse).Msg("setABStart")
				s.controller.SetABRepeatStart(verse)
			}
		})

		client.On("setABEnd", func(args ...any) {
			if verse, ok := intArg(args, "verse"); ok {
				log.Debug().Str("id", clientID).Int("verse", verse).Msg("setABEnd")
				if err := s.controller.SetABRepeatEnd(verse); err != nil {
					log.Warn().Err(err).Msg("SetABRepeatEnd rejected")
				}
			}
		})

		client.On("setReciter", func(args ...any) {
			id, ok := stringArg(args, "reciter")
			if !ok {
				return
			}
			log.Debug().Str("id", clientID).Str("reciter", id).Msg("setReciter")
			if err := s.controller.SetReciter(id); err != nil {
				log.Error().Err(err).Str("reciter", id).Msg("SetReciter failed")
				return
			}
			if s.onReciter != nil {
				s.onReciter(id)
			}
		})

		// Download events
		client.On("downloadSurah", func(args ...any) {
			surah, ok := intArg(args, "surah")
			if !ok {
				return
			}
			reciterID := s.controller.State().ReciterID
			if id, ok := stringArg(args, "reciter"); ok {
				reciterID = id
			}
			log.Debug().Str("id", clientID).Int("surah", surah).Str("reciter", reciterID).Msg("downloadSurah")
			go func() {
				if err := s.downloads.DownloadSurah(context.Background(), surah, reciterID); err != nil {
					log.Error().Err(err).Int("surah", surah).Msg("DownloadSurah failed")
				}
			}()
		})

		client.On("deleteSurah", func(args ...any) {
			surah, ok := intArg(args, "surah")
			if !ok {
				return
			}
			reciterID := s.controller.State().ReciterID
			if id, ok := stringArg(args, "reciter"); ok {
				reciterID = id
			}
			log.Debug().Str("id", clientID).Int("surah", surah).Msg("deleteSurah")
			if err := s.downloads.DeleteSurah(surah, reciterID); err != nil {
				log.Error().Err(err).Msg("DeleteSurah failed")
				return
			}
			s.BroadcastDownloadProgress(s.downloads.Progress())
		})

		client.On("getDownloadProgress", func(args ...any) {
			client.Emit("pushDownloadProgress", s.downloads.Progress())
		})

		// Bookmark events
		client.On("getBookmarks", func(args ...any) {
			s.pushBookmarks(client)
		})

		client.On("addBookmark", func(args ...any) {
			surah, verse, ok := verseArgs(args)
			if !ok {
				return
			}
			note, _ := stringArg(args, "note")
			log.Debug().Str("id", clientID).Int("surah", surah).Int("verse", verse).Msg("addBookmark")
			if _, err := s.bookmarks.Add(surah, verse, note); err != nil {
				log.Error().Err(err).Msg("AddBookmark failed")
				return
			}
			s.broadcastBookmarks()
		})

		client.On("removeBookmark", func(args ...any) {
			surah, verse, ok := verseArgs(args)
			if !ok {
				return
			}
			log.Debug().Str("id", clientID).Int("surah", surah).Int("verse", verse).Msg("removeBookmark")
			if err := s.bookmarks.Remove(surah, verse); err != nil {
				log.Warn().Err(err).Msg("RemoveBookmark failed")
				return
			}
			s.broadcastBookmarks()
		})
	})
}

// verseArgs extracts {surah, verse} from the first event payload.
func verseArgs(args []any) (surah, verse int, ok bool) {
	if len(args) == 0 {
		return 0, 0, false
	}
	m, isMap := args[0].(map[string]interface{})
	if !isMap {
		return 0, 0, false
	}
	sv, okS := m["surah"].(float64)
	vv, okV := m["verse"].(float64)
	if !okS || !okV {
		return 0, 0, false
	}
	return int(sv), int(vv), true
}

func intArg(args []any, key string) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	if m, ok := args[0].(map[string]interface{}); ok {
		if v, ok := m[key].(float64); ok {
			return int(v), true
		}
	}
	return 0, false
}

func stringArg(args []any, key string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	if m, ok := args[0].(map[string]interface{}); ok {
		if v, ok := m[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func clientIP(client *socket.Socket) string {
	addr := client.Handshake().Address
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func (s *Server) pushBookmarks(client *socket.Socket) {
	list, err := s.bookmarks.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list bookmarks")
		return
	}
	client.Emit("pushBookmarks", list)
}

func (s *Server) broadcastBookmarks() {
	list, err := s.bookmarks.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list bookmarks for broadcast")
		return
	}
	s.io.Emit("pushBookmarks", list)
}

// BroadcastState sends the playback state to all connected clients.
func (s *Server) BroadcastState() {
	state := s.controller.State()
	s.io.Emit("pushState", state.ToJSON())

	if log.Debug().Enabled() {
		data, _ := json.Marshal(state.ToJSON())
		s.mu.RLock()
		clientCount := len(s.clients)
		s.mu.RUnlock()
		log.Debug().RawJSON("state", data).Int("clients", clientCount).Msg("Broadcast state")
	}
}

// BroadcastDownloadProgress pushes a download snapshot to all clients.
func (s *Server) BroadcastDownloadProgress(p download.Progress) {
	s.io.Emit("pushDownloadProgress", p)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close closes the Socket.io server.
func (s *Server) Close() error {
	s.io.Close(nil)
	return nil
}
