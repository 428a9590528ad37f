// Package display serves the painting to a kiosk browser over HTTP and
// websockets. The server is the session's Display and its event sink.
package display

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

//go:embed static
var staticFS embed.FS

// commandTimeout bounds operator commands arriving over a websocket.
const commandTimeout = 5 * time.Second

// Config contains configuration for the display server.
type Config struct {
	// Listen is the address to bind, e.g. ":8080".
	Listen string
}

// View is the state a kiosk needs to render, as served by /api/status.
type View struct {
	Frame     domain.FrameID `json:"frame"`
	Status    domain.Status  `json:"status"`
	Visual    string         `json:"visual"`
	HasPhone  bool           `json:"has_phone"`
	Debug     bool           `json:"debug"`
	LastError string         `json:"last_error,omitempty"`
	Clients   int            `json:"clients"`
}

// event is the envelope of every text message pushed to display clients.
type event struct {
	Type     string         `json:"type"`
	Frame    domain.FrameID `json:"frame,omitempty"`
	Status   *domain.Status `json:"status,omitempty"`
	Visual   string         `json:"visual,omitempty"`
	HasPhone *bool          `json:"has_phone,omitempty"`
	Enabled  *bool          `json:"enabled,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// command is a text message sent by a display client.
type command struct {
	Command string `json:"command"`
}

// Server is a fiber app rendering the painting on connected kiosks.
type Server struct {
	config Config
	frames ports.FrameStore
	logger ports.Logger
	app    *fiber.App

	display *hub
	debug   *hub

	mu         sync.RWMutex
	ln         net.Listener
	view       View
	controller ports.Controller
}

// NewServer creates a display server serving frames from store.
func NewServer(config Config, frames ports.FrameStore, logger ports.Logger) *Server {
	s := &Server{
		config:  config,
		frames:  frames,
		logger:  logger,
		display: newHub("display", logger),
		debug:   newHub("debug", logger),
		view:    View{Visual: domain.StateDefault.String()},
	}
	s.display.greet = s.greeting

	app := fiber.New(fiber.Config{
		AppName:               "paintwatch",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Get("/frames/*", s.handleFrame)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/camera/next", s.handleSwitchCamera)
	api.Post("/debug", s.handleToggleDebug)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/display", websocket.New(s.handleDisplayWS))
	app.Get("/ws/debug", websocket.New(s.handleDebugWS))

	s.app = app
	return s
}

// SetController wires the operator commands. Until it is called the
// command endpoints answer 503.
func (s *Server) SetController(c ports.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller = c
}

// Bind opens the listening socket so that address errors surface before
// serving starts.
func (s *Server) Bind() error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Listen, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Bind.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve starts the hubs and serves on the bound socket until Shutdown.
func (s *Server) Serve() error {
	s.mu.RLock()
	ln := s.ln
	s.mu.RUnlock()
	if ln == nil {
		return fmt.Errorf("display server not bound")
	}

	go s.display.run()
	go s.debug.run()
	s.logger.Info("display server listening", ports.String("addr", ln.Addr().String()))
	return s.app.Listener(ln)
}

// Listen binds and serves until Shutdown.
func (s *Server) Listen() error {
	if err := s.Bind(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown stops accepting connections and closes every client. It is safe
// to call before Serve; a later Serve then returns immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	s.display.stop()
	s.debug.stop()
	err := s.app.ShutdownWithContext(ctx)

	s.mu.RLock()
	ln := s.ln
	s.mu.RUnlock()
	if ln != nil {
		_ = ln.Close()
	}
	return err
}

// View returns the current view state.
func (s *Server) View() View {
	s.mu.RLock()
	v := s.view
	s.mu.RUnlock()
	v.Clients = s.display.count()
	return v
}

// Show implements ports.Display.
func (s *Server) Show(frame domain.FrameID) {
	s.mu.Lock()
	s.view.Frame = frame
	s.mu.Unlock()
	s.display.sendJSON(event{Type: "frame", Frame: frame})
}

// OnStatus implements app.SessionEmitter.
func (s *Server) OnStatus(status domain.Status) {
	s.mu.Lock()
	s.view.Status = status
	s.mu.Unlock()
	s.display.sendJSON(event{Type: "status", Status: &status})
}

// OnVisualStateChange implements app.SessionEmitter.
func (s *Server) OnVisualStateChange(previous, current domain.VisualState) {
	s.mu.Lock()
	s.view.Visual = current.String()
	s.mu.Unlock()
	s.display.sendJSON(event{Type: "visual", Visual: current.String()})
}

// OnPresenceChange implements app.SessionEmitter.
func (s *Server) OnPresenceChange(change domain.PresenceChange) {
	present := change == domain.BecamePresent
	s.mu.Lock()
	s.view.HasPhone = present
	s.mu.Unlock()
	s.display.sendJSON(event{Type: "presence", HasPhone: &present})
}

// OnDetectionError implements app.SessionEmitter.
func (s *Server) OnDetectionError(err error) {
	s.mu.Lock()
	s.view.LastError = err.Error()
	debug := s.view.Debug
	s.mu.Unlock()
	if debug {
		s.display.sendJSON(event{Type: "error", Error: err.Error()})
	}
}

// OnAnnotatedImage implements app.SessionEmitter.
func (s *Server) OnAnnotatedImage(jpeg []byte) {
	s.debug.sendBinary(jpeg)
}

// OnDebugChange implements app.SessionEmitter.
func (s *Server) OnDebugChange(enabled bool) {
	s.mu.Lock()
	s.view.Debug = enabled
	s.mu.Unlock()
	s.display.sendJSON(event{Type: "debug", Enabled: &enabled})
}

// greeting brings a freshly connected kiosk up to date.
func (s *Server) greeting() []message {
	s.mu.RLock()
	v := s.view
	s.mu.RUnlock()

	var out []message
	for _, e := range []event{
		{Type: "debug", Enabled: &v.Debug},
		{Type: "status", Status: &v.Status},
		{Type: "frame", Frame: v.Frame},
	} {
		if e.Type == "frame" && e.Frame == "" {
			continue
		}
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		out = append(out, message{kind: textMessage, data: data})
	}
	return out
}

func (s *Server) currentController() ports.Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller
}

var _ ports.Display = (*Server)(nil)
