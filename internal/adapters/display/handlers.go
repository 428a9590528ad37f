package display

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// handleIndex serves the kiosk page.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return fiber.ErrNotFound
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(page)
}

// handleFrame serves one pre-loaded frame by its ID.
func (s *Server) handleFrame(c *fiber.Ctx) error {
	id := domain.FrameID(c.Params("*"))
	data, ok := s.frames.Frame(id)
	if !ok {
		return fiber.ErrNotFound
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400, immutable")
	return c.Send(data)
}

// handleStatus returns the current view.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.View())
}

func (s *Server) handleSwitchCamera(c *fiber.Ctx) error {
	return s.runCommand(c, ports.Controller.SwitchCamera)
}

func (s *Server) handleToggleDebug(c *fiber.Ctx) error {
	return s.runCommand(c, ports.Controller.ToggleDebug)
}

func (s *Server) runCommand(c *fiber.Ctx, fn func(ports.Controller, context.Context) error) error {
	ctrl := s.currentController()
	if ctrl == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "controller not configured",
		})
	}
	if err := fn(ctrl, c.UserContext()); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, domain.ErrNotRunning) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"ok": true})
}

// handleDisplayWS streams frame and status events to a kiosk and accepts
// hotkey commands from it.
func (s *Server) handleDisplayWS(conn *websocket.Conn) {
	s.display.serve(conn, s.handleCommand)
}

// handleDebugWS streams annotated detector images as binary JPEG messages.
func (s *Server) handleDebugWS(conn *websocket.Conn) {
	s.debug.serve(conn, nil)
}

func (s *Server) handleCommand(data []byte) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.logger.Debug("ignoring malformed command", ports.Err(err))
		return
	}

	ctrl := s.currentController()
	if ctrl == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch cmd.Command {
	case "switch_camera":
		err = ctrl.SwitchCamera(ctx)
	case "toggle_debug":
		err = ctrl.ToggleDebug(ctx)
	default:
		s.logger.Debug("unknown command", ports.String("command", cmd.Command))
		return
	}
	if err != nil {
		s.logger.Warn("command failed",
			ports.String("command", cmd.Command),
			ports.Err(err))
	}
}
