// Package server exposes the renderer over HTTP.
package server

import (
	"bytes"
	"errors"
	"image/png"
	"strconv"

	"github.com/benoitkugler/oklabel/host"
	"github.com/benoitkugler/oklabel/labelapi"
	"github.com/benoitkugler/oklabel/markup"
	"github.com/benoitkugler/oklabel/printsize"
	"github.com/benoitkugler/oklabel/render"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Output formats of the render route
const (
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

type Server struct {
	app      *fiber.App
	renderer *render.Renderer
	host     *host.Host
	log      *zap.Logger
}

// New builds the HTTP application. The print route is only
// registered when `h` is not nil.
func New(renderer *render.Renderer, h *host.Host, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		BodyLimit:             10 * 1024 * 1024, // 10MB
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	s := &Server{app: app, renderer: renderer, host: h, log: log.With(zap.String("module", "server"))}

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Post("/render", s.render)
	if h != nil {
		app.Post("/print", s.print)
	}
	return s
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func errorResponse(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"message": err.Error()})
}

func (s *Server) render(c *fiber.Ctx) error {
	format := c.Query("format", FormatPNG)
	if format != FormatPNG && format != FormatPDF && format != FormatHTML {
		return errorResponse(c, fiber.StatusBadRequest, errors.New("unsupported format "+strconv.Quote(format)))
	}

	m, err := markup.Parse(bytes.NewReader(c.Body()))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	res, err := s.renderer.Render(c.UserContext(), m)
	switch {
	case errors.Is(err, markup.ErrInvalidStage):
		return errorResponse(c, fiber.StatusBadRequest, err)
	case errors.Is(err, render.ErrTooLarge):
		return errorResponse(c, fiber.StatusRequestEntityTooLarge, err)
	case err != nil:
		s.log.Error("render failed", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, err)
	}

	c.Set("X-Label-Width", strconv.FormatFloat(res.Width, 'f', -1, 64))
	c.Set("X-Label-Height", strconv.FormatFloat(res.Height, 'f', -1, 64))

	var buf bytes.Buffer
	if format == FormatPNG {
		if err := png.Encode(&buf, res.Image); err != nil {
			return errorResponse(c, fiber.StatusInternalServerError, err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(buf.Bytes())
	}

	surface := host.NewSurface(format)
	handle := printsize.Acquire(surface, printsize.NewRule(res.Width, res.Height))
	defer handle.Retire()
	if err := surface.Place(res.Image); err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err)
	}
	if _, err := surface.WriteTo(&buf); err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err)
	}
	c.Set(fiber.HeaderContentType, surface.MediaType())
	return c.Send(buf.Bytes())
}

type printRequest struct {
	LabelName string                 `json:"label_name"`
	Amount    int                    `json:"amount"`
	APIData   map[string]interface{} `json:"apiData"`
}

func (s *Server) print(c *fiber.Ctx) error {
	req := printRequest{Amount: 1}
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	err := s.host.PrintLabel(c.UserContext(), labelapi.Request{
		LabelName: req.LabelName,
		Amount:    req.Amount,
		APIData:   req.APIData,
	})
	var (
		ce *host.ConfigError
		se *labelapi.ServerError
	)
	switch {
	case err == nil:
		return c.SendStatus(fiber.StatusNoContent)
	case errors.As(err, &ce):
		return errorResponse(c, fiber.StatusBadRequest, err)
	case errors.As(err, &se):
		return errorResponse(c, fiber.StatusBadGateway, err)
	default:
		return errorResponse(c, fiber.StatusInternalServerError, err)
	}
}
