package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robmorgan/glow/light"
)

// Server exposes the registered lights over HTTP. It is thin glue: every
// handler resolves a light and forwards to it, the transition engine does
// the rest.
type Server struct {
	registry  *light.Registry
	startTime time.Time
}

// NewServer creates a server over a light registry.
func NewServer(registry *light.Registry) *Server {
	return &Server{
		registry:  registry,
		startTime: time.Now(),
	}
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(registry *light.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	NewServer(registry).SetupRoutes(r)
	return r
}

// SetupRoutes registers the API routes.
func (s *Server) SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		lights := api.Group("/lights")
		{
			lights.GET("", s.handleListLights)
			lights.GET("/:name", s.handleGetLight)
			lights.POST("/:name/turn_on", s.handleTurnOn)
			lights.POST("/:name/turn_off", s.handleTurnOff)
		}

		api.GET("/status", s.handleStatus)
	}
}

func (s *Server) handleListLights(c *gin.Context) {
	names := s.registry.Names()

	infos := make([]LightInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, lightInfo(s.registry.GetByName(name)))
	}

	c.JSON(http.StatusOK, Response{
		Status: "success",
		Data:   LightListResponse{Lights: infos, Total: len(infos)},
	})
}

func (s *Server) handleGetLight(c *gin.Context) {
	l := s.registry.GetByName(c.Param("name"))
	if l == nil {
		c.JSON(http.StatusNotFound, Response{Status: "error", Error: "no such light: " + c.Param("name")})
		return
	}

	c.JSON(http.StatusOK, Response{Status: "success", Data: lightInfo(l)})
}

func (s *Server) handleTurnOn(c *gin.Context) {
	l := s.registry.GetByName(c.Param("name"))
	if l == nil {
		c.JSON(http.StatusNotFound, Response{Status: "error", Error: "no such light: " + c.Param("name")})
		return
	}

	var req TurnOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "invalid turn_on request: " + err.Error()})
		return
	}

	brightness := light.DefaultBrightness
	if req.Brightness != nil {
		brightness = light.FromByte(*req.Brightness)
	}

	fade := time.Duration(req.Transition * float64(time.Second))
	if err := l.TurnOn(brightness, fade); err != nil {
		c.JSON(http.StatusInternalServerError, Response{Status: "error", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Status: "success", Data: lightInfo(l)})
}

func (s *Server) handleTurnOff(c *gin.Context) {
	l := s.registry.GetByName(c.Param("name"))
	if l == nil {
		c.JSON(http.StatusNotFound, Response{Status: "error", Error: "no such light: " + c.Param("name")})
		return
	}

	var req TurnOffRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "invalid turn_off request: " + err.Error()})
		return
	}

	fade := time.Duration(req.Transition * float64(time.Second))
	if err := l.TurnOff(fade); err != nil {
		c.JSON(http.StatusInternalServerError, Response{Status: "error", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{Status: "success", Data: lightInfo(l)})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Status: "success",
		Data: gin.H{
			"lights": s.registry.Count(),
			"uptime": time.Since(s.startTime).String(),
		},
	})
}

func lightInfo(l *light.Light) LightInfo {
	fading := false
	if t := l.ActiveTransition(); t != nil {
		fading = !t.Finished()
	}

	return LightInfo{
		Name:       l.Name(),
		UniqueID:   l.UniqueID(),
		On:         l.IsOn(),
		Brightness: light.ToByte(l.Brightness()),
		Fading:     fading,
	}
}
