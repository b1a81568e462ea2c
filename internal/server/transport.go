package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avroute/internal/middleware"
	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
)

// handleRequest converts the gin request into a router.Request, dispatches
// it and writes the result.
func (s *Server) handleRequest(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.writeBodyError(c, err)
		return
	}

	// NewRequest decodes the path, so hand it the escaped form.
	target := c.Request.URL.EscapedPath()
	if c.Request.URL.RawQuery != "" {
		target += "?" + c.Request.URL.RawQuery
	}

	req := router.NewRequest(c.Request.Method, target, string(body), c.Request.Header)
	req.ID = c.Request.Header.Get(middleware.RequestIDHeader)

	res := s.dispatcher.Dispatch(c.Request.Context(), req)

	for name, values := range res.Header() {
		for _, v := range values {
			c.Writer.Header().Add(name, v)
		}
	}
	c.Data(res.Status(), res.ContentType(), res.Bytes())
}

func (s *Server) writeBodyError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	body := http.StatusText(http.StatusBadRequest)
	if errors.Is(err, middleware.ErrBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
		body = middleware.ErrRequestEntityTooLarge
	}

	s.logger.WithContext(c.Request.Context()).Warn("failed to read request body",
		observability.String("path", c.Request.URL.Path),
		observability.Error(err),
	)

	c.Data(status, router.DefaultContentType, []byte(body))
}
