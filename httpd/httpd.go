package httpd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/netutil"

	"github.com/uhppoted/uhppoted-app-drive/xlsx"
)

type Options struct {
	MaxConnections int
	Debug          bool
}

// Server serves the rows of the local spreadsheet on GET /data.
type Server struct {
	bind    string
	source  xlsx.Source
	options Options
	engine  *gin.Engine
}

func NewServer(bind string, source xlsx.Source, options Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := Server{
		bind:    bind,
		source:  source,
		options: options,
		engine:  gin.New(),
	}

	s.engine.Use(gin.Recovery())
	if options.Debug {
		s.engine.Use(gin.LoggerWithWriter(log.Writer()))
	}

	s.engine.GET("/data", s.data)

	return &s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the bind address until the context is cancelled and then shuts the server down,
// allowing in-flight requests up to 5 seconds to complete.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("unable to listen on %s (%w)", s.bind, err)
	}

	if s.options.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, s.options.MaxConnections)
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdown); err != nil {
			log.Printf("%-5s %v", "WARN", err)
		}
	}()

	log.Printf("%-5s listening on %v", "INFO", listener.Addr())

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) data(c *gin.Context) {
	rows, err := s.source.Rows()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusServiceUnavailable
		}

		log.Printf("%-5s GET /data (%v)", "WARN", err)

		c.JSON(status, gin.H{
			"error": fmt.Sprintf("error loading spreadsheet (%v)", err),
		})
		return
	}

	c.JSON(http.StatusOK, rows)
}
