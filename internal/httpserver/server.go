// Package httpserver exposes health, Prometheus metrics and the recent
// frame history over HTTP.
package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/metrics"
	"github.com/gin-gonic/gin"
)

const (
	DefaultAddr         = ":9108"
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// History provides the recent frames served on /history.
type History interface {
	Recent(limit int) ([]metrics.Snapshot, error)
}

type Server struct {
	srv *http.Server
}

// New builds the router. readyFn and history may be nil.
func New(addr string, metricsHandler http.Handler, history History, readyFn func() bool) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if readyFn == nil || readyFn() {
			c.String(http.StatusOK, "ready")
			return
		}
		c.String(http.StatusServiceUnavailable, "not-ready")
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}
	if history != nil {
		r.GET("/history", historyHandler(history))
	}

	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.New().Wrap(errors.ErrHTTPServer, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return errors.New().Wrap(errors.ErrHTTPServer, err)
		}
		return nil
	}
}

type historyEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Valid     bool      `json:"valid"`
	Status    string    `json:"status,omitempty"`
	TempIn    string    `json:"temp_in"`
	RHIn      string    `json:"rh_in"`
	TempOut   string    `json:"temp_out"`
	RHOut     string    `json:"rh_out"`
	Condition string    `json:"condition"`
	Voltage   string    `json:"voltage"`
	FanPower  bool      `json:"fan_power"`
	FanRPM    string    `json:"fan_rpm"`
}

func historyHandler(history History) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultHistoryLimit
		if q := c.Query("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n <= 0 || n > maxHistoryLimit {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = n
		}

		snaps, err := history.Recent(limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		entries := make([]historyEntry, 0, len(snaps))
		for _, s := range snaps {
			f := s.Frame
			e := historyEntry{
				Timestamp: s.Timestamp.UTC(),
				Source:    string(s.Source),
				Valid:     s.Valid,
				TempIn:    f.TempIn.String(),
				RHIn:      f.RHIn.String(),
				TempOut:   f.TempOut.String(),
				RHOut:     f.RHOut.String(),
				Condition: f.Cond.String(),
				Voltage:   f.Voltage.String(),
				FanPower:  f.FanPower.On(),
				FanRPM:    f.FanRPM.String(),
			}
			if s.Source == metrics.SourceLocal {
				e.Status = strconv.FormatUint(uint64(s.Status), 16)
			}
			entries = append(entries, e)
		}
		c.JSON(http.StatusOK, entries)
	}
}
