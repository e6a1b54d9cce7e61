package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chenBenjamin97/ballannotate/pkg/annotation"
	"github.com/chenBenjamin97/ballannotate/pkg/dispatch"
	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//RunFunc starts a full pipeline run and blocks until it is done
type RunFunc func(ctx context.Context) (*dispatch.Report, error)

//Settings are the directories the QA server reads from
type Settings struct {
	InputDir   string //overlays are served from below it
	TableDir   string
	ReportPath string
}

//Server exposes tables, overlays and run control for visual QA. At most one run is in flight.
type Server struct {
	settings Settings
	run      RunFunc
	ctx      context.Context
	log      *zap.Logger

	mu      sync.Mutex
	running bool
	latest  *dispatch.Report
	lastErr error
}

//NewServer creates a server whose background runs are bound to ctx
func NewServer(ctx context.Context, settings Settings, run RunFunc, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{settings: settings, run: run, ctx: ctx, log: log}
}

func (s *Server) SetRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/tables", func(ctx *gin.Context) {
		names, err := utils.ListDir(s.settings.TableDir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				ctx.JSON(http.StatusOK, []string{})
				return
			}
			ctx.Status(http.StatusInternalServerError)
			return
		}

		tables := make([]string, 0, len(names))
		for _, name := range names {
			if strings.EqualFold(filepath.Ext(name), ".csv") {
				tables = append(tables, name)
			}
		}
		ctx.JSON(http.StatusOK, tables)
	})

	apiRoutes.GET("/tables/:name", func(ctx *gin.Context) {
		name := ctx.Param("name")
		if filepath.Base(name) != name || !strings.EqualFold(filepath.Ext(name), ".csv") {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		rows, err := annotation.ReadTable(filepath.Join(s.settings.TableDir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				ctx.Status(http.StatusNotFound)
				return
			}
			s.log.Warn("api/tables: Could not read table", zap.String("table", name), zap.Error(err))
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.JSON(http.StatusOK, rows)
	})

	apiRoutes.GET("/overlays/*path", func(ctx *gin.Context) {
		overlayPath, ok := s.overlayPath(ctx.Param("path"))
		if !ok {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		if _, err := os.Stat(overlayPath); err != nil {
			if os.IsNotExist(err) {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.Status(http.StatusInternalServerError)
			return
		}
		http.ServeFile(ctx.Writer, ctx.Request, overlayPath)
	})

	apiRoutes.POST("/runs", func(ctx *gin.Context) {
		if !s.startRun() {
			ctx.JSON(http.StatusConflict, gin.H{"status": "running"})
			return
		}
		ctx.JSON(http.StatusAccepted, gin.H{"status": "started"})
	})

	apiRoutes.GET("/runs/latest", func(ctx *gin.Context) {
		report, running, lastErr := s.Latest()
		if report == nil {
			body := gin.H{"running": running}
			if lastErr != nil {
				body["error"] = lastErr.Error()
			}
			ctx.JSON(http.StatusNotFound, body)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"running": running, "report": report})
	})

	return r
}

//overlayPath resolves a request path to an overlay image below the input directory.
//Only images inside overlay directories are served.
func (s *Server) overlayPath(requested string) (string, bool) {
	rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(requested, "/")))
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) || !utils.IsImageFile(rel) {
		return "", false
	}
	if !strings.HasSuffix(filepath.Dir(rel), utils.OverlayDirSuffix) {
		return "", false
	}
	return filepath.Join(s.settings.InputDir, rel), true
}

//startRun launches a background run, false if one is already in flight
func (s *Server) startRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true

	go func() {
		report, err := s.run(s.ctx)
		if err != nil {
			s.log.Error("api/runs: Run failed", zap.Error(err))
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.running = false
		s.lastErr = err
		if report != nil {
			s.latest = report
		}
	}()

	return true
}

//Latest returns the last finished report, falling back to the one on disk, and whether a run is in flight
func (s *Server) Latest() (*dispatch.Report, bool, error) {
	s.mu.Lock()
	report, running, lastErr := s.latest, s.running, s.lastErr
	s.mu.Unlock()

	if report == nil && s.settings.ReportPath != "" {
		if loaded, err := dispatch.ReadReport(s.settings.ReportPath); err == nil {
			report = loaded
		}
	}
	return report, running, lastErr
}
