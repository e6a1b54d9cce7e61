package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chenBenjamin97/ballannotate/pkg/annotation"
	"github.com/chenBenjamin97/ballannotate/pkg/dispatch"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	settings Settings
	release  chan struct{}
	server   *Server
	router   *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	root := t.TempDir()
	f := &fixture{
		settings: Settings{
			InputDir:   filepath.Join(root, "input"),
			TableDir:   filepath.Join(root, "tables"),
			ReportPath: filepath.Join(root, "reports", "latest.yaml"),
		},
		release: make(chan struct{}),
	}

	require.NoError(t, os.MkdirAll(f.settings.TableDir, 0755))
	require.NoError(t, annotation.WriteTable(filepath.Join(f.settings.TableDir, "game_left_json.csv"), []annotation.Row{
		annotation.NotVisible(0, "/frames/000000.jpg"),
		annotation.Visible(1, annotation.CenterBox{X: 55, Y: 55, W: 15, H: 15}, "/frames/000001.jpg"),
	}))

	overlayDir := filepath.Join(f.settings.InputDir, "game", "left_test")
	require.NoError(t, os.MkdirAll(overlayDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(overlayDir, "000001.jpg"), []byte("jpeg"), 0644))

	run := func(ctx context.Context) (*dispatch.Report, error) {
		<-f.release
		return &dispatch.Report{RunID: "run-1"}, nil
	}
	f.server = NewServer(context.Background(), f.settings, run, nil)
	f.router = f.server.SetRouter()
	return f
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	f.router.ServeHTTP(w, req)
	return w
}

func TestTables(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/tables")
	require.Equal(t, http.StatusOK, w.Code)
	var names []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.Equal(t, []string{"game_left_json.csv"}, names)

	w = f.do(http.MethodGet, "/api/tables/game_left_json.csv")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []annotation.Row
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[1].Visibility)
	assert.Equal(t, 55, rows[1].X)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/tables/other.csv").Code)
	assert.Equal(t, http.StatusNotAcceptable, f.do(http.MethodGet, "/api/tables/notes.txt").Code)
}

func TestOverlays(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/overlays/game/left_test/000001.jpg")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg", w.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/overlays/game/left_test/000009.jpg").Code)
	assert.Equal(t, http.StatusNotAcceptable, f.do(http.MethodGet, "/api/overlays/game/left/000001.jpg").Code)
	assert.Equal(t, http.StatusNotAcceptable, f.do(http.MethodGet, "/api/overlays/game/left_test/notes.txt").Code)
}

func TestOverlayPathRejectsTraversal(t *testing.T) {
	s := NewServer(context.Background(), Settings{InputDir: "/data"}, nil, nil)

	_, ok := s.overlayPath("/../etc/left_test/passwd.jpg")
	assert.False(t, ok)

	p, ok := s.overlayPath("/game/right_test/000002.png")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/data", "game", "right_test", "000002.png"), p)
}

func TestRuns(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/runs/latest").Code)

	assert.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/api/runs").Code)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/runs").Code)

	close(f.release)
	require.Eventually(t, func() bool {
		report, running, _ := f.server.Latest()
		return !running && report != nil
	}, time.Second, 10*time.Millisecond)

	w := f.do(http.MethodGet, "/api/runs/latest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "run-1")
}

func TestLatestFallsBackToReportFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, dispatch.WriteReport(f.settings.ReportPath, &dispatch.Report{RunID: "from-disk"}))

	report, running, err := f.server.Latest()
	require.NoError(t, err)
	assert.False(t, running)
	require.NotNil(t, report)
	assert.Equal(t, "from-disk", report.RunID)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz").Code)

	w := f.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
