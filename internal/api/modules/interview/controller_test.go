package interview

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/face2phrase/backend/internal/orchestrator"
	"github.com/face2phrase/backend/internal/stores/session"
	"github.com/face2phrase/backend/pkg/keypool"
)

func newTestRouter(t *testing.T) (*gin.Engine, *orchestrator.Orchestrator, session.Store, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	baseDir := t.TempDir()
	store := session.NewMemoryStore(baseDir)

	pool := keypool.NewPool([]string{"key-a"}, time.Minute)
	sched := keypool.NewScheduler(pool, keypool.GeneratorFunc(func(ctx context.Context, key, prompt string) (string, error) {
		return "ok", nil
	}), nil)

	o, err := orchestrator.New(orchestrator.Options{
		Store:     store,
		Scheduler: sched,
		BaseDir:   baseDir,
		Workers:   1,
	})
	require.NoError(t, err)

	Init(o)

	engine := gin.New()
	RegisterRoutes(engine.Group("/api"))
	return engine, o, store, baseDir
}

func seedUploadSession(t *testing.T, store session.Store, baseDir string) *session.Session {
	t.Helper()

	s := &session.Session{
		ID:        "upload-session",
		Status:    session.StatusActive,
		Questions: []string{"Tell me about yourself.", "Describe a hard bug."},
		CreatedAt: time.Now().UTC(),
	}

	_, err := session.NewDir(baseDir, s.ID)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), s))
	return s
}

func uploadRequest(t *testing.T, sessionID, questionIndex string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("session_id", sessionID))
	require.NoError(t, w.WriteField("question_index", questionIndex))

	fw, err := w.CreateFormFile("video", "answer.webm")
	require.NoError(t, err)
	_, err = fw.Write([]byte("webm-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-video", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func videosDir(baseDir, sessionID string) string {
	return filepath.Join(baseDir, sessionID, "videos")
}

func TestUploadVideo(t *testing.T) {
	t.Run("accepts an in-range upload", func(t *testing.T) {
		engine, o, store, baseDir := newTestRouter(t)
		s := seedUploadSession(t, store, baseDir)

		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, uploadRequest(t, s.ID, "0"))
		o.Wait()

		assert.Equal(t, http.StatusOK, rec.Code)

		_, err := os.Stat(session.OpenDir(baseDir, s.ID).VideoPath(0))
		assert.NoError(t, err)
	})

	t.Run("out of range index leaves no file behind", func(t *testing.T) {
		engine, _, store, baseDir := newTestRouter(t)
		s := seedUploadSession(t, store, baseDir)

		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, uploadRequest(t, s.ID, "7"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		entries, err := os.ReadDir(videosDir(baseDir, s.ID))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("negative index leaves no file behind", func(t *testing.T) {
		engine, _, store, baseDir := newTestRouter(t)
		s := seedUploadSession(t, store, baseDir)

		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, uploadRequest(t, s.ID, "-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		entries, err := os.ReadDir(videosDir(baseDir, s.ID))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("unknown session 404s", func(t *testing.T) {
		engine, _, _, _ := newTestRouter(t)

		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, uploadRequest(t, "missing", "0"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
