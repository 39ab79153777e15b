package api

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-photo-gallery/internal/api/handlers"
	"go-photo-gallery/internal/config"
	"go-photo-gallery/internal/database"
	"go-photo-gallery/internal/gallery"
	"go-photo-gallery/internal/remote"
	"go-photo-gallery/internal/store"
	"go-photo-gallery/internal/validation"
)

type stubPusher struct{ err error }

func (p stubPusher) Push(context.Context, string) (*remote.SyncResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &remote.SyncResult{Provider: "stub", CommitSHA: "abc"}, nil
}

type testServer struct {
	router       *gin.Engine
	token        string
	snapshotPath string
}

func newTestServer(t *testing.T, pusher remote.Pusher) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.RegisterWithGin())

	dir := t.TempDir()
	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(dir, "gallery.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	snapshotPath := filepath.Join(dir, "data", "db_backup.json")
	svc := gallery.NewService(store.New(db), gallery.Options{SnapshotPath: snapshotPath, Pusher: pusher})
	_, err = svc.Bootstrap(context.Background())
	require.NoError(t, err)

	admin := config.AdminConfig{Password: "secret-pass", JWTSecret: "jwt-secret", TokenTTL: time.Hour}
	auth, err := handlers.NewAuthHandler(admin)
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, Dependencies{Gallery: svc, Auth: auth, Admin: admin, MaxUploadSize: 1 << 20})

	ts := &testServer{router: router, snapshotPath: snapshotPath}
	w := ts.do(t, http.MethodPost, "/api/v1/auth/login", jsonBody(t, gin.H{"password": "secret-pass"}), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	ts.token = login.Token
	return ts
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func (ts *testServer) do(t *testing.T, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) admin(t *testing.T, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+ts.token)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func multipartImage(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()
	return multipartImageWithFields(t, field, nil)
}

func multipartImageWithFields(t *testing.T, field string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	img.Set(1, 1, color.White)
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthAndLogin(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", jsonBody(t, gin.H{"password": "wrong"}), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/folders", jsonBody(t, gin.H{"folder": "ravi_k"}), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFolderEndpoints(t *testing.T) {
	ts := newTestServer(t, stubPusher{})
	folder := gin.H{"folder": "ravi_k", "name": "Ravi", "age": 41, "profession": "Chef", "category": "Food"}

	w := ts.admin(t, http.MethodPost, "/api/v1/folders", jsonBody(t, folder), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Backup gallery.CommitResult `json:"backup"`
	}
	decode(t, w, &created)
	assert.True(t, created.Backup.Synced)

	w = ts.admin(t, http.MethodPost, "/api/v1/folders", jsonBody(t, folder), "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)

	bad := gin.H{"folder": "RK", "name": "R", "age": 0, "profession": "x", "category": "y"}
	w = ts.admin(t, http.MethodPost, "/api/v1/folders", jsonBody(t, bad), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "age must be greater than 0")

	w = ts.do(t, http.MethodGet, "/api/v1/folders?search=chef", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Folders []struct {
			Folder string `json:"folder"`
		} `json:"folders"`
	}
	decode(t, w, &list)
	require.Len(t, list.Folders, 1)
	assert.Equal(t, "ravi_k", list.Folders[0].Folder)

	w = ts.do(t, http.MethodGet, "/api/v1/folders/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"Food"`)

	w = ts.do(t, http.MethodGet, "/api/v1/folders/ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/folders/categories?search=nobody", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"categories":[]}`, w.Body.String())
}

func TestImageEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	body, contentType := multipartImage(t, "files")
	w := ts.admin(t, http.MethodPost, "/api/v1/folders/sarika/images", body, contentType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var uploaded struct {
		Images []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"images"`
	}
	decode(t, w, &uploaded)
	require.Len(t, uploaded.Images, 1)
	url := uploaded.Images[0].URL

	w = ts.do(t, http.MethodGet, url, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = ts.do(t, http.MethodGet, url+"?download=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = ts.admin(t, http.MethodPatch, url+"/permission", jsonBody(t, gin.H{"download_allowed": false}), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, url+"?download=1", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	body, contentType = multipartImage(t, "file")
	w = ts.admin(t, http.MethodPut, url, body, contentType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"download_allowed":false`)

	w = ts.do(t, http.MethodGet, "/api/v1/folders/sarika/images", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), uploaded.Images[0].Name)

	w = ts.admin(t, http.MethodDelete, url, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.admin(t, http.MethodDelete, url, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	body, contentType = multipartImage(t, "files")
	w = ts.admin(t, http.MethodPost, "/api/v1/folders/ghost/images", body, contentType)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadImages_DownloadFlag(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		fields map[string]string
		want   bool
		status int
	}{
		{"default allows", nil, true, http.StatusOK},
		{"explicit true", map[string]string{"download_allowed": "true"}, true, http.StatusOK},
		{"explicit false", map[string]string{"download_allowed": "false"}, false, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartImageWithFields(t, "files", tt.fields)
			w := ts.admin(t, http.MethodPost, "/api/v1/folders/sarika/images", body, contentType)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

			var uploaded struct {
				Images []struct {
					URL             string `json:"url"`
					DownloadAllowed bool   `json:"download_allowed"`
				} `json:"images"`
			}
			decode(t, w, &uploaded)
			require.Len(t, uploaded.Images, 1)
			assert.Equal(t, tt.want, uploaded.Images[0].DownloadAllowed)

			w = ts.do(t, http.MethodGet, uploaded.Images[0].URL+"?download=1", nil, "")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSurveyEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/api/v1/folders/jamuna/surveys", jsonBody(t, gin.H{"rating": 4, "feedback": "nice"}), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var submitted struct {
		Survey struct {
			ID string `json:"id"`
		} `json:"survey"`
	}
	decode(t, w, &submitted)
	require.NotEmpty(t, submitted.Survey.ID)

	w = ts.do(t, http.MethodPost, "/api/v1/folders/jamuna/surveys", jsonBody(t, gin.H{"rating": 0}), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/ratings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"folder":"jamuna"`)

	w = ts.admin(t, http.MethodGet, "/api/v1/surveys?folder=jamuna", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), submitted.Survey.ID)

	w = ts.admin(t, http.MethodDelete, "/api/v1/surveys/"+submitted.Survey.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.admin(t, http.MethodDelete, "/api/v1/surveys/"+submitted.Survey.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBackupEndpoints(t *testing.T) {
	ts := newTestServer(t, stubPusher{err: &remote.Error{Kind: remote.KindUnauthorized, Step: "authentication", Status: 401}})

	w := ts.admin(t, http.MethodGet, "/api/v1/backup/export", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), `"sarika"`)

	w = ts.admin(t, http.MethodPost, "/api/v1/backup/sync", nil, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"sync_error_kind":"unauthorized"`)

	before, err := os.ReadFile(ts.snapshotPath)
	require.NoError(t, err)

	w = ts.admin(t, http.MethodPost, "/api/v1/backup/restore", bytes.NewBufferString(`[1,2]`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	after, err := os.ReadFile(ts.snapshotPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	w = ts.admin(t, http.MethodPost, "/api/v1/backup/restore", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"restored"`)

	doc := `{"folders":[{"folder":"ravi_k","name":"Ravi","age":41,"profession":"Chef","category":"Food"}],"images":[],"surveys":[]}`
	w = ts.admin(t, http.MethodPost, "/api/v1/backup/restore", bytes.NewBufferString(doc), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/folders", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ravi_k")
	assert.NotContains(t, w.Body.String(), "sarika")
}
