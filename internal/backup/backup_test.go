package backup

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-photo-gallery/internal/config"
	"go-photo-gallery/internal/database"
	"go-photo-gallery/internal/models"
	"go-photo-gallery/internal/store"
)

func newTestDB(t *testing.T) (*gorm.DB, *store.Store) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "gallery.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	s := store.New(db)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return db, s
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db_backup.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func seed(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	_, err := s.SeedDefaults(ctx)
	require.NoError(t, err)
	require.NoError(t, s.AddImage(ctx, &models.Image{Name: "a.jpg", Folder: "sarika", ImageData: []byte("jpeg-a"), DownloadAllowed: true}))
	require.NoError(t, s.AddImage(ctx, &models.Image{Name: "b.jpg", Folder: "jamuna", ImageData: []byte("jpeg-b"), DownloadAllowed: false}))
	feedback := "lovely"
	require.NoError(t, s.AddSurveyEntry(ctx, &models.SurveyEntry{ID: "s1", Folder: "sarika", Rating: 5, Feedback: &feedback, Timestamp: "2024-05-01T10:00:00Z"}))
	require.NoError(t, s.AddSurveyEntry(ctx, &models.SurveyEntry{ID: "s2", Folder: "sarika", Rating: 2, Timestamp: "2024-05-01T10:00:00Z"}))
}

func TestSerialize_EmptyStore(t *testing.T) {
	db, _ := newTestDB(t)

	snap, err := Serialize(context.Background(), db)
	require.NoError(t, err)

	data, err := Encode(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"folders":[],"images":[],"surveys":[]}`, string(data))
}

func TestSerialize_Content(t *testing.T) {
	db, s := newTestDB(t)
	seed(t, s)

	snap, err := Serialize(context.Background(), db)
	require.NoError(t, err)

	require.Len(t, snap.Folders, 2)
	assert.Equal(t, "sarika", snap.Folders[0].Folder)
	require.Len(t, snap.Images, 2)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-a")), snap.Images[0].ImageData)
	assert.Equal(t, 1, snap.Images[0].DownloadAllowed)
	assert.Equal(t, 0, snap.Images[1].DownloadAllowed)
	require.Len(t, snap.Surveys, 2)
	assert.Equal(t, "s1", snap.Surveys[0].ID)
	assert.Nil(t, snap.Surveys[1].Feedback)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, s := newTestDB(t)
	seed(t, s)

	first, err := Serialize(ctx, db)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "nested", "db_backup.json")
	require.NoError(t, WriteSnapshot(first, path))

	other, _ := newTestDB(t)
	report, err := Restore(ctx, other, path)
	require.NoError(t, err)
	assert.Equal(t, StatusRestored, report.Status)
	assert.Equal(t, Counts{Folders: 2, Images: 2, Surveys: 2}, report.Restored)
	assert.Empty(t, report.Errors)

	second, err := Serialize(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	img, err := store.New(other).GetImage(ctx, "jamuna", "b.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-b"), img.ImageData)
	assert.False(t, img.DownloadAllowed)
}

func TestRestore_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, s := newTestDB(t)
	seed(t, s)

	snap, err := Serialize(ctx, db)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "db_backup.json")
	require.NoError(t, WriteSnapshot(snap, path))

	for i := 0; i < 2; i++ {
		report, err := Restore(ctx, db, path)
		require.NoError(t, err)
		assert.Equal(t, Counts{Folders: 2, Images: 2, Surveys: 2}, report.Restored)
	}

	again, err := Serialize(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, snap, again)
}

func TestWriteSnapshot_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db_backup.json")
	snap := &Snapshot{Folders: []FolderRecord{}, Images: []ImageRecord{}, Surveys: []SurveyRecord{}}

	require.NoError(t, WriteSnapshot(snap, path))
	require.NoError(t, WriteSnapshot(snap, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "db_backup.json", entries[0].Name())
}

func TestRestore_SkipsMalformedRow(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)

	good := base64.StdEncoding.EncodeToString([]byte("jpeg"))
	path := writeFile(t, `{
		"folders": [{"folder": "sarika", "name": "Sarika", "age": 28, "profession": "Photographer", "category": "Artists"}],
		"images": [
			{"name": "1.jpg", "folder": "sarika", "image_data": "`+good+`", "download_allowed": 1},
			{"name": "2.jpg", "folder": "sarika", "image_data": "!!not base64!!", "download_allowed": 1},
			{"name": "3.jpg", "folder": "sarika", "image_data": "`+good+`"}
		],
		"surveys": []
	}`)

	report, err := Restore(ctx, db, path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Restored.Images)
	assert.Equal(t, 1, report.Skipped.Images)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "images", report.Errors[0].Collection)
	assert.Equal(t, 1, report.Errors[0].Index)

	list, err := store.New(db).ListImages(ctx, "sarika")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[1].DownloadAllowed, "missing download_allowed defaults to allowed")
}

func TestRestore_RowChecks(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)

	img := base64.StdEncoding.EncodeToString([]byte("jpeg"))
	path := writeFile(t, `{
		"folders": [
			{"folder": "sarika", "name": "Sarika", "age": 28, "profession": "P", "category": "A"},
			{"folder": "sarika", "name": "Dup", "age": 30, "profession": "P", "category": "A"},
			{"folder": "Bad Slug", "name": "X", "age": 30, "profession": "P", "category": "A"},
			{"folder": "young1", "name": "Y", "age": 0, "profession": "P", "category": "A"},
			{"folder": "frac_age", "name": "Z", "age": 30.5, "profession": "P", "category": "A"},
			{"folder": "str_age", "name": "W", "age": "31", "profession": "P", "category": "A"},
			"not an object"
		],
		"images": [
			{"name": "x.jpg", "folder": "ghost", "image_data": "`+img+`", "download_allowed": 1},
			{"name": "y.jpg", "folder": "str_age", "image_data": "", "download_allowed": 1},
			{"name": "z.jpg", "folder": "str_age", "image_data": "`+img+`", "download_allowed": true}
		],
		"surveys": [
			{"folder": "sarika", "rating": 4, "feedback": null, "timestamp": "2024-05-01T10:00:00Z"},
			{"id": "r9", "folder": "sarika", "rating": 9, "feedback": null, "timestamp": "2024-05-01T10:00:00Z"},
			{"id": "g1", "folder": "ghost", "rating": 3, "feedback": "hi", "timestamp": "2024-05-01T10:00:00Z"}
		]
	}`)

	report, err := Restore(ctx, db, path)
	require.NoError(t, err)
	assert.Equal(t, Counts{Folders: 2, Images: 1, Surveys: 1}, report.Restored)
	assert.Equal(t, Counts{Folders: 5, Images: 2, Surveys: 2}, report.Skipped)

	s := store.New(db)
	folder, err := s.GetFolder(ctx, "str_age")
	require.NoError(t, err)
	assert.Equal(t, 31, folder.Age)

	entries, err := s.ListSurveyEntries(ctx, "sarika")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID, "missing id is generated")
}

func TestRestore_WrongShapeLeavesStore(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
	}{
		{"list root", `[1, 2, 3]`, ""},
		{"missing key", `{"folders": [], "images": []}`, "surveys"},
		{"not a list", `{"folders": {}, "images": [], "surveys": []}`, "folders"},
		{"bad json", `{"folders": [`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db, s := newTestDB(t)
			seed(t, s)
			before, err := Serialize(ctx, db)
			require.NoError(t, err)

			_, err = Restore(ctx, db, writeFile(t, tt.content))
			var ferr *FormatError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tt.key, ferr.Key)

			after, err := Serialize(ctx, db)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestRestore_AbsentAndEmpty(t *testing.T) {
	ctx := context.Background()
	db, s := newTestDB(t)
	seed(t, s)

	report, err := Restore(ctx, db, filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, StatusAbsent, report.Status)

	report, err = Restore(ctx, db, writeFile(t, "  \n"))
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, report.Status)

	folders, err := s.ListFolders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, folders, 2)
}

func TestReportJSON(t *testing.T) {
	report := &RestoreReport{Path: "p", Status: StatusRestored}
	report.skip("images", 3, assert.AnError)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"collection":"images"`)
	assert.Equal(t, 1, report.Skipped.Images)
}

func TestRestore_SchemaFailureKeepsPriorData(t *testing.T) {
	db, s := newTestDB(t)
	seed(t, s)
	require.NoError(t, db.Exec("DROP TABLE surveys").Error)
	require.NoError(t, db.Exec("CREATE VIEW surveys AS SELECT 1 AS id").Error)

	var before int64
	require.NoError(t, db.Model(&models.Folder{}).Count(&before).Error)

	path := writeFile(t, `{"folders":[{"folder":"ravi_k","name":"Ravi","age":41,"profession":"Chef","category":"Food"}],"images":[],"surveys":[]}`)
	_, err := Restore(context.Background(), db, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaRebuild)

	var after int64
	require.NoError(t, db.Model(&models.Folder{}).Count(&after).Error)
	assert.Equal(t, before, after)
	_, err = s.GetFolder(context.Background(), "ravi_k")
	assert.ErrorIs(t, err, store.ErrFolderNotFound)
	var images int64
	require.NoError(t, db.Model(&models.Image{}).Count(&images).Error)
	assert.Equal(t, int64(2), images)
}
