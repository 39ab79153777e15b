package backup

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-photo-gallery/database/migrations"
	"go-photo-gallery/internal/logging"
	"go-photo-gallery/internal/models"
	"go-photo-gallery/internal/validation"
)

type Status string

const (
	StatusAbsent   Status = "absent"
	StatusEmpty    Status = "empty"
	StatusRestored Status = "restored"
)

const (
	collectionFolders = "folders"
	collectionImages  = "images"
	collectionSurveys = "surveys"
)

type Counts struct {
	Folders int `json:"folders"`
	Images  int `json:"images"`
	Surveys int `json:"surveys"`
}

func (c *Counts) add(collection string) {
	switch collection {
	case collectionFolders:
		c.Folders++
	case collectionImages:
		c.Images++
	case collectionSurveys:
		c.Surveys++
	}
}

// RestoreReport describes what a restore did.
type RestoreReport struct {
	Path     string     `json:"path"`
	Status   Status     `json:"status"`
	Restored Counts     `json:"restored"`
	Skipped  Counts     `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

func (r *RestoreReport) skip(collection string, index int, err error) {
	r.Skipped.add(collection)
	r.Errors = append(r.Errors, RowError{Collection: collection, Index: index, Reason: err.Error()})
}

// Restore replaces the store content with the snapshot at path.
//
// A missing or blank file is not an error and leaves the store alone. Invalid
// JSON or a document of the wrong shape returns a *FormatError, again without
// touching the store. Otherwise the tables are rebuilt and malformed rows are
// skipped and listed in the report.
func Restore(ctx context.Context, db *gorm.DB, path string) (*RestoreReport, error) {
	log := logging.With("backup")
	report := &RestoreReport{Path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		report.Status = StatusAbsent
		log.Info().Str("path", path).Msg("no snapshot found, starting with the current database")
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		report.Status = StatusEmpty
		log.Warn().Str("path", path).Msg("snapshot file is empty, nothing to restore")
		return report, nil
	}

	collections, err := parseDocument(raw)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("restore aborted")
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := migrations.Recreate(tx); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaRebuild, err)
		}
		r := &rowRestorer{tx: tx, report: report, folders: make(map[string]bool)}
		r.restoreFolders(collections[collectionFolders])
		r.restoreImages(collections[collectionImages])
		r.restoreSurveys(collections[collectionSurveys])
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("restore rolled back, previous data left intact")
		return nil, fmt.Errorf("restore rolled back, previous data left intact: %w", err)
	}

	report.Status = StatusRestored
	for _, rowErr := range report.Errors {
		log.Warn().Str("collection", rowErr.Collection).Int("index", rowErr.Index).Msg("skipped malformed row: " + rowErr.Reason)
	}
	log.Info().
		Int("folders", report.Restored.Folders).
		Int("images", report.Restored.Images).
		Int("surveys", report.Restored.Surveys).
		Int("skipped_folders", report.Skipped.Folders).
		Int("skipped_images", report.Skipped.Images).
		Int("skipped_surveys", report.Skipped.Surveys).
		Msg("restore complete")
	return report, nil
}

// parseDocument checks the top-level shape and returns the three arrays.
func parseDocument(raw []byte) (map[string][]interface{}, error) {
	if !json.Valid(raw) {
		var probe interface{}
		parseErr := json.Unmarshal(raw, &probe)
		if parseErr == nil {
			parseErr = errors.New("unexpected trailing data")
		}
		return nil, &FormatError{Reason: "not valid JSON", Err: parseErr}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, &FormatError{Reason: "not valid JSON", Err: err}
	}

	root, ok := doc.(map[string]interface{})
	if !ok {
		return nil, &FormatError{Reason: fmt.Sprintf("root must be an object, got %s", typeName(doc))}
	}

	collections := make(map[string][]interface{}, 3)
	for _, key := range []string{collectionFolders, collectionImages, collectionSurveys} {
		value, present := root[key]
		if !present {
			return nil, &FormatError{Key: key, Reason: "is missing"}
		}
		list, ok := value.([]interface{})
		if !ok {
			return nil, &FormatError{Key: key, Reason: fmt.Sprintf("must be a list, got %s", typeName(value))}
		}
		collections[key] = list
	}
	return collections, nil
}

type rowRestorer struct {
	tx      *gorm.DB
	report  *RestoreReport
	folders map[string]bool
}

// insert runs one INSERT under its own savepoint so a failing row leaves no
// trace and the surrounding transaction stays usable.
func (r *rowRestorer) insert(value interface{}) error {
	if err := r.tx.Exec("SAVEPOINT restore_row").Error; err != nil {
		return err
	}
	err := r.tx.Create(value).Error
	if err != nil {
		if rbErr := r.tx.Exec("ROLLBACK TO SAVEPOINT restore_row").Error; rbErr != nil {
			return fmt.Errorf("%v (rollback failed: %v)", err, rbErr)
		}
	}
	if relErr := r.tx.Exec("RELEASE SAVEPOINT restore_row").Error; relErr != nil && err == nil {
		return relErr
	}
	return err
}

func (r *rowRestorer) restoreFolders(items []interface{}) {
	for i, item := range items {
		folder, err := parseFolder(item)
		if err == nil {
			err = r.insert(folder)
		}
		if err != nil {
			r.report.skip(collectionFolders, i, err)
			continue
		}
		r.folders[folder.Folder] = true
		r.report.Restored.Folders++
	}
}

func (r *rowRestorer) restoreImages(items []interface{}) {
	for i, item := range items {
		img, err := parseImage(item)
		if err == nil && !r.folders[img.Folder] {
			err = fmt.Errorf("unknown folder %q", img.Folder)
		}
		if err == nil {
			err = r.insert(img)
		}
		if err != nil {
			r.report.skip(collectionImages, i, err)
			continue
		}
		r.report.Restored.Images++
	}
}

func (r *rowRestorer) restoreSurveys(items []interface{}) {
	for i, item := range items {
		entry, err := parseSurvey(item)
		if err == nil && !r.folders[entry.Folder] {
			err = fmt.Errorf("unknown folder %q", entry.Folder)
		}
		if err == nil {
			err = r.insert(entry)
		}
		if err != nil {
			r.report.skip(collectionSurveys, i, err)
			continue
		}
		r.report.Restored.Surveys++
	}
}

type folderRow struct {
	Folder string `json:"folder" validate:"slug"`
	Age    int    `json:"age" validate:"gt=0"`
}

type surveyRow struct {
	Rating int `json:"rating" validate:"min=1,max=5"`
}

func parseFolder(item interface{}) (*models.Folder, error) {
	row, err := asRow(item)
	if err != nil {
		return nil, err
	}
	f := &models.Folder{}
	if f.Folder, err = stringField(row, "folder"); err != nil {
		return nil, err
	}
	if f.Name, err = stringField(row, "name"); err != nil {
		return nil, err
	}
	if f.Age, err = intField(row, "age"); err != nil {
		return nil, err
	}
	if f.Profession, err = stringField(row, "profession"); err != nil {
		return nil, err
	}
	if f.Category, err = stringField(row, "category"); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(folderRow{Folder: f.Folder, Age: f.Age}); err != nil {
		return nil, err
	}
	return f, nil
}

func parseImage(item interface{}) (*models.Image, error) {
	row, err := asRow(item)
	if err != nil {
		return nil, err
	}
	img := &models.Image{DownloadAllowed: true}
	if img.Name, err = stringField(row, "name"); err != nil {
		return nil, err
	}
	if img.Folder, err = stringField(row, "folder"); err != nil {
		return nil, err
	}

	encoded, ok := row["image_data"].(string)
	if !ok || strings.TrimSpace(encoded) == "" {
		return nil, errors.New("image_data is missing or not a base64 string")
	}
	img.ImageData, err = base64.StdEncoding.DecodeString(stripWhitespace(encoded))
	if err != nil {
		return nil, fmt.Errorf("image_data is not valid base64: %w", err)
	}

	if v, present := row["download_allowed"]; present && v != nil {
		allowed, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", "download_allowed", err)
		}
		img.DownloadAllowed = allowed != 0
	}
	return img, nil
}

func parseSurvey(item interface{}) (*models.SurveyEntry, error) {
	row, err := asRow(item)
	if err != nil {
		return nil, err
	}
	e := &models.SurveyEntry{}
	if e.Folder, err = stringField(row, "folder"); err != nil {
		return nil, err
	}
	if e.Rating, err = intField(row, "rating"); err != nil {
		return nil, err
	}
	if e.Timestamp, err = stringField(row, "timestamp"); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(surveyRow{Rating: e.Rating}); err != nil {
		return nil, err
	}

	if v, present := row["feedback"]; present && v != nil {
		feedback, err := toString(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", "feedback", err)
		}
		e.Feedback = &feedback
	}

	// Snapshots written before entries had ids carry none.
	e.ID = uuid.NewString()
	if v, present := row["id"]; present && v != nil {
		id, err := toString(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", "id", err)
		}
		if id != "" {
			e.ID = id
		}
	}
	return e, nil
}

func asRow(item interface{}) (map[string]interface{}, error) {
	row, ok := item.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("record must be an object, got %s", typeName(item))
	}
	return row, nil
}

func stringField(row map[string]interface{}, key string) (string, error) {
	v, present := row[key]
	if !present || v == nil {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	return s, nil
}

func intField(row map[string]interface{}, key string) (int, error) {
	v, present := row[key]
	if !present || v == nil {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return n, nil
}

func toString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	default:
		return "", fmt.Errorf("expected a string, got %s", typeName(v))
	}
}

// toInt accepts integral numbers, numeric strings and booleans.
func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), nil
		}
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("expected an integer, got %s", t.String())
		}
		return int(f), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", t)
		}
		return n, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %s", typeName(v))
	}
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
}

func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "list"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}
