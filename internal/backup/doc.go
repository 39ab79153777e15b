// Package backup converts the whole gallery store to a JSON snapshot and
// rebuilds the store from one.
//
// A snapshot is a single object with three arrays:
//
//	{"folders": [...], "images": [...], "surveys": [...]}
//
// Image blobs are standard base64 without line breaks and download_allowed is
// written as 0 or 1. Restore drops and recreates the tables inside one
// transaction and inserts rows one by one; a bad row is skipped and reported
// while the rest of the snapshot is still imported.
package backup
