package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/plumeworks/authgate/internal/config"
	"github.com/plumeworks/authgate/internal/logging"
)

const uploadFormField = "file"

// newUploadHandler accepts a single multipart file, stores it under a
// fresh uuid name (the client-supplied name is never trusted for the
// filesystem path) and reports the stored name back.
func newUploadHandler(conf *config.UploadConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logging.FromRequest(r)

		r.Body = http.MaxBytesReader(w, r.Body, conf.MaxBytes)

		file, header, err := r.FormFile(uploadFormField)
		if err != nil {
			l.WithError(err).Error("failed to read multipart file")
			http.Error(w, fmt.Sprintf("Failed to read multipart field '%s'", uploadFormField), http.StatusBadRequest)
			return
		}
		defer file.Close()

		name := uuid.NewString() + filepath.Ext(header.Filename)
		path := filepath.Join(conf.Dir, name)

		dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			l.WithError(err).Error("failed to create upload file")
			http.Error(w, "Failed to store upload", http.StatusInternalServerError)
			return
		}
		defer dst.Close()

		size, err := io.Copy(dst, file)
		if err != nil {
			l.WithError(err).Error("failed to write upload file")
			os.Remove(path)
			http.Error(w, "Failed to store upload", http.StatusInternalServerError)
			return
		}

		l.WithField("upload", map[string]any{
			"name": name,
			"size": size,
		}).Info("file uploaded")

		respondJSON(w, r, http.StatusCreated, map[string]any{
			"name":        name,
			"size":        size,
			"contentType": header.Header.Get("Content-Type"),
		})
	}
}
