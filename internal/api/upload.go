package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const maxUploadSize = 50 << 20 // 50MB

func handleUploadPDF(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		defer r.Body.Close()

		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "file field is required: %v", err)
			return
		}
		defer file.Close()

		if header.Header.Get("Content-Type") != "application/pdf" {
			httpError(w, http.StatusBadRequest, "File must be a PDF.")
			return
		}

		tmpPath, err := saveUpload(deps.UploadDir, header.Filename, file)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to save upload: %v", err)
			return
		}
		defer os.Remove(tmpPath)

		docID, err := deps.Ingestor.IngestPDF(r.Context(), tmpPath, header.Filename)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to process PDF: %v", err)
			return
		}

		writeJSON(w, map[string]string{
			"doc_id":  docID,
			"message": "PDF processed successfully",
		})
	}
}

// saveUpload writes the uploaded content to a server-generated filename under
// dir. The client-supplied name contributes only its extension, never the
// path, so concurrent uploads of equally named files cannot collide.
func saveUpload(dir, originalName string, src io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".pdf"
	}
	path := filepath.Join(dir, uuid.New().String()+ext)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
