package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
	"p9e.in/nuzum/config"
	"p9e.in/nuzum/utils"
)

// NewBlobStore picks the backend based on environment: GCS in production
// (Cloud Run sets K_SERVICE), local filesystem in development.
func NewBlobStore() BlobStore {
	useGCS := os.Getenv("USE_GCS") == "true" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != ""

	if useGCS {
		store, err := NewGCSBlobStore(context.Background(), os.Getenv("GCS_BUCKET"))
		if err == nil {
			return store
		}
		log.Printf("⚠️  GCS unavailable, falling back to local storage: %v", err)
	}
	return NewLocalBlobStore(config.UploadRoot())
}

// UploadFileHandler accepts a multipart upload into a named bucket and
// returns the stored key and URL.
func UploadFileHandler(store BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(utils.MaxUploadBytes); err != nil {
			http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		if err := utils.ValidateUpload(header.Filename, header.Size); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		bucket := r.FormValue("bucket")
		if bucket == "" {
			bucket = BucketVehicles
		}

		data, err := io.ReadAll(io.LimitReader(file, utils.MaxUploadBytes))
		if err != nil {
			http.Error(w, "failed to read file: "+err.Error(), http.StatusInternalServerError)
			return
		}

		key := uuid.New().String() + "-" + header.Filename
		url, err := store.Put(bucket, key, data)
		if err != nil {
			http.Error(w, "failed to store file: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"key": key, "url": url})
	}
}
