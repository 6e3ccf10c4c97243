package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"photomap/ingest"
	"photomap/model"
	"photomap/storage"

	"go.uber.org/zap"
)

const maxUploadBytes = 200 << 20

// addressNotFound is the address placeholder for a coordinate with no
// location record, so clients can render it without a null check.
const addressNotFound = "Address not found"

type Handlers struct {
	Ingestor     *ingest.Ingestor
	Index        storage.LocationIndex
	Log          *zap.Logger
	SecretKey    string
	PasswordHash string
}

// FileStatus is the per-file outcome reported for a batch upload.
type FileStatus struct {
	Filename string  `json:"filename"`
	URL      string  `json:"url,omitempty"`
	Stage    string  `json:"stage,omitempty"`
	Error    string  `json:"error,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
}

func (h *Handlers) ServeHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/photos", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.authMiddleware(h.handleListPhotos)(w, r)
		case http.MethodPost:
			h.authMiddleware(h.handleUploadPhotos)(w, r)
		case http.MethodDelete:
			h.authMiddleware(h.handleDeletePhoto)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/locations", h.authMiddleware(h.handleListLocations))
	mux.HandleFunc("/locations/photos", h.authMiddleware(h.handlePhotosAtLocation))
	mux.HandleFunc("/countries", h.authMiddleware(h.handleListCountries))
	mux.HandleFunc("/countries/photos", h.authMiddleware(h.handlePhotosByCountry))
}

func (h *Handlers) handleUploadPhotos(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	if r.ContentLength > maxUploadBytes {
		http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
		return
	}
	r.ParseMultipartForm(maxUploadBytes)
	if r.MultipartForm == nil || len(r.MultipartForm.File["file"]) == 0 {
		http.Error(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	var files []ingest.File
	for _, fileHeader := range r.MultipartForm.File["file"] {
		file, err := fileHeader.Open()
		if err != nil {
			http.Error(w, "Error opening file: "+err.Error(), http.StatusInternalServerError)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			http.Error(w, "Error reading file: "+err.Error(), http.StatusInternalServerError)
			return
		}
		files = append(files, ingest.File{Name: fileHeader.Filename, Data: data})
	}

	results := h.Ingestor.IngestBatch(r.Context(), userID, files)

	statuses := make([]FileStatus, len(results))
	for i, res := range results {
		statuses[i] = FileStatus{
			Filename: res.Filename,
			URL:      res.URL,
			Lat:      res.Coordinates.Latitude,
			Lng:      res.Coordinates.Longitude,
		}
		if res.Err != nil {
			var stageErr *ingest.StageError
			if errors.As(res.Err, &stageErr) {
				statuses[i].Stage = string(stageErr.Stage)
			}
			statuses[i].Error = res.Err.Error()
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"files": statuses})
}

func (h *Handlers) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	imageURL := r.URL.Query().Get("url")
	if imageURL == "" {
		http.Error(w, "Missing url parameter", http.StatusBadRequest)
		return
	}

	if err := h.Ingestor.Remove(r.Context(), userID, imageURL); err != nil {
		http.Error(w, "Failed to delete photo", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": imageURL})
}

// handleListPhotos returns every image reference of the user across
// all location records.
func (h *Handlers) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	records, err := h.Index.ListAll(r.Context(), userID)
	if err != nil {
		h.Log.Error("listing photos failed", zap.Error(err))
		http.Error(w, "Failed to list photos", http.StatusInternalServerError)
		return
	}

	images := []string{}
	for _, record := range records {
		images = append(images, record.Images...)
	}
	respondJSON(w, http.StatusOK, map[string]any{"images": images})
}

func (h *Handlers) handleListLocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := UserID(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	records, err := h.Index.ListAll(r.Context(), userID)
	if err != nil {
		h.Log.Error("listing locations failed", zap.Error(err))
		http.Error(w, "Failed to list locations", http.StatusInternalServerError)
		return
	}

	markers := make([]model.Marker, 0, len(records))
	for _, record := range records {
		markers = append(markers, record.Marker())
	}
	respondJSON(w, http.StatusOK, map[string]any{"markers": markers})
}

func (h *Handlers) handlePhotosAtLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := UserID(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "Invalid lat/lng parameters", http.StatusBadRequest)
		return
	}

	record, err := h.Index.FindByCoordinate(r.Context(), userID, lat, lng)
	if err != nil {
		h.Log.Error("coordinate lookup failed", zap.Error(err))
		http.Error(w, "Failed to look up location", http.StatusInternalServerError)
		return
	}
	if record == nil {
		respondJSON(w, http.StatusOK, map[string]any{"images": []string{}, "address": addressNotFound})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"images": record.Images, "address": record.Address})
}

func (h *Handlers) handleListCountries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := UserID(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	countries, err := h.Index.ListCountries(r.Context(), userID)
	if err != nil {
		h.Log.Error("listing countries failed", zap.Error(err))
		http.Error(w, "Failed to list countries", http.StatusInternalServerError)
		return
	}
	if countries == nil {
		countries = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"countries": countries})
}

func (h *Handlers) handlePhotosByCountry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := UserID(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	country := r.URL.Query().Get("country")
	if country == "" {
		http.Error(w, "Missing country parameter", http.StatusBadRequest)
		return
	}

	images, err := h.Index.FindByCountry(r.Context(), userID, country)
	if err != nil {
		h.Log.Error("country lookup failed", zap.Error(err))
		http.Error(w, "Failed to look up country", http.StatusInternalServerError)
		return
	}
	if images == nil {
		images = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"images": images})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
