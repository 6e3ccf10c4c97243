package storage

import (
	"context"
	"sync"
	"time"

	"photomap/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryLocationIndex keeps location records in process memory. It
// backs the service when no Mongo URI is configured and carries the
// same upsert/remove semantics as the Mongo implementation.
type MemoryLocationIndex struct {
	mu      sync.RWMutex
	records map[string][]*model.LocationRecord
}

func NewMemoryLocationIndex() *MemoryLocationIndex {
	return &MemoryLocationIndex{records: make(map[string][]*model.LocationRecord)}
}

func (idx *MemoryLocationIndex) FindByCoordinate(ctx context.Context, userID string, lat, lng float64) (*model.LocationRecord, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, r := range idx.records[userID] {
		if r.Latitude == lat && r.Longitude == lng {
			copied := *r
			copied.Images = append([]string(nil), r.Images...)
			return &copied, nil
		}
	}
	return nil, nil
}

func (idx *MemoryLocationIndex) FindByCountry(ctx context.Context, userID, country string) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var images []string
	for _, r := range idx.records[userID] {
		if r.Country == country {
			images = append(images, r.Images...)
		}
	}
	return images, nil
}

func (idx *MemoryLocationIndex) ListAll(ctx context.Context, userID string) ([]model.LocationRecord, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var records []model.LocationRecord
	for _, r := range idx.records[userID] {
		copied := *r
		copied.Images = append([]string(nil), r.Images...)
		records = append(records, copied)
	}
	return records, nil
}

func (idx *MemoryLocationIndex) ListCountries(ctx context.Context, userID string) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[string]bool)
	var countries []string
	for _, r := range idx.records[userID] {
		if !seen[r.Country] {
			seen[r.Country] = true
			countries = append(countries, r.Country)
		}
	}
	return countries, nil
}

func (idx *MemoryLocationIndex) UpsertImage(ctx context.Context, userID string, coords model.Coordinates, imageURL string, resolve PlaceResolver) (*model.LocationRecord, error) {
	idx.mu.Lock()
	for _, r := range idx.records[userID] {
		if r.Latitude == coords.Latitude && r.Longitude == coords.Longitude {
			r.Images = append(r.Images, imageURL)
			copied := *r
			copied.Images = append([]string(nil), r.Images...)
			idx.mu.Unlock()
			return &copied, nil
		}
	}
	idx.mu.Unlock()

	// Resolve outside the lock; it is a network call in production.
	place, err := resolve(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		return nil, err
	}

	record := &model.LocationRecord{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Country:   place.Country,
		Address:   place.Address,
		Images:    []string{imageURL},
		CreatedAt: time.Now(),
	}

	idx.mu.Lock()
	idx.records[userID] = append(idx.records[userID], record)
	idx.mu.Unlock()

	copied := *record
	copied.Images = append([]string(nil), record.Images...)
	return &copied, nil
}

// RemoveImage drops every occurrence of imageURL, the same way the
// document store's $pull does: a reference uploaded twice must not
// survive the removal with one copy left dangling at a deleted blob.
func (idx *MemoryLocationIndex) RemoveImage(ctx context.Context, userID, imageURL string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	records := idx.records[userID]
	kept := records[:0]
	for _, r := range records {
		images := make([]string, 0, len(r.Images))
		for _, img := range r.Images {
			if img != imageURL {
				images = append(images, img)
			}
		}
		r.Images = images
		if len(images) > 0 {
			kept = append(kept, r)
		}
	}
	idx.records[userID] = kept
	return nil
}
