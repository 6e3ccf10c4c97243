// Package ingest runs uploaded photos through coordinate extraction,
// transcoding, blob storage and the location index, and undoes the
// work again on deletion.
package ingest

import (
	"context"
	"sync"

	"photomap/geo"
	"photomap/model"
	"photomap/storage"

	"go.uber.org/zap"
)

// File is one uploaded image in a batch.
type File struct {
	Name string
	Data []byte
}

// Result is the per-file outcome of an ingest batch. Err is nil on
// success; otherwise it is a *StageError naming the failing stage.
type Result struct {
	Filename    string
	URL         string
	Coordinates model.Coordinates
	Err         error
}

type Ingestor struct {
	Extractor  CoordinateExtractor
	Transcoder Transcoder
	Blobs      storage.BlobStorage
	Index      storage.LocationIndex
	Geo        geo.Resolver
	Log        *zap.Logger
}

// IngestOne runs the pipeline for a single file: extract, transcode,
// upload, resolve. Stages are strictly sequential; the context is
// checked at each stage boundary so an abandoned request stops before
// the next network call.
func (ing *Ingestor) IngestOne(ctx context.Context, userID string, file File) Result {
	result := Result{Filename: file.Name}
	log := ing.Log.With(zap.String("user", userID), zap.String("file", file.Name))

	coords, err := ing.Extractor.Extract(file.Data)
	if err != nil {
		log.Warn("coordinate extraction failed", zap.Error(err))
		result.Err = &StageError{Stage: StageExtracting, Err: err}
		return result
	}
	result.Coordinates = coords

	if err := ctx.Err(); err != nil {
		result.Err = &StageError{Stage: StageTranscoding, Err: err}
		return result
	}
	transcoded, err := ing.Transcoder.Transcode(file.Data)
	if err != nil {
		log.Warn("transcoding failed", zap.Error(err))
		result.Err = &StageError{Stage: StageTranscoding, Err: err}
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Err = &StageError{Stage: StageUploading, Err: err}
		return result
	}
	url, err := ing.Blobs.Save(ctx, userID, TranscodedName(file.Name), transcoded)
	if err != nil {
		log.Error("blob upload failed", zap.Error(err))
		result.Err = &StageError{Stage: StageUploading, Err: err}
		return result
	}
	result.URL = url

	if err := ctx.Err(); err != nil {
		result.Err = &StageError{Stage: StageResolving, Err: err}
		return result
	}
	if _, err := ing.Index.UpsertImage(ctx, userID, coords, url, ing.Geo.ReverseGeocode); err != nil {
		log.Error("location index update failed", zap.Error(err))
		result.Err = &StageError{Stage: StageResolving, Err: err}
		return result
	}

	log.Info("photo ingested",
		zap.Float64("lat", coords.Latitude),
		zap.Float64("lng", coords.Longitude),
		zap.String("url", url))
	return result
}

// IngestBatch processes the files concurrently and independently: one
// file failing leaves its siblings untouched. Results keep the input
// order.
func (ing *Ingestor) IngestBatch(ctx context.Context, userID string, files []File) []Result {
	results := make([]Result, len(files))

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file File) {
			defer wg.Done()
			results[i] = ing.IngestOne(ctx, userID, file)
		}(i, file)
	}
	wg.Wait()

	return results
}

// Remove deletes the blob first and only then removes the reference
// from the index. On a blob-store failure the index is left alone: an
// orphaned blob is recoverable, a reference to a deleted blob is not.
func (ing *Ingestor) Remove(ctx context.Context, userID, imageURL string) error {
	if err := ing.Blobs.Delete(ctx, imageURL); err != nil {
		ing.Log.Error("blob delete failed",
			zap.String("user", userID), zap.String("url", imageURL), zap.Error(err))
		return err
	}

	if err := ing.Index.RemoveImage(ctx, userID, imageURL); err != nil {
		ing.Log.Error("index removal failed",
			zap.String("user", userID), zap.String("url", imageURL), zap.Error(err))
		return err
	}

	ing.Log.Info("photo removed", zap.String("user", userID), zap.String("url", imageURL))
	return nil
}
