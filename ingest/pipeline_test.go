package ingest

import (
	"context"
	"errors"
	"testing"

	"photomap/geo"
	"photomap/model"
	"photomap/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

// fakeExtractor maps file contents to fixed coordinates; unknown
// contents have no GPS data.
type fakeExtractor struct {
	coords map[string]model.Coordinates
}

func (f fakeExtractor) Extract(data []byte) (model.Coordinates, error) {
	if c, ok := f.coords[string(data)]; ok {
		return c, nil
	}
	return model.Coordinates{}, ErrNoGPSData
}

type passthroughTranscoder struct{}

func (passthroughTranscoder) Transcode(data []byte) ([]byte, error) {
	return data, nil
}

type failingBlobStorage struct {
	saveErr   error
	deleteErr error
}

func (f failingBlobStorage) Save(ctx context.Context, userID, filename string, data []byte) (string, error) {
	return "", f.saveErr
}

func (f failingBlobStorage) Delete(ctx context.Context, imageURL string) error {
	return f.deleteErr
}

var singapore = model.Coordinates{Latitude: 1.3521, Longitude: 103.8198}

func singaporeGeo() geo.Resolver {
	return geo.ResolverFunc(func(ctx context.Context, lat, lng float64) (model.Place, error) {
		return model.Place{Country: "Singapore", Address: "Marina Bay, Singapore"}, nil
	})
}

func newTestIngestor(t *testing.T) (*Ingestor, *storage.MemoryLocationIndex) {
	t.Helper()
	index := storage.NewMemoryLocationIndex()
	ing := &Ingestor{
		Extractor: fakeExtractor{coords: map[string]model.Coordinates{
			"first":  singapore,
			"second": singapore,
		}},
		Transcoder: passthroughTranscoder{},
		Blobs: &storage.LocalBlobStorage{
			Directory: t.TempDir(),
			BaseURL:   "http://localhost:8080",
			Log:       zap.NewNop(),
		},
		Index: index,
		Geo:   singaporeGeo(),
		Log:   zap.NewNop(),
	}
	return ing, index
}

func TestIngestThenDeleteCycle(t *testing.T) {
	ing, index := newTestIngestor(t)
	ctx := context.Background()

	first := ing.IngestOne(ctx, "user-1", File{Name: "a.jpg", Data: []byte("first")})
	require.NoError(t, first.Err)
	assert.Equal(t, singapore, first.Coordinates)

	record, err := index.FindByCoordinate(ctx, "user-1", singapore.Latitude, singapore.Longitude)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Singapore", record.Country)
	assert.Len(t, record.Images, 1)

	second := ing.IngestOne(ctx, "user-1", File{Name: "b.jpg", Data: []byte("second")})
	require.NoError(t, second.Err)

	record, err = index.FindByCoordinate(ctx, "user-1", singapore.Latitude, singapore.Longitude)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []string{first.URL, second.URL}, record.Images)

	require.NoError(t, ing.Remove(ctx, "user-1", first.URL))
	record, err = index.FindByCoordinate(ctx, "user-1", singapore.Latitude, singapore.Longitude)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []string{second.URL}, record.Images)

	require.NoError(t, ing.Remove(ctx, "user-1", second.URL))
	all, err := index.ListAll(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNoGPSFileFailsAloneInBatch(t *testing.T) {
	ing, index := newTestIngestor(t)
	ctx := context.Background()

	results := ing.IngestBatch(ctx, "user-1", []File{
		{Name: "good.jpg", Data: []byte("first")},
		{Name: "screenshot.png", Data: []byte("no coordinates here")},
	})
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.NotEmpty(t, results[0].URL)

	require.Error(t, results[1].Err)
	assert.ErrorIs(t, results[1].Err, ErrNoGPSData)
	var stageErr *StageError
	require.ErrorAs(t, results[1].Err, &stageErr)
	assert.Equal(t, StageExtracting, stageErr.Stage)
	assert.Empty(t, results[1].URL)

	// Only the sibling's upload reached the index.
	all, err := index.ListAll(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Images, 1)
}

func TestNoGPSFileStoresNoBlob(t *testing.T) {
	ing, _ := newTestIngestor(t)
	blobs := failingBlobStorage{saveErr: errors.New("save must not be called")}
	ing.Blobs = blobs

	result := ing.IngestOne(context.Background(), "user-1", File{Name: "x.jpg", Data: []byte("no gps")})
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, ErrNoGPSData)
}

func TestTranscodeFailureReported(t *testing.T) {
	ing, index := newTestIngestor(t)
	ing.Transcoder = ImagingTranscoder{Opts: DefaultTranscodeOptions()}

	result := ing.IngestOne(context.Background(), "user-1", File{Name: "a.jpg", Data: []byte("first")})
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, ErrTranscodeFailed)
	var stageErr *StageError
	require.ErrorAs(t, result.Err, &stageErr)
	assert.Equal(t, StageTranscoding, stageErr.Stage)

	all, err := index.ListAll(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUploadFailureSkipsIndex(t *testing.T) {
	ing, index := newTestIngestor(t)
	ing.Blobs = failingBlobStorage{saveErr: errors.New("disk full")}

	result := ing.IngestOne(context.Background(), "user-1", File{Name: "a.jpg", Data: []byte("first")})
	require.Error(t, result.Err)
	var stageErr *StageError
	require.ErrorAs(t, result.Err, &stageErr)
	assert.Equal(t, StageUploading, stageErr.Stage)

	all, err := index.ListAll(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRemoveBlobFailureLeavesIndexAlone(t *testing.T) {
	ing, index := newTestIngestor(t)
	ctx := context.Background()

	result := ing.IngestOne(ctx, "user-1", File{Name: "a.jpg", Data: []byte("first")})
	require.NoError(t, result.Err)

	ing.Blobs = failingBlobStorage{deleteErr: errors.New("storage unavailable")}
	require.Error(t, ing.Remove(ctx, "user-1", result.URL))

	record, err := index.FindByCoordinate(ctx, "user-1", singapore.Latitude, singapore.Longitude)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []string{result.URL}, record.Images)
}

func TestRemoveIsIdempotentThroughPipeline(t *testing.T) {
	ing, _ := newTestIngestor(t)

	err := ing.Remove(context.Background(), "user-1", "http://localhost:8080/images/user-1/gone.jpg")
	assert.NoError(t, err)
}

func TestCancelledContextStopsPipeline(t *testing.T) {
	ing, index := newTestIngestor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := ing.IngestOne(ctx, "user-1", File{Name: "a.jpg", Data: []byte("first")})
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, context.Canceled)

	all, err := index.ListAll(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, all)
}
