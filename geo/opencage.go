package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"photomap/model"

	"go.uber.org/zap"
)

const opencageBaseURL = "https://api.opencagedata.com/geocode/v1/json"

type opencageResponse struct {
	Results []opencageResult `json:"results"`
}

type opencageResult struct {
	Components opencageComponents `json:"components"`
	Formatted  string             `json:"formatted"`
}

type opencageComponents struct {
	Country string `json:"country"`
}

type OpenCageResolver struct {
	key     string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewOpenCageResolver(apiKey string, log *zap.Logger) *OpenCageResolver {
	return NewOpenCageResolverWithClient(apiKey, &http.Client{Timeout: 5 * time.Second}, log)
}

func NewOpenCageResolverWithClient(apiKey string, client *http.Client, log *zap.Logger) *OpenCageResolver {
	return &OpenCageResolver{
		key:     apiKey,
		baseURL: opencageBaseURL,
		client:  client,
		log:     log,
	}
}

func (r *OpenCageResolver) ReverseGeocode(ctx context.Context, lat, lng float64) (model.Place, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("%f,%f", lat, lng))
	query.Set("key", r.key)
	query.Set("no_annotations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return model.Place{}, err
	}

	res, err := r.client.Do(req)
	if err != nil {
		return model.Place{}, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return model.Place{}, err
	}
	if res.StatusCode != http.StatusOK {
		return model.Place{}, fmt.Errorf("geocoding request failed with status %d", res.StatusCode)
	}
	r.log.Debug("reverse geocode response", zap.String("response", string(data)))

	var parsed opencageResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return model.Place{}, err
	}
	if len(parsed.Results) == 0 {
		return model.Place{}, ErrNoResult
	}

	return model.Place{
		Country: parsed.Results[0].Components.Country,
		Address: parsed.Results[0].Formatted,
	}, nil
}
