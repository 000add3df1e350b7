// internal/history/indexer.go
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	commonerrors "solar-pumping-workers/internal/common/errors"
)

// IndexMapping is the mapping EnsureIndex creates the history index with.
const IndexMapping = `{
  "mappings": {
    "properties": {
      "name":       {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "created_at": {"type": "date"},
      "location":   {"type": "geo_point"},
      "target":     {"type": "keyword"},
      "volume":     {"type": "double"},
      "hmt":        {"type": "double"},
      "peak_kwc":   {"type": "double"},
      "investment": {"type": "double"},
      "lcoe":       {"type": "double"},
      "irradiation_is_live": {"type": "boolean"}
    }
  }
}`

// Indexer pushes a flattened copy of each run to Elasticsearch for search
// and dashboards. Postgres stays the source of truth.
type Indexer struct {
	client *elasticsearch.Client
	index  string
}

func NewIndexer(client *elasticsearch.Client, index string) *Indexer {
	return &Indexer{client: client, index: index}
}

type document struct {
	Name              string   `json:"name"`
	CreatedAt         string   `json:"created_at"`
	Location          geoPoint `json:"location"`
	Target            string   `json:"target"`
	Volume            float64  `json:"volume"`
	Hmt               float64  `json:"hmt"`
	PeakKwc           float64  `json:"peak_kwc"`
	Investment        float64  `json:"investment"`
	Lcoe              float64  `json:"lcoe"`
	IrradiationIsLive bool     `json:"irradiation_is_live"`
	Warnings          []string `json:"warnings,omitempty"`
}

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func toDocument(sim Simulation) document {
	return document{
		Name:              sim.Name,
		CreatedAt:         sim.CreatedAt.Format(time.RFC3339),
		Location:          geoPoint{Lat: sim.Request.Latitude, Lon: sim.Request.Longitude},
		Target:            string(sim.Request.OptimizationTarget),
		Volume:            sim.Request.WaterVolumeM3,
		Hmt:               sim.Request.HeadMeters,
		PeakKwc:           sim.Result.Technical.RequiredPeakPowerKwc,
		Investment:        sim.Result.Financial.TotalInvestment,
		Lcoe:              sim.Result.Financial.Lcoe,
		IrradiationIsLive: sim.Result.Technical.IrradiationIsLive,
		Warnings:          sim.Result.Warnings,
	}
}

// IndexSimulation writes sim under its id, so re-indexing is an overwrite.
func (i *Indexer) IndexSimulation(ctx context.Context, sim Simulation) error {
	body, err := json.Marshal(toDocument(sim))
	if err != nil {
		return commonerrors.NewIndexingFailedError(i.index, err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: sim.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return commonerrors.NewIndexingFailedError(i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return commonerrors.NewIndexingFailedError(i.index, fmt.Errorf("%s: %s", res.Status(), msg))
	}
	return nil
}
