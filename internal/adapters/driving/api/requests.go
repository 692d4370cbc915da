package api

import (
	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// IngestRequest is the body of POST /api/v1/ingest.
type IngestRequest struct {
	URLs      []string `json:"urls" validate:"required,min=1,dive,required,http_url"`
	ChunkSize int      `json:"chunk_size" validate:"omitempty,min=1"`
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question string `json:"question" validate:"required"`
	K        int    `json:"k" validate:"omitempty,min=1,max=100"`
	Degrade  bool   `json:"degrade"`
}

// IngestResponse summarises an ingestion run.
type IngestResponse struct {
	ID         string            `json:"id"`
	State      string            `json:"state"`
	Documents  int               `json:"documents"`
	Chunks     int               `json:"chunks"`
	Model      string            `json:"model"`
	Dimensions int               `json:"dimensions"`
	Failures   map[string]string `json:"failures,omitempty"`
}

// AskResponse is a generated answer with its sources.
type AskResponse struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Sources  []string      `json:"sources"`
	Chunks   []ChunkResult `json:"chunks"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ChunkResult is one retrieved chunk.
type ChunkResult struct {
	Source   string  `json:"source"`
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}

// IndexResponse describes the persisted index.
type IndexResponse struct {
	Path       string   `json:"path"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
	Metric     string   `json:"metric"`
	ChunkSize  int      `json:"chunk_size"`
	Entries    int      `json:"entries"`
	Sources    []string `json:"sources"`
	CreatedAt  string   `json:"created_at"`
}

var validate = validator.New()

func newIngestResponse(r *domain.IngestReport) IngestResponse {
	resp := IngestResponse{
		ID:         r.ID,
		State:      r.State.String(),
		Documents:  r.Documents,
		Chunks:     r.Chunks,
		Model:      r.Model,
		Dimensions: r.Dimensions,
	}
	if len(r.Failures) > 0 {
		resp.Failures = make(map[string]string, len(r.Failures))
		for i := range r.Failures {
			resp.Failures[r.Failures[i].URL] = r.Failures[i].Err.Error()
		}
	}
	return resp
}

func newAskResponse(a *domain.Answer) AskResponse {
	resp := AskResponse{
		Question: a.Question,
		Answer:   a.Text,
		Sources:  a.Sources,
		Chunks:   make([]ChunkResult, 0, len(a.Hits)),
		Warnings: a.Warnings,
	}
	for i := range a.Hits {
		resp.Chunks = append(resp.Chunks, ChunkResult{
			Source:   a.Hits[i].Entry.Source,
			Text:     a.Hits[i].Entry.Text,
			Distance: a.Hits[i].Distance,
		})
	}
	return resp
}

func newIndexResponse(info *domain.IndexInfo) IndexResponse {
	return IndexResponse{
		Path:       info.Path,
		Model:      info.Meta.Model,
		Dimensions: info.Meta.Dimensions,
		Metric:     info.Meta.Metric.String(),
		ChunkSize:  info.Meta.ChunkSize,
		Entries:    info.Entries,
		Sources:    info.Meta.Sources,
		CreatedAt:  info.Meta.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
