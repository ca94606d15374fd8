package mcp

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	response *domain.QueryResponse
	results  []domain.Result
	err      error

	lastQuery    domain.QueryRequest
	lastSearch   domain.SearchOptions
	lastCategory string
	lastFolder   string
}

func (m *mockRetrievalService) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.lastQuery = req
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &domain.QueryResponse{Results: []domain.Result{}, Mode: domain.QueryModeAuto}, nil
	}
	return m.response, nil
}

func (m *mockRetrievalService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.Result, error) {
	m.lastSearch = opts
	return m.results, m.err
}

func (m *mockRetrievalService) ByCategory(_ context.Context, category, folder string) ([]domain.Result, error) {
	m.lastCategory = category
	m.lastFolder = folder
	return m.results, m.err
}

func (m *mockRetrievalService) Evaluate(
	_ context.Context, _ domain.QueryRequest, _ []string,
) (*domain.Evaluation, error) {
	return &domain.Evaluation{}, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	documents []domain.Document
	err       error
}

func (m *mockIngestService) Ingest(_ context.Context, _ driving.IngestRequest) (*driving.IngestResult, error) {
	return nil, m.err
}

func (m *mockIngestService) IngestRecords(
	_ context.Context, _, _ string, _ []domain.Record,
) (*driving.IngestResult, error) {
	return nil, m.err
}

func (m *mockIngestService) Remove(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

func (m *mockIngestService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}
