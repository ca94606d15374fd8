package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// mockRetrievalService implements driving.RetrievalService for testing.
type mockRetrievalService struct {
	response *domain.QueryResponse
	err      error
}

func (m *mockRetrievalService) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &domain.QueryResponse{Results: []domain.Result{}, Mode: req.Mode}, nil
}

func (m *mockRetrievalService) Search(context.Context, string, domain.SearchOptions) ([]domain.Result, error) {
	return []domain.Result{}, nil
}

func (m *mockRetrievalService) ByCategory(context.Context, string, string) ([]domain.Result, error) {
	return []domain.Result{}, nil
}

func (m *mockRetrievalService) Evaluate(context.Context, domain.QueryRequest, []string) (*domain.Evaluation, error) {
	return &domain.Evaluation{}, nil
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	documents []domain.Document
}

func (m *mockIngestService) Ingest(context.Context, driving.IngestRequest) (*driving.IngestResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockIngestService) IngestRecords(
	context.Context, string, string, []domain.Record,
) (*driving.IngestResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockIngestService) Remove(context.Context, string) (int, error) {
	return 0, nil
}

func (m *mockIngestService) List(context.Context) ([]domain.Document, error) {
	return m.documents, nil
}

func TestNewPorts(t *testing.T) {
	retrieval := &mockRetrievalService{}
	ingest := &mockIngestService{}

	ports := NewPorts(retrieval, ingest)

	require.NotNil(t, ports)
	assert.Equal(t, retrieval, ports.Retrieval)
	assert.Equal(t, ingest, ports.Ingest)
	assert.Equal(t, 0, ports.TopK)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{"all set", NewPorts(&mockRetrievalService{}, &mockIngestService{}), nil},
		{"ingest optional", NewPorts(&mockRetrievalService{}, nil), nil},
		{"missing retrieval", NewPorts(nil, &mockIngestService{}), ErrMissingRetrievalService},
		{"nil ports", nil, ErrInvalidPorts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
