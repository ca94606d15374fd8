package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// defaultTopK is used when a tool call does not set top_k.
const defaultTopK = 5

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Query            string   `json:"query" jsonschema:"the question to retrieve passages for"`
	Folder           string   `json:"folder,omitempty" jsonschema:"restrict retrieval to one folder label, e.g. a building type"`
	Region           string   `json:"region,omitempty" jsonschema:"an additional folder searched by the keyword index"`
	TopK             int      `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
	Threshold        *float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity between 0 and 1"`
	PreferredSources []string `json:"preferred_sources,omitempty" jsonschema:"document IDs that receive a ranking bonus"`
	Mode             string   `json:"mode,omitempty" jsonschema:"auto, vector or keyword (default auto)"`
}

// SearchInput is the input schema for the keyword search tool.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"the keywords to look up"`
	Folder string `json:"folder,omitempty" jsonschema:"restrict the search to one folder label"`
	Region string `json:"region,omitempty" jsonschema:"an additional folder to search"`
	TopK   int    `json:"top_k,omitempty" jsonschema:"maximum number of records to return (default 5)"`
}

// CategoryInput is the input schema for the category tool.
type CategoryInput struct {
	Category string `json:"category" jsonschema:"the record category, e.g. 주차"`
	Folder   string `json:"folder,omitempty" jsonschema:"restrict the listing to one folder label"`
}

// ResultsOutput is the output schema shared by the retrieval tools.
type ResultsOutput struct {
	Results []ResultOutput `json:"results"`
	Count   int            `json:"count"`
	Mode    string         `json:"mode,omitempty"`
}

// ResultOutput represents a single retrieved passage.
type ResultOutput struct {
	Content  string         `json:"content"`
	Source   string         `json:"source,omitempty"`
	Filename string         `json:"filename,omitempty"`
	Folder   string         `json:"folder,omitempty"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Retrieve the passages most relevant to a question",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Look up structured records by keyword",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "category",
		Description: "List structured records in a category",
	}, s.handleCategory)
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, ResultsOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	resp, err := s.ports.Retrieval.Query(ctx, domain.QueryRequest{
		Query:            input.Query,
		Folder:           input.Folder,
		Region:           input.Region,
		TopK:             topK,
		Threshold:        input.Threshold,
		PreferredSources: input.PreferredSources,
		Mode:             domain.QueryMode(input.Mode),
	})
	if err != nil {
		return nil, ResultsOutput{}, err
	}

	output := toOutput(resp.Results)
	output.Mode = resp.Mode.String()
	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, ResultsOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	results, err := s.ports.Retrieval.Search(ctx, input.Query, domain.SearchOptions{
		FolderFilter: input.Folder,
		RegionFilter: input.Region,
		TopK:         topK,
	})
	if err != nil {
		return nil, ResultsOutput{}, err
	}
	return nil, toOutput(results), nil
}

// handleCategory handles the category tool invocation.
func (s *Server) handleCategory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CategoryInput,
) (*mcp.CallToolResult, ResultsOutput, error) {
	results, err := s.ports.Retrieval.ByCategory(ctx, input.Category, input.Folder)
	if err != nil {
		return nil, ResultsOutput{}, err
	}
	return nil, toOutput(results), nil
}

func toOutput(results []domain.Result) ResultsOutput {
	output := ResultsOutput{
		Results: make([]ResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		meta := results[i].Metadata
		output.Results[i] = ResultOutput{
			Content:  results[i].Content,
			Source:   metaString(meta, domain.MetaSource),
			Filename: metaString(meta, domain.MetaFilename),
			Folder:   metaString(meta, domain.MetaFolder),
			Score:    results[i].Score,
			Metadata: meta,
		}
	}
	return output
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}
