// File path: internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/llm"
	"github.com/mattlimsiaco/trackwise-search/internal/observability"
	"github.com/mattlimsiaco/trackwise-search/internal/retriever"
	"github.com/mattlimsiaco/trackwise-search/internal/schema"
)

// Stage names the step a request is in; the pipeline is terminal on the first
// failing stage.
type Stage string

const (
	StageRetrieval  Stage = "retrieval"
	StageExtraction Stage = "extraction"
	StageResolution Stage = "resolution"
	StageGeneration Stage = "generation"
	StageExtracted  Stage = "extracted"
)

// Result carries the cleaned SQL along with the intermediate artifacts, so
// the API layer can report what grounded the generation.
type Result struct {
	SQL        string
	Examples   []retriever.Match
	Extraction CandidateExtraction
	Tables     []string
	Columns    []schema.ColumnEmbedding
	SchemaText string
}

// Pipeline orchestrates the two LLM calls around retrieval and schema
// resolution for a single request. It holds no per-request state.
type Pipeline struct {
	retriever *retriever.Retriever
	resolver  *schema.Resolver
	provider  llm.Provider
	topN      int
}

func New(retr *retriever.Retriever, resolver *schema.Resolver, provider llm.Provider, topN int) (*Pipeline, error) {
	if retr == nil {
		return nil, errors.New("retriever required")
	}
	if resolver == nil {
		return nil, errors.New("schema resolver required")
	}
	if provider == nil {
		return nil, errors.New("llm provider required")
	}
	if topN <= 0 {
		topN = retriever.DefaultTopN
	}
	return &Pipeline{retriever: retr, resolver: resolver, provider: provider, topN: topN}, nil
}

// Generate runs the full question-to-SQL flow. Every failure is scoped to
// this request; malformed LLM output degrades to explicit error values.
func (p *Pipeline) Generate(ctx context.Context, userQuery string) (*Result, error) {
	logger := common.Logger()

	stop := observability.ObservePipelineStage(string(StageRetrieval))
	matches, err := p.retriever.Retrieve(ctx, userQuery, p.topN)
	stop()
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", StageRetrieval, err)
	}
	contextBlock := retriever.RenderContext(matches)
	logger.Debug("pipeline: retrieval complete", "examples", len(matches))

	stop = observability.ObservePipelineStage(string(StageExtraction))
	scopeResponse, err := p.provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: buildExtractionPrompt(contextBlock)},
			{Role: "user", Content: userQuery},
		},
	})
	stop()
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", StageExtraction, err)
	}
	extraction := ParseCandidateExtraction(scopeResponse)
	logger.Debug("pipeline: candidates extracted",
		"tables", extraction.TableNames, "table_count", extraction.TableCount,
		"columns", extraction.ColumnNames, "column_count", extraction.ColumnCount)

	stop = observability.ObservePipelineStage(string(StageResolution))
	tables, err := p.resolver.FindTables(ctx, extraction.TableNames, extraction.TableCount)
	if err != nil {
		stop()
		return nil, fmt.Errorf("%s stage: %w", StageResolution, err)
	}
	columns, err := p.resolver.FindColumns(ctx, extraction.ColumnNames, extraction.ColumnCount, tables)
	stop()
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", StageResolution, err)
	}
	schemaText := schema.DescribeColumns(columns)
	if len(tables) == 0 {
		// Degraded path: the generation prompt proceeds without grounding.
		logger.Warn("pipeline: no tables resolved, generating unconstrained", "query_length", len(userQuery))
	}

	temperature := 0.0
	stop = observability.ObservePipelineStage(string(StageGeneration))
	sqlResponse, err := p.provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: buildGenerationPrompt(schemaText)},
			{Role: "user", Content: userQuery},
		},
		Temperature: &temperature,
	})
	stop()
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", StageGeneration, err)
	}

	sqlText, err := ExtractSQL(sqlResponse)
	if err != nil {
		observability.RecordExtractionFailure()
		return nil, fmt.Errorf("%s stage: %w", StageExtracted, err)
	}
	logger.Info("pipeline: sql generated", "tables", tables, "columns", len(columns), "sql_length", len(sqlText))
	return &Result{
		SQL:        sqlText,
		Examples:   matches,
		Extraction: extraction,
		Tables:     tables,
		Columns:    columns,
		SchemaText: schemaText,
	}, nil
}
