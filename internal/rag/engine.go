// Package rag implements the retrieval-augmented generation surface:
// retrieve via search, assemble a source-annotated prompt, call an
// injected LLM provider, and return the answer alongside its sources and
// generation metrics.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/vmonin/semknow/internal/aiclient"
	"github.com/vmonin/semknow/internal/config"
	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/search"
)

// systemPromptTemplate is the fixed instruction every Ask call prepends
// to retrieved context.
const systemPromptTemplate = `Answer based ONLY on the provided context. If the context doesn't contain the answer, say so explicitly rather than guessing. Format your answer as Markdown.

Context:
%s`

// Engine answers questions by retrieving chunks or documents and asking
// an LLM to synthesize a grounded response.
type Engine struct {
	search *search.Engine
	llm    aiclient.LLMProvider
	cfg    config.RAGConfig
}

// NewEngine wires a RAG Engine over a search engine and LLM provider.
func NewEngine(searchEngine *search.Engine, llm aiclient.LLMProvider, cfg config.RAGConfig) *Engine {
	return &Engine{search: searchEngine, llm: llm, cfg: cfg}
}

// AskOptions configures one Ask call.
type AskOptions struct {
	Mode          search.Mode
	FullDocs      bool
	ContextWindow int
	History       *ChatHistoryManager
}

// AskResult is what Ask returns: the generated answer, the sources it was
// grounded in, and the provider's reported generation metrics.
type AskResult struct {
	Answer     string
	Sources    []search.ChunkResult
	Documents  []search.DocumentResult
	Generation aiclient.GenerationResult
}

// Ask retrieves context for query, builds a source-annotated prompt, and
// calls the LLM provider to generate a grounded answer.
func (e *Engine) Ask(ctx context.Context, query string, opts AskOptions) (AskResult, error) {
	var result AskResult
	var contextStr string

	if opts.FullDocs {
		docs, err := e.search.SearchDocuments(ctx, query, search.Options{
			Mode:  opts.Mode,
			Limit: e.cfg.ContextChunks,
		})
		if err != nil {
			return result, fmt.Errorf("search documents: %w", err)
		}
		result.Documents = docs
		contextStr = buildFullDocContext(docs)
	} else {
		chunks, err := e.search.SearchChunks(ctx, query, search.Options{
			Mode:          opts.Mode,
			Limit:         e.cfg.ContextChunks,
			ContextWindow: opts.ContextWindow,
		})
		if err != nil {
			return result, fmt.Errorf("search chunks: %w", err)
		}
		result.Sources = chunks
		contextStr = buildChunkContext(chunks)
	}

	systemPrompt := fmt.Sprintf(systemPromptTemplate, contextStr)

	var history []aiclient.ChatHistoryTurn
	if opts.History != nil {
		history = opts.History.Turns()
	}

	gen, err := e.llm.Generate(ctx, query, systemPrompt, e.cfg.Temperature, e.cfg.MaxTokens, history)
	if err != nil {
		return result, fmt.Errorf("generate answer: %w", err)
	}

	result.Answer = gen.Text
	result.Generation = gen
	return result, nil
}

// buildChunkContext formats retrieved chunks as "\n\n---\n\n"-separated
// blocks of "[i] <title> (score: s)\n<content>".
func buildChunkContext(chunks []search.ChunkResult) string {
	blocks := make([]string, 0, len(chunks))
	for i, c := range chunks {
		title := chunkTitle(c)
		blocks = append(blocks, fmt.Sprintf("[%d] %s (score: %.4f)\n%s", i+1, title, c.Score, c.Chunk.Content))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

func chunkTitle(c search.ChunkResult) string {
	if headers := c.Chunk.Metadata[domain.MetaKeyHeaders]; headers != "" {
		return headers
	}
	if c.Document != nil {
		return c.Document.ID
	}
	return c.Chunk.ParentDocID
}

// buildFullDocContext formats each document result as
// "[<source>]\n<document.content>"; SearchDocuments has already grouped
// the results so each document appears once.
func buildFullDocContext(docs []search.DocumentResult) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		source := d.Document.Metadata[domain.MetaKeySource]
		if source == "" {
			source = d.Document.ID
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", source, d.Document.Content))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
