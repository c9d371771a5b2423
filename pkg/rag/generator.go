package rag

import (
	"context"
	"time"

	"easylaw-be/internal/entity"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/pkg/llm"
	"easylaw-be/pkg/rag/prompt"
)

// ExcerptRetriever is satisfied by search.Retriever.
type ExcerptRetriever interface {
	Retrieve(ctx context.Context, scope string, question string) ([]*entity.LawChunk, error)
}

// LawGenerator answers a question grounded on retrieved law excerpts and
// streams the answer from the language model.
type LawGenerator struct {
	retriever ExcerptRetriever
	provider  llm.StreamProvider
	timeout   time.Duration
	logger    logger.ILogger
}

var _ llm.Generator = (*LawGenerator)(nil)

func NewLawGenerator(retriever ExcerptRetriever, provider llm.StreamProvider, timeout time.Duration, logger logger.ILogger) *LawGenerator {
	return &LawGenerator{retriever: retriever, provider: provider, timeout: timeout, logger: logger}
}

func (g *LawGenerator) Generate(ctx context.Context, req llm.GenerationRequest, onFragment func(string) error) (*llm.GenerationResult, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	started := time.Now()

	// A retrieval failure degrades to an ungrounded answer.
	var excerpts []*entity.LawChunk
	if g.retriever != nil {
		found, err := g.retriever.Retrieve(ctx, req.Mode, req.Content)
		if err != nil {
			g.logger.Warn("RAG", "Retrieval failed, answering without excerpts", map[string]interface{}{
				"mode":  req.Mode,
				"error": err.Error(),
			})
		} else {
			excerpts = found
		}
	}

	messages := make([]llm.Message, 0, len(req.History)+2)
	messages = append(messages, llm.Message{Role: "system", Content: prompt.NewLawPromptBuilder(req.Mode, excerpts).Build()})
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{Role: "user", Content: req.Content})

	stats, err := g.provider.ChatStream(ctx, messages, onFragment, llm.WithTemperature(0.3))
	if err != nil {
		return nil, err
	}

	return &llm.GenerationResult{
		Metadata: map[string]interface{}{
			"model":         stats.Model,
			"rag_sources":   sources(excerpts),
			"response_time": time.Since(started).Seconds(),
		},
	}, nil
}

func sources(excerpts []*entity.LawChunk) []interface{} {
	out := make([]interface{}, 0, len(excerpts))
	for _, chunk := range excerpts {
		out = append(out, map[string]interface{}{
			"source":      chunk.Source,
			"chunk_index": chunk.ChunkIndex,
			"distance":    chunk.Distance,
		})
	}
	return out
}
