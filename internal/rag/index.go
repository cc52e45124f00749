package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/neurowell/support-ai-platform/pkg/logging"
)

// EmbeddingClient is the subset of the OpenAI-compatible client used for
// embedding chunks and queries.
type EmbeddingClient interface {
	CreateEmbeddings(ctx context.Context, request openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Options configures index construction.
type Options struct {
	KnowledgeDir string
	IndexPath    string
	Model        string
	ChunkSize    int
	ChunkOverlap int
}

type indexEntry struct {
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

type indexFile struct {
	Model   string       `json:"model"`
	Entries []indexEntry `json:"entries"`
}

// Index is the vector index over the knowledge base. It is built (or
// reopened) once at process start and is read-only afterwards; queries may
// run concurrently without locking.
type Index struct {
	client  EmbeddingClient
	model   string
	entries []indexEntry
	logger  *logging.Logger
}

// BuildOrOpen reopens a persisted index if one exists, otherwise loads the
// knowledge directory, chunks and embeds its documents, and persists the
// result. A persisted index is never rebuilt.
func BuildOrOpen(ctx context.Context, client EmbeddingClient, opts Options, logger *logging.Logger) (*Index, error) {
	if client == nil {
		return nil, errors.New("rag: embedding client cannot be nil")
	}
	if opts.Model == "" {
		opts.Model = "text-embedding-3-small"
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap <= 0 {
		opts.ChunkOverlap = DefaultChunkOverlap
	}
	if logger == nil {
		logger = logging.Default()
	}

	idx := &Index{client: client, model: opts.Model, logger: logger}

	if _, err := os.Stat(opts.IndexPath); err == nil {
		if err := idx.open(opts.IndexPath); err != nil {
			return nil, err
		}
		logger.Info("vector index reopened", "path", opts.IndexPath, "chunks", len(idx.entries))
		return idx, nil
	}

	if err := idx.build(ctx, opts); err != nil {
		return nil, err
	}
	logger.Info("vector index built", "path", opts.IndexPath, "chunks", len(idx.entries))
	return idx, nil
}

func (idx *Index) open(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rag: read index: %w", err)
	}
	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("rag: decode index: %w", err)
	}
	idx.entries = file.Entries
	if file.Model != "" {
		idx.model = file.Model
	}
	return nil
}

func (idx *Index) build(ctx context.Context, opts Options) error {
	docs, err := LoadDirectory(opts.KnowledgeDir, idx.logger)
	if err != nil {
		return err
	}

	var chunks []string
	for _, doc := range docs {
		chunks = append(chunks, SplitText(doc, opts.ChunkSize, opts.ChunkOverlap)...)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("rag: no knowledge chunks found under %s", opts.KnowledgeDir)
	}

	embeddings, err := idx.embed(ctx, chunks)
	if err != nil {
		return err
	}

	idx.entries = make([]indexEntry, len(chunks))
	for i, chunk := range chunks {
		idx.entries[i] = indexEntry{Content: chunk, Embedding: embeddings[i]}
	}

	return idx.persist(opts.IndexPath)
}

func (idx *Index) persist(path string) error {
	data, err := json.Marshal(indexFile{Model: idx.model, Entries: idx.entries})
	if err != nil {
		return fmt.Errorf("rag: encode index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("rag: write index: %w", err)
	}
	return nil
}

func (idx *Index) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := idx.client.CreateEmbeddings(ctx, &openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(idx.model),
		Input: inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("rag: create embeddings: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, errors.New("rag: embedding response size mismatch")
	}

	out := make([][]float32, len(inputs))
	for i, item := range resp.Data {
		out[i] = item.Embedding
	}
	return out, nil
}

// Query embeds the query text and returns the topK most similar chunks by
// cosine similarity.
func (idx *Index) Query(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = 3
	}
	if len(idx.entries) == 0 {
		return nil, nil
	}

	vecs, err := idx.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	queryVec := vecs[0]

	type scored struct {
		score   float64
		content string
	}
	results := make([]scored, 0, len(idx.entries))
	for _, entry := range idx.entries {
		results = append(results, scored{
			score:   cosineSimilarity(queryVec, entry.Embedding),
			content: entry.Content,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if topK > len(results) {
		topK = len(results)
	}
	out := make([]string, topK)
	for i := 0; i < topK; i++ {
		out[i] = results[i].content
	}
	return out, nil
}

// Len reports how many chunks the index holds.
func (idx *Index) Len() int {
	return len(idx.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
