package assistant

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/easysalon/salon-concierge/internal/salon"
	"github.com/easysalon/salon-concierge/pkg/logging"
)

type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, request openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// CatalogSearcher exposes the retrieval capability the Q&A flow needs.
type CatalogSearcher interface {
	Query(ctx context.Context, query string, topK int) ([]string, error)
}

// CatalogIndex keeps salon catalog embeddings in memory and supports simple
// cosine retrieval, giving the Q&A flow grounding in what the salon
// actually offers.
type CatalogIndex struct {
	client embeddingClient
	model  string
	logger *logging.Logger

	mu   sync.RWMutex
	docs []catalogDocument
}

type catalogDocument struct {
	content   string
	embedding []float32
}

// NewCatalogIndex creates an empty in-memory index.
func NewCatalogIndex(client embeddingClient, model string, logger *logging.Logger) *CatalogIndex {
	if client == nil {
		panic("assistant: embedding client cannot be nil")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogIndex{
		client: client,
		model:  model,
		logger: logger,
	}
}

// AddDocuments embeds and stores the provided contents.
func (s *CatalogIndex) AddDocuments(ctx context.Context, contents []string) error {
	if len(contents) == 0 {
		return nil
	}

	req := &openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(s.model),
		Input: contents,
	}
	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return fmt.Errorf("assistant: failed to embed documents: %w", err)
	}
	if len(resp.Data) != len(contents) {
		return errors.New("assistant: embedding response size mismatch")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range resp.Data {
		s.docs = append(s.docs, catalogDocument{
			content:   contents[i],
			embedding: item.Embedding,
		})
	}
	return nil
}

// IngestCatalog loads the salon's services, products, and packages into the
// index as one-line descriptions.
func (s *CatalogIndex) IngestCatalog(ctx context.Context, client *salon.Client) error {
	var contents []string

	services, err := client.ListServices(ctx)
	if err != nil {
		return err
	}
	for _, svc := range services {
		contents = append(contents, fmt.Sprintf("Service: %s, price %.0f, takes %d minutes", svc.Name, svc.Price, svc.Time))
	}

	products, err := client.ListProducts(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		contents = append(contents, fmt.Sprintf("Product: %s, price %.0f", p.Name, p.Price))
	}

	packages, err := client.ListPackages(ctx)
	if err != nil {
		return err
	}
	for _, p := range packages {
		contents = append(contents, fmt.Sprintf("Package: %s, price %.0f", p.Name, p.Price))
	}

	s.logger.Info("assistant: ingesting catalog", "documents", len(contents))
	return s.AddDocuments(ctx, contents)
}

// Query returns the topK most similar documents.
func (s *CatalogIndex) Query(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = 3
	}
	req := &openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(s.model),
		Input: []string{query},
	}
	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("assistant: failed to embed query: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	queryVec := resp.Data[0].Embedding

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.docs) == 0 {
		return nil, nil
	}

	type scored struct {
		score   float64
		content string
	}
	results := make([]scored, 0, len(s.docs))
	for _, doc := range s.docs {
		results = append(results, scored{
			score:   cosineSimilarity(queryVec, doc.embedding),
			content: doc.content,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	limit := topK
	if len(results) < limit {
		limit = len(results)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = results[i].content
	}
	return out, nil
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
