package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/chunk"
	"github.com/engramlabs/engram/pkg/content"
	"github.com/engramlabs/engram/pkg/docstore"
	"github.com/engramlabs/engram/pkg/embeddings"
	"github.com/engramlabs/engram/pkg/entity"
	"github.com/engramlabs/engram/pkg/eventstream"
	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/summarize"
	"github.com/engramlabs/engram/pkg/tier"
	"github.com/engramlabs/engram/pkg/vector"
)

// Config wires the pipeline's collaborators. Engine, MemoryIndex, Embedder,
// and Docstore are required; the rest are optional.
type Config struct {
	Engine      *graph.Engine
	MemoryIndex vector.Driver
	Embedder    embeddings.Embedder
	Docstore    docstore.Driver
	Classifier  *Classifier
	Chunker     *chunk.Chunker

	// Tiering tracks newly created memories in the hot/cold cache.
	Tiering *tier.Manager

	// Summarizer is best-effort: failures fall back to the original text.
	Summarizer summarize.Summarizer

	// Publisher emits a document-ingested event after each successful run.
	Publisher eventstream.Publisher

	// EmbeddingModel names the model recorded on each memory.
	EmbeddingModel string

	Logger *zap.Logger
}

// Pipeline turns raw content into embedded, linked, searchable memories.
type Pipeline struct {
	config    *Config
	extractor *entity.Extractor
	logger    *zap.Logger
}

// NewPipeline creates an ingestion pipeline, filling in defaults for the
// optional chunker and classifier.
func NewPipeline(c *Config) (*Pipeline, error) {
	if c.Engine == nil {
		return nil, errors.New("graph engine is required")
	}
	if c.MemoryIndex == nil {
		return nil, errors.New("memory index is required")
	}
	if c.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if c.Docstore == nil {
		return nil, errors.New("docstore is required")
	}
	if c.Chunker == nil {
		c.Chunker = chunk.NewChunker(chunk.DefaultSize, chunk.DefaultOverlap)
	}
	if c.Classifier == nil {
		c.Classifier = NewClassifier(c.Engine, c.MemoryIndex, DefaultPolicy(), c.Logger)
	}

	return &Pipeline{
		config:    c,
		extractor: entity.NewExtractor(),
		logger:    c.Logger,
	}, nil
}

// IngestText validates and processes raw note text for the owner.
func (p *Pipeline) IngestText(ctx context.Context, owner, text, title, source string) (*docstore.Document, error) {
	if err := ValidateNote(text, title, source); err != nil {
		return nil, err
	}

	doc := docstore.NewDocument(owner, title, source, docstore.TypeText)
	if err := p.config.Docstore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to register document: %w", err)
	}

	if _, err := p.Process(ctx, doc, text); err != nil {
		return doc, err
	}
	return doc, nil
}

// IngestContent runs a content producer (link fetcher, file reader) and
// processes whatever text it extracts.
func (p *Pipeline) IngestContent(ctx context.Context, owner, source string, docType docstore.DocumentType, producer content.Producer) (*docstore.Document, error) {
	extracted, err := producer.Produce(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	if err := ValidateNote(extracted.Text, extracted.Title, source); err != nil {
		return nil, err
	}

	doc := docstore.NewDocument(owner, extracted.Title, source, docType)
	doc.Metadata = extracted.Metadata
	if err := p.config.Docstore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to register document: %w", err)
	}

	if _, err := p.Process(ctx, doc, extracted.Text); err != nil {
		return doc, err
	}
	return doc, nil
}

// Process runs the pipeline stages over an already-registered document:
// extract, chunk, embed, index, link. The document's status advances through
// each stage and lands on done or failed.
func (p *Pipeline) Process(ctx context.Context, doc *docstore.Document, text string) ([]*graph.Memory, error) {
	p.logger.Info("processing document",
		zap.String("document_id", doc.ID),
		zap.String("owner", doc.Owner),
	)

	p.setStatus(ctx, doc, docstore.StatusExtracting)

	p.setStatus(ctx, doc, docstore.StatusChunking)
	chunks := p.config.Chunker.Split(text)

	p.setStatus(ctx, doc, docstore.StatusEmbedding)
	vectors, err := p.config.Embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, p.fail(ctx, doc, fmt.Errorf("failed to embed chunks: %w", err))
	}
	if len(vectors) != len(chunks) {
		return nil, p.fail(ctx, doc, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	memories := make([]*graph.Memory, 0, len(chunks))
	for idx, chunkText := range chunks {
		memory := graph.NewMemory(doc.Owner, chunkText, doc.ID, idx)
		memory.Embedding = vectors[idx]
		memory.EmbeddingModel = p.config.EmbeddingModel
		memory.Keywords = ExtractKeywords(chunkText)

		extracted := p.extractor.Extract(chunkText)
		memory.Entities = flattenEntities(extracted)
		memory.Metadata = map[string]any{
			"source":           doc.Source,
			"document_type":    string(doc.DocumentType),
			"title":            doc.Title,
			"entities_by_type": entitiesByType(extracted),
		}

		memory.Summary = p.summarize(ctx, chunkText)
		memories = append(memories, memory)
	}

	p.setStatus(ctx, doc, docstore.StatusIndexing)

	// Graph first so the memories exist for relationship detection.
	for _, memory := range memories {
		p.config.Engine.AddMemory(memory)
	}

	points := make([]vector.Point, 0, len(memories))
	for _, memory := range memories {
		points = append(points, vector.Point{
			ID:      memory.ID,
			Vector:  memory.Embedding,
			Payload: graph.MemoryPayload(memory),
		})
	}
	if err := p.config.MemoryIndex.UpsertBatch(ctx, points); err != nil {
		return nil, p.fail(ctx, doc, fmt.Errorf("failed to index memories: %w", err))
	}

	detection := p.config.Classifier.DetectRelationships(ctx, memories)

	if p.config.Tiering != nil {
		for _, memory := range memories {
			p.config.Tiering.Track(memory)
		}
	}

	memoryIDs := make([]string, 0, len(memories))
	for _, memory := range memories {
		memoryIDs = append(memoryIDs, memory.ID)
	}
	doc.MarkDone(memoryIDs)
	if err := p.config.Docstore.Save(ctx, doc); err != nil {
		p.logger.Warn("failed to record document completion",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
	}

	p.publish(ctx, doc, len(memories), detection)

	p.logger.Info("document processed",
		zap.String("document_id", doc.ID),
		zap.Int("memories", len(memories)),
		zap.Int("relationships", detection.Relationships),
	)

	return memories, nil
}

// setStatus advances the document's status and saves it best-effort.
func (p *Pipeline) setStatus(ctx context.Context, doc *docstore.Document, status docstore.Status) {
	doc.Status = status
	if err := p.config.Docstore.Save(ctx, doc); err != nil {
		p.logger.Warn("failed to record document status",
			zap.String("document_id", doc.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

// fail marks the document failed with the error message and returns the error.
func (p *Pipeline) fail(ctx context.Context, doc *docstore.Document, err error) error {
	doc.MarkFailed(err.Error())
	if saveErr := p.config.Docstore.Save(ctx, doc); saveErr != nil {
		p.logger.Warn("failed to record document failure",
			zap.String("document_id", doc.ID),
			zap.Error(saveErr),
		)
	}
	return err
}

// summarize produces a best-effort summary; failures fall back to no summary.
func (p *Pipeline) summarize(ctx context.Context, text string) string {
	if p.config.Summarizer == nil {
		return ""
	}

	summary, err := p.config.Summarizer.Summarize(ctx, text)
	if err != nil {
		p.logger.Warn("summarization failed, continuing without summary", zap.Error(err))
		return ""
	}
	return summary
}

// publish emits the document-ingested event best-effort.
func (p *Pipeline) publish(ctx context.Context, doc *docstore.Document, memoriesCreated int, detection Detection) {
	if p.config.Publisher == nil {
		return
	}

	event := &eventstream.DocumentIngestedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeDocumentIngested,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Owner:         doc.Owner,
		Document: eventstream.DocumentMeta{
			DocumentID:   doc.ID,
			Title:        doc.Title,
			Source:       doc.Source,
			DocumentType: string(doc.DocumentType),
			Status:       string(doc.Status),
			MemoryIDs:    doc.MemoryIDs,
		},
		Graph: eventstream.GraphMeta{
			MemoriesCreated:      memoriesCreated,
			RelationshipsCreated: detection.Relationships,
			RelationshipTypes:    detection.ByType,
		},
	}

	if err := p.config.Publisher.PublishDocument(ctx, event); err != nil {
		p.logger.Warn("failed to publish document event",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
	}
}

// flattenEntities collects every extracted entity into one sorted list.
func flattenEntities(extracted entity.Entities) []string {
	var all []string
	for _, entityType := range entity.Types {
		all = append(all, extracted[entityType].Members()...)
	}
	sort.Strings(all)
	return all
}

// entitiesByType converts the extraction result into a plain map for the
// memory's metadata payload.
func entitiesByType(extracted entity.Entities) map[string]any {
	byType := make(map[string]any, len(extracted))
	for _, entityType := range entity.Types {
		members := extracted[entityType].Members()
		sort.Strings(members)
		byType[entityType] = members
	}
	return byType
}
