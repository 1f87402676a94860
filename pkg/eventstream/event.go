package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentIngested is emitted after a document is fully
	// processed into memories.
	EventTypeDocumentIngested = "engram.document.ingested"
)

// DocumentIngestedEvent is a transport-neutral event payload for a processed
// document.
type DocumentIngestedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Owner         string       `json:"owner"`
	Document      DocumentMeta `json:"document"`
	Graph         GraphMeta    `json:"graph"`
}

// DocumentMeta identifies the processed document and what it produced.
type DocumentMeta struct {
	DocumentID   string   `json:"document_id"`
	Title        string   `json:"title,omitempty"`
	Source       string   `json:"source,omitempty"`
	DocumentType string   `json:"document_type"`
	Status       string   `json:"status"`
	MemoryIDs    []string `json:"memory_ids"`
}

// GraphMeta captures the graph-side effects of the ingestion.
type GraphMeta struct {
	MemoriesCreated      int            `json:"memories_created"`
	RelationshipsCreated int            `json:"relationships_created"`
	RelationshipTypes    map[string]int `json:"relationship_types,omitempty"`
}
