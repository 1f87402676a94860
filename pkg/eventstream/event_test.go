package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals DocumentIngestedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.DocumentIngestedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeDocumentIngested,
			EventID:       "evt_123",
			EmittedAt:     now,
			Owner:         "alice",
			Document: eventstream.DocumentMeta{
				DocumentID:   "doc-1",
				Title:        "Standup notes",
				DocumentType: "text",
				Status:       "done",
				MemoryIDs:    []string{"mem-1", "mem-2"},
			},
			Graph: eventstream.GraphMeta{
				MemoriesCreated:      2,
				RelationshipsCreated: 1,
				RelationshipTypes:    map[string]int{"updates": 1},
			},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("owner"))
		Expect(got).To(HaveKey("document"))
		Expect(got).To(HaveKey("graph"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeDocumentIngested).To(Equal("engram.document.ingested"))
	})

	It("provides ErrNilDocumentEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilDocumentEvent).NotTo(BeNil())
		Expect(eventstream.ErrNilDocumentEvent).To(MatchError("nil document event"))
	})
})
