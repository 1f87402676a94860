package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/docstore"
	"github.com/engramlabs/engram/pkg/docstore/sqlite"
)

var _ = Describe("Driver", func() {
	var (
		driver *sqlite.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		driver, err = sqlite.NewDriver(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	Describe("NewDriver", func() {
		It("creates a driver with file database", func() {
			tmpDir := GinkgoT().TempDir()
			dbPath := filepath.Join(tmpDir, "test.db")

			s, err := sqlite.NewDriver(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			// Verify file was created
			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Save and Get", func() {
		It("round-trips a full document record", func() {
			doc := docstore.NewDocument("alice", "Q3 planning", "https://example.com/q3", docstore.TypeLink)
			doc.Metadata = map[string]any{"source": "https://example.com/q3"}

			Expect(driver.Save(ctx, doc)).To(Succeed())

			retrieved, err := driver.Get(ctx, doc.ID, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Title).To(Equal("Q3 planning"))
			Expect(retrieved.DocumentType).To(Equal(docstore.TypeLink))
			Expect(retrieved.Status).To(Equal(docstore.StatusQueued))
			Expect(retrieved.Metadata).To(HaveKeyWithValue("source", "https://example.com/q3"))
			Expect(retrieved.ProcessedAt).To(BeNil())
		})

		It("upserts status progression for the same ID", func() {
			doc := docstore.NewDocument("alice", "Notes", "", docstore.TypeText)
			Expect(driver.Save(ctx, doc)).To(Succeed())

			doc.Status = docstore.StatusEmbedding
			Expect(driver.Save(ctx, doc)).To(Succeed())

			doc.MarkDone([]string{"mem-1"})
			Expect(driver.Save(ctx, doc)).To(Succeed())

			retrieved, err := driver.Get(ctx, doc.ID, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Status).To(Equal(docstore.StatusDone))
			Expect(retrieved.MemoryIDs).To(Equal([]string{"mem-1"}))
			Expect(retrieved.ProcessedAt).NotTo(BeNil())

			docs, err := driver.List(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
		})

		It("preserves an error message on failed documents", func() {
			doc := docstore.NewDocument("alice", "Broken link", "https://example.invalid", docstore.TypeLink)
			doc.MarkFailed("fetch failed: connection refused")
			Expect(driver.Save(ctx, doc)).To(Succeed())

			retrieved, err := driver.Get(ctx, doc.ID, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Status).To(Equal(docstore.StatusFailed))
			Expect(retrieved.ErrorMessage).To(ContainSubstring("connection refused"))
		})

		It("returns ErrNotFound for non-existent ID", func() {
			_, err := driver.Get(ctx, "nonexistent", "alice")
			Expect(err).To(BeAssignableToTypeOf(docstore.ErrNotFound{}))
		})

		It("hides documents of other owners", func() {
			doc := docstore.NewDocument("alice", "Private", "", docstore.TypeText)
			Expect(driver.Save(ctx, doc)).To(Succeed())

			_, err := driver.Get(ctx, doc.ID, "bob")
			Expect(err).To(BeAssignableToTypeOf(docstore.ErrNotFound{}))
		})
	})

	Describe("List", func() {
		It("scopes results to the owner", func() {
			Expect(driver.Save(ctx, docstore.NewDocument("alice", "a1", "", docstore.TypeText))).To(Succeed())
			Expect(driver.Save(ctx, docstore.NewDocument("bob", "b1", "", docstore.TypeText))).To(Succeed())

			docs, err := driver.List(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Owner).To(Equal("alice"))
		})

		It("returns all documents when owner is empty", func() {
			Expect(driver.Save(ctx, docstore.NewDocument("alice", "a1", "", docstore.TypeText))).To(Succeed())
			Expect(driver.Save(ctx, docstore.NewDocument("bob", "b1", "", docstore.TypeText))).To(Succeed())

			docs, err := driver.List(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(2))
		})
	})

	Describe("DeleteByOwner", func() {
		It("removes the owner's documents and reports the count", func() {
			Expect(driver.Save(ctx, docstore.NewDocument("alice", "a1", "", docstore.TypeText))).To(Succeed())
			Expect(driver.Save(ctx, docstore.NewDocument("alice", "a2", "", docstore.TypeText))).To(Succeed())
			Expect(driver.Save(ctx, docstore.NewDocument("bob", "b1", "", docstore.TypeText))).To(Succeed())

			deleted, err := driver.DeleteByOwner(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(2))

			remaining, err := driver.List(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(HaveLen(1))
			Expect(remaining[0].Owner).To(Equal("bob"))
		})
	})
})
