package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/docstore"
	"github.com/engramlabs/engram/pkg/docstore/postgres"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("ENGRAM_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("ENGRAM_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	var (
		driver *postgres.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		dsn := connStr()

		var err error
		driver, err = postgres.NewDriver(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())

		// Clean all documents before each test for isolation.
		docs, err := driver.List(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		owners := map[string]struct{}{}
		for _, doc := range docs {
			owners[doc.Owner] = struct{}{}
		}
		for owner := range owners {
			_, err := driver.DeleteByOwner(ctx, owner)
			Expect(err).NotTo(HaveOccurred())
		}
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	It("round-trips a document record", func() {
		doc := docstore.NewDocument("alice", "Meeting notes", "", docstore.TypeText)
		doc.Metadata = map[string]any{"title": "Meeting notes"}

		Expect(driver.Save(ctx, doc)).To(Succeed())

		retrieved, err := driver.Get(ctx, doc.ID, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(retrieved.Title).To(Equal("Meeting notes"))
		Expect(retrieved.Status).To(Equal(docstore.StatusQueued))
		Expect(retrieved.Metadata).To(HaveKeyWithValue("title", "Meeting notes"))
	})

	It("upserts status progression for the same ID", func() {
		doc := docstore.NewDocument("alice", "Notes", "", docstore.TypeText)
		Expect(driver.Save(ctx, doc)).To(Succeed())

		doc.MarkDone([]string{"mem-1"})
		Expect(driver.Save(ctx, doc)).To(Succeed())

		retrieved, err := driver.Get(ctx, doc.ID, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(retrieved.Status).To(Equal(docstore.StatusDone))
		Expect(retrieved.MemoryIDs).To(Equal([]string{"mem-1"}))
		Expect(retrieved.ProcessedAt).NotTo(BeNil())
	})

	It("scopes List and DeleteByOwner to the owner", func() {
		Expect(driver.Save(ctx, docstore.NewDocument("alice", "a1", "", docstore.TypeText))).To(Succeed())
		Expect(driver.Save(ctx, docstore.NewDocument("bob", "b1", "", docstore.TypeText))).To(Succeed())

		docs, err := driver.List(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))

		deleted, err := driver.DeleteByOwner(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(deleted).To(Equal(1))

		remaining, err := driver.List(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(remaining).To(HaveLen(1))
	})
})
