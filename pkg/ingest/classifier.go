package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/entity"
	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/vector"
)

// Policy holds the tunable thresholds for relationship classification.
type Policy struct {
	// UpdateThreshold is the similarity score at or above which a neighbor
	// is a candidate UPDATES or near-duplicate SIMILAR edge.
	UpdateThreshold float64

	// ExtendThreshold is the similarity score at or above which a neighbor
	// is a candidate EXTENDS edge. Must be below UpdateThreshold.
	ExtendThreshold float64

	// NeighborFloor is the minimum score for a neighbor to be considered
	// at all.
	NeighborFloor float64

	// NeighborLimit caps how many neighbors each new memory is compared
	// against.
	NeighborLimit int

	// ExtendLengthRatio is how much longer the new text must be than the
	// existing text to count as elaboration rather than restatement.
	ExtendLengthRatio float64

	// DeriveEntityThreshold and DeriveKeywordThreshold gate entity-based
	// DERIVES detection: either signal clearing its threshold emits an edge.
	DeriveEntityThreshold  float64
	DeriveKeywordThreshold float64
}

// DefaultPolicy returns the standard classification thresholds.
func DefaultPolicy() Policy {
	return Policy{
		UpdateThreshold:        0.70,
		ExtendThreshold:        0.60,
		NeighborFloor:          0.55,
		NeighborLimit:          5,
		ExtendLengthRatio:      1.5,
		DeriveEntityThreshold:  0.2,
		DeriveKeywordThreshold: 0.2,
	}
}

// contradictionKeywords signal that new content supersedes rather than
// restates existing content.
var contradictionKeywords = []string{
	"now", "updated", "changed", "instead", "no longer",
	"switched", "currently", "revised", "modified",
}

var numberPattern = regexp.MustCompile(`\d+`)

// Detection summarizes one relationship-detection pass.
type Detection struct {
	Relationships int
	ByType        map[string]int
}

// Classifier turns similarity search results and entity overlap into typed
// relationships between memories.
type Classifier struct {
	engine      *graph.Engine
	memoryIndex vector.Driver
	extractor   *entity.Extractor
	policy      Policy
	logger      *zap.Logger
}

// NewClassifier creates a relationship classifier over the given graph
// engine and memory index.
func NewClassifier(engine *graph.Engine, memoryIndex vector.Driver, policy Policy, logger *zap.Logger) *Classifier {
	return &Classifier{
		engine:      engine,
		memoryIndex: memoryIndex,
		extractor:   entity.NewExtractor(),
		policy:      policy,
		logger:      logger,
	}
}

// DetectRelationships links each new memory to its most similar existing
// memories, then runs entity-based DERIVES detection over the remaining
// unlinked pairs. All edges stay within the new memory's owner.
func (c *Classifier) DetectRelationships(ctx context.Context, newMemories []*graph.Memory) Detection {
	detection := Detection{ByType: map[string]int{}}

	for _, newMemory := range newMemories {
		if len(newMemory.Embedding) == 0 {
			continue
		}

		neighbors, err := c.memoryIndex.Search(ctx, newMemory.Embedding, vector.SearchOpts{
			Limit:          c.policy.NeighborLimit,
			ScoreThreshold: float32(c.policy.NeighborFloor),
			Owner:          newMemory.Owner,
		})
		if err != nil {
			c.logger.Warn("neighbor search failed, skipping relationship detection for memory",
				zap.String("memory_id", newMemory.ID),
				zap.Error(err),
			)
			continue
		}

		for _, neighbor := range neighbors {
			if neighbor.ID == newMemory.ID {
				continue
			}

			existing := c.engine.Memory(neighbor.ID, newMemory.Owner)
			if existing == nil || existing.DocumentID == newMemory.DocumentID {
				// Intra-document chunks are never cross-linked this way.
				continue
			}

			rel := c.classify(newMemory, existing, float64(neighbor.Score))
			if c.engine.AddRelationship(ctx, rel, true) {
				detection.Relationships++
				detection.ByType[string(rel.Type)]++
				c.logger.Debug("created relationship",
					zap.String("type", string(rel.Type)),
					zap.String("from", newMemory.ID),
					zap.String("to", existing.ID),
					zap.Float64("score", float64(neighbor.Score)),
				)
			}
		}
	}

	c.detectDerives(ctx, newMemories, &detection)

	return detection
}

// classify picks a relationship type for a similar pair using score bands.
// A contradicting high-similarity neighbor is superseded: the existing
// memory is marked outdated.
func (c *Classifier) classify(newMemory, existing *graph.Memory, score float64) *graph.Relationship {
	var (
		relType graph.RelType
		reason  string
	)

	switch {
	case score >= c.policy.UpdateThreshold:
		if hasContradictoryInfo(newMemory.Content, existing.Content) {
			c.engine.MarkOutdated(existing.ID)
			relType = graph.RelUpdates
			reason = fmt.Sprintf("new information updates/contradicts existing (similarity: %.2f)", score)
		} else {
			relType = graph.RelSimilar
			reason = fmt.Sprintf("highly similar content (similarity: %.2f)", score)
		}
	case score >= c.policy.ExtendThreshold:
		if float64(len(newMemory.Content)) > c.policy.ExtendLengthRatio*float64(len(existing.Content)) {
			relType = graph.RelExtends
			reason = fmt.Sprintf("additional context for related topic (similarity: %.2f)", score)
		} else {
			relType = graph.RelSimilar
			reason = fmt.Sprintf("similar content on a shared topic (similarity: %.2f)", score)
		}
	default:
		relType = graph.RelSimilar
		reason = fmt.Sprintf("related content (similarity: %.2f)", score)
	}

	rel := graph.NewRelationship(newMemory.ID, existing.ID, relType, score)
	rel.SimilarityScore = score
	rel.Reason = reason
	return rel
}

// hasContradictoryInfo reports whether new content supersedes existing
// content: explicit update language in the new text, or the two texts carry
// differing sets of numeric tokens.
func hasContradictoryInfo(newContent, existingContent string) bool {
	newLower := strings.ToLower(newContent)
	for _, keyword := range contradictionKeywords {
		if strings.Contains(newLower, keyword) {
			return true
		}
	}

	newNumbers := numberSet(newContent)
	existingNumbers := numberSet(existingContent)
	if len(newNumbers) > 0 && len(existingNumbers) > 0 && !equalSets(newNumbers, existingNumbers) {
		return true
	}

	return false
}

// detectDerives links new memories to unrelated same-owner memories that
// share entities or keywords.
func (c *Classifier) detectDerives(ctx context.Context, newMemories []*graph.Memory, detection *Detection) {
	for _, newMemory := range newMemories {
		newEntities := c.extractor.Extract(newMemory.Content)

		for _, existing := range c.engine.AllMemories(newMemory.Owner) {
			if existing.ID == newMemory.ID || existing.DocumentID == newMemory.DocumentID {
				continue
			}
			if c.alreadyLinked(newMemory.ID, existing.ID, newMemory.Owner) {
				continue
			}

			entitySim := entity.Similarity(newEntities, c.extractor.Extract(existing.Content))
			keywordOverlap := keywordJaccard(newMemory.Keywords, existing.Keywords)
			if entitySim <= c.policy.DeriveEntityThreshold && keywordOverlap < c.policy.DeriveKeywordThreshold {
				continue
			}

			confidence := 0.6*entitySim + 0.4*keywordOverlap
			rel := graph.NewRelationship(newMemory.ID, existing.ID, graph.RelDerives, confidence)
			rel.Reason = deriveReason(newEntities, c.extractor.Extract(existing.Content),
				newMemory.Keywords, existing.Keywords, keywordOverlap)

			if c.engine.AddRelationship(ctx, rel, true) {
				detection.Relationships++
				detection.ByType[string(graph.RelDerives)]++
				c.logger.Debug("created derives relationship",
					zap.String("from", newMemory.ID),
					zap.String("to", existing.ID),
					zap.Float64("entity_similarity", entitySim),
					zap.Float64("keyword_overlap", keywordOverlap),
				)
			}
		}
	}
}

// alreadyLinked reports whether any relationship in either direction
// connects the two memories.
func (c *Classifier) alreadyLinked(memoryID, otherID, owner string) bool {
	for _, rel := range c.engine.Relationships(memoryID, "", graph.DirectionBoth, owner) {
		if rel.FromMemoryID == otherID || rel.ToMemoryID == otherID {
			return true
		}
	}
	return false
}

// deriveReason names the shared entity types, or the shared keywords
// themselves when only keyword overlap triggered the edge.
func deriveReason(a, b entity.Entities, newKeywords, existingKeywords []string, keywordOverlap float64) string {
	var sharedTypes []string
	shared := entity.SharedEntities(a, b)
	for _, entityType := range entity.Types {
		if len(shared[entityType]) > 0 {
			sharedTypes = append(sharedTypes, entityType)
		}
	}

	if len(sharedTypes) > 0 {
		return fmt.Sprintf("shared %s (keyword overlap: %.2f)", strings.Join(sharedTypes, ", "), keywordOverlap)
	}
	return fmt.Sprintf("shared keywords: %s (overlap: %.2f)",
		strings.Join(sharedKeywords(newKeywords, existingKeywords), ", "), keywordOverlap)
}

func numberSet(text string) map[string]struct{} {
	numbers := map[string]struct{}{}
	for _, n := range numberPattern.FindAllString(text, -1) {
		numbers[n] = struct{}{}
	}
	return numbers
}

func equalSets(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for member := range a {
		if _, ok := b[member]; !ok {
			return false
		}
	}
	return true
}
