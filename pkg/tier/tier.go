// Package tier manages hot/cold memory tiering. Classification is a pure
// recency/frequency heuristic layered on top of the graph as a cache; it has
// no bearing on the graph's correctness.
package tier

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/graph"
)

// Tier labels a memory's storage tier.
type Tier string

const (
	Hot  Tier = "hot"
	Cold Tier = "cold"
)

// Config holds the tiering thresholds.
type Config struct {
	// ColdEnabled turns the cold tier on. When false everything is hot.
	ColdEnabled bool

	// HotAgeDays keeps memories younger than this hot.
	HotAgeDays int

	// HotAccessThreshold keeps memories accessed at least this many times hot.
	HotAccessThreshold int
}

// Manager tracks memories across two owner-agnostic maps, promoting on
// cold-hit and migrating on rebalance.
type Manager struct {
	mu sync.Mutex

	config Config

	hot  map[string]*graph.Memory
	cold map[string]*graph.Memory

	logger *zap.Logger
}

// NewManager creates an empty tier manager.
func NewManager(config Config, logger *zap.Logger) *Manager {
	return &Manager{
		config: config,
		hot:    map[string]*graph.Memory{},
		cold:   map[string]*graph.Memory{},
		logger: logger,
	}
}

// Classify labels a memory hot or cold: hot when recent or frequently
// accessed, cold otherwise. With the cold tier disabled everything is hot.
func (m *Manager) Classify(memory *graph.Memory) Tier {
	if !m.config.ColdEnabled {
		return Hot
	}

	ageDays := int(memory.Age() / (24 * time.Hour))
	isRecent := ageDays <= m.config.HotAgeDays
	isFrequent := memory.AccessCount >= m.config.HotAccessThreshold

	if isRecent || isFrequent {
		return Hot
	}
	return Cold
}

// Track places a memory into the tier its classification calls for.
func (m *Manager) Track(memory *graph.Memory) {
	if m.Classify(memory) == Hot {
		m.addToHot(memory)
	} else {
		m.addToCold(memory)
	}
}

func (m *Manager) addToHot(memory *graph.Memory) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hot[memory.ID] = memory
	delete(m.cold, memory.ID)
}

func (m *Manager) addToCold(memory *graph.Memory) {
	if !m.config.ColdEnabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cold[memory.ID] = memory
	delete(m.hot, memory.ID)
}

// Promote moves a memory from cold to hot, reporting whether a promotion
// occurred.
func (m *Manager) Promote(memoryID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	memory, ok := m.cold[memoryID]
	if !ok {
		return false
	}
	delete(m.cold, memoryID)
	m.hot[memoryID] = memory

	m.logger.Debug("promoted memory to hot tier", zap.String("memory_id", memoryID))
	return true
}

// Get returns a tracked memory from either tier, promoting on a cold hit.
func (m *Manager) Get(memoryID string) *graph.Memory {
	m.mu.Lock()
	defer m.mu.Unlock()

	if memory, ok := m.hot[memoryID]; ok {
		return memory
	}
	if memory, ok := m.cold[memoryID]; ok {
		delete(m.cold, memoryID)
		m.hot[memoryID] = memory
		m.logger.Debug("promoted memory to hot tier", zap.String("memory_id", memoryID))
		return memory
	}
	return nil
}

// RebalanceResult reports how many memories a rebalance migrated.
type RebalanceResult struct {
	Promoted int `json:"promoted"`
	Demoted  int `json:"demoted"`
}

// Rebalance re-evaluates every tracked memory's classification and migrates
// it. Meant to run periodically.
func (m *Manager) Rebalance() RebalanceResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result RebalanceResult

	for id, memory := range m.hot {
		if m.Classify(memory) == Cold {
			delete(m.hot, id)
			m.cold[id] = memory
			result.Demoted++
		}
	}
	for id, memory := range m.cold {
		if m.Classify(memory) == Hot {
			delete(m.cold, id)
			m.hot[id] = memory
			result.Promoted++
		}
	}

	m.logger.Info("rebalanced tiers",
		zap.Int("promoted", result.Promoted),
		zap.Int("demoted", result.Demoted),
	)

	return result
}

// Remove drops a batch of memories from both tiers, typically after an
// owner-scoped clear.
func (m *Manager) Remove(memoryIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range memoryIDs {
		delete(m.hot, id)
		delete(m.cold, id)
	}
}

// Stats summarizes the tier distribution.
type Stats struct {
	HotCount       int     `json:"hot_count"`
	ColdCount      int     `json:"cold_count"`
	TotalCount     int     `json:"total_count"`
	HotPercentage  float64 `json:"hot_percentage"`
	ColdPercentage float64 `json:"cold_percentage"`
}

// TierStats reports the current distribution between the tiers.
func (m *Manager) TierStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		HotCount:  len(m.hot),
		ColdCount: len(m.cold),
	}
	stats.TotalCount = stats.HotCount + stats.ColdCount
	if stats.TotalCount > 0 {
		stats.HotPercentage = float64(stats.HotCount) / float64(stats.TotalCount) * 100
		stats.ColdPercentage = float64(stats.ColdCount) / float64(stats.TotalCount) * 100
	}
	return stats
}
