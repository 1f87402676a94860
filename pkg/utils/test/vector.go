package testutils

import (
	"context"

	"github.com/engramlabs/engram/pkg/vector"
)

// MockVectorDriver is a test vector driver. Upserted points are kept in a
// map; Search serves the canned Results list filtered like a real driver
// would filter.
type MockVectorDriver struct {
	Points map[string]vector.Point

	// Results is returned by Search, after owner/threshold/limit filtering.
	Results []vector.Result

	// UpsertErr and SearchErr force the corresponding calls to fail.
	UpsertErr error
	SearchErr error
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Points: make(map[string]vector.Point),
	}
}

func (m *MockVectorDriver) Upsert(_ context.Context, point vector.Point) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.Points[point.ID] = point
	return nil
}

func (m *MockVectorDriver) UpsertBatch(ctx context.Context, points []vector.Point) error {
	for _, p := range points {
		if err := m.Upsert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockVectorDriver) Search(_ context.Context, _ []float32, opts vector.SearchOpts) ([]vector.Result, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	var out []vector.Result
	for _, r := range m.Results {
		if opts.Owner != "" {
			owner, _ := r.Payload["owner"].(string)
			if owner != opts.Owner {
				continue
			}
		}
		if opts.ScoreThreshold > 0 && r.Score < opts.ScoreThreshold {
			continue
		}
		out = append(out, r)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockVectorDriver) FetchAll(_ context.Context, owner string) ([]vector.Point, error) {
	var out []vector.Point
	for _, p := range m.Points {
		if owner != "" {
			pointOwner, _ := p.Payload["owner"].(string)
			if pointOwner != owner {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MockVectorDriver) DeleteByOwner(_ context.Context, owner string) error {
	for id, p := range m.Points {
		pointOwner, _ := p.Payload["owner"].(string)
		if pointOwner == owner {
			delete(m.Points, id)
		}
	}
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
