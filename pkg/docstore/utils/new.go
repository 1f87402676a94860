package docstoreutils

import (
	"context"
	"fmt"

	"github.com/engramlabs/engram/pkg/docstore"
	"github.com/engramlabs/engram/pkg/docstore/inmemory"
	"github.com/engramlabs/engram/pkg/docstore/postgres"
	"github.com/engramlabs/engram/pkg/docstore/sqlite"
)

type NewDocstoreDriverOpts struct {
	ProviderType string
	SQLitePath   string
	PostgresDSN  string
}

func NewDocstoreDriver(ctx context.Context, o *NewDocstoreDriverOpts) (docstore.Driver, error) {
	switch o.ProviderType {
	case "inmemory":
		return inmemory.NewDriver(), nil
	case "sqlite":
		return sqlite.NewDriver(o.SQLitePath)
	case "postgres":
		return postgres.NewDriver(ctx, o.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported docstore provider: %s", o.ProviderType)
	}
}
