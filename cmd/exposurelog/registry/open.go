package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
	"github.com/lsst-sqre/exposurelog/common/db"
)

// Open opens the registry at uri:
//
//	postgres://... or postgresql://...  registry database via pgx
//	sqlite://path or path.sqlite3       SQLite registry database
//	path.yaml or path.yml               fixture registry
func Open(ctx context.Context, uri string) (Registry, error) {
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		sqlDB, err := sql.Open("pgx", uri)
		if err != nil {
			return nil, fmt.Errorf("failed to open registry %s: %w", uri, err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to connect to registry %s: %w", uri, err)
		}
		return NewSQLRegistry(uri, sqlDB, query.Postgres), nil

	case strings.HasSuffix(uri, ".yaml"), strings.HasSuffix(uri, ".yml"):
		return LoadYAML(ctx, uri)

	case strings.HasPrefix(uri, "sqlite://"), strings.HasSuffix(uri, ".sqlite3"), strings.HasSuffix(uri, ".sqlite"):
		sqlDB, err := db.OpenSQLite(strings.TrimPrefix(uri, "sqlite://"))
		if err != nil {
			return nil, fmt.Errorf("failed to open registry %s: %w", uri, err)
		}
		return NewSQLRegistry(uri, sqlDB, query.SQLite), nil
	}

	return nil, fmt.Errorf("unsupported registry uri %q", uri)
}

// OpenAll opens every uri in order, closing those already opened on failure.
func OpenAll(ctx context.Context, uris []string) ([]Registry, error) {
	registries := make([]Registry, 0, len(uris))
	for _, uri := range uris {
		reg, err := Open(ctx, uri)
		if err != nil {
			for _, opened := range registries {
				opened.Close()
			}
			return nil, err
		}
		registries = append(registries, reg)
	}
	return registries, nil
}
