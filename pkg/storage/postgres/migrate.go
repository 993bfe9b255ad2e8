package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"domainscan"

	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivermigrate"
)

// Migrate brings the schema up to date: the scan run tables through goose and
// then the River job tables. It returns the River schema version in place.
func (p *PgSQL) Migrate(ctx context.Context) (int, error) {
	db, ok := p.DB.(*sql.DB)
	if !ok {
		return 0, fmt.Errorf("could not migrate inside a transaction")
	}

	goose.SetBaseFS(domainscan.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("could not set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return 0, fmt.Errorf("could not apply run migrations: %w", err)
	}

	migrator, err := rivermigrate.New(riverdatabasesql.New(db), nil)
	if err != nil {
		return 0, fmt.Errorf("could not create river migrator: %w", err)
	}

	all := migrator.AllVersions()
	target := all[len(all)-1].Version

	applied, err := migrator.ExistingVersions(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not read river migrations: %w", err)
	}
	if len(applied) > 0 && applied[len(applied)-1].Version >= target {
		return target, nil
	}

	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{TargetVersion: target}); err != nil {
		return 0, fmt.Errorf("could not apply river migrations: %w", err)
	}

	return target, nil
}
