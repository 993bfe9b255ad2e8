package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivertype"
)

// AddJob enqueues a job through an insert-only River client built on the
// database/sql driver.
//
// Behavior:
//   - Inside a transaction (DB is a *sql.Tx) the job is inserted with InsertTx
//     and becomes visible only when the surrounding transaction commits.
//   - Otherwise the client is bound to the *sql.DB and the job is visible as
//     soon as AddJob returns.
//   - Jobs whose InsertOpts declare uniqueness, such as scan jobs, are skipped
//     while a matching job is queued or running; AddJob then reports false.
//
// Failures to build the client or to insert are returned wrapped. ctx bounds
// the insert.
func (p *PgSQL) AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error) {
	var (
		res *rivertype.JobInsertResult
		err error
	)

	switch db := p.DB.(type) {
	case *sql.Tx:
		// the driver pool is unused for InsertTx
		client, cerr := insertClient(riverdatabasesql.New(nil))
		if cerr != nil {
			return false, cerr
		}
		res, err = client.InsertTx(ctx, db, args, opts)
	case *sql.DB:
		client, cerr := insertClient(riverdatabasesql.New(db))
		if cerr != nil {
			return false, cerr
		}
		res, err = client.Insert(ctx, args, opts)
	default:
		return false, fmt.Errorf("unsupported database handle %T", p.DB)
	}

	if err != nil {
		return false, fmt.Errorf("could not insert %s job: %w", args.Kind(), err)
	}

	return !res.UniqueSkippedAsDuplicate, nil
}

// insertClient returns a client that can insert jobs but never works them.
func insertClient(driver *riverdatabasesql.Driver) (*river.Client[*sql.Tx], error) {
	client, err := river.NewClient[*sql.Tx](driver, &river.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create river client: %w", err)
	}

	return client, nil
}
