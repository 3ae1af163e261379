package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "mindweave/backend/pkg/errors"
	"mindweave/backend/pkg/logger"
)

// Repository maintains the Neo4j mirror of a user's content graph. A nil
// driver puts it in no-op mode: every mutation returns nil and every query
// returns an unavailable sentinel, so callers degrade instead of failing.
type Repository struct {
	driver   neo4j.DriverWithContext
	source   ContentSource
	opts     Options
	logger   *zap.Logger
	sessions sessionFactory // overridable in tests
}

// NewRepository creates a graph repository. driver may be nil when the
// graph store is not configured.
func NewRepository(driver neo4j.DriverWithContext, source ContentSource, opts Options) *Repository {
	return &Repository{
		driver: driver,
		source: source,
		opts:   opts,
		logger: logger.Named("graph"),
	}
}

// Connect creates a Neo4j driver and verifies connectivity
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	return driver, nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}
	return r.driver.Close(ctx)
}

// Available reports whether the graph store is configured and usable
func (r *Repository) Available() bool {
	return r.driver != nil || r.sessions != nil
}

// ============================================================================
// Session plumbing
// ============================================================================

// graphSession is the slice of a Neo4j session the repository uses. Each
// operation acquires one session, runs its statements, and closes it via
// defer. Sessions must never leak.
type graphSession interface {
	Run(ctx context.Context, cypher string, params map[string]interface{}) ([]*neo4j.Record, error)
	Close(ctx context.Context) error
}

type sessionFactory func(ctx context.Context, mode neo4j.AccessMode) graphSession

func (r *Repository) session(ctx context.Context, mode neo4j.AccessMode) graphSession {
	if r.sessions != nil {
		return r.sessions(ctx, mode)
	}
	return &driverSession{
		sess: r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode}),
	}
}

type driverSession struct {
	sess neo4j.SessionWithContext
}

func (d *driverSession) Run(ctx context.Context, cypher string, params map[string]interface{}) ([]*neo4j.Record, error) {
	result, err := d.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

func (d *driverSession) Close(ctx context.Context) error {
	return d.sess.Close(ctx)
}
