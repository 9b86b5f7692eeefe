package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/resilience"
)

type ProcessRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewProcessRepository(db *sql.DB, executor *resilience.Executor) *ProcessRepository {
	return &ProcessRepository{db: db, executor: executor}
}

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ProcessRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent api/procctl startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS processes (
	seq BIGSERIAL NOT NULL,
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	department TEXT NOT NULL,
	impact SMALLINT NOT NULL CHECK (impact BETWEEN 1 AND 10),
	feasibility SMALLINT NOT NULL CHECK (feasibility BETWEEN 1 AND 10),
	automation_score SMALLINT NOT NULL CHECK (automation_score BETWEEN 0 AND 100),
	time_spent DOUBLE PRECISION NOT NULL CHECK (time_spent > 0),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_processes_seq ON processes(seq);
CREATE INDEX IF NOT EXISTS idx_processes_department ON processes(department);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// List returns processes in insertion order.
func (r *ProcessRepository) List(ctx context.Context) ([]domain.Process, error) {
	out, err := resilience.Query(ctx, r.executor, "postgres.processes.list", r.list, classifyPostgresError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("list processes", err)
	}
	return out, nil
}

func (r *ProcessRepository) list(ctx context.Context) ([]domain.Process, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, department, impact, feasibility, automation_score, time_spent, created_at
FROM processes
ORDER BY seq ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query processes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Process, 0)
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("scan process: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processes: %w", err)
	}
	return out, nil
}

const insertProcessSQL = `
INSERT INTO processes (id, name, department, impact, feasibility, automation_score, time_spent, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`

func (r *ProcessRepository) Create(ctx context.Context, p *domain.Process) error {
	err := r.executor.Execute(ctx, "postgres.processes.create", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, insertProcessSQL, processArgs(p)...)
		if err != nil {
			return fmt.Errorf("insert process: %w", err)
		}
		return nil
	}, classifyPostgresError)
	if err != nil {
		return wrapTemporaryIfNeeded("create process", err)
	}
	return nil
}

// CreateMany inserts the batch in one transaction. A retried attempt starts a
// fresh transaction, so rows from a failed attempt are never kept.
func (r *ProcessRepository) CreateMany(ctx context.Context, processes []*domain.Process) error {
	err := r.executor.Execute(ctx, "postgres.processes.create_many", func(ctx context.Context) error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin insert tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		for _, p := range processes {
			if _, err := tx.ExecContext(ctx, insertProcessSQL, processArgs(p)...); err != nil {
				return fmt.Errorf("insert process %s: %w", p.ID, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert tx: %w", err)
		}
		return nil
	}, classifyPostgresError)
	if err != nil {
		return wrapTemporaryIfNeeded("create processes", err)
	}
	return nil
}

func (r *ProcessRepository) Delete(ctx context.Context, id string) error {
	rows, err := resilience.Query(ctx, r.executor, "postgres.processes.delete", func(ctx context.Context) (int64, error) {
		result, err := r.db.ExecContext(ctx, `DELETE FROM processes WHERE id = $1`, id)
		if err != nil {
			return 0, fmt.Errorf("delete process: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("delete process rows affected: %w", err)
		}
		return rows, nil
	}, classifyPostgresError)
	if err != nil {
		return wrapTemporaryIfNeeded("delete process", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrProcessNotFound, "delete process", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *ProcessRepository) DeleteAll(ctx context.Context) error {
	err := r.executor.Execute(ctx, "postgres.processes.delete_all", func(ctx context.Context) error {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM processes`); err != nil {
			return fmt.Errorf("delete all processes: %w", err)
		}
		return nil
	}, classifyPostgresError)
	if err != nil {
		return wrapTemporaryIfNeeded("clear processes", err)
	}
	return nil
}

func processArgs(p *domain.Process) []any {
	return []any{p.ID, p.Name, p.Department, p.Impact, p.Feasibility, p.AutomationScore, p.TimeSpent, p.CreatedAt}
}

type processScanner interface {
	Scan(dest ...interface{}) error
}

func scanProcess(row processScanner) (domain.Process, error) {
	var p domain.Process
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Department,
		&p.Impact,
		&p.Feasibility,
		&p.AutomationScore,
		&p.TimeSpent,
		&p.CreatedAt,
	)
	if err != nil {
		return domain.Process{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
