package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"site-rag/internal/domain"
)

const defaultTable = "site_chunks"

type siteChunkRepository struct {
	pool  *pgxpool.Pool
	table pgx.Identifier
}

// NewSiteChunkRepository creates a pgvector-backed chunk store over table.
// An empty table name falls back to site_chunks.
func NewSiteChunkRepository(pool *pgxpool.Pool, table string) domain.ChunkStore {
	if table == "" {
		table = defaultTable
	}
	return &siteChunkRepository{pool: pool, table: pgx.Identifier{table}}
}

type dbExecutor interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *siteChunkRepository) getExecutor(ctx context.Context) dbExecutor {
	tx := ExtractTx(ctx)
	if tx != nil {
		return tx
	}
	return r.pool
}

// EnsureSchema creates the chunk table when it does not exist yet. The vector
// extension must already be installed, since pool connections register its
// types on connect.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, table string, dimension int) error {
	if table == "" {
		table = defaultTable
	}
	if dimension <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dimension)
	}
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL
		)`, pgx.Identifier{table}.Sanitize(), dimension)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (r *siteChunkRepository) Query(ctx context.Context, vector []float32, limit int) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		return []domain.RetrievedChunk{}, nil
	}
	query := fmt.Sprintf(`
		SELECT id, content, url, title, (embedding <=> $1) AS distance
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, r.table.Sanitize())

	rows, err := r.getExecutor(ctx).Query(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, domain.WrapFailure(domain.ErrIndexQueryFailed, fmt.Errorf("failed to query chunks: %w", err))
	}
	defer rows.Close()

	results := make([]domain.RetrievedChunk, 0, limit)
	for rows.Next() {
		var (
			c        domain.RetrievedChunk
			distance float64
		)
		if err := rows.Scan(&c.ID, &c.Text, &c.URL, &c.Title, &distance); err != nil {
			return nil, domain.WrapFailure(domain.ErrIndexQueryFailed, fmt.Errorf("failed to scan chunk: %w", err))
		}
		c.Distance = float32(distance)
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapFailure(domain.ErrIndexQueryFailed, fmt.Errorf("rows error: %w", err))
	}
	return results, nil
}

func (r *siteChunkRepository) Reset(ctx context.Context) error {
	query := fmt.Sprintf("DELETE FROM %s", r.table.Sanitize())
	if _, err := r.getExecutor(ctx).Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to reset chunks: %w", err)
	}
	return nil
}

func (r *siteChunkRepository) Insert(ctx context.Context, chunks []domain.IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(chunks))
	for i, chunk := range chunks {
		rows[i] = []interface{}{
			chunk.ID,
			chunk.Text,
			chunk.URL,
			chunk.Title,
			pgvector.NewVector(chunk.Embedding),
		}
	}

	_, err := r.getExecutor(ctx).CopyFrom(
		ctx,
		r.table,
		[]string{"id", "content", "url", "title", "embedding"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert chunks: %w", err)
	}
	return nil
}

func (r *siteChunkRepository) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table.Sanitize())
	if err := r.getExecutor(ctx).QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}
