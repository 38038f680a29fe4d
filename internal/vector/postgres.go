package vector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/codescope/codescope-go/internal/models"
)

// PostgresStore persists embeddings in Postgres with the pgvector
// extension. Cosine ranking and filter application both happen in SQL.
type PostgresStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
	dims   int
}

// NewPostgresStore connects to Postgres and ensures the embeddings
// schema exists. The caller falls back to the in-memory store when this
// fails.
func NewPostgresStore(ctx context.Context, dsn string, dims int, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &PostgresStore{db: db, logger: logger, dims: dims}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS code_embeddings (
			id          TEXT PRIMARY KEY,
			content     TEXT NOT NULL,
			file_path   TEXT NOT NULL,
			language    TEXT NOT NULL DEFAULT '',
			symbol_type TEXT NOT NULL DEFAULT '',
			symbol_name TEXT NOT NULL DEFAULT '',
			start_line  INTEGER NOT NULL DEFAULT 0,
			end_line    INTEGER NOT NULL DEFAULT 0,
			embedding   vector(%d),
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.dims),
		`CREATE INDEX IF NOT EXISTS code_embeddings_file_path_idx ON code_embeddings (file_path)`,
		`CREATE INDEX IF NOT EXISTS code_embeddings_symbol_type_idx ON code_embeddings (symbol_type)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure embeddings schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, emb models.CodeEmbedding) error {
	query := `
		INSERT INTO code_embeddings (
			id, content, file_path, language, symbol_type, symbol_name,
			start_line, end_line, embedding, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			file_path = EXCLUDED.file_path,
			language = EXCLUDED.language,
			symbol_type = EXCLUDED.symbol_type,
			symbol_name = EXCLUDED.symbol_name,
			start_line = EXCLUDED.start_line,
			end_line = EXCLUDED.end_line,
			embedding = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at
	`

	createdAt := emb.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		emb.ID, emb.Content, emb.FilePath, emb.Language, emb.SymbolType, emb.SymbolName,
		emb.StartLine, emb.EndLine, pgvector.NewVector(emb.Vector), createdAt)
	if err != nil {
		return fmt.Errorf("upsert embedding %s: %w", emb.ID, err)
	}
	return nil
}

// searchRow carries the similarity column alongside the embedding
// columns for sqlx scanning.
type searchRow struct {
	models.CodeEmbedding
	Similarity float64 `db:"similarity"`
}

func (s *PostgresStore) Search(ctx context.Context, queryVec []float32, k int, filters models.SearchFilters) ([]models.SearchResult, error) {
	if k <= 0 {
		return []models.SearchResult{}, nil
	}

	args := []any{pgvector.NewVector(queryVec)}
	conditions := []string{}
	addFilter := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	// File filter matches substrings, mirroring the memory store.
	if filters.FilePath != "" {
		args = append(args, filters.FilePath)
		conditions = append(conditions, fmt.Sprintf("position($%d in file_path) > 0", len(args)))
	}
	addFilter("symbol_type", filters.SymbolType)
	addFilter("language", filters.Language)

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, k)

	query := fmt.Sprintf(`
		SELECT id, content, file_path, language, symbol_type, symbol_name,
		       start_line, end_line, created_at,
		       1 - (embedding <=> $1::vector) AS similarity
		FROM code_embeddings
		%s
		ORDER BY embedding <=> $1::vector ASC, id ASC
		LIMIT $%d
	`, where, len(args))

	var rows []searchRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("search embeddings: %w", err)
	}

	results := make([]models.SearchResult, len(rows))
	for i, row := range rows {
		results[i] = models.SearchResult{Embedding: row.CodeEmbedding, Similarity: row.Similarity}
	}
	return results, nil
}

func (s *PostgresStore) Remove(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM code_embeddings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("remove embedding %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove embedding %s: %w", id, err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) RemoveByFiles(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM code_embeddings WHERE file_path = ANY($1)`, pq.Array(paths))
	if err != nil {
		return 0, fmt.Errorf("remove embeddings by file: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove embeddings by file: %w", err)
	}
	return int(affected), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT count(*) FROM code_embeddings`)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
