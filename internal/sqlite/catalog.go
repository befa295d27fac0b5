package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/repository"
)

// CatalogRepository stores the local content catalog
type CatalogRepository struct {
	db *DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Get retrieves a catalog entry by identifier
func (r *CatalogRepository) Get(ctx context.Context, identifier string) (*content.CatalogEntry, error) {
	query := `
		SELECT identifier, pkg_version, path, size_bytes, imported_at
		FROM content_catalog
		WHERE identifier = ?
	`

	var entry content.CatalogEntry
	err := r.db.QueryRowContext(ctx, query, identifier).Scan(
		&entry.Identifier,
		&entry.PackageVersion,
		&entry.Path,
		&entry.SizeBytes,
		&entry.ImportedAt,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog entry: %w", err)
	}

	return &entry, nil
}

// Upsert inserts or replaces a catalog entry
func (r *CatalogRepository) Upsert(ctx context.Context, entry *content.CatalogEntry) error {
	query := `
		INSERT INTO content_catalog (identifier, pkg_version, path, size_bytes, imported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			pkg_version = excluded.pkg_version,
			path = excluded.path,
			size_bytes = excluded.size_bytes,
			imported_at = excluded.imported_at
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.Identifier,
		entry.PackageVersion,
		entry.Path,
		entry.SizeBytes,
		entry.ImportedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert catalog entry: %w", err)
	}

	return nil
}

// Delete removes a catalog entry
func (r *CatalogRepository) Delete(ctx context.Context, identifier string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM content_catalog WHERE identifier = ?`, identifier)
	if err != nil {
		return fmt.Errorf("failed to delete catalog entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns all catalog entries ordered by identifier
func (r *CatalogRepository) List(ctx context.Context) ([]content.CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT identifier, pkg_version, path, size_bytes, imported_at
		FROM content_catalog
		ORDER BY identifier
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	defer rows.Close()

	var entries []content.CatalogEntry
	for rows.Next() {
		var entry content.CatalogEntry
		if err := rows.Scan(
			&entry.Identifier,
			&entry.PackageVersion,
			&entry.Path,
			&entry.SizeBytes,
			&entry.ImportedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
