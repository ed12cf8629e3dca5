package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lumi-launcher/backend/internal/models"
)

// DefaultInstallationName is used when an installation is added without a name.
const DefaultInstallationName = "New Server"

var (
	ErrInstallationExists   = errors.New("installation already registered")
	ErrInstallationNotFound = errors.New("installation not found")
)

// InstallationStore persists the installations the user registered.
type InstallationStore struct {
	db *DB
}

func NewInstallationStore(db *DB) *InstallationStore {
	return &InstallationStore{db: db}
}

// Add registers a folder. Paths are compared after cleaning, so "a/b/" and "a/b" collide.
func (s *InstallationStore) Add(ctx context.Context, name, path, coreJar string) (models.SavedInstallation, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return models.SavedInstallation{}, fmt.Errorf("installation path must not be empty")
	}
	path = filepath.Clean(path)

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultInstallationName
	}

	installation := models.SavedInstallation{
		ID:      uuid.NewString(),
		Name:    name,
		Path:    path,
		CoreJar: coreJar,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO installations (id, name, path, core_jar) VALUES (?, ?, ?, ?)",
		installation.ID, installation.Name, installation.Path, installation.CoreJar)
	if err != nil {
		if isUniqueViolation(err) {
			return models.SavedInstallation{}, fmt.Errorf("%w: %s", ErrInstallationExists, path)
		}
		return models.SavedInstallation{}, fmt.Errorf("failed to insert installation: %w", err)
	}

	return installation, nil
}

// List returns installations in the order they were added.
func (s *InstallationStore) List(ctx context.Context) ([]models.SavedInstallation, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, path, core_jar FROM installations ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to list installations: %w", err)
	}
	defer rows.Close()

	installations := make([]models.SavedInstallation, 0)
	for rows.Next() {
		var inst models.SavedInstallation
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.Path, &inst.CoreJar); err != nil {
			return nil, fmt.Errorf("failed to scan installation: %w", err)
		}
		installations = append(installations, inst)
	}
	return installations, rows.Err()
}

func (s *InstallationStore) Get(ctx context.Context, id string) (models.SavedInstallation, error) {
	var inst models.SavedInstallation
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, path, core_jar FROM installations WHERE id = ?", id,
	).Scan(&inst.ID, &inst.Name, &inst.Path, &inst.CoreJar)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SavedInstallation{}, fmt.Errorf("%w: %s", ErrInstallationNotFound, id)
	}
	if err != nil {
		return models.SavedInstallation{}, fmt.Errorf("failed to get installation: %w", err)
	}
	return inst, nil
}

func (s *InstallationStore) Remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM installations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete installation: %w", err)
	}
	return requireAffected(result, id)
}

// SetCoreArchive stores the archive the user picked for an installation.
func (s *InstallationStore) SetCoreArchive(ctx context.Context, id, coreJar string) (models.SavedInstallation, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE installations SET core_jar = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", coreJar, id)
	if err != nil {
		return models.SavedInstallation{}, fmt.Errorf("failed to update core archive: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return models.SavedInstallation{}, err
	}
	return s.Get(ctx, id)
}

// RecordStatuses saves the last observed status of each summary and returns the ids whose
// status changed since the previous call. Summaries for removed installations are ignored.
func (s *InstallationStore) RecordStatuses(ctx context.Context, summaries []models.InstallationSummary) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var changed []string
	for _, summary := range summaries {
		result, err := tx.ExecContext(ctx,
			`UPDATE installations SET last_status = ?, last_checked_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND last_status <> ?`,
			summary.Status, summary.ID, summary.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to record status for %s: %w", summary.ID, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			changed = append(changed, summary.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit statuses: %w", err)
	}
	return changed, nil
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrInstallationNotFound, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
