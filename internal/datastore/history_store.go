package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aleister1102/clusterlimits/internal/common"
	"github.com/aleister1102/clusterlimits/internal/limits"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// HistoryEntry is one recorded limit pair of a content cluster
type HistoryEntry struct {
	ID         int64
	ClusterID  string
	Source     string
	RecordedAt time.Time
	Limits     limits.ClusterResourceLimits
}

// HistoryStore keeps the derived limits of every content cluster over time in SQLite.
type HistoryStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewHistoryStore opens the database at dataSourceName and ensures the schema is set up.
func NewHistoryStore(dataSourceName string, logger zerolog.Logger) (*HistoryStore, error) {
	logger = logger.With().Str("component", "HistoryStore").Logger()
	logger.Info().Str("db_path", dataSourceName).Msg("Initializing limits history database connection")

	if dataSourceName != ":memory:" {
		dbDir := filepath.Dir(dataSourceName)
		if err := common.NewFileManager(logger).EnsureDirectory(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history database directory %s: %w", dbDir, err)
		}
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// A single connection serializes writers and keeps an in-memory database shared.
	dbInstance.SetMaxOpenConns(1)

	store := &HistoryStore{
		db:     dbInstance,
		logger: logger,
	}

	if err := store.InitSchema(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Info().Str("path", dataSourceName).Msg("History database initialized and schema verified")
	return store, nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the limits_history table if it doesn't already exist.
func (s *HistoryStore) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS limits_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cluster_id TEXT NOT NULL,
		source TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		limits_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_limits_history_cluster ON limits_history (cluster_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// Record stores l for clusterID unless it equals the latest recorded limits. It reports
// whether a new entry was written.
func (s *HistoryStore) Record(ctx context.Context, clusterID, source string, l limits.ClusterResourceLimits, at time.Time) (bool, error) {
	latest, err := s.Latest(ctx, clusterID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, err
	}
	if latest != nil && latest.Limits.Equal(l) {
		s.logger.Debug().Str("cluster", clusterID).Msg("Limits unchanged, not recording")
		return false, nil
	}

	payload, err := json.Marshal(l.View())
	if err != nil {
		return false, common.WrapError(err, "failed to encode limits")
	}

	query := `INSERT INTO limits_history (cluster_id, source, recorded_at, limits_json) VALUES (?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query, clusterID, source, at.UnixNano(), string(payload))
	if err != nil {
		return false, fmt.Errorf("failed to insert limits for cluster %s: %w", clusterID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	s.logger.Info().Int64("db_id", id).Str("cluster", clusterID).Str("source", source).Msg("Recorded limits")
	return true, nil
}

// Latest returns the most recent entry for clusterID, or an error wrapping
// common.ErrNotFound when nothing was recorded yet.
func (s *HistoryStore) Latest(ctx context.Context, clusterID string) (*HistoryEntry, error) {
	entries, err := s.List(ctx, clusterID, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, common.WrapErrorf(common.ErrNotFound, "no limits recorded for cluster %s", clusterID)
	}
	return &entries[0], nil
}

// List returns up to limit entries for clusterID, newest first. A limit <= 0 returns all.
func (s *HistoryStore) List(ctx context.Context, clusterID string, limit int) ([]HistoryEntry, error) {
	query := `SELECT id, cluster_id, source, recorded_at, limits_json FROM limits_history WHERE cluster_id = ? ORDER BY id DESC`
	args := []interface{}{clusterID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query limits history for cluster %s: %w", clusterID, err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry      HistoryEntry
			recordedAt int64
			payload    string
		)
		if err := rows.Scan(&entry.ID, &entry.ClusterID, &entry.Source, &recordedAt, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan limits history row: %w", err)
		}

		var view limits.ClusterView
		if err := json.Unmarshal([]byte(payload), &view); err != nil {
			return nil, common.WrapErrorf(err, "failed to decode limits of history entry %d", entry.ID)
		}
		entry.Limits = view.Limits()
		entry.RecordedAt = time.Unix(0, recordedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate limits history: %w", err)
	}
	return entries, nil
}
