// Package repository provides the data access layer for probe logs.
package repository

import (
	"database/sql"

	"argus/core/models"
)

// ProbeLogRepository handles persistence of daemon probe results.
type ProbeLogRepository struct {
	db *sql.DB
}

// NewProbeLogRepository creates a new probe log repository.
func NewProbeLogRepository(db *sql.DB) *ProbeLogRepository {
	return &ProbeLogRepository{db: db}
}

// Create stores a probe result in the database.
func (r *ProbeLogRepository) Create(log *models.ProbeLog) error {
	query := `
		INSERT INTO probe_logs (reachable, error_message, checked_at)
		VALUES (?, ?, ?)
	`

	var errorMsg *string
	if log.ErrorMessage != "" {
		errorMsg = &log.ErrorMessage
	}

	result, err := r.db.Exec(query, log.Reachable, errorMsg, log.CheckedAt)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	log.ID = id

	return nil
}

// GetRecent retrieves the most recent probe results, newest first.
func (r *ProbeLogRepository) GetRecent(limit int) ([]*models.ProbeLog, error) {
	query := `
		SELECT id, reachable, error_message, checked_at
		FROM probe_logs
		ORDER BY checked_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.ProbeLog
	for rows.Next() {
		log := &models.ProbeLog{}
		var errorMsg sql.NullString

		if err := rows.Scan(&log.ID, &log.Reachable, &errorMsg, &log.CheckedAt); err != nil {
			return nil, err
		}

		if errorMsg.Valid {
			log.ErrorMessage = errorMsg.String
		}

		logs = append(logs, log)
	}

	return logs, rows.Err()
}

// DeleteOlderThan removes probe logs older than the specified number of days.
func (r *ProbeLogRepository) DeleteOlderThan(days int) (int64, error) {
	query := `DELETE FROM probe_logs WHERE checked_at < datetime('now', '-' || ? || ' days')`
	result, err := r.db.Exec(query, days)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
