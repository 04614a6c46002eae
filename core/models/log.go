// Package models defines domain models for Argus.
package models

import "time"

// ProbeLog records one daemon reachability probe.
type ProbeLog struct {
	ID           int64     `json:"id"`
	Reachable    bool      `json:"reachable"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}
