package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"argus/core/models"
	"argus/core/repository"
	"argus/utils/docker"
)

// Snapshot is one complete, internally consistent view of the host, built
// fresh for every request. Nothing in it is shared or mutated afterwards.
type Snapshot struct {
	Running     []ContainerRecord `json:"running"`
	Stopped     []ContainerRecord `json:"stopped"`
	Host        HostSummary       `json:"host"`
	Networks    []NetworkSummary  `json:"networks"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// ProbeResult is the outcome of one daemon reachability check.
type ProbeResult struct {
	Reachable bool      `json:"reachable"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// SnapshotService assembles dashboard snapshots. Each call opens its own
// daemon connection through the factory and closes it when done; concurrent
// snapshots never share state.
type SnapshotService struct {
	connect  docker.ConnectFunc
	probeLog *repository.ProbeLogRepository
	opts     CollectOptions
}

// NewSnapshotService creates a snapshot service. probeLog may be nil, in
// which case probe results are not persisted.
func NewSnapshotService(connect docker.ConnectFunc, probeLog *repository.ProbeLogRepository, opts CollectOptions) *SnapshotService {
	return &SnapshotService{
		connect:  connect,
		probeLog: probeLog,
		opts:     opts,
	}
}

// Build produces one snapshot. A daemon connection failure is the only
// error path: everything downstream degrades per field instead of failing.
func (s *SnapshotService) Build(ctx context.Context) (*Snapshot, error) {
	api, err := s.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to docker daemon: %w", err)
	}
	defer api.Close()

	running, stopped := Collect(ctx, api, s.opts)

	return &Snapshot{
		Running:     running,
		Stopped:     stopped,
		Host:        SummarizeHost(ctx, api),
		Networks:    SummarizeNetworks(ctx, api),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Probe checks daemon reachability and records the outcome. The connection
// opened for the probe is discarded immediately.
func (s *SnapshotService) Probe(ctx context.Context) ProbeResult {
	result := ProbeResult{CheckedAt: time.Now().UTC()}

	api, err := s.connect(ctx)
	if err != nil {
		result.Error = err.Error()
	} else {
		result.Reachable = true
		api.Close()
	}

	s.recordProbe(result)
	return result
}

// RecentProbes returns the most recent recorded probe outcomes, newest first.
func (s *SnapshotService) RecentProbes(limit int) ([]*models.ProbeLog, error) {
	if s.probeLog == nil {
		return nil, nil
	}
	return s.probeLog.GetRecent(limit)
}

func (s *SnapshotService) recordProbe(result ProbeResult) {
	if s.probeLog == nil {
		return
	}

	entry := &models.ProbeLog{
		Reachable:    result.Reachable,
		ErrorMessage: result.Error,
		CheckedAt:    result.CheckedAt,
	}
	if err := s.probeLog.Create(entry); err != nil {
		log.Printf("Failed to store probe log: %v", err)
	}
}
