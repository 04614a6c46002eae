// Package service implements the metrics collection and aggregation layer
// behind the dashboard.
package service

import (
	"context"
	"io"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"argus/utils/docker"
	"argus/utils/statsutil"

	"github.com/docker/docker/api/types"
	"github.com/docker/go-connections/nat"
)

const (
	// stoppedUptime is shown for containers that are not running.
	stoppedUptime = "—"

	defaultCPUSampleInterval = 100 * time.Millisecond
	defaultLogTail           = 20

	// shortIDLen matches the truncated ids Docker prints.
	shortIDLen = 12
)

// PortMapping is one bound host port for a container-side port.
type PortMapping struct {
	Host      string `json:"host"`
	Container string `json:"container"`
}

// ContainerRecord is the per-container view the dashboard renders.
// CPUPercent is nil when sampling failed or the container is not running;
// Memory is the zero snapshot in the same cases.
type ContainerRecord struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Status      string                   `json:"status"`
	Image       string                   `json:"image"`
	ImageSizeMB float64                  `json:"image_size_mb"`
	Ports       []PortMapping            `json:"ports"`
	LogLines    []string                 `json:"log_lines"`
	Uptime      string                   `json:"uptime"`
	CPUPercent  *float64                 `json:"cpu_percent"`
	Memory      statsutil.MemorySnapshot `json:"memory"`
}

// CollectOptions tunes per-container collection.
type CollectOptions struct {
	// CPUSampleInterval is the pause between the two CPU counter reads.
	// Long enough for a meaningful delta, short enough not to stall the
	// page. Zero means the 100ms default.
	CPUSampleInterval time.Duration
	// LogTail is how many log lines to fetch per container. Zero means 20.
	LogTail int
}

func (o CollectOptions) sampleInterval() time.Duration {
	if o.CPUSampleInterval <= 0 {
		return defaultCPUSampleInterval
	}
	return o.CPUSampleInterval
}

func (o CollectOptions) logTail() int {
	if o.LogTail <= 0 {
		return defaultLogTail
	}
	return o.LogTail
}

// Collect enumerates all containers and builds one record per container,
// partitioned into running and stopped. It never fails: if the top-level
// listing fails both lists are empty, and any per-field failure degrades
// only that field. Both slices are non-nil.
func Collect(ctx context.Context, api docker.API, opts CollectOptions) (running, stopped []ContainerRecord) {
	running = []ContainerRecord{}
	stopped = []ContainerRecord{}

	containers, err := api.ContainerList(ctx, true)
	if err != nil {
		log.Printf("Failed to list containers: %v", err)
		return running, stopped
	}

	for _, c := range containers {
		rec := buildRecord(ctx, api, c, opts)
		if rec.Status == "running" {
			running = append(running, rec)
		} else {
			stopped = append(stopped, rec)
		}
	}

	return running, stopped
}

// buildRecord joins ports, image metadata, log tail and (for running
// containers) live metrics into one record. Each sub-fetch degrades to its
// fallback independently.
func buildRecord(ctx context.Context, api docker.API, c types.Container, opts CollectOptions) ContainerRecord {
	rec := ContainerRecord{
		ID:       shortID(c.ID),
		Name:     containerName(c.Names),
		Status:   c.State,
		Image:    "unknown",
		Ports:    []PortMapping{},
		LogLines: []string{},
		Uptime:   stoppedUptime,
	}

	startedAt := ""
	tty := false

	inspect, err := api.ContainerInspect(ctx, c.ID)
	if err != nil {
		log.Printf("Failed to inspect container %s: %v", rec.Name, err)
		// Fall back to the coarser port data from the listing.
		rec.Ports = portMappingsFromSummary(c.Ports)
	} else {
		if inspect.NetworkSettings != nil {
			rec.Ports = portMappings(inspect.NetworkSettings.Ports)
		}
		if inspect.Config != nil {
			tty = inspect.Config.Tty
		}
		if inspect.ContainerJSONBase != nil && inspect.State != nil {
			startedAt = inspect.State.StartedAt
		}
	}

	if img, err := api.ImageInspect(ctx, c.ImageID); err != nil {
		log.Printf("Failed to inspect image for container %s: %v", rec.Name, err)
	} else {
		rec.Image = imageName(img)
		rec.ImageSizeMB = roundMB(img.Size)
	}

	rec.LogLines = tailLogLines(ctx, api, c.ID, tty, opts.logTail())

	if c.State == "running" {
		rec.Uptime = statsutil.FormatUptime(startedAt)
		rec.CPUPercent = sampleCPUPercent(ctx, api, c.ID, opts.sampleInterval())
		rec.Memory = normalizeMemory(ctx, api, c.ID)
	}

	return rec
}

// sampleCPUPercent takes two time-separated cumulative counter snapshots and
// derives a percentage. The pause waits on the context so an aborted request
// stops sampling immediately and unrelated requests are never blocked.
// Returns nil when either snapshot cannot be fetched.
func sampleCPUPercent(ctx context.Context, api docker.API, containerID string, interval time.Duration) *float64 {
	first, err := api.ContainerStats(ctx, containerID)
	if err != nil {
		log.Printf("Failed to get first CPU sample for %s: %v", shortID(containerID), err)
		return nil
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
	}

	second, err := api.ContainerStats(ctx, containerID)
	if err != nil {
		log.Printf("Failed to get second CPU sample for %s: %v", shortID(containerID), err)
		return nil
	}

	percent := statsutil.CPUPercentBetween(first, second)
	return &percent
}

// normalizeMemory fetches one stats snapshot and normalizes it.
// Never fails; returns the zero snapshot on any error.
func normalizeMemory(ctx context.Context, api docker.API, containerID string) statsutil.MemorySnapshot {
	stats, err := api.ContainerStats(ctx, containerID)
	if err != nil {
		log.Printf("Failed to get memory stats for %s: %v", shortID(containerID), err)
		return statsutil.MemorySnapshot{}
	}
	return statsutil.MemoryFromStats(stats)
}

// portMappings emits one entry per bound host port. The container-side label
// loses its protocol suffix ("8080/tcp" becomes "8080") and ports with no
// host binding are omitted. Output is sorted for stable rendering.
func portMappings(ports nat.PortMap) []PortMapping {
	result := []PortMapping{}
	for port, bindings := range ports {
		for _, binding := range bindings {
			if binding.HostPort == "" {
				continue
			}
			result = append(result, PortMapping{
				Host:      binding.HostPort,
				Container: port.Port(),
			})
		}
	}
	sortPortMappings(result)
	return result
}

// portMappingsFromSummary derives mappings from the container listing when
// inspect is unavailable. Unpublished ports have PublicPort 0 and are omitted.
func portMappingsFromSummary(ports []types.Port) []PortMapping {
	result := []PortMapping{}
	for _, p := range ports {
		if p.PublicPort == 0 {
			continue
		}
		result = append(result, PortMapping{
			Host:      strconv.Itoa(int(p.PublicPort)),
			Container: strconv.Itoa(int(p.PrivatePort)),
		})
	}
	sortPortMappings(result)
	return result
}

func sortPortMappings(mappings []PortMapping) {
	sort.Slice(mappings, func(i, j int) bool {
		if mappings[i].Container != mappings[j].Container {
			return mappings[i].Container < mappings[j].Container
		}
		return mappings[i].Host < mappings[j].Host
	})
}

// tailLogLines fetches the last tail log lines, decoding permissively.
// Any failure yields an empty list.
func tailLogLines(ctx context.Context, api docker.API, containerID string, tty bool, tail int) []string {
	reader, err := api.ContainerLogs(ctx, containerID, tail)
	if err != nil {
		log.Printf("Failed to get logs for %s: %v", shortID(containerID), err)
		return []string{}
	}
	defer reader.Close()

	var raw []byte
	if tty {
		// TTY containers write an unframed stream.
		raw, err = io.ReadAll(reader)
		if err != nil {
			log.Printf("Failed to read logs for %s: %v", shortID(containerID), err)
			return []string{}
		}
	} else {
		raw = demuxLogStream(reader)
	}

	text := strings.TrimSpace(strings.ToValidUTF8(string(raw), "�"))
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}

// demuxLogStream strips the 8-byte multiplexing headers Docker prepends to
// each log frame: [STREAM_TYPE, 0, 0, 0, SIZE1, SIZE2, SIZE3, SIZE4].
// It reads until EOF and tolerates a truncated trailing frame.
func demuxLogStream(reader io.Reader) []byte {
	var result []byte
	buf := make([]byte, 32*1024)
	header := make([]byte, 8)

	for {
		if _, err := io.ReadFull(reader, header); err != nil {
			return result
		}

		// Payload size is big-endian in the last four header bytes.
		size := uint32(header[4])<<24 | uint32(header[5])<<16 | uint32(header[6])<<8 | uint32(header[7])
		if size == 0 {
			continue
		}
		if size > uint32(len(buf)) {
			buf = make([]byte, size)
		}

		n, err := io.ReadFull(reader, buf[:size])
		result = append(result, buf[:n]...)
		if err != nil {
			return result
		}
	}
}

func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func imageName(img types.ImageInspect) string {
	if len(img.RepoTags) > 0 {
		return img.RepoTags[0]
	}
	return shortID(strings.TrimPrefix(img.ID, "sha256:"))
}

func roundMB(bytes int64) float64 {
	return math.Round(float64(bytes)/(1024*1024)*10) / 10
}
