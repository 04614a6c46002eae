// Package docker provides a wrapper around the Docker SDK client.
package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/system"
	"github.com/docker/docker/client"
)

// API is the read-only slice of the daemon surface the dashboard needs.
// The aggregation layer depends on this interface rather than the SDK
// client directly, so tests can run against a fake daemon.
type API interface {
	Ping(ctx context.Context) error
	ContainerList(ctx context.Context, all bool) ([]types.Container, error)
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerStats(ctx context.Context, containerID string) (*container.StatsResponse, error)
	ContainerLogs(ctx context.Context, containerID string, tail int) (io.ReadCloser, error)
	ImageInspect(ctx context.Context, imageID string) (types.ImageInspect, error)
	Info(ctx context.Context) (system.Info, error)
	ServerVersion(ctx context.Context) (types.Version, error)
	NetworkList(ctx context.Context) ([]network.Summary, error)
	NetworkInspect(ctx context.Context, networkID string) (network.Inspect, error)
	Close() error
}

// ConnectFunc opens a fresh daemon connection. The snapshot layer calls it
// once per request and closes the result when the request is done.
type ConnectFunc func(ctx context.Context) (API, error)

// Client wraps the Docker SDK client and implements API.
type Client struct {
	cli *client.Client
}

// Connect creates a Docker client and verifies the daemon is reachable.
// An empty host uses the environment (DOCKER_HOST or the default socket);
// otherwise host must be a full URI like "unix:///var/run/docker.sock".
// On any failure it returns a descriptive error and no client.
func Connect(ctx context.Context, host string) (*Client, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = []client.Opt{client.WithHost(host), client.WithAPIVersionNegotiation()}
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	c := &Client{cli: cli}
	if err := c.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}

	return c, nil
}

// Ping verifies connection to the Docker daemon.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.cli.Ping(ctx)
	return err
}

// ContainerList returns all containers, including stopped ones when all is true.
func (c *Client) ContainerList(ctx context.Context, all bool) ([]types.Container, error) {
	return c.cli.ContainerList(ctx, container.ListOptions{All: all})
}

// ContainerInspect returns detailed information about a container.
func (c *Client) ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error) {
	return c.cli.ContainerInspect(ctx, containerID)
}

// ContainerStats fetches one cumulative stats snapshot (no streaming).
func (c *Client) ContainerStats(ctx context.Context, containerID string) (*container.StatsResponse, error) {
	resp, err := c.cli.ContainerStats(ctx, containerID, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	stats := &container.StatsResponse{}
	if err := json.NewDecoder(resp.Body).Decode(stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

// ContainerLogs opens the last tail lines of a container's log stream.
// The caller must close the returned reader.
func (c *Client) ContainerLogs(ctx context.Context, containerID string, tail int) (io.ReadCloser, error) {
	return c.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tail),
	})
}

// ImageInspect returns image metadata by id.
func (c *Client) ImageInspect(ctx context.Context, imageID string) (types.ImageInspect, error) {
	img, _, err := c.cli.ImageInspectWithRaw(ctx, imageID)
	return img, err
}

// Info returns daemon-wide information.
func (c *Client) Info(ctx context.Context) (system.Info, error) {
	return c.cli.Info(ctx)
}

// ServerVersion returns the daemon version.
func (c *Client) ServerVersion(ctx context.Context) (types.Version, error) {
	return c.cli.ServerVersion(ctx)
}

// NetworkList returns summary info for all Docker networks.
func (c *Client) NetworkList(ctx context.Context) ([]network.Summary, error) {
	return c.cli.NetworkList(ctx, network.ListOptions{})
}

// NetworkInspect returns detailed info for a single network, including
// container membership (NetworkList does not populate it).
func (c *Client) NetworkInspect(ctx context.Context, networkID string) (network.Inspect, error) {
	return c.cli.NetworkInspect(ctx, networkID, network.InspectOptions{})
}

// Close releases the underlying SDK client.
func (c *Client) Close() error {
	return c.cli.Close()
}
