package service

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/system"
)

// fakeAPI is an in-memory daemon for tests. Stats are consumed in call
// order per container so the two-sample CPU protocol can be scripted.
type fakeAPI struct {
	containers []types.Container
	listErr    error

	inspects   map[string]types.ContainerJSON
	inspectErr map[string]error

	stats      map[string][]*container.StatsResponse
	statsErr   map[string]error
	statsCalls map[string]int

	logs    map[string][]byte
	logsErr map[string]error

	images   map[string]types.ImageInspect
	imageErr map[string]error

	info       system.Info
	infoErr    error
	version    types.Version
	versionErr error

	networks        []network.Summary
	networkListErr  error
	networkInspects map[string]network.Inspect
	networkInsErr   map[string]error

	closed bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		inspects:        map[string]types.ContainerJSON{},
		inspectErr:      map[string]error{},
		stats:           map[string][]*container.StatsResponse{},
		statsErr:        map[string]error{},
		statsCalls:      map[string]int{},
		logs:            map[string][]byte{},
		logsErr:         map[string]error{},
		images:          map[string]types.ImageInspect{},
		imageErr:        map[string]error{},
		networkInspects: map[string]network.Inspect{},
		networkInsErr:   map[string]error{},
	}
}

func (f *fakeAPI) Ping(ctx context.Context) error { return nil }

func (f *fakeAPI) ContainerList(ctx context.Context, all bool) ([]types.Container, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.containers, nil
}

func (f *fakeAPI) ContainerInspect(ctx context.Context, id string) (types.ContainerJSON, error) {
	if err := f.inspectErr[id]; err != nil {
		return types.ContainerJSON{}, err
	}
	if inspect, ok := f.inspects[id]; ok {
		return inspect, nil
	}
	return types.ContainerJSON{}, errors.New("no such container")
}

func (f *fakeAPI) ContainerStats(ctx context.Context, id string) (*container.StatsResponse, error) {
	if err := f.statsErr[id]; err != nil {
		return nil, err
	}
	samples := f.stats[id]
	if len(samples) == 0 {
		return nil, errors.New("stats unavailable")
	}
	call := f.statsCalls[id]
	f.statsCalls[id]++
	if call >= len(samples) {
		call = len(samples) - 1
	}
	return samples[call], nil
}

func (f *fakeAPI) ContainerLogs(ctx context.Context, id string, tail int) (io.ReadCloser, error) {
	if err := f.logsErr[id]; err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(f.logs[id])), nil
}

func (f *fakeAPI) ImageInspect(ctx context.Context, id string) (types.ImageInspect, error) {
	if err := f.imageErr[id]; err != nil {
		return types.ImageInspect{}, err
	}
	if img, ok := f.images[id]; ok {
		return img, nil
	}
	return types.ImageInspect{}, errors.New("no such image")
}

func (f *fakeAPI) Info(ctx context.Context) (system.Info, error) {
	if f.infoErr != nil {
		return system.Info{}, f.infoErr
	}
	return f.info, nil
}

func (f *fakeAPI) ServerVersion(ctx context.Context) (types.Version, error) {
	if f.versionErr != nil {
		return types.Version{}, f.versionErr
	}
	return f.version, nil
}

func (f *fakeAPI) NetworkList(ctx context.Context) ([]network.Summary, error) {
	if f.networkListErr != nil {
		return nil, f.networkListErr
	}
	return f.networks, nil
}

func (f *fakeAPI) NetworkInspect(ctx context.Context, id string) (network.Inspect, error) {
	if err := f.networkInsErr[id]; err != nil {
		return network.Inspect{}, err
	}
	if inspected, ok := f.networkInspects[id]; ok {
		return inspected, nil
	}
	return network.Inspect{}, errors.New("no such network")
}

func (f *fakeAPI) Close() error {
	f.closed = true
	return nil
}

// muxFrame wraps payload in Docker's 8-byte log multiplexing header.
func muxFrame(stream byte, payload string) []byte {
	size := len(payload)
	frame := []byte{stream, 0, 0, 0,
		byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size)}
	return append(frame, payload...)
}
