package service

import (
	"context"
	"log"
	"strings"

	"argus/utils/docker"
)

// HostSummary is daemon-wide information, best effort per field.
type HostSummary struct {
	DockerVersion     string `json:"docker_version"`
	ContainersRunning int    `json:"containers_running"`
	ContainersStopped int    `json:"containers_stopped"`
	Images            int    `json:"images"`
	Host              string `json:"host"`
}

// NetworkSummary is one user-visible network with its attached container count.
type NetworkSummary struct {
	Name       string `json:"name"`
	Driver     string `json:"driver"`
	Containers int    `json:"containers"`
}

// intrinsicNetworks are the daemon-internal networks with no user topology;
// they never carry meaningful container counts and are excluded by name.
var intrinsicNetworks = []string{"none", "host"}

// SummarizeHost pulls version and daemon-wide counters. Info and version are
// independent calls; either failing leaves that field at its fallback.
func SummarizeHost(ctx context.Context, api docker.API) HostSummary {
	summary := HostSummary{
		DockerVersion: "unknown",
		Host:          "unknown",
	}

	if info, err := api.Info(ctx); err != nil {
		log.Printf("Failed to get daemon info: %v", err)
	} else {
		summary.ContainersRunning = info.ContainersRunning
		summary.ContainersStopped = info.ContainersStopped
		summary.Images = info.Images
		if info.Name != "" {
			summary.Host = info.Name
		}
	}

	if version, err := api.ServerVersion(ctx); err != nil {
		log.Printf("Failed to get daemon version: %v", err)
	} else if version.Version != "" {
		summary.DockerVersion = version.Version
	}

	return summary
}

// SummarizeNetworks lists non-intrinsic networks with their container counts.
// Listing failure yields an empty (non-nil) slice. NetworkList does not
// populate membership, so each network is inspected; an inspect failure
// degrades only that network's count.
func SummarizeNetworks(ctx context.Context, api docker.API) []NetworkSummary {
	result := []NetworkSummary{}

	networks, err := api.NetworkList(ctx)
	if err != nil {
		log.Printf("Failed to list networks: %v", err)
		return result
	}

	for _, net := range networks {
		if isIntrinsicNetwork(net.Name) {
			continue
		}

		count := len(net.Containers)
		if inspected, err := api.NetworkInspect(ctx, net.ID); err != nil {
			log.Printf("Failed to inspect network %s: %v", net.Name, err)
		} else {
			count = len(inspected.Containers)
		}

		driver := net.Driver
		if driver == "" {
			driver = "unknown"
		}

		result = append(result, NetworkSummary{
			Name:       net.Name,
			Driver:     driver,
			Containers: count,
		})
	}

	return result
}

func isIntrinsicNetwork(name string) bool {
	for _, intrinsic := range intrinsicNetworks {
		if strings.EqualFold(name, intrinsic) {
			return true
		}
	}
	return false
}
