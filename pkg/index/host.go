package index

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Host describes the machine a report was generated on.
type Host struct {
	Hostname      string
	OS            string
	Platform      string
	KernelVersion string
}

// DetectHost collects host metadata. Lookup failures yield an empty Host.
func DetectHost(ctx context.Context) (Host, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return Host{}, err
	}

	platform := info.Platform
	if info.PlatformVersion != "" {
		platform = strings.TrimSpace(platform + " " + info.PlatformVersion)
	}

	return Host{
		Hostname:      info.Hostname,
		OS:            info.OS,
		Platform:      platform,
		KernelVersion: info.KernelVersion,
	}, nil
}
