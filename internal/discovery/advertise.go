package discovery

import (
	"fmt"
	"sort"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/logging"
)

// Advertisement is a registered mDNS service. Shutdown withdraws it.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise announces an SDK gateway listening on port. The path is
// published as a TXT record next to the entries of txt.
func Advertise(instance string, port int, path string, txt map[string]string) (*Advertisement, error) {
	if instance == "" {
		return nil, fmt.Errorf("instance name is required")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	records := TXTRecords(path, txt)
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, records, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising SDK gateway",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
		zap.Strings("txt", records),
	)
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the advertisement.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Debug("Withdrew SDK gateway advertisement")
}

// TXTRecords builds the sorted key=value records for an advertisement.
func TXTRecords(path string, txt map[string]string) []string {
	if path == "" {
		path = DefaultPath
	}
	records := []string{PathKey + "=" + path}

	keys := make([]string, 0, len(txt))
	for k := range txt {
		if k != PathKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		records = append(records, k+"="+txt[k])
	}
	return records
}
