package homekit

import (
	"context"
	"fmt"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"

	"github.com/nerrad567/nolongerevil-bridge/internal/infrastructure/config"
)

// Server publishes the bridge accessory and every thermostat accessory.
type Server struct {
	srv    *hap.Server
	bridge *accessory.Bridge
}

// NewServer builds the accessory server. The thermostat accessories are
// fixed at construction, so call it after every device has been attached.
func NewServer(cfg config.HomeKitConfig, bridgeName, version string, reg *Registry) (*Server, error) {
	bridge := accessory.NewBridge(accessory.Info{
		Name:         bridgeName,
		Manufacturer: cfg.Manufacturer,
		Model:        "NoLongerEvil Bridge",
		Firmware:     version,
	})

	store := hap.NewFsStore(cfg.StoragePath)
	srv, err := hap.NewServer(store, bridge.A, reg.Accessories()...)
	if err != nil {
		return nil, fmt.Errorf("creating HomeKit server: %w", err)
	}
	srv.Pin = cfg.Pin
	if cfg.Address != "" {
		srv.Addr = cfg.Address
	}

	return &Server{srv: srv, bridge: bridge}, nil
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	return s.srv.ListenAndServe(ctx)
}
