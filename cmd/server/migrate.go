package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/soaringjerry/Brightpath/internal/services"
)

// legacySnapshotVersion is the only browser storage version ever shipped.
const legacySnapshotVersion = 0

// legacySnapshot is the persisted client state of the old dashboard's
// appointment store.
type legacySnapshot struct {
	State struct {
		Appointments map[string][]services.Appointment `json:"appointments"`
	} `json:"state"`
	Version *int `json:"version"`
}

type appointmentImporter interface {
	HasAppointments(ctx context.Context) (bool, error)
	ImportAppointments(ctx context.Context, byChild map[int64][]services.Appointment, order []int64) (int, error)
}

func parseLegacySnapshot(data []byte) (map[int64][]services.Appointment, []int64, error) {
	var snap legacySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version == nil {
		return nil, nil, errors.New("snapshot has no version")
	}
	if *snap.Version != legacySnapshotVersion {
		return nil, nil, fmt.Errorf("unsupported snapshot version %d", *snap.Version)
	}
	byChild := make(map[int64][]services.Appointment, len(snap.State.Appointments))
	order := make([]int64, 0, len(snap.State.Appointments))
	for key, list := range snap.State.Appointments {
		childID, err := strconv.ParseInt(key, 10, 64)
		if err != nil || childID <= 0 {
			return nil, nil, fmt.Errorf("invalid child id %q", key)
		}
		byChild[childID] = list
		order = append(order, childID)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return byChild, order, nil
}

// ImportLegacySnapshot copies appointments from a browser-exported snapshot
// into dst. It runs once: a store that already holds appointments is left
// untouched, as is a missing snapshot file.
func ImportLegacySnapshot(ctx context.Context, path string, dst appointmentImporter, log *zap.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("legacy snapshot not found, skipping import", zap.String("path", path))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}
	has, err := dst.HasAppointments(ctx)
	if err != nil {
		return 0, err
	}
	if has {
		log.Info("appointments already present, skipping legacy import", zap.String("path", path))
		return 0, nil
	}
	byChild, order, err := parseLegacySnapshot(data)
	if err != nil {
		return 0, err
	}
	n, err := dst.ImportAppointments(ctx, byChild, order)
	if err != nil {
		return 0, err
	}
	log.Info("legacy snapshot imported", zap.String("path", path), zap.Int("children", len(order)), zap.Int("appointments", n))
	return n, nil
}
