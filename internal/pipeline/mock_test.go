package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/gnis-cli/internal/table"
	"github.com/sells-group/gnis-cli/pkg/elevation"
)

// --- Resolver mock ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Fetch(ctx context.Context, location string, useCache bool) (string, error) {
	args := m.Called(ctx, location, useCache)
	return args.String(0), args.Error(1)
}

// --- Loader mock ---

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) Load(ctx context.Context, path, layer string) (*table.Table, error) {
	args := m.Called(ctx, path, layer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*table.Table), args.Error(1)
}

// --- Cache keeper mock ---

type mockKeeper struct {
	mock.Mock
}

func (m *mockKeeper) Evict(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// --- Elevation client mock ---

type mockElevation struct {
	mock.Mock
	units elevation.Units
}

func (m *mockElevation) Lookup(ctx context.Context, lat, lon float64) (*elevation.Elevation, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*elevation.Elevation), args.Error(1)
}

func (m *mockElevation) Units() elevation.Units {
	if m.units == "" {
		return elevation.Feet
	}
	return m.units
}
