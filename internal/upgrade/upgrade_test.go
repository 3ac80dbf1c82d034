package upgrade

import (
	"context"
	"errors"
	"testing"

	"github.com/haierkeys/note-registry-service/internal/dao/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingMigration struct {
	version string
	ran     *[]string
	err     error
}

func (m recordingMigration) Version() string     { return m.version }
func (m recordingMigration) Description() string { return "test " + m.version }
func (m recordingMigration) Up(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	*m.ran = append(*m.ran, m.version)
	return nil
}

func TestRun_FreshStoreRecordsVersion(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	var ran []string

	m := NewMigrationManager(store, zap.NewNop(),
		recordingMigration{version: "1.2.0", ran: &ran},
		recordingMigration{version: "v1.0.0", ran: &ran},
		recordingMigration{version: "2.0.0", ran: &ran},
	)
	require.NoError(t, m.Run(ctx, "1.2.0"))

	assert.Equal(t, []string{"v1.0.0", "1.2.0"}, ran)
	v, err := store.GetSchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", v)
}

func TestRun_SkipsApplied(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.SetSchemaVersion(ctx, "v1.0.0"))
	var ran []string

	m := NewMigrationManager(store, zap.NewNop(),
		recordingMigration{version: "1.0.0", ran: &ran},
		recordingMigration{version: "1.1.0", ran: &ran},
	)
	require.NoError(t, m.Run(ctx, "1.1.0"))
	assert.Equal(t, []string{"1.1.0"}, ran)

	// same version again is a no-op
	ran = nil
	require.NoError(t, m.Run(ctx, "1.1.0"))
	assert.Empty(t, ran)
}

func TestRun_OlderBinaryKeepsVersion(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.SetSchemaVersion(ctx, "v2.0.0"))

	require.NoError(t, Execute(ctx, store, "1.0.0", zap.NewNop()))
	v, _ := store.GetSchemaVersion(ctx)
	assert.Equal(t, "v2.0.0", v)
}

func TestRun_FailureStopsAtLastGoodVersion(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	var ran []string
	boom := errors.New("boom")

	m := NewMigrationManager(store, zap.NewNop(),
		recordingMigration{version: "1.0.0", ran: &ran},
		recordingMigration{version: "1.1.0", err: boom},
	)
	err := m.Run(ctx, "1.1.0")
	require.ErrorIs(t, err, boom)

	v, _ := store.GetSchemaVersion(ctx)
	assert.Equal(t, "v1.0.0", v)
}

func TestRun_InvalidRunningVersion(t *testing.T) {
	assert.Error(t, Execute(context.Background(), memstore.New(), "dev", zap.NewNop()))
}
