package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pidstore/pkg/domain-errors"
)

var (
	t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func newPID(t *testing.T, status Status) *PersistentIdentifier {
	t.Helper()
	p, err := New("doi", "10.5555/test", "crossref", status, t0)
	require.NoError(t, err)
	return p
}

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p := newPID(t, StatusNew)
		assert.Equal(t, "doi", p.Type)
		assert.Equal(t, "10.5555/test", p.Value)
		assert.Equal(t, "crossref", p.Provider)
		assert.True(t, p.IsNew())
		assert.Equal(t, t0, p.CreatedAt)
		assert.Equal(t, t0, p.UpdatedAt)
	})

	tests := []struct {
		name    string
		pidType string
		value   string
		status  Status
	}{
		{"empty type", "", "10.5555/x", StatusNew},
		{"empty value", "doi", "", StatusNew},
		{"long value", "doi", string(make([]byte, 256)), StatusNew},
		{"bad status", "doi", "10.5555/x", Status("bogus")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.pidType, tt.value, "crossref", tt.status, t0)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}

func TestRegister(t *testing.T) {
	for _, from := range []Status{StatusNew, StatusReserved} {
		t.Run("from "+string(from), func(t *testing.T) {
			p := newPID(t, from)
			require.NoError(t, p.Register(t1))
			assert.True(t, p.IsRegistered())
			assert.Equal(t, t1, p.UpdatedAt)
		})
	}
	for _, from := range []Status{StatusRegistered, StatusDeleted} {
		t.Run("rejected from "+string(from), func(t *testing.T) {
			p := newPID(t, from)
			err := p.Register(t1)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
			assert.Equal(t, from, p.Status)
			assert.Equal(t, t0, p.UpdatedAt)
		})
	}
}

func TestReserve(t *testing.T) {
	p := newPID(t, StatusNew)
	require.NoError(t, p.Reserve(t1))
	assert.True(t, p.IsReserved())
	require.NoError(t, p.Reserve(t1))

	r := newPID(t, StatusRegistered)
	assert.Error(t, r.Reserve(t1))
	assert.True(t, r.IsRegistered())
}

func TestDelete(t *testing.T) {
	t.Run("new record is purged", func(t *testing.T) {
		p := newPID(t, StatusNew)
		purge, err := p.Delete(t1)
		require.NoError(t, err)
		assert.True(t, purge)
		assert.True(t, p.IsNew())
	})

	for _, from := range []Status{StatusReserved, StatusRegistered, StatusDeleted} {
		t.Run("from "+string(from), func(t *testing.T) {
			p := newPID(t, from)
			purge, err := p.Delete(t1)
			require.NoError(t, err)
			assert.False(t, purge)
			assert.True(t, p.IsDeleted())
		})
	}
}

func TestSyncStatus(t *testing.T) {
	t.Run("bypasses lifecycle rules", func(t *testing.T) {
		p := newPID(t, StatusRegistered)
		require.NoError(t, p.SyncStatus(StatusNew, t1))
		assert.True(t, p.IsNew())
		assert.Equal(t, t1, p.UpdatedAt)
	})

	t.Run("same status keeps timestamp", func(t *testing.T) {
		p := newPID(t, StatusReserved)
		require.NoError(t, p.SyncStatus(StatusReserved, t1))
		assert.Equal(t, t0, p.UpdatedAt)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		p := newPID(t, StatusReserved)
		require.Error(t, p.SyncStatus(Status("x"), t1))
		assert.True(t, p.IsReserved())
	})
}

func TestAssign(t *testing.T) {
	p := newPID(t, StatusNew)
	require.NoError(t, p.Assign("rec", "obj-1", t1))
	require.NoError(t, p.Assign("rec", "obj-1", t1))

	err := p.Assign("rec", "obj-2", t1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(t, "obj-1", p.ObjectID)

	assert.Error(t, p.Assign("", "obj", t1))
}

func TestClone(t *testing.T) {
	p := newPID(t, StatusNew)
	c := p.Clone()
	require.NoError(t, c.Register(t1))
	assert.True(t, p.IsNew())
	assert.Nil(t, (*PersistentIdentifier)(nil).Clone())
}
