//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pidstore/internal/pid/models"
	"pidstore/internal/pid/store"
	"pidstore/pkg/platform/sentinel"
	"pidstore/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "pidstore_pid"))
}

func (s *PostgresStoreSuite) record(value string) *models.PersistentIdentifier {
	pid, err := models.New("doi", value, "crossref", models.StatusNew, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	return pid
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	pid := s.record("10.5555/rt")
	s.Require().NoError(pid.Assign("rec", "3f2a", pid.CreatedAt))
	s.Require().NoError(s.store.Create(ctx, pid))

	got, err := s.store.Find(ctx, "doi", "10.5555/rt")
	s.Require().NoError(err)
	s.Equal(pid.Type, got.Type)
	s.Equal(pid.Value, got.Value)
	s.Equal(pid.Provider, got.Provider)
	s.Equal(pid.Status, got.Status)
	s.Equal("rec", got.ObjectType)
	s.Equal("3f2a", got.ObjectID)
	s.True(pid.CreatedAt.Equal(got.CreatedAt))
}

func (s *PostgresStoreSuite) TestCreateConflict() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.record("10.5555/dup")))
	err := s.store.Create(ctx, s.record("10.5555/dup"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestSaveKeepsCreated() {
	ctx := context.Background()
	pid := s.record("10.5555/save")
	s.Require().NoError(s.store.Create(ctx, pid))

	later := pid.CreatedAt.Add(time.Hour)
	s.Require().NoError(pid.Register(later))
	pid.CreatedAt = later
	s.Require().NoError(s.store.Save(ctx, pid))

	got, err := s.store.Find(ctx, "doi", "10.5555/save")
	s.Require().NoError(err)
	s.True(got.IsRegistered())
	s.True(later.Equal(got.UpdatedAt))
	s.True(later.Add(-time.Hour).Equal(got.CreatedAt))
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	s.ErrorIs(s.store.Delete(ctx, "doi", "10.5555/none"), sentinel.ErrNotFound)

	s.Require().NoError(s.store.Create(ctx, s.record("10.5555/del")))
	s.Require().NoError(s.store.Delete(ctx, "doi", "10.5555/del"))
	_, err := s.store.Find(ctx, "doi", "10.5555/del")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentCreate verifies exactly one of many racing creates wins.
func (s *PostgresStoreSuite) TestConcurrentCreate() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var created, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, s.record("10.5555/race"))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
