package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptvault/internal/domain"
	models "promptvault/internal/domain/models/versioning"
)

func seedDocument(t *testing.T, s *Store, versions int) *models.Document {
	t.Helper()
	ctx := context.Background()

	doc := &models.Document{Title: "Doc", Content: "body", Label: "v1"}
	require.NoError(t, s.Documents().Create(ctx, doc))
	for seq := 1; seq <= versions; seq++ {
		require.NoError(t, s.Versions().Insert(ctx, models.Snapshot(doc, seq, time.Now())))
	}
	return doc
}

func TestStore_RollbackRestoresEveryWrite(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	doc := seedDocument(t, s, 3)

	boom := errors.New("boom")
	err := s.TxManager().ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.Documents().LockByID(txCtx, doc.ID); err != nil {
			return err
		}
		if _, err := s.Versions().DeleteAfter(txCtx, doc.ID, 1); err != nil {
			return err
		}
		if err := s.Versions().Insert(txCtx, models.Snapshot(doc, 2, time.Now())); err != nil {
			return err
		}
		if _, err := s.Documents().UpdateFields(txCtx, doc.ID, models.DocumentFields{Title: "T", Label: "v9"}, time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	versions, err := s.Versions().ListDesc(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 3, versions[0].SequenceNumber)

	got, err := s.Documents().GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Label)
}

func TestStore_DeleteDocumentRollback(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	doc := seedDocument(t, s, 2)

	err := s.TxManager().ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.Documents().Delete(txCtx, doc.ID); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	count, err := s.Versions().Count(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.Documents().Delete(ctx, doc.ID))
	count, err = s.Versions().Count(ctx, doc.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "versions are deleted with their document")
}

func TestStore_DuplicateSequenceConflicts(t *testing.T) {
	s := NewStore()
	doc := seedDocument(t, s, 1)

	err := s.Versions().Insert(context.Background(), models.Snapshot(doc, 1, time.Now()))
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	orphan := &models.Document{ID: "missing"}
	err = s.Versions().Insert(context.Background(), models.Snapshot(orphan, 1, time.Now()))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_LockBlocksSameDocumentOnly(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedDocument(t, s, 1)
	b := seedDocument(t, s, 1)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.TxManager().ExecTx(ctx, func(txCtx context.Context) error {
			if _, err := s.Documents().LockByID(txCtx, a.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	// Another document can be locked while a is held
	err := s.TxManager().ExecTx(ctx, func(txCtx context.Context) error {
		_, err := s.Documents().LockByID(txCtx, b.ID)
		return err
	})
	require.NoError(t, err)

	// The same document waits until the holder commits
	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err = s.TxManager().ExecTx(waitCtx, func(txCtx context.Context) error {
		_, err := s.Documents().LockByID(txCtx, a.ID)
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)

	err = s.TxManager().ExecTx(ctx, func(txCtx context.Context) error {
		_, err := s.Documents().LockByID(txCtx, a.ID)
		return err
	})
	assert.NoError(t, err)
}

func TestStore_DeleteByIDsIgnoresOtherDocuments(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedDocument(t, s, 2)
	b := seedDocument(t, s, 2)

	bVersions, err := s.Versions().ListDesc(ctx, b.ID)
	require.NoError(t, err)

	n, err := s.Versions().DeleteByIDs(ctx, a.ID, []string{bVersions[0].ID, "unknown"})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Versions().DeleteByIDs(ctx, b.ID, []string{bVersions[0].ID, bVersions[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_CreateFillsTimestamps(t *testing.T) {
	s := NewStore()

	doc := &models.Document{Title: "Doc", Label: "v1"}
	require.NoError(t, s.Documents().Create(context.Background(), doc))

	stored, err := s.Documents().GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.False(t, stored.UpdatedAt.IsZero())
}
