package versioning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"promptvault/internal/domain"
	models "promptvault/internal/domain/models/versioning"
	versionRepo "promptvault/internal/domain/repositories/versioning"
	versionSvc "promptvault/internal/domain/services/versioning"
	"promptvault/internal/metrics"
	"promptvault/internal/repository/memory"
)

// ============================================================================
// Test fixture
// ============================================================================

type testEnv struct {
	store   *memory.Store
	docs    *flakyDocuments
	manager versionSvc.VersionManager
	service versionSvc.DocumentService
	metrics *metrics.Metrics
}

// flakyDocuments fails UpdateFields on demand to exercise rollback
type flakyDocuments struct {
	versionRepo.DocumentRepository
	failUpdate error
	createdAt  []time.Time // CreatedAt as handed to Create
}

func (f *flakyDocuments) Create(ctx context.Context, doc *models.Document) error {
	f.createdAt = append(f.createdAt, doc.CreatedAt)
	return f.DocumentRepository.Create(ctx, doc)
}

func (f *flakyDocuments) UpdateFields(ctx context.Context, id string, fields models.DocumentFields, updatedAt time.Time) (*models.Document, error) {
	if f.failUpdate != nil {
		return nil, f.failUpdate
	}
	return f.DocumentRepository.UpdateFields(ctx, id, fields, updatedAt)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	docs := &flakyDocuments{DocumentRepository: store.Documents()}
	m := metrics.New(prometheus.NewRegistry())

	manager := NewVersionManager(docs, store.Versions(), store.TxManager(), NewLineDiffer(0), m, logger)
	service := NewDocumentService(docs, store.TxManager(), manager, logger)

	return &testEnv{store: store, docs: docs, manager: manager, service: service, metrics: m}
}

func (e *testEnv) create(t *testing.T, title, content, label string) *models.Document {
	t.Helper()
	doc, err := e.service.CreateDocument(context.Background(), &versionSvc.CreateDocumentRequest{
		Title:   title,
		Content: content,
		Label:   label,
	})
	require.NoError(t, err)
	return doc
}

func (e *testEnv) save(t *testing.T, docID, title, content, label string) (*models.Document, bool) {
	t.Helper()
	doc, created, err := e.manager.SaveWithVersioning(context.Background(), docID, models.DocumentFields{
		Title:   title,
		Content: content,
		Label:   label,
	})
	require.NoError(t, err)
	return doc, created
}

func (e *testEnv) versions(t *testing.T, docID string) []models.Version {
	t.Helper()
	versions, err := e.store.Versions().ListDesc(context.Background(), docID)
	require.NoError(t, err)
	return versions
}

func sequenceNumbers(versions []models.Version) []int {
	seqs := make([]int, len(versions))
	for i, v := range versions {
		seqs[i] = v.SequenceNumber
	}
	return seqs
}

func ids(versions ...models.Version) []string {
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.ID
	}
	return out
}

// ============================================================================
// Scenarios
// ============================================================================

func TestScenario_CreateSaveRevert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := env.create(t, "Greeting", "Hello", "v1.0")

	versions := env.versions(t, doc.ID)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].SequenceNumber)
	assert.Equal(t, "v1.0", versions[0].UserLabel)
	assert.Equal(t, "Hello", versions[0].Content)
	require.NotNil(t, versions[0].ChangeDescription)
	assert.Equal(t, models.InitialChangeDescription, *versions[0].ChangeDescription)

	updated, created := env.save(t, doc.ID, doc.Title, "Hello World", "v1.1")
	assert.True(t, created)
	assert.Equal(t, "Hello World", updated.Content)
	assert.Equal(t, "v1.1", updated.Label)

	versions = env.versions(t, doc.ID)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].SequenceNumber)
	assert.Equal(t, "v1.0", versions[0].UserLabel, "snapshot stores the old label")
	assert.Equal(t, "Hello", versions[0].Content, "snapshot stores the old content")

	first := versions[1]
	reverted, err := env.manager.Revert(ctx, doc.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", reverted.Content)
	assert.Equal(t, "v1.0", reverted.Label)
	assert.Equal(t, first.Title, reverted.Title)

	listed, err := env.manager.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, first.ID, listed[0].ID)
}

func TestScenario_BatchDeleteRetention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := env.create(t, "Doc", "one", "v1")
	env.save(t, doc.ID, "Doc", "two", "v2")
	env.save(t, doc.ID, "Doc", "three", "v3")

	versions := env.versions(t, doc.ID)
	require.Len(t, versions, 3)

	_, err := env.manager.BatchDeleteVersions(ctx, doc.ID, ids(versions...))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
	assert.Len(t, env.versions(t, doc.ID), 3, "failed batch delete must not remove anything")

	deleted, err := env.manager.BatchDeleteVersions(ctx, doc.ID, ids(versions[0], versions[1]))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	remaining := env.versions(t, doc.ID)
	require.Len(t, remaining, 1)
	assert.Equal(t, versions[2].ID, remaining[0].ID)
}

// ============================================================================
// SaveWithVersioning
// ============================================================================

func TestSaveWithVersioning_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	doc := env.create(t, "Doc", "a", "v1")

	first, created := env.save(t, doc.ID, "Doc", "b", "v1")
	assert.True(t, created)

	second, created := env.save(t, doc.ID, "Doc", "b", "v1")
	assert.False(t, created, "same fields must not create a version")
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt), "document row is still written")

	assert.Len(t, env.versions(t, doc.ID), 2)
}

func TestSaveWithVersioning_GapFreeSequence(t *testing.T) {
	env := newTestEnv(t)
	doc := env.create(t, "Doc", "0", "v0")

	const saves = 10
	for i := 1; i <= saves; i++ {
		_, created := env.save(t, doc.ID, "Doc", fmt.Sprint(i), fmt.Sprintf("v%d", i))
		require.True(t, created)
	}

	versions := env.versions(t, doc.ID)
	require.Len(t, versions, saves+1)
	for i, v := range versions {
		assert.Equal(t, saves+1-i, v.SequenceNumber)
	}
}

func TestSaveWithVersioning_ChangeDescriptionCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.create(t, "Doc", "a", "v1")

	desc := "tightened wording"
	_, created, err := env.manager.SaveWithVersioning(ctx, doc.ID, models.DocumentFields{
		Title: "Doc", Content: "a", Label: "v1", ChangeDescription: &desc,
	})
	require.NoError(t, err)
	assert.True(t, created, "a new change description alone is a change")

	stored, err := env.service.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ChangeDescription)
	assert.Equal(t, desc, *stored.ChangeDescription)
}

func TestSaveWithVersioning_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.create(t, "Doc", "a", "v1")

	blank := ""
	tests := []struct {
		name   string
		docID  string
		fields models.DocumentFields
		want   error
	}{
		{"empty label", doc.ID, models.DocumentFields{Title: "Doc", Content: "b"}, domain.ErrValidation},
		{"empty title", doc.ID, models.DocumentFields{Content: "b", Label: "v2"}, domain.ErrValidation},
		{"blank change description", doc.ID, models.DocumentFields{Title: "Doc", Content: "b", Label: "v2", ChangeDescription: &blank}, domain.ErrValidation},
		{"missing document", "00000000-0000-0000-0000-000000000000", models.DocumentFields{Title: "Doc", Label: "v2"}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.manager.SaveWithVersioning(ctx, tt.docID, tt.fields)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	stored, err := env.service.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Content, "rejected saves write nothing")
	assert.Len(t, env.versions(t, doc.ID), 1)
}

func TestSaveWithVersioning_EmptyContentAllowed(t *testing.T) {
	env := newTestEnv(t)
	doc := env.create(t, "Doc", "a", "v1")

	updated, created := env.save(t, doc.ID, "Doc", "", "v2")
	assert.True(t, created)
	assert.Empty(t, updated.Content)
}

func TestSaveWithVersioning_ConcurrentSaves(t *testing.T) {
	env := newTestEnv(t)
	doc := env.create(t, "Doc", "start", "v0")

	const writers = 20
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			_, created, err := env.manager.SaveWithVersioning(ctx, doc.ID, models.DocumentFields{
				Title:   "Doc",
				Content: fmt.Sprintf("writer %d", i),
				Label:   fmt.Sprintf("v%d", i+1),
			})
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("writer %d: no version created", i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	versions := env.versions(t, doc.ID)
	require.Len(t, versions, writers+1)

	seen := make(map[int]bool)
	for _, v := range versions {
		assert.False(t, seen[v.SequenceNumber], "duplicate sequence number %d", v.SequenceNumber)
		seen[v.SequenceNumber] = true
	}
	for seq := 1; seq <= writers+1; seq++ {
		assert.True(t, seen[seq], "missing sequence number %d", seq)
	}
}

func TestSaveWithVersioning_RollsBackSnapshot(t *testing.T) {
	env := newTestEnv(t)
	doc := env.create(t, "Doc", "a", "v1")

	env.docs.failUpdate = fmt.Errorf("update: %w", domain.ErrStorageUnavailable)
	_, _, err := env.manager.SaveWithVersioning(context.Background(), doc.ID, models.DocumentFields{
		Title: "Doc", Content: "b", Label: "v2",
	})
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)

	assert.Len(t, env.versions(t, doc.ID), 1, "snapshot inserted before the failure is rolled back")
}

func TestSaveWithVersioning_CanceledContext(t *testing.T) {
	env := newTestEnv(t)
	doc := env.create(t, "Doc", "a", "v1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := env.manager.SaveWithVersioning(ctx, doc.ID, models.DocumentFields{
		Title: "Doc", Content: "b", Label: "v2",
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, env.versions(t, doc.ID), 1)
}

// ============================================================================
// CreateInitialVersion and ListVersions
// ============================================================================

func TestCreateInitialVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := &models.Document{Title: "Doc", Content: "body", Label: "v1"}
	require.NoError(t, env.store.Documents().Create(ctx, doc))

	v, err := env.manager.CreateInitialVersion(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 1, v.SequenceNumber)
	assert.Equal(t, "v1", v.UserLabel)
	assert.Equal(t, "body", v.Content)

	_, err = env.manager.CreateInitialVersion(ctx, doc)
	assert.ErrorIs(t, err, domain.ErrValidation, "history already exists")
	assert.Len(t, env.versions(t, doc.ID), 1)

	unlabeled := &models.Document{Title: "Doc", Content: "body"}
	require.NoError(t, env.store.Documents().Create(ctx, unlabeled))
	_, err = env.manager.CreateInitialVersion(ctx, unlabeled)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListVersions_BackFill(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := &models.Document{Title: "Legacy", Content: "old body", Label: "v3"}
	require.NoError(t, env.store.Documents().Create(ctx, doc))

	versions, err := env.manager.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].SequenceNumber)
	assert.Equal(t, "v3", versions[0].UserLabel)
	assert.Equal(t, "old body", versions[0].Content)

	again, err := env.manager.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, versions[0].ID, again[0].ID, "back-fill happens once")
}

func TestListVersions_ConcurrentBackFill(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := &models.Document{Title: "Legacy", Content: "body", Label: "v1"}
	require.NoError(t, env.store.Documents().Create(ctx, doc))

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := env.manager.ListVersions(ctx, doc.ID)
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, env.versions(t, doc.ID), 1)
}

func TestListVersions_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unlabeled := &models.Document{Title: "Draft", Content: "body"}
	require.NoError(t, env.store.Documents().Create(ctx, unlabeled))

	_, err := env.manager.ListVersions(ctx, unlabeled.ID)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "label must be set before versions can be listed")

	_, err = env.manager.ListVersions(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListVersions_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	doc := env.create(t, "Doc", "a", "v1")
	env.save(t, doc.ID, "Doc", "b", "v2")
	env.save(t, doc.ID, "Doc", "c", "v3")

	versions, err := env.manager.ListVersions(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, sequenceNumbers(versions))
}

// ============================================================================
// GetVersion and Revert
// ============================================================================

func TestGetVersion_OtherDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.create(t, "A", "a", "v1")
	b := env.create(t, "B", "b", "v1")
	bVersion := env.versions(t, b.ID)[0]

	got, err := env.manager.GetVersion(ctx, b.ID, bVersion.ID)
	require.NoError(t, err)
	assert.Equal(t, bVersion.ID, got.ID)

	_, err = env.manager.GetVersion(ctx, a.ID, bVersion.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.manager.Revert(ctx, a.ID, bVersion.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRevert_ToLatestKeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	doc := env.create(t, "Doc", "a", "v1")
	env.save(t, doc.ID, "Doc", "b", "v2")
	env.save(t, doc.ID, "Doc", "c", "v3")

	latest := env.versions(t, doc.ID)[0]
	require.Equal(t, 3, latest.SequenceNumber)

	reverted, err := env.manager.Revert(context.Background(), doc.ID, latest.ID)
	require.NoError(t, err)
	assert.Equal(t, latest.Content, reverted.Content)
	assert.Equal(t, latest.UserLabel, reverted.Label)
	assert.Equal(t, []int{3, 2, 1}, sequenceNumbers(env.versions(t, doc.ID)))
}

func TestRevert_NextSaveContinuesAfterTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.create(t, "Doc", "a", "v1")
	env.save(t, doc.ID, "Doc", "b", "v2")
	env.save(t, doc.ID, "Doc", "c", "v3")
	env.save(t, doc.ID, "Doc", "d", "v4")

	versions := env.versions(t, doc.ID)
	target := versions[2] // sequence 2
	require.Equal(t, 2, target.SequenceNumber)

	_, err := env.manager.Revert(ctx, doc.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, sequenceNumbers(env.versions(t, doc.ID)))

	_, created := env.save(t, doc.ID, "Doc", "e", "v5")
	require.True(t, created)
	assert.Equal(t, []int{3, 2, 1}, sequenceNumbers(env.versions(t, doc.ID)))
}

func TestRevert_RollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	doc := env.create(t, "Doc", "a", "v1")
	env.save(t, doc.ID, "Doc", "b", "v2")
	env.save(t, doc.ID, "Doc", "c", "v3")

	first := env.versions(t, doc.ID)[2]
	env.docs.failUpdate = errors.New("disk full")

	_, err := env.manager.Revert(context.Background(), doc.ID, first.ID)
	require.Error(t, err)
	assert.Equal(t, []int{3, 2, 1}, sequenceNumbers(env.versions(t, doc.ID)), "deleted versions are restored")
}

// ============================================================================
// DeleteVersion and BatchDeleteVersions
// ============================================================================

func TestDeleteVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.create(t, "Doc", "a", "v1")

	only := env.versions(t, doc.ID)[0]
	err := env.manager.DeleteVersion(ctx, doc.ID, only.ID)
	require.ErrorIs(t, err, domain.ErrInvariantViolation)

	var invErr *domain.InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, 1, invErr.Current)
	assert.Len(t, env.versions(t, doc.ID), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.InvariantViolationsTotal.WithLabelValues("delete")))

	env.save(t, doc.ID, "Doc", "b", "v2")
	env.save(t, doc.ID, "Doc", "c", "v3")
	middle := env.versions(t, doc.ID)[1]

	require.NoError(t, env.manager.DeleteVersion(ctx, doc.ID, middle.ID))
	assert.Equal(t, []int{3, 1}, sequenceNumbers(env.versions(t, doc.ID)), "remaining versions are not renumbered")

	err = env.manager.DeleteVersion(ctx, doc.ID, middle.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBatchDeleteVersions_EdgeCases(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	setup := func(t *testing.T) (*models.Document, []models.Version) {
		doc := env.create(t, "Doc", "a", "v1")
		env.save(t, doc.ID, "Doc", "b", "v2")
		env.save(t, doc.ID, "Doc", "c", "v3")
		return doc, env.versions(t, doc.ID)
	}

	t.Run("duplicates are counted once", func(t *testing.T) {
		doc, versions := setup(t)
		deleted, err := env.manager.BatchDeleteVersions(ctx, doc.ID, []string{versions[0].ID, versions[0].ID, versions[1].ID})
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)
		assert.Len(t, env.versions(t, doc.ID), 1)
	})

	t.Run("duplicates cannot bypass retention", func(t *testing.T) {
		doc, versions := setup(t)
		req := append(ids(versions...), versions[0].ID)
		_, err := env.manager.BatchDeleteVersions(ctx, doc.ID, req)
		require.ErrorIs(t, err, domain.ErrInvariantViolation)
		assert.Len(t, env.versions(t, doc.ID), 3)
	})

	t.Run("unknown ids are ignored", func(t *testing.T) {
		doc, versions := setup(t)
		deleted, err := env.manager.BatchDeleteVersions(ctx, doc.ID, []string{versions[0].ID, "00000000-0000-0000-0000-000000000001"})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)
	})

	t.Run("only unknown ids", func(t *testing.T) {
		doc, _ := setup(t)
		deleted, err := env.manager.BatchDeleteVersions(ctx, doc.ID, []string{"00000000-0000-0000-0000-000000000001"})
		require.NoError(t, err)
		assert.Zero(t, deleted)
		assert.Len(t, env.versions(t, doc.ID), 3)
	})

	t.Run("versions of another document are ignored", func(t *testing.T) {
		doc, _ := setup(t)
		_, others := setup(t)
		deleted, err := env.manager.BatchDeleteVersions(ctx, doc.ID, ids(others...))
		require.NoError(t, err)
		assert.Zero(t, deleted)
		assert.Len(t, env.versions(t, others[0].DocumentID), 3)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := env.manager.BatchDeleteVersions(ctx, "00000000-0000-0000-0000-000000000000", []string{"x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// ============================================================================
// CompareVersions
// ============================================================================

func TestCompareVersions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.create(t, "Doc", "line one\nline two\n", "v1")
	env.save(t, doc.ID, "Doc", "line one\nline 2\nline three\n", "v2")

	first := env.versions(t, doc.ID)[1]

	diff, err := env.manager.CompareVersions(ctx, doc.ID, first.ID, models.CurrentRef)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, diff.DocumentID)
	assert.Equal(t, first.ID, diff.From)
	assert.Equal(t, models.CurrentRef, diff.To)
	assert.Equal(t, models.DiffStats{Added: 2, Removed: 1, Unchanged: 1}, diff.Stats)

	same, err := env.manager.CompareVersions(ctx, doc.ID, models.CurrentRef, models.CurrentRef)
	require.NoError(t, err)
	assert.Zero(t, same.Stats.Added+same.Stats.Removed)

	_, err = env.manager.CompareVersions(ctx, doc.ID, "", models.CurrentRef)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.manager.CompareVersions(ctx, doc.ID, "00000000-0000-0000-0000-000000000001", models.CurrentRef)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ============================================================================
// Regressions
// ============================================================================

func TestCreateDocument_SetsTimestamps(t *testing.T) {
	env := newTestEnv(t)

	doc := env.create(t, "Doc", "a", "v1")
	assert.False(t, doc.CreatedAt.IsZero())
	assert.False(t, doc.UpdatedAt.IsZero())

	require.Len(t, env.docs.createdAt, 1)
	assert.False(t, env.docs.createdAt[0].IsZero(), "timestamps are set before the store sees the document")
}

func TestRevert_ThenIdenticalSaveCreatesNoVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := env.create(t, "Greeting", "Hello", "v1.0")
	env.save(t, doc.ID, "Greeting", "Hello World", "v1.1")

	first := env.versions(t, doc.ID)[1]
	reverted, err := env.manager.Revert(ctx, doc.ID, first.ID)
	require.NoError(t, err)
	assert.Nil(t, reverted.ChangeDescription, "revert restores title, content and label only")

	_, created := env.save(t, doc.ID, reverted.Title, reverted.Content, reverted.Label)
	assert.False(t, created)
	assert.Len(t, env.versions(t, doc.ID), 1)
}

func TestVersionsCreatedCountsCommittedOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.store.TxManager().ExecTx(ctx, func(txCtx context.Context) error {
		doc := &models.Document{Title: "Doc", Content: "a", Label: "v1"}
		if err := env.store.Documents().Create(txCtx, doc); err != nil {
			return err
		}
		if _, err := env.manager.CreateInitialVersion(txCtx, doc); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Zero(t, testutil.ToFloat64(env.metrics.VersionsCreatedTotal), "rolled back version is not counted")

	doc := env.create(t, "Doc", "a", "v1")
	env.save(t, doc.ID, "Doc", "b", "v2")
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.VersionsCreatedTotal))
}
