// Package memory is an in-process Version Store for local development and tests.
//
// Transactions keep an undo log and hold a per-document lock for every
// document passed to LockByID until the transaction ends. Reads outside a
// transaction may observe writes of transactions that have not yet committed.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"promptvault/internal/domain"
	models "promptvault/internal/domain/models/versioning"
	"promptvault/internal/domain/repositories"
	versionRepo "promptvault/internal/domain/repositories/versioning"
)

// Store holds documents and versions in maps guarded by one RWMutex.
type Store struct {
	mu        sync.RWMutex
	documents map[string]models.Document
	versions  map[string]models.Version
	byDoc     map[string]map[string]struct{} // document ID -> version IDs

	locksMu sync.Mutex
	locks   map[string]chan struct{} // document ID -> 1-slot semaphore

	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		documents: make(map[string]models.Document),
		versions:  make(map[string]models.Version),
		byDoc:     make(map[string]map[string]struct{}),
		locks:     make(map[string]chan struct{}),
		now:       time.Now,
	}
}

// Reset discards every document and version
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]models.Document)
	s.versions = make(map[string]models.Version)
	s.byDoc = make(map[string]map[string]struct{})
}

// Documents returns the store as a DocumentRepository
func (s *Store) Documents() versionRepo.DocumentRepository { return documentRepo{s} }

// Versions returns the store as a VersionRepository
func (s *Store) Versions() versionRepo.VersionRepository { return versionRepository{s} }

// TxManager returns the store's TransactionManager
func (s *Store) TxManager() repositories.TransactionManager { return txManager{s} }

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

type txContextKey struct{}

type memTx struct {
	undo []func()
	held []chan struct{}
	ids  map[string]bool
}

func getTx(ctx context.Context) *memTx {
	tx, _ := ctx.Value(txContextKey{}).(*memTx)
	return tx
}

type txManager struct{ s *Store }

// ExecTx runs fn; on error (or panic) every write made through the context is undone.
func (m txManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if getTx(ctx) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{ids: make(map[string]bool)}
	committed := false
	defer func() {
		if !committed {
			m.s.rollback(tx)
		}
		for _, sem := range tx.held {
			<-sem
		}
	}()

	txCtx, hooks := repositories.WithCommitHooks(context.WithValue(ctx, txContextKey{}, tx))
	if err := fn(txCtx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	hooks.Run()
	return nil
}

func (s *Store) rollback(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
}

// record appends an undo step when a transaction is active. Caller holds s.mu.
func record(ctx context.Context, undo func()) {
	if tx := getTx(ctx); tx != nil {
		tx.undo = append(tx.undo, undo)
	}
}

func (s *Store) lock(ctx context.Context, tx *memTx, documentID string) error {
	if tx.ids[documentID] {
		return nil
	}

	s.locksMu.Lock()
	sem, ok := s.locks[documentID]
	if !ok {
		sem = make(chan struct{}, 1)
		s.locks[documentID] = sem
	}
	s.locksMu.Unlock()

	select {
	case sem <- struct{}{}:
		tx.held = append(tx.held, sem)
		tx.ids[documentID] = true
		return nil
	case <-ctx.Done():
		return fmt.Errorf("lock document %s: %w", documentID, ctx.Err())
	}
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

type documentRepo struct{ s *Store }

func (r documentRepo) Create(ctx context.Context, doc *models.Document) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	doc.ID = uuid.NewString()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}
	s.documents[doc.ID] = *doc
	s.byDoc[doc.ID] = make(map[string]struct{})

	id := doc.ID
	record(ctx, func() {
		delete(s.documents, id)
		delete(s.byDoc, id)
	})
	return nil
}

func (r documentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return &doc, nil
}

func (r documentRepo) LockByID(ctx context.Context, id string) (*models.Document, error) {
	if tx := getTx(ctx); tx != nil {
		if err := r.s.lock(ctx, tx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r documentRepo) UpdateFields(ctx context.Context, id string, fields models.DocumentFields, updatedAt time.Time) (*models.Document, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	doc := prev
	doc.Apply(fields)
	doc.UpdatedAt = updatedAt
	s.documents[id] = doc

	record(ctx, func() { s.documents[id] = prev })
	return &doc, nil
}

func (r documentRepo) Delete(ctx context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	removed := make([]models.Version, 0, len(s.byDoc[id]))
	for vid := range s.byDoc[id] {
		removed = append(removed, s.versions[vid])
		delete(s.versions, vid)
	}
	delete(s.byDoc, id)
	delete(s.documents, id)

	record(ctx, func() {
		s.documents[id] = doc
		s.byDoc[id] = make(map[string]struct{}, len(removed))
		for _, v := range removed {
			s.versions[v.ID] = v
			s.byDoc[id][v.ID] = struct{}{}
		}
	})
	return nil
}

// ---------------------------------------------------------------------------
// Versions
// ---------------------------------------------------------------------------

type versionRepository struct{ s *Store }

func (r versionRepository) Insert(ctx context.Context, v *models.Version) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.byDoc[v.DocumentID]
	if !ok {
		return fmt.Errorf("document %s: %w", v.DocumentID, domain.ErrNotFound)
	}
	for vid := range ids {
		if s.versions[vid].SequenceNumber == v.SequenceNumber {
			return fmt.Errorf("insert version %d of document %s: %w",
				v.SequenceNumber, v.DocumentID, domain.ErrConcurrencyConflict)
		}
	}

	v.ID = uuid.NewString()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now()
	}
	s.versions[v.ID] = *v
	ids[v.ID] = struct{}{}

	id, docID := v.ID, v.DocumentID
	record(ctx, func() {
		delete(s.versions, id)
		if set, ok := s.byDoc[docID]; ok {
			delete(set, id)
		}
	})
	return nil
}

func (r versionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.versions[id]
	if !ok {
		return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}
	return &v, nil
}

func (r versionRepository) ListDesc(ctx context.Context, documentID string) ([]models.Version, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make([]models.Version, 0, len(s.byDoc[documentID]))
	for vid := range s.byDoc[documentID] {
		versions = append(versions, s.versions[vid])
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].SequenceNumber > versions[j].SequenceNumber
	})
	return versions, nil
}

func (r versionRepository) Count(ctx context.Context, documentID string) (int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byDoc[documentID]), nil
}

func (r versionRepository) MaxSequenceNumber(ctx context.Context, documentID string) (int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	maxSeq := 0
	for vid := range s.byDoc[documentID] {
		if seq := s.versions[vid].SequenceNumber; seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, nil
}

func (r versionRepository) DeleteAfter(ctx context.Context, documentID string, sequenceNumber int) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for vid := range s.byDoc[documentID] {
		if s.versions[vid].SequenceNumber > sequenceNumber {
			ids = append(ids, vid)
		}
	}
	return s.deleteLocked(ctx, documentID, ids), nil
}

func (r versionRepository) DeleteByIDs(ctx context.Context, documentID string, ids []string) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var owned []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := s.byDoc[documentID][id]; ok {
			owned = append(owned, id)
		}
	}
	return s.deleteLocked(ctx, documentID, owned), nil
}

// deleteLocked removes versions of one document. Caller holds s.mu.
func (s *Store) deleteLocked(ctx context.Context, documentID string, ids []string) int {
	removed := make([]models.Version, 0, len(ids))
	for _, id := range ids {
		removed = append(removed, s.versions[id])
		delete(s.versions, id)
		delete(s.byDoc[documentID], id)
	}

	if len(removed) > 0 {
		record(ctx, func() {
			set, ok := s.byDoc[documentID]
			if !ok {
				return
			}
			for _, v := range removed {
				s.versions[v.ID] = v
				set[v.ID] = struct{}{}
			}
		})
	}
	return len(removed)
}
