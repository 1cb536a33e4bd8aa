package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	itemmodel "inventory-backend/internal/domains/item/model"
	"inventory-backend/internal/shared/utils"

	"github.com/jackc/pgx/v5"
)

// ========================================
// IN-MEMORY STORE WITH TX SEMANTICS
// ========================================
// fakeTx ghi lại undo log: Rollback chạy undo ngược, Commit của savepoint
// chuyển undo lên tx cha, Commit top-level làm thay đổi "durable".

type memStore struct {
	items      map[string]itemmodel.CatalogItem
	categories []itemmodel.Category
	nextItemID int64
	nextCatID  int64

	begins     int
	commits    int
	rollbacks  int
	savepoints int

	// failCommitOn: commit top-level thứ n (1-based) sẽ fail
	failCommitOn int
	beginErr     error

	beforeInsert   func(item *itemmodel.CatalogItem) error
	updateErr      map[string]error
	createCatErr   error
	insertedCount  int
	onInsertNumber map[int]func()
}

func newMemStore() *memStore {
	return &memStore{
		items:     make(map[string]itemmodel.CatalogItem),
		updateErr: make(map[string]error),
	}
}

func (s *memStore) seedCategory(name string) int64 {
	s.nextCatID++
	s.categories = append(s.categories, itemmodel.Category{ID: s.nextCatID, Name: name})
	return s.nextCatID
}

func (s *memStore) seedItem(item itemmodel.CatalogItem) {
	s.nextItemID++
	item.ID = s.nextItemID
	s.items[item.Barcode] = item
}

func (s *memStore) categoryNames() []string {
	out := make([]string, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}

// fakeDB đóng vai *pgxpool.Pool
type fakeDB struct {
	store *memStore
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.store.beginErr != nil {
		return nil, db.store.beginErr
	}
	db.store.begins++
	return &fakeTx{store: db.store}, nil
}

type fakeTx struct {
	pgx.Tx
	store  *memStore
	parent *fakeTx
	undo   []func()
	closed bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) {
	if t.closed {
		return nil, pgx.ErrTxClosed
	}
	t.store.savepoints++
	return &fakeTx{store: t.store, parent: t}, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true

	if t.parent != nil {
		t.parent.undo = append(t.parent.undo, t.undo...)
		t.undo = nil
		return nil
	}

	t.store.commits++
	if t.store.failCommitOn > 0 && t.store.commits == t.store.failCommitOn {
		t.runUndo()
		return errors.New("connection reset by peer")
	}
	t.undo = nil
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.runUndo()
	if t.parent == nil {
		t.store.rollbacks++
	}
	return nil
}

func (t *fakeTx) runUndo() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *fakeTx) record(fn func()) {
	t.undo = append(t.undo, fn)
}

func asFake(tx pgx.Tx) *fakeTx {
	return tx.(*fakeTx)
}

// ========================================
// REPOSITORIES
// ========================================

type memItemRepo struct {
	store *memStore
}

func (r *memItemRepo) FindByBarcodeTx(ctx context.Context, tx pgx.Tx, barcode string) (*itemmodel.CatalogItem, error) {
	it, ok := r.store.items[barcode]
	if !ok {
		return nil, itemmodel.ErrItemNotFound
	}
	return &it, nil
}

func (r *memItemRepo) InsertTx(ctx context.Context, tx pgx.Tx, item *itemmodel.CatalogItem) (int64, error) {
	s := r.store
	if s.beforeInsert != nil {
		if err := s.beforeInsert(item); err != nil {
			return 0, err
		}
	}
	if _, exists := s.items[item.Barcode]; exists {
		return 0, itemmodel.ErrDuplicateBarcode
	}

	s.nextItemID++
	stored := *item
	stored.ID = s.nextItemID
	s.items[item.Barcode] = stored
	asFake(tx).record(func() { delete(s.items, stored.Barcode) })

	s.insertedCount++
	if hook, ok := s.onInsertNumber[s.insertedCount]; ok {
		hook()
	}
	return stored.ID, nil
}

func (r *memItemRepo) UpdateByBarcodeTx(ctx context.Context, tx pgx.Tx, item *itemmodel.CatalogItem) error {
	s := r.store
	if err := s.updateErr[item.Barcode]; err != nil {
		return err
	}
	prev, ok := s.items[item.Barcode]
	if !ok {
		return itemmodel.ErrItemNotFound
	}

	updated := *item
	updated.ID = prev.ID
	s.items[item.Barcode] = updated
	asFake(tx).record(func() { s.items[prev.Barcode] = prev })
	return nil
}

type memCategoryRepo struct {
	store *memStore
}

func (r *memCategoryRepo) ListAllTx(ctx context.Context, tx pgx.Tx) ([]itemmodel.Category, error) {
	out := make([]itemmodel.Category, len(r.store.categories))
	copy(out, r.store.categories)
	return out, nil
}

func (r *memCategoryRepo) FindByNameTx(ctx context.Context, tx pgx.Tx, name string) (*itemmodel.Category, error) {
	key := utils.FoldName(name)
	for _, c := range r.store.categories {
		if utils.FoldName(c.Name) == key {
			found := c
			return &found, nil
		}
	}
	return nil, itemmodel.ErrCategoryNotFound
}

func (r *memCategoryRepo) CreateTx(ctx context.Context, tx pgx.Tx, name string) (*itemmodel.Category, error) {
	s := r.store
	if s.createCatErr != nil {
		return nil, s.createCatErr
	}
	if _, err := r.FindByNameTx(ctx, tx, name); err == nil {
		return nil, itemmodel.ErrDuplicateCategory
	}

	s.nextCatID++
	c := itemmodel.Category{ID: s.nextCatID, Name: name}
	s.categories = append(s.categories, c)
	asFake(tx).record(func() {
		for i := range s.categories {
			if s.categories[i].ID == c.ID {
				s.categories = append(s.categories[:i], s.categories[i+1:]...)
				return
			}
		}
	})
	return &c, nil
}

// ========================================
// HELPERS
// ========================================

func newTestEngine(store *memStore) *Engine {
	aliases, err := NewAliasTable(nil)
	if err != nil {
		panic(err)
	}
	return NewEngine(
		&fakeDB{store: store},
		&memItemRepo{store: store},
		&memCategoryRepo{store: store},
		aliases,
	)
}

func csvSource(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

// failingReader: seek được nhưng mọi lần đọc đều lỗi
type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("disk read error")
}

func (failingReader) Seek(offset int64, whence int) (int64, error) {
	return 0, nil
}
