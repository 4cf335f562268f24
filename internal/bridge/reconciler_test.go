package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dropDatabas3/sessionbridge/internal/store"
)

// fakeUsers es un UserStore en memoria para los tests del reconciler.
type fakeUsers struct {
	mu      sync.Mutex
	nextUID int64
	users   map[int64]store.UserProfile
	indexes store.IndexStore

	createErr error
	creates   int
}

func newFakeUsers(indexes store.IndexStore) *fakeUsers {
	return &fakeUsers{nextUID: 1, users: map[int64]store.UserProfile{}, indexes: indexes}
}

func (f *fakeUsers) Create(ctx context.Context, u store.NewUser) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.creates++
	uid := f.nextUID
	f.nextUID++
	f.users[uid] = store.UserProfile{
		UID:      uid,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Picture:  u.Picture,
	}
	if u.Email != "" {
		if err := f.indexes.LinkEmail(ctx, u.Email, uid); err != nil {
			return 0, err
		}
	}
	return uid, nil
}

func (f *fakeUsers) GetByUID(_ context.Context, uid int64) (store.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.users[uid]
	if !ok {
		return store.UserProfile{}, store.ErrUserNotFound
	}
	return p, nil
}

func (f *fakeUsers) UpdateUsername(_ context.Context, uid int64, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.users[uid]
	if !ok {
		return store.ErrUserNotFound
	}
	p.Username = username
	f.users[uid] = p
	return nil
}

func (f *fakeUsers) Ping(context.Context) error { return nil }

// fakeIndexes es un IndexStore en memoria.
type fakeIndexes struct {
	mu     sync.Mutex
	byExt  map[string]int64
	byMail map[string]int64

	extErr  error
	mailErr error
}

func newFakeIndexes() *fakeIndexes {
	return &fakeIndexes{byExt: map[string]int64{}, byMail: map[string]int64{}}
}

func (f *fakeIndexes) UIDByExternalID(_ context.Context, namespace, externalID string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.extErr != nil {
		return 0, false, f.extErr
	}
	uid, ok := f.byExt[namespace+":"+externalID]
	return uid, ok, nil
}

func (f *fakeIndexes) UIDByEmail(_ context.Context, email string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mailErr != nil {
		return 0, false, f.mailErr
	}
	uid, ok := f.byMail[email]
	return uid, ok, nil
}

func (f *fakeIndexes) LinkExternalID(_ context.Context, namespace, externalID string, uid int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byExt[namespace+":"+externalID] = uid
	return nil
}

func (f *fakeIndexes) LinkEmail(_ context.Context, email string, uid int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byMail[email] = uid
	return nil
}

func (f *fakeIndexes) Ping(context.Context) error { return nil }

func TestReconcile_CreateThenReuse(t *testing.T) {
	indexes := newFakeIndexes()
	users := newFakeUsers(indexes)
	r := NewReconciler(users, indexes)
	ctx := context.Background()

	id := Identity{ExternalID: "42", Email: "a@x.com", Username: "ana"}

	uid, err := r.Reconcile(ctx, "appId", id)
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if uid == 0 {
		t.Fatal("expected a non-zero uid")
	}

	// La segunda pasada resuelve por external id, sin crear de nuevo.
	uid2, err := r.Reconcile(ctx, "appId", id)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if uid2 != uid {
		t.Fatalf("expected reuse of uid %d, got %d", uid, uid2)
	}
	if users.creates != 1 {
		t.Fatalf("expected exactly one create, got %d", users.creates)
	}
}

func TestReconcile_MergeByEmail(t *testing.T) {
	indexes := newFakeIndexes()
	users := newFakeUsers(indexes)
	r := NewReconciler(users, indexes)
	ctx := context.Background()

	// Cuenta preexistente conocida solo por email.
	uid, err := users.Create(ctx, store.NewUser{Username: "old", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	got, err := r.Reconcile(ctx, "appId", Identity{ExternalID: "ext-1", Email: "a@x.com", Username: "new"})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got != uid {
		t.Fatalf("expected merge onto uid %d, got %d", uid, got)
	}
	if users.creates != 1 {
		t.Fatalf("expected no extra create, got %d", users.creates)
	}

	// El vínculo quedó escrito: próxima pasada resuelve por external id.
	if linked, ok := indexes.byExt["appId:ext-1"]; !ok || linked != uid {
		t.Fatalf("expected external id linked to %d, got %d (ok=%v)", uid, linked, ok)
	}

	// Username sincronizado one-way.
	p, _ := users.GetByUID(ctx, uid)
	if p.Username != "new" {
		t.Fatalf("expected username synced to %q, got %q", "new", p.Username)
	}
}

func TestReconcile_ExternalIDWinsOverEmail(t *testing.T) {
	indexes := newFakeIndexes()
	users := newFakeUsers(indexes)
	r := NewReconciler(users, indexes)
	ctx := context.Background()

	uidA, _ := users.Create(ctx, store.NewUser{Username: "a", Email: "a@x.com"})
	uidB, _ := users.Create(ctx, store.NewUser{Username: "b", Email: "b@x.com"})
	_ = indexes.LinkExternalID(ctx, "appId", "ext-1", uidB)

	// El email apunta a A pero el external id apunta a B: gana el external id.
	got, err := r.Reconcile(ctx, "appId", Identity{ExternalID: "ext-1", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got != uidB {
		t.Fatalf("expected uid %d (external id), got %d (email was %d)", uidB, got, uidA)
	}
}

func TestReconcile_EmptyUsernameDoesNotSync(t *testing.T) {
	indexes := newFakeIndexes()
	users := newFakeUsers(indexes)
	r := NewReconciler(users, indexes)
	ctx := context.Background()

	uid, _ := users.Create(ctx, store.NewUser{Username: "keep", Email: "a@x.com"})
	_ = indexes.LinkExternalID(ctx, "appId", "ext-1", uid)

	if _, err := r.Reconcile(ctx, "appId", Identity{ExternalID: "ext-1", Email: "a@x.com"}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	p, _ := users.GetByUID(ctx, uid)
	if p.Username != "keep" {
		t.Fatalf("empty username must not overwrite, got %q", p.Username)
	}
}

func TestReconcile_LookupErrorSurfaces(t *testing.T) {
	indexes := newFakeIndexes()
	indexes.extErr = fmt.Errorf("redis down")
	users := newFakeUsers(indexes)
	r := NewReconciler(users, indexes)

	_, err := r.Reconcile(context.Background(), "appId", Identity{ExternalID: "x", Email: "a@x.com"})
	if !errors.Is(err, ErrReconciliation) {
		t.Fatalf("expected ErrReconciliation, got %v", err)
	}
}

func TestReconcile_CreateErrorSurfaces(t *testing.T) {
	indexes := newFakeIndexes()
	users := newFakeUsers(indexes)
	users.createErr = fmt.Errorf("pg down")
	r := NewReconciler(users, indexes)

	_, err := r.Reconcile(context.Background(), "appId", Identity{ExternalID: "x", Email: "a@x.com"})
	if !errors.Is(err, ErrReconciliation) {
		t.Fatalf("expected ErrReconciliation, got %v", err)
	}
}

func TestReconcile_ConcurrentSameIdentity(t *testing.T) {
	indexes := newFakeIndexes()
	users := newFakeUsers(indexes)
	r := NewReconciler(users, indexes)
	ctx := context.Background()

	id := Identity{ExternalID: "42", Email: "a@x.com", Username: "ana"}

	const n = 16
	uids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid, err := r.Reconcile(ctx, "appId", id)
			if err != nil {
				t.Errorf("concurrent reconcile: %v", err)
				return
			}
			uids[i] = uid
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if uids[i] != uids[0] {
			t.Fatalf("divergent uids under concurrency: %v", uids)
		}
	}
}
