package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/textset/internal/domain"
	"github.com/kailas-cloud/textset/internal/domain/item"
)

// setupTestStore opens a fresh database file under t.TempDir().
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Driver: DriverModernc,
		Path:   filepath.Join(t.TempDir(), "textset.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func createUser(t *testing.T, s *Store, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := s.db.Exec("INSERT INTO registered_users (id, username) VALUES (?, ?)", id.String(), name)
	require.NoError(t, err)
	return id
}

func createTextSet(t *testing.T, s *Store, owner uuid.UUID, title string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := s.db.Exec("INSERT INTO text_sets (id, title, description, owner_id) VALUES (?, ?, ?, ?)",
		id.String(), title, "about "+title, owner.String())
	require.NoError(t, err)
	return id
}

func createToken(t *testing.T, s *Store, user uuid.UUID, credential string, expires, revoked *time.Time) {
	t.Helper()
	var exp, rev any
	if expires != nil {
		exp = expires.UTC().Format(time.RFC3339Nano)
	}
	if revoked != nil {
		rev = revoked.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.Exec("INSERT INTO access_tokens (token_hash, user_id, expires_at, revoked_at) VALUES (?, ?, ?, ?)",
		HashToken(credential), user.String(), exp, rev)
	require.NoError(t, err)
}

func newItem(t *testing.T, textSetID uuid.UUID, line, segment int) item.Item {
	t.Helper()
	it, err := item.New(item.Params{
		TextSetID:            textSetID,
		CreatorID:            "creator-1",
		CreatorName:          "Ada",
		Text:                 "window text",
		PostDate:             time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC),
		ExternalItemID:       "ext-1",
		ParentExternalItemID: "",
		Embedding:            []float32{0.25, -1, 3.5},
		Line:                 line,
		Segment:              segment,
	})
	require.NoError(t, err)
	return it
}

func seedTextSet(t *testing.T, s *Store) uuid.UUID {
	t.Helper()
	owner := createUser(t, s, "owner-"+uuid.NewString())
	return createTextSet(t, s, owner, "set-"+uuid.NewString())
}

func TestOpen_AppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "textset.db")
	ctx := context.Background()

	first, err := Open(ctx, Config{Path: path})
	require.NoError(t, err)
	assert.Equal(t, DriverModernc, first.Driver())
	require.NoError(t, first.Close())

	second, err := Open(ctx, Config{Path: path})
	require.NoError(t, err)
	defer second.Close()

	var n int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: "postgres", Path: filepath.Join(t.TempDir(), "x.db")})
	assert.ErrorContains(t, err, "unknown sqlite driver")
}

func TestOpen_CGODriver(t *testing.T) {
	s, err := Open(context.Background(), Config{
		Driver: DriverCGO,
		Path:   filepath.Join(t.TempDir(), "cgo.db"),
	})
	if err != nil {
		t.Skipf("sqlite3 driver unavailable in this build: %v", err)
	}
	defer s.Close()

	ts := seedTextSet(t, s)
	n, err := s.WriteAll(context.Background(), []item.Item{newItem(t, ts, 2, 0)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriteAll_CommitsEveryItem(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	ts := seedTextSet(t, s)

	items := []item.Item{newItem(t, ts, 2, 0), newItem(t, ts, 2, 1), newItem(t, ts, 3, 0)}
	n, err := s.WriteAll(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stored, err := s.ListItems(ctx, ts)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, got := range stored {
		assert.Equal(t, items[i].ID(), got.ID())
		assert.Equal(t, items[i].Embedding(), got.Embedding())
		assert.True(t, items[i].PostDate().Equal(got.PostDate()))
		assert.Equal(t, "Ada", got.CreatorName())
	}
}

func TestWriteAll_Empty(t *testing.T) {
	s := setupTestStore(t)
	n, err := s.WriteAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWriteAll_LastItemFailureRollsBackEverything(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	ts := seedTextSet(t, s)

	var items []item.Item
	for line := 2; line < 12; line++ {
		items = append(items, newItem(t, ts, line, 0))
	}
	// Unknown text set: the foreign key rejects the last insert.
	items = append(items, newItem(t, uuid.New(), 12, 3))

	n, err := s.WriteAll(ctx, items)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, domain.ErrWrite)

	var we *domain.WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, 12, we.Line)
	assert.Equal(t, 3, we.Segment)

	count, err := s.CountItems(ctx, ts)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWriteAll_DuplicateIDRollsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	ts := seedTextSet(t, s)

	first := newItem(t, ts, 2, 0)
	dup := item.Reconstruct(first.ID(), item.Params{
		TextSetID: ts, CreatorID: "c", CreatorName: "n", Text: "t",
		PostDate: time.Now().UTC(), Embedding: []float32{1}, Line: 3,
	})

	_, err := s.WriteAll(ctx, []item.Item{first, newItem(t, ts, 2, 1), dup})
	assert.ErrorIs(t, err, domain.ErrWrite)

	count, err := s.CountItems(ctx, ts)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWriteAll_CanceledContext(t *testing.T) {
	s := setupTestStore(t)
	ts := seedTextSet(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.WriteAll(ctx, []item.Item{newItem(t, ts, 2, 0)})
	assert.ErrorIs(t, err, domain.ErrWrite)

	count, err := s.CountItems(context.Background(), ts)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWriteAll_ReuploadCreatesDuplicates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	ts := seedTextSet(t, s)

	for range 2 {
		n, err := s.WriteAll(ctx, []item.Item{newItem(t, ts, 2, 0), newItem(t, ts, 3, 0)})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	stored, err := s.ListItems(ctx, ts)
	require.NoError(t, err)
	require.Len(t, stored, 4)

	seen := make(map[uuid.UUID]bool)
	for _, it := range stored {
		assert.False(t, seen[it.ID()], "duplicate id %s", it.ID())
		seen[it.ID()] = true
	}
}

func TestFindOwned(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	owner := createUser(t, s, "owner")
	other := createUser(t, s, "other")
	ts := createTextSet(t, s, owner, "news")

	got, err := s.FindOwned(ctx, ts, owner)
	require.NoError(t, err)
	assert.Equal(t, "news", got.Title())
	assert.True(t, got.OwnedBy(owner))

	_, err = s.FindOwned(ctx, ts, other)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.FindOwned(ctx, uuid.New(), owner)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveIdentity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user := createUser(t, s, "reader")

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	future := now.Add(time.Hour)
	past := now.Add(-time.Minute)
	createToken(t, s, user, "valid", nil, nil)
	createToken(t, s, user, "valid-until-later", &future, nil)
	createToken(t, s, user, "expired", &past, nil)
	createToken(t, s, user, "revoked", &future, &past)

	for _, cred := range []string{"valid", "valid-until-later"} {
		id, err := s.ResolveIdentity(ctx, cred)
		require.NoError(t, err, cred)
		assert.Equal(t, user, id)
	}

	for _, cred := range []string{"expired", "revoked", "unknown", ""} {
		_, err := s.ResolveIdentity(ctx, cred)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized), "%q: got %v", cred, err)
	}
}

func TestPing(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
