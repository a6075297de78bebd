package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/toprakakdogann/BirthdayReminderBackend/internal/common"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/dbx"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/models"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/birthdays"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/refreshtokens"
	"github.com/toprakakdogann/BirthdayReminderBackend/internal/server/repositories/users"
)

// --- in-memory birthday repository ---

type fakeBirthdayRepo struct {
	mu      sync.Mutex
	records map[string]*models.Birthday // keyed by id|userID

	insertErr error
	updateErr error
	selectErr error
}

func newFakeBirthdayRepo() *fakeBirthdayRepo {
	return &fakeBirthdayRepo{records: make(map[string]*models.Birthday)}
}

func bkey(id, userID string) string { return id + "|" + userID }

func cloneBirthday(b *models.Birthday) *models.Birthday {
	c := *b
	return &c
}

func (f *fakeBirthdayRepo) put(b *models.Birthday) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[bkey(b.ID, b.UserID)] = cloneBirthday(b)
}

func (f *fakeBirthdayRepo) get(id, userID string) *models.Birthday {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.records[bkey(id, userID)]
	if !ok {
		return nil
	}
	return cloneBirthday(b)
}

func (f *fakeBirthdayRepo) Get(ctx context.Context, id string, userID string) (*models.Birthday, error) {
	if b := f.get(id, userID); b != nil {
		return b, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeBirthdayRepo) GetForUpdate(ctx context.Context, id string, userID string) (*models.Birthday, error) {
	return f.Get(ctx, id, userID)
}

func (f *fakeBirthdayRepo) ListActive(ctx context.Context, userID string) ([]*models.Birthday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Birthday
	for _, b := range f.records {
		if b.UserID == userID && !b.IsDeleted {
			result = append(result, cloneBirthday(b))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Month != result[j].Month {
			return result[i].Month < result[j].Month
		}
		return result[i].Day < result[j].Day
	})
	return result, nil
}

func (f *fakeBirthdayRepo) Insert(ctx context.Context, b *models.Birthday) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.put(b)
	return nil
}

func (f *fakeBirthdayRepo) Update(ctx context.Context, b *models.Birthday) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.get(b.ID, b.UserID) == nil {
		return common.ErrorNotFound
	}
	f.put(b)
	return nil
}

func (f *fakeBirthdayRepo) SelectChangedSince(ctx context.Context, userID string, since time.Time) ([]*models.Birthday, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Birthday
	for _, b := range f.records {
		if b.UserID == userID && b.UpdatedAtUtc.After(since) {
			result = append(result, cloneBirthday(b))
		}
	}
	return result, nil
}

// --- in-memory users repository ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	nextID int

	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: make(map[string]*models.User)}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrConflict
		}
	}
	f.nextID++
	u.ID = "u" + string(rune('0'+f.nextID))
	u.CreatedAtUtc = time.Now().UTC()
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

// --- in-memory refresh token repository ---

type fakeTokensRepo struct {
	mu     sync.Mutex
	byHash map[string]*models.RefreshToken
	nextID int64
}

func newFakeTokensRepo() *fakeTokensRepo {
	return &fakeTokensRepo{byHash: make(map[string]*models.RefreshToken)}
}

func (f *fakeTokensRepo) Create(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.byHash[tokenHash] = &models.RefreshToken{
		ID:           f.nextID,
		UserID:       userID,
		TokenHash:    tokenHash,
		ExpiresAtUtc: expiresAt,
		CreatedAtUtc: time.Now().UTC(),
	}
	return nil
}

func (f *fakeTokensRepo) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byHash[tokenHash]; ok {
		c := *t
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTokensRepo) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byHash[tokenHash]; ok && t.RevokedAtUtc == nil {
		t.RevokedAtUtc = &at
	}
	return nil
}

func (f *fakeTokensRepo) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.byHash {
		if t.UserID == userID && t.RevokedAtUtc == nil && t.ExpiresAtUtc.After(at) {
			t.RevokedAtUtc = &at
			n++
		}
	}
	return n, nil
}

func (f *fakeTokensRepo) DeleteExpired(ctx context.Context, now time.Time, revokedBefore time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for hash, t := range f.byHash {
		if !t.ExpiresAtUtc.After(now) || (t.RevokedAtUtc != nil && !t.RevokedAtUtc.After(revokedBefore)) {
			delete(f.byHash, hash)
			n++
		}
	}
	return n, nil
}

// --- repository manager over the fakes ---

type fakeRepoManager struct {
	users     *fakeUsersRepo
	tokens    *fakeTokensRepo
	birthdays *fakeBirthdayRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:     newFakeUsersRepo(),
		tokens:    newFakeTokensRepo(),
		birthdays: newFakeBirthdayRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository { return m.users }

func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.tokens }

func (m *fakeRepoManager) Birthdays(db dbx.DBTX) birthdays.Repository { return m.birthdays }
