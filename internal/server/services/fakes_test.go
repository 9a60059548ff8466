package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/dbx"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/apikeys"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/characters"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/chats"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/personas"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// -------- in-memory store --------

type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() *table[T] { return &table[T]{rows: map[string]T{}} }

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

type memStore struct {
	users      *table[models.User]
	characters *table[models.Character]
	chats      *table[models.Chat]
	messages   *table[models.Message]
	personas   *table[models.Persona]
	profiles   *table[models.Profile]
	apiKeys    *table[models.APIKey]

	writes     int
	err        error
	profileErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:      newTable[models.User](),
		characters: newTable[models.Character](),
		chats:      newTable[models.Chat](),
		messages:   newTable[models.Message](),
		personas:   newTable[models.Persona](),
		profiles:   newTable[models.Profile](),
		apiKeys:    newTable[models.APIKey](),
	}
}

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type fakeUsers struct{ s *memStore }

func (f fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.s.err != nil {
		return nil, f.s.err
	}
	for _, existing := range f.s.users.all() {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = fmt.Sprintf("u-%d", len(f.s.users.order)+1)
	u.CreatedAt = epoch
	f.s.users.put(u.ID, *u)
	return u, nil
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.s.users.all() {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.s.users.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

type fakeCharacters struct{ s *memStore }

func (f fakeCharacters) Create(ctx context.Context, c *models.Character) (*models.Character, error) {
	c.CreatedAt, c.UpdatedAt = epoch, epoch
	f.s.characters.put(c.ID, *c)
	f.s.writes++
	return c, nil
}

func (f fakeCharacters) Update(ctx context.Context, c *models.Character) error {
	existing, ok := f.s.characters.rows[c.ID]
	if !ok || existing.OwnerID != c.OwnerID {
		return common.ErrorNotFound
	}
	f.s.characters.put(c.ID, *c)
	f.s.writes++
	return nil
}

func (f fakeCharacters) GetByID(ctx context.Context, id string) (*models.Character, error) {
	c, ok := f.s.characters.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (f fakeCharacters) ListByOwner(ctx context.Context, ownerID string) ([]*models.Character, error) {
	var out []*models.Character
	for _, c := range f.s.characters.all() {
		if c.OwnerID == ownerID {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f fakeCharacters) ListPublic(ctx context.Context, limit int) ([]*models.Character, error) {
	var out []*models.Character
	for _, c := range f.s.characters.all() {
		if !c.IsPrivate && len(out) < limit {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f fakeCharacters) IncrementChats(ctx context.Context, id string) error {
	c := f.s.characters.rows[id]
	c.Chats++
	f.s.characters.put(id, c)
	return nil
}

type fakeChats struct{ s *memStore }

func (f fakeChats) Create(ctx context.Context, c *models.Chat) (*models.Chat, error) {
	c.CreatedAt, c.UpdatedAt = epoch, epoch
	f.s.chats.put(c.ID, *c)
	f.s.writes++
	return c, nil
}

func (f fakeChats) Update(ctx context.Context, c *models.Chat) error {
	existing, ok := f.s.chats.rows[c.ID]
	if !ok || existing.UserID != c.UserID {
		return common.ErrorNotFound
	}
	f.s.chats.put(c.ID, *c)
	f.s.writes++
	return nil
}

func (f fakeChats) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	c, ok := f.s.chats.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (f fakeChats) ListByUser(ctx context.Context, userID string) ([]*models.Chat, error) {
	var out []*models.Chat
	for _, c := range f.s.chats.all() {
		if c.UserID == userID {
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeMessages struct{ s *memStore }

func (f fakeMessages) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	if f.s.err != nil {
		return nil, f.s.err
	}
	m.CreatedAt = epoch
	f.s.messages.put(m.ID, *m)
	f.s.writes++
	return m, nil
}

func (f fakeMessages) Update(ctx context.Context, m *models.Message) error {
	existing, ok := f.s.messages.rows[m.ID]
	if !ok {
		return common.ErrorNotFound
	}
	existing.Content = m.Content
	f.s.messages.put(m.ID, existing)
	f.s.writes++
	return nil
}

func (f fakeMessages) ListByChat(ctx context.Context, chatID string) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range f.s.messages.all() {
		if m.ChatID == chatID {
			out = append(out, &m)
		}
	}
	return out, nil
}

type fakePersonas struct{ s *memStore }

func (f fakePersonas) Create(ctx context.Context, p *models.Persona) (*models.Persona, error) {
	p.CreatedAt = epoch
	f.s.personas.put(p.ID, *p)
	f.s.writes++
	return p, nil
}

func (f fakePersonas) Update(ctx context.Context, p *models.Persona) error {
	if _, ok := f.s.personas.rows[p.ID]; !ok {
		return common.ErrorNotFound
	}
	f.s.personas.put(p.ID, *p)
	f.s.writes++
	return nil
}

func (f fakePersonas) GetByID(ctx context.Context, id string) (*models.Persona, error) {
	p, ok := f.s.personas.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (f fakePersonas) ListByUser(ctx context.Context, userID string) ([]*models.Persona, error) {
	var out []*models.Persona
	for _, p := range f.s.personas.all() {
		if p.UserID == userID {
			out = append(out, &p)
		}
	}
	return out, nil
}

type fakeProfiles struct{ s *memStore }

func (f fakeProfiles) Upsert(ctx context.Context, p *models.Profile) error {
	stored := *p
	stored.APIKeys = nil
	f.s.profiles.put(p.UserID, stored)
	f.s.writes++
	return nil
}

func (f fakeProfiles) Get(ctx context.Context, userID string) (*models.Profile, error) {
	if f.s.profileErr != nil {
		return nil, f.s.profileErr
	}
	p, ok := f.s.profiles.rows[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

type fakeAPIKeys struct{ s *memStore }

func (f fakeAPIKeys) Upsert(ctx context.Context, k *models.APIKey) error {
	for _, existing := range f.s.apiKeys.all() {
		if existing.UserID == k.UserID && existing.Provider == k.Provider {
			existing.EncryptedAPIKey = k.EncryptedAPIKey
			f.s.apiKeys.put(existing.ID, existing)
			f.s.writes++
			return nil
		}
	}
	f.s.apiKeys.put(k.ID, *k)
	f.s.writes++
	return nil
}

func (f fakeAPIKeys) ListByUser(ctx context.Context, userID string) ([]models.APIKey, error) {
	var out []models.APIKey
	for _, k := range f.s.apiKeys.all() {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return fakeUsers{m.s} }
func (m *fakeRepoManager) Characters(dbx.DBTX) characters.Repository    { return fakeCharacters{m.s} }
func (m *fakeRepoManager) Chats(dbx.DBTX) chats.Repository              { return fakeChats{m.s} }
func (m *fakeRepoManager) Messages(dbx.DBTX) messages.Repository        { return fakeMessages{m.s} }
func (m *fakeRepoManager) Personas(dbx.DBTX) personas.Repository        { return fakePersonas{m.s} }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository        { return fakeProfiles{m.s} }
func (m *fakeRepoManager) APIKeys(dbx.DBTX) apikeys.Repository          { return fakeAPIKeys{m.s} }

// -------- fixture --------

type fixture struct {
	db    *sql.DB
	mock  sqlmock.Sqlmock
	store *memStore
	repos *fakeRepoManager
	codec *cryptox.Codec
	key   cryptox.Key
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := newMemStore()
	key := cryptox.DeriveKey("correct horse battery staple", "ada@example.com")
	return &fixture{
		db:    db,
		mock:  mock,
		store: store,
		repos: &fakeRepoManager{s: store},
		codec: cryptox.NewCodec(logging.NewNopLogger()),
		key:   key,
		ctx:   cryptox.WithKey(context.Background(), key),
	}
}

func (f *fixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *fixture) decrypt(t *testing.T, v string) string {
	t.Helper()
	plain, err := f.codec.Decrypt(v, f.key)
	require.NoError(t, err)
	return plain
}
