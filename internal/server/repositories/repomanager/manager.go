package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/chatvault/internal/dbx"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/apikeys"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/characters"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/chats"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/personas"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to either the pool or a
// transaction, so services can run several writes under dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Characters(db dbx.DBTX) characters.Repository
	Chats(db dbx.DBTX) chats.Repository
	Messages(db dbx.DBTX) messages.Repository
	Personas(db dbx.DBTX) personas.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	APIKeys(db dbx.DBTX) apikeys.Repository
}
