// Package services holds the server's business logic. Every service that
// touches sensitive records resolves the session key once per call from the
// request context, seals private records before they reach a repository and
// opens them on the way out. Private records found with plain columns are
// written back encrypted on read.
package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/fieldcrypt"
	"github.com/dmitrijs2005/chatvault/internal/keytransport"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/repomanager"
)

// readPolicy is used for every read served to users: a field that does not
// decrypt is returned encoded instead of failing the request.
const readPolicy = fieldcrypt.FallbackOnError

type base struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *cryptox.Codec
	logger      logging.Logger
}

func newBase(db *sql.DB, m repomanager.RepositoryManager, codec *cryptox.Codec, logger logging.Logger, name string) base {
	return base{db: db, repomanager: m, codec: codec, logger: logger.With("service", name)}
}

func sessionKey(ctx context.Context) (cryptox.Key, error) {
	key, ok := cryptox.KeyFromContext(ctx)
	if !ok {
		return cryptox.Key{}, keytransport.ErrKeyUnavailable
	}
	return key, nil
}

// migrateOnRead re-seals opened and hands it to save when stored is private
// but still has plain columns. Failures are logged; the read goes on.
func migrateOnRead[T fieldcrypt.Sensitive](ctx context.Context, b *base, kind fieldcrypt.Kind, stored, opened T, key cryptox.Key, save func(T) error) {
	if !fieldcrypt.NeedsMigration(kind, stored) {
		return
	}
	sealed, err := fieldcrypt.Seal(ctx, b.codec, kind, opened, key)
	if err != nil {
		b.logger.Warn(ctx, "could not seal legacy record", "kind", kind, "error", err)
		return
	}
	if err := save(sealed); err != nil {
		b.logger.Warn(ctx, "could not write back legacy record", "kind", kind, "error", err)
		return
	}
	b.logger.Info(ctx, "legacy record encrypted", "kind", kind)
}
