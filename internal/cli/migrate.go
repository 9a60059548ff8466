package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/fieldcrypt"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/auth"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/users"
	"github.com/dmitrijs2005/chatvault/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type migrator interface {
	MigrateUser(ctx context.Context, userID string, key cryptox.Key, dryRun bool) (services.MigrationReport, error)
}

// store is what migrate needs from the database.
type store struct {
	users    users.Repository
	migrator migrator
	close    func() error
}

// openStore is a test seam; the real one connects with pgx and brings the
// schema up to date first.
var openStore = func(ctx context.Context, dsn string, codec *cryptox.Codec, logger logging.Logger) (*store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &store{
		users:    rm.Users(db),
		migrator: services.NewMigrationService(db, rm, codec, logger),
		close:    db.Close,
	}, nil
}

// Migrate encrypts the legacy private records of one user. The password is
// checked against the account before the key is derived from it, so a typo
// cannot seal data under a key the user will never have.
func (a *App) Migrate(ctx context.Context, args []string) error {
	fs := a.flagSet("migrate")
	dsn := fs.String("d", "", "database DSN")
	email := fs.String("email", "", "account email")
	dryRun := fs.Bool("dry-run", false, "only count the records that would be rewritten")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if *dsn == "" || *email == "" {
		return fmt.Errorf("%w: -d and -email are required", ErrUsage)
	}

	st, err := openStore(ctx, *dsn, a.codec, a.logger)
	if err != nil {
		return err
	}
	defer st.close()

	user, err := st.users.GetByEmail(ctx, normalizeSalt(*email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no account for %s", *email)
		}
		return err
	}

	pw, err := GetPassword(a.prompt)
	if err != nil {
		return err
	}
	ok, err := auth.CheckPassword(user.PasswordHash, pw)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorUnauthorized
	}

	report, err := st.migrator.MigrateUser(ctx, user.ID, cryptox.DeriveKey(pw, user.Email), *dryRun)
	if err != nil {
		return err
	}

	verb := "encrypted"
	if *dryRun {
		verb = "to encrypt"
	}
	for _, kind := range fieldcrypt.Kinds() {
		if n := report[kind]; n > 0 {
			fmt.Fprintf(a.out, "%-10s %d\n", kind, n)
		}
	}
	_, err = fmt.Fprintf(a.out, "%d records %s\n", report.Total(), verb)
	return err
}
