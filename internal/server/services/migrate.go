package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/dbx"
	"github.com/dmitrijs2005/chatvault/internal/fieldcrypt"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
	"github.com/dmitrijs2005/chatvault/internal/server/repositories/repomanager"
)

// MigrationReport counts the records a migration run rewrote, per kind.
type MigrationReport map[fieldcrypt.Kind]int

func (r MigrationReport) Total() int {
	n := 0
	for _, v := range r {
		n += v
	}
	return n
}

// MigrationService encrypts, in one pass, every private record of a user that
// still has plain columns. It does what lazy migration does on read, for
// records nobody reads. The key must be the user's own.
type MigrationService struct {
	base
}

func NewMigrationService(db *sql.DB, m repomanager.RepositoryManager, codec *cryptox.Codec, logger logging.Logger) *MigrationService {
	return &MigrationService{base: newBase(db, m, codec, logger, "migrate")}
}

// MigrateUser runs in a single transaction: either every legacy record is
// rewritten or none is. With dryRun the records are only counted.
func (s *MigrationService) MigrateUser(ctx context.Context, userID string, key cryptox.Key, dryRun bool) (MigrationReport, error) {
	report := MigrationReport{}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		characters, err := s.repomanager.Characters(tx).ListByOwner(ctx, userID)
		if err != nil {
			return err
		}
		for _, c := range characters {
			if err := reseal(ctx, s, report, fieldcrypt.KindCharacter, *c, key, dryRun, func(v models.Character) error {
				return s.repomanager.Characters(tx).Update(ctx, &v)
			}); err != nil {
				return err
			}
		}

		personas, err := s.repomanager.Personas(tx).ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, p := range personas {
			if err := reseal(ctx, s, report, fieldcrypt.KindPersona, *p, key, dryRun, func(v models.Persona) error {
				return s.repomanager.Personas(tx).Update(ctx, &v)
			}); err != nil {
				return err
			}
		}

		chats, err := s.repomanager.Chats(tx).ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, c := range chats {
			if err := reseal(ctx, s, report, fieldcrypt.KindChat, *c, key, dryRun, func(v models.Chat) error {
				return s.repomanager.Chats(tx).Update(ctx, &v)
			}); err != nil {
				return err
			}

			msgs, err := s.repomanager.Messages(tx).ListByChat(ctx, c.ID)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				if err := reseal(ctx, s, report, fieldcrypt.KindMessage, *m, key, dryRun, func(v models.Message) error {
					return s.repomanager.Messages(tx).Update(ctx, &v)
				}); err != nil {
					return err
				}
			}
		}

		profile, err := s.repomanager.Profiles(tx).Get(ctx, userID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return err
		default:
			if err := reseal(ctx, s, report, fieldcrypt.KindProfile, *profile, key, dryRun, func(v models.Profile) error {
				return s.repomanager.Profiles(tx).Upsert(ctx, &v)
			}); err != nil {
				return err
			}
		}

		keys, err := s.repomanager.APIKeys(tx).ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := reseal(ctx, s, report, fieldcrypt.KindAPIKey, k, key, dryRun, func(v models.APIKey) error {
				return s.repomanager.APIKeys(tx).Upsert(ctx, &v)
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("migrate user %s: %w", userID, err)
	}

	s.logger.Info(ctx, "migration finished", "user_id", userID, "records", report.Total(), "dry_run", dryRun)
	return report, nil
}

// reseal decrypts what it can with the strict policy, so a record sealed
// under another key aborts the run instead of being half rewritten.
func reseal[T fieldcrypt.Sensitive](ctx context.Context, s *MigrationService, report MigrationReport, kind fieldcrypt.Kind, stored T, key cryptox.Key, dryRun bool, save func(T) error) error {
	if !fieldcrypt.NeedsMigration(kind, stored) {
		return nil
	}
	report[kind]++
	if dryRun {
		return nil
	}

	opened, err := fieldcrypt.Open(ctx, s.codec, kind, stored, key, fieldcrypt.Propagate)
	if err != nil {
		return err
	}
	sealed, err := fieldcrypt.Seal(ctx, s.codec, kind, opened, key)
	if err != nil {
		return err
	}
	return save(sealed)
}
