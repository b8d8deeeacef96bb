package infrastructure

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ledger-service/internal/adapter/db/postgres"
	"ledger-service/internal/config"
	"ledger-service/migrations"
)

// MigrationTableName records applied goose versions.
const MigrationTableName = "schema_migrations"

// gooseLogger forwards goose output to zap. Fatalf does not exit; the error
// reaches the caller through the goose return value.
type gooseLogger struct {
	log *zap.SugaredLogger
}

func (g gooseLogger) Printf(format string, v ...any) { g.log.Infof(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...any) { g.log.Errorf(format, v...) }

// Migrate brings the schema up to date. PostgreSQL runs the embedded goose
// migrations; sqlite, used for local runs, is migrated from the GORM models.
func Migrate(ctx context.Context, db *gorm.DB, driver string, l *zap.Logger) error {
	if driver == config.DriverSQLite {
		if err := db.WithContext(ctx).AutoMigrate(&postgres.UserSchema{}, &postgres.EntrySchema{}); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
		l.Info("sqlite schema migrated")
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(MigrationTableName)
	goose.SetLogger(gooseLogger{log: l.Named("goose").Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	l.Info("database migrated", zap.Int64("version", version))
	return nil
}
