package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wanderlust/wanderlust/config"
	"github.com/wanderlust/wanderlust/database/model"
	"github.com/wanderlust/wanderlust/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// SQLStore implements Store on top of gorm.
type SQLStore struct {
	db     *gorm.DB
	sqlite bool
}

// OpenSQL opens a SQLite file or a PostgreSQL database.
func OpenSQL(cfg *config.DatabaseConfig) (*SQLStore, error) {
	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	c := &gorm.Config{
		Logger:                                   gormLogger,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case config.DatabaseTypePostgreSQL:
		dialector = postgres.Open(cfg.DSN)
	case config.DatabaseTypeSQLite:
		if err := cfg.EnsureDirectoryExists(); err != nil {
			return nil, err
		}
		dsn := cfg.DSN
		if strings.Contains(dsn, "?") {
			dsn += "&"
		} else {
			dsn += "?"
		}
		dsn += "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.New("unsupported sql database type: " + string(cfg.Type))
	}

	db, err := gorm.Open(dialector, c)
	if err != nil {
		return nil, err
	}

	if cfg.IsSQLite() {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		for _, pragma := range []string{
			"PRAGMA cache_size = -64000;",
			"PRAGMA temp_store = MEMORY;",
		} {
			if _, err := sqlDB.Exec(pragma); err != nil {
				return nil, err
			}
		}
	}

	return &SQLStore{db: db, sqlite: cfg.IsSQLite()}, nil
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	models := []any{
		&model.User{},
		&model.Listing{},
		&model.Review{},
		&model.Session{},
	}
	for _, m := range models {
		if err := s.db.WithContext(ctx).AutoMigrate(m); err != nil {
			logger.Errorf("Error auto migrating model: %v", err)
			return err
		}
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s.sqlite {
		if err := s.db.Exec("PRAGMA wal_checkpoint;").Error; err != nil {
			logger.Warning("error executing checkpoint:", err)
		}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the underlying gorm handle.
func (s *SQLStore) DB() *gorm.DB {
	return s.db
}

func (s *SQLStore) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateSQLError(err)
	}
	return nil
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *SQLStore) findUser(ctx context.Context, query string, arg string) (*model.User, error) {
	user := &model.User{}
	if err := s.db.WithContext(ctx).Where(query, arg).First(user).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return user, nil
}

func (s *SQLStore) ListListings(ctx context.Context) ([]*model.Listing, error) {
	var listings []*model.Listing
	err := s.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *SQLStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	listing := &model.Listing{}
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(listing).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return listing, nil
}

func (s *SQLStore) GetListingDetail(ctx context.Context, id string) (*model.Listing, error) {
	listing := &model.Listing{}
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(listing).Error
	if err != nil {
		return nil, translateSQLError(err)
	}
	return listing, nil
}

func (s *SQLStore) CreateListing(ctx context.Context, listing *model.Listing) error {
	return translateSQLError(s.db.WithContext(ctx).Omit(clause.Associations).Create(listing).Error)
}

func (s *SQLStore) UpdateListing(ctx context.Context, listing *model.Listing) error {
	listing.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).
		Model(&model.Listing{Id: listing.Id}).
		Select("title", "description", "image_url", "image_filename", "price", "location", "country", "updated_at").
		Updates(listing)
	if res.Error != nil {
		return translateSQLError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteListing(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Listing{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (s *SQLStore) DeleteAllListings(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Review{}).Error; err != nil {
			return err
		}
		res := tx.Where("1 = 1").Delete(&model.Listing{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

func (s *SQLStore) AddReview(ctx context.Context, listingId string, review *model.Review) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing := &model.Listing{}
		if err := tx.Select("id").Where("id = ?", listingId).First(listing).Error; err != nil {
			return translateSQLError(err)
		}

		var count int64
		if err := tx.Model(&model.Review{}).Where("listing_id = ?", listingId).Count(&count).Error; err != nil {
			return err
		}
		review.ListingId = listingId
		review.Position = int(count)
		if err := tx.Create(review).Error; err != nil {
			return translateSQLError(err)
		}
		return tx.Model(&model.Listing{}).Where("id = ?", listingId).Update("updated_at", time.Now()).Error
	})
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(session).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return session, nil
}

func (s *SQLStore) SaveSession(ctx context.Context, session *model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(session).Error
}

func (s *SQLStore) DeleteSession(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Session{}).Error
}

func (s *SQLStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.Session{})
	return res.RowsAffected, res.Error
}

func translateSQLError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") {
		return &DuplicateError{Field: duplicateField(msg)}
	}
	return err
}

// duplicateField guesses the colliding column from the driver message.
func duplicateField(msg string) string {
	if strings.Contains(msg, "email") {
		return "email"
	}
	return "username"
}
