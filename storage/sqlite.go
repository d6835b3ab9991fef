package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/opd-ai/noise-mobile-go/crypto"
)

// identityRecord is a stored identity key row.
type identityRecord struct {
	ID        string `gorm:"primarykey"`
	Key       []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (identityRecord) TableName() string { return "identities" }

// sessionRecord is a stored session blob row.
type sessionRecord struct {
	ID        string `gorm:"primarykey"`
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (sessionRecord) TableName() string { return "sessions" }

// SQLiteKeyStorage persists identities and session blobs in a SQLite
// database, the natural on-device store on iOS and Android. GORM's
// connection pool makes the backend safe for concurrent use.
//
// SQLite cannot scrub freed pages, so the wipe-on-overwrite contract is
// honored for the in-memory copies this process handles; at-rest
// confidentiality relies on file permissions or full-disk encryption.
// Hosts that need stronger at-rest guarantees should use
// EncryptedFileKeyStorage or a platform keychain.
type SQLiteKeyStorage struct {
	db *gorm.DB
}

// NewSQLiteKeyStorage opens (or creates) the database at path and runs
// migrations.
func NewSQLiteKeyStorage(path string) (*SQLiteKeyStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open key database: %w", err)
	}

	if err := db.AutoMigrate(&identityRecord{}, &sessionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate key database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"path": path,
	}).Debug("SQLite key storage opened")

	return &SQLiteKeyStorage{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteKeyStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StoreIdentity saves a 32-byte identity key under id.
func (s *SQLiteKeyStorage) StoreIdentity(key []byte, id string) error {
	if len(key) != IdentityKeyLen {
		return fmt.Errorf("%w: identity key must be %d bytes, got %d",
			ErrInvalidParameter, IdentityKeyLen, len(key))
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var prior identityRecord
		err := tx.First(&prior, "id = ?", id).Error
		switch {
		case err == nil:
			crypto.ZeroBytes(prior.Key)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to read prior identity: %w", err)
		}

		record := identityRecord{ID: id, Key: append([]byte(nil), key...)}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to store identity: %w", err)
		}
		return nil
	})
}

// LoadIdentity returns a copy of the identity key stored under id.
func (s *SQLiteKeyStorage) LoadIdentity(id string) ([]byte, error) {
	var record identityRecord
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown identity %q", ErrInvalidParameter, id)
		}
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	return record.Key, nil
}

// DeleteIdentity removes the identity stored under id.
func (s *SQLiteKeyStorage) DeleteIdentity(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var prior identityRecord
		err := tx.First(&prior, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read prior identity: %w", err)
		}
		crypto.ZeroBytes(prior.Key)
		if err := tx.Delete(&identityRecord{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete identity: %w", err)
		}
		return nil
	})
}

// ListIdentities returns all identity identifiers.
func (s *SQLiteKeyStorage) ListIdentities() ([]string, error) {
	var ids []string
	if err := s.db.Model(&identityRecord{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	return ids, nil
}

// HasIdentity reports whether an identity is stored under id.
func (s *SQLiteKeyStorage) HasIdentity(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&identityRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to probe identity: %w", err)
	}
	return count > 0, nil
}

// StoreSession saves a session blob under id.
func (s *SQLiteKeyStorage) StoreSession(data []byte, id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var prior sessionRecord
		err := tx.First(&prior, "id = ?", id).Error
		switch {
		case err == nil:
			crypto.ZeroBytes(prior.Data)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to read prior session: %w", err)
		}

		record := sessionRecord{ID: id, Data: append([]byte(nil), data...)}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}
		return nil
	})
}

// LoadSession returns a copy of the session blob stored under id.
func (s *SQLiteKeyStorage) LoadSession(id string) ([]byte, error) {
	var record sessionRecord
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown session %q", ErrInvalidParameter, id)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return record.Data, nil
}

// DeleteSession removes the session blob stored under id.
func (s *SQLiteKeyStorage) DeleteSession(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var prior sessionRecord
		err := tx.First(&prior, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read prior session: %w", err)
		}
		crypto.ZeroBytes(prior.Data)
		if err := tx.Delete(&sessionRecord{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// ListSessions returns all session identifiers.
func (s *SQLiteKeyStorage) ListSessions() ([]string, error) {
	var ids []string
	if err := s.db.Model(&sessionRecord{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// HasSession reports whether a session blob is stored under id.
func (s *SQLiteKeyStorage) HasSession(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&sessionRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to probe session: %w", err)
	}
	return count > 0, nil
}
