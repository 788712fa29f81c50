package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viepratiqueservice-arch/Visela/internal/readmodel"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// document is one read model row. Read models are stored as JSONB so a new
// projection does not need a migration.
type document struct {
	Collection string    `gorm:"primaryKey;size:64"`
	ID         string    `gorm:"primaryKey;size:128"`
	Data       []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (document) TableName() string { return "read_models" }

// GormConfig holds the connection settings for OpenGorm.
type GormConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        gormlogger.LogLevel
}

// GormLogLevel maps a config level name to gorm's logger level. Unknown names
// fall back to warn.
func GormLogLevel(name string) gormlogger.LogLevel {
	switch strings.ToLower(name) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// OpenGorm connects to PostgreSQL through gorm and applies pool settings.
func OpenGorm(cfg GormConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(cfg.LogLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// GormReadStore keeps read models in PostgreSQL.
type GormReadStore struct {
	db *gorm.DB
}

func NewGormReadStore(db *gorm.DB) *GormReadStore {
	return &GormReadStore{db: db}
}

// Migrate creates the read_models table.
func (rs *GormReadStore) Migrate() error {
	if err := rs.db.AutoMigrate(&document{}); err != nil {
		return fmt.Errorf("failed to migrate read models: %w", err)
	}
	return nil
}

func (rs *GormReadStore) Set(collection, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	doc := document{Collection: collection, ID: id, Data: raw, UpdatedAt: time.Now()}
	return rs.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&doc).Error
}

func (rs *GormReadStore) Get(collection, id string) (any, bool, error) {
	var doc document
	err := rs.db.Where("collection = ? AND id = ?", collection, id).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	model, err := decode(collection, doc.Data)
	if err != nil {
		return nil, false, err
	}
	return model, true, nil
}

func (rs *GormReadStore) GetAll(collection string) ([]any, error) {
	var docs []document
	if err := rs.db.Where("collection = ?", collection).Order("updated_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	items := make([]any, 0, len(docs))
	for _, doc := range docs {
		model, err := decode(collection, doc.Data)
		if err != nil {
			return nil, err
		}
		items = append(items, model)
	}
	return items, nil
}

func (rs *GormReadStore) Delete(collection, id string) error {
	return rs.db.Where("collection = ? AND id = ?", collection, id).Delete(&document{}).Error
}

// Update runs read-modify-write under a row lock so concurrent projectors
// cannot lose each other's changes.
func (rs *GormReadStore) Update(collection, id string, updateFn func(current any) any) (bool, error) {
	found := false
	err := rs.db.Transaction(func(tx *gorm.DB) error {
		var doc document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND id = ?", collection, id).
			Take(&doc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current, err := decode(collection, doc.Data)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(updateFn(current))
		if err != nil {
			return err
		}
		found = true
		return tx.Model(&document{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{"data": raw, "updated_at": time.Now()}).Error
	})
	return found, err
}

func decode(collection string, raw []byte) (any, error) {
	model := readmodel.New(collection)
	if model == nil {
		var generic map[string]any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, err
		}
		return generic, nil
	}
	if err := json.Unmarshal(raw, model); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", collection, err)
	}
	return model, nil
}
