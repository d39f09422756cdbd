package config

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the shared Postgres database. TranslateError is on so
// unique-index violations surface as gorm.ErrDuplicatedKey; the digest
// record's composite unique index is the real at-most-once guarantee and the
// store needs to recognize when it fires.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// The dispatcher is single-threaded; keep the pool small.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
