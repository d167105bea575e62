// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package connectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rapidaai/recorder/pkg/commons"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// SqliteConnector wraps the gorm handle to the metadata database.
type SqliteConnector interface {
	Database() *gorm.DB
	Ping(ctx context.Context) error
	Migrate(models ...interface{}) error
	Close() error
}

type sqliteConnector struct {
	logger commons.Logger
	db     *gorm.DB
}

// NewSqliteConnector opens (creating if needed) the sqlite database at path.
func NewSqliteConnector(logger commons.Logger, path string) (SqliteConnector, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("unable to create database directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	logger.Infof("sqlite database connected at %s", path)
	return &sqliteConnector{logger: logger, db: db}, nil
}

func (c *sqliteConnector) Database() *gorm.DB {
	return c.db
}

func (c *sqliteConnector) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *sqliteConnector) Migrate(models ...interface{}) error {
	return c.db.AutoMigrate(models...)
}

func (c *sqliteConnector) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
