package backend

import (
	"fmt"
	"time"

	"meinbudget/internal/config"
)

// StoreType selects the record store implementation.
type StoreType string

const (
	SQLiteStore StoreType = config.BackendSQLite
	MemoryStore StoreType = config.BackendMemory
)

// SyncTarget selects the outbound publisher.
type SyncTarget string

const (
	SyncNone   SyncTarget = config.SyncTargetNone
	SyncAMQP   SyncTarget = config.SyncTargetAMQP
	SyncSheets SyncTarget = config.SyncTargetSheets
)

type Config struct {
	Store        StoreType
	SQLiteDBPath string

	Sync         SyncTarget
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// ConnectTimeout bounds publisher setup.
	ConnectTimeout time.Duration
}

func (st StoreType) String() string { return string(st) }

func (st StoreType) IsValid() bool {
	switch st {
	case SQLiteStore, MemoryStore:
		return true
	}
	return false
}

func (t SyncTarget) IsValid() bool {
	switch t {
	case SyncNone, SyncAMQP, SyncSheets, "":
		return true
	}
	return false
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Store:        StoreType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,

		Sync:         SyncTarget(appConfig.SyncTarget),
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,

		ConnectTimeout: 30 * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Store.IsValid() {
		return fmt.Errorf("invalid store type: %s", c.Store)
	}
	if c.Store == SQLiteStore && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite store")
	}
	if !c.Sync.IsValid() {
		return fmt.Errorf("invalid sync target: %s", c.Sync)
	}
	switch c.Sync {
	case SyncAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP URL is required for amqp sync")
		}
	case SyncSheets:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets sync")
		}
	}
	return nil
}
