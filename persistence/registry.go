package persistence

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// DialectorOpener is an alias for a function that returns a gorm.Dialector for a given DSN.
type DialectorOpener = func(string) gorm.Dialector

var (
	registryMu sync.RWMutex
	providers  = make(map[string]DialectorOpener)
)

// Register adds a new storage provider to the registry.
func Register(name string, opener DialectorOpener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	providers[name] = opener
}

// NewStorage opens the database registered under name and migrates the schema.
func NewStorage(name string, dsn string, gormConfig *gorm.Config) (*Repository, error) {
	registryMu.RLock()
	opener, ok := providers[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("persistence: unknown storage provider %q", name)
	}

	if gormConfig == nil {
		gormConfig = &gorm.Config{}
	}

	db, err := gorm.Open(opener(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", name, err)
	}

	repo := NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("persistence: migrate: %w", err)
	}

	return repo, nil
}
