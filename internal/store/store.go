package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/config"
	"github.com/Lumos-Labs-HQ/datagen/internal/types"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Store persists users, schemas and datasets. Lists are ordered newest first.
// Returned values are copies; callers may modify them freely.
type Store interface {
	CreateUser(ctx context.Context, u *types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByTokenHash(ctx context.Context, hash string) (*types.User, error)
	GetUserByAPIKeyHash(ctx context.Context, hash string) (*types.User, error)
	UpdateUser(ctx context.Context, u *types.User) error
	// IncrementUsage adds to the usage counters and, when lastCall is set,
	// records it as the last API call. Nothing else on the user changes.
	IncrementUsage(ctx context.Context, id string, datasets, apiCalls int, lastCall *time.Time) error

	CreateSchema(ctx context.Context, s *types.Schema) error
	GetSchema(ctx context.Context, id string) (*types.Schema, error)
	ListSchemas(ctx context.Context, userID string) ([]*types.Schema, error)
	CountSchemas(ctx context.Context, userID string) (int, error)
	UpdateSchema(ctx context.Context, s *types.Schema) error
	DeleteSchema(ctx context.Context, id string) error

	// GetDataset includes the records; ListDatasets does not.
	CreateDataset(ctx context.Context, d *types.Dataset) error
	GetDataset(ctx context.Context, id string) (*types.Dataset, error)
	ListDatasets(ctx context.Context, userID string) ([]*types.Dataset, error)
	CountDatasets(ctx context.Context, userID, schemaID string) (int, error)
	UpdateDataset(ctx context.Context, d *types.Dataset) error
	DeleteDataset(ctx context.Context, id string) error

	Close() error
}

// Open returns the store selected by cfg.Storage.Provider.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Provider {
	case config.ProviderMemory, "":
		log.Printf("[STORAGE] Using in-memory storage")
		return NewMemory(), nil
	case config.ProviderBolt:
		return NewBolt(cfg.Storage.Path)
	case config.ProviderMongoDB:
		url, err := cfg.GetStorageURL()
		if err != nil {
			return nil, err
		}
		return NewMongo(ctx, url, cfg.Storage.Database)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Storage.Provider)
	}
}

func cloneUser(u *types.User) *types.User {
	c := *u
	if u.Usage.LastAPICall != nil {
		t := *u.Usage.LastAPICall
		c.Usage.LastAPICall = &t
	}
	return &c
}

func cloneSchema(s *types.Schema) *types.Schema {
	c := *s
	c.Fields = append(c.Fields[:0:0], s.Fields...)
	return &c
}

func cloneDataset(d *types.Dataset, withData bool) *types.Dataset {
	c := *d
	if withData && d.Data != nil {
		c.Data = append(c.Data[:0:0], d.Data...)
	} else {
		c.Data = nil
	}
	return &c
}
