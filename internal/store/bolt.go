package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/types"
	bolt "go.etcd.io/bbolt"
)

var (
	usersBucket       = []byte("users")
	userEmailsBucket  = []byte("user_emails")
	userTokensBucket  = []byte("user_tokens")
	userAPIKeysBucket = []byte("user_api_keys")
	schemasBucket     = []byte("schemas")
	datasetsBucket    = []byte("datasets")
	datasetDataBucket = []byte("dataset_data")
)

// Bolt stores JSON documents in a single bbolt file. User lookups by email,
// token hash and API-key hash go through index buckets; records live apart
// from dataset metadata so listings never decode them.
type Bolt struct {
	db *bolt.DB
}

// openTimeout bounds the wait for the file lock held by another process.
const openTimeout = time.Second

func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("failed to open bbolt database %s (locked by another process; is `datagen serve` running?): %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{
			usersBucket, userEmailsBucket, userTokensBucket, userAPIKeysBucket,
			schemasBucket, datasetsBucket, datasetDataBucket,
		} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[STORAGE] Bbolt storage initialized at %s", path)
	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func put(tx *bolt.Tx, bucket []byte, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", bucket, key, err)
	}
	return tx.Bucket(bucket).Put([]byte(key), data)
}

func get(tx *bolt.Tx, bucket []byte, key string, v any) error {
	data := tx.Bucket(bucket).Get([]byte(key))
	if data == nil {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", bucket, key, err)
	}
	return nil
}

func exists(tx *bolt.Tx, bucket []byte, key string) bool {
	return tx.Bucket(bucket).Get([]byte(key)) != nil
}

// userDoc carries the hashes that the API representation hides.
type userDoc struct {
	types.User
	TokenHash  string `json:"tokenHash"`
	APIKeyHash string `json:"apiKeyHash,omitempty"`
}

func (d userDoc) user() *types.User {
	u := d.User
	u.TokenHash = d.TokenHash
	u.APIKeyHash = d.APIKeyHash
	return &u
}

func setIndex(tx *bolt.Tx, bucket []byte, oldKey, newKey, id string) error {
	if oldKey == newKey {
		return nil
	}
	if oldKey != "" {
		if err := tx.Bucket(bucket).Delete([]byte(oldKey)); err != nil {
			return err
		}
	}
	if newKey != "" {
		return tx.Bucket(bucket).Put([]byte(newKey), []byte(id))
	}
	return nil
}

func (b *Bolt) CreateUser(_ context.Context, u *types.User) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if exists(tx, usersBucket, u.ID) || exists(tx, userEmailsBucket, u.Email) {
			return ErrDuplicate
		}
		if err := put(tx, usersBucket, u.ID, userDoc{User: *u, TokenHash: u.TokenHash, APIKeyHash: u.APIKeyHash}); err != nil {
			return err
		}
		if err := setIndex(tx, userEmailsBucket, "", u.Email, u.ID); err != nil {
			return err
		}
		if err := setIndex(tx, userTokensBucket, "", u.TokenHash, u.ID); err != nil {
			return err
		}
		return setIndex(tx, userAPIKeysBucket, "", u.APIKeyHash, u.ID)
	})
}

func (b *Bolt) GetUser(_ context.Context, id string) (*types.User, error) {
	var doc userDoc
	err := b.db.View(func(tx *bolt.Tx) error {
		return get(tx, usersBucket, id, &doc)
	})
	if err != nil {
		return nil, err
	}
	return doc.user(), nil
}

func (b *Bolt) userByIndex(bucket []byte, key string) (*types.User, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	var doc userDoc
	err := b.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucket).Get([]byte(key))
		if id == nil {
			return ErrNotFound
		}
		return get(tx, usersBucket, string(id), &doc)
	})
	if err != nil {
		return nil, err
	}
	return doc.user(), nil
}

func (b *Bolt) GetUserByEmail(_ context.Context, email string) (*types.User, error) {
	return b.userByIndex(userEmailsBucket, email)
}

func (b *Bolt) GetUserByTokenHash(_ context.Context, hash string) (*types.User, error) {
	return b.userByIndex(userTokensBucket, hash)
}

func (b *Bolt) GetUserByAPIKeyHash(_ context.Context, hash string) (*types.User, error) {
	return b.userByIndex(userAPIKeysBucket, hash)
}

func (b *Bolt) UpdateUser(_ context.Context, u *types.User) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		var old userDoc
		if err := get(tx, usersBucket, u.ID, &old); err != nil {
			return err
		}
		if err := put(tx, usersBucket, u.ID, userDoc{User: *u, TokenHash: u.TokenHash, APIKeyHash: u.APIKeyHash}); err != nil {
			return err
		}
		if err := setIndex(tx, userEmailsBucket, old.Email, u.Email, u.ID); err != nil {
			return err
		}
		if err := setIndex(tx, userTokensBucket, old.TokenHash, u.TokenHash, u.ID); err != nil {
			return err
		}
		return setIndex(tx, userAPIKeysBucket, old.APIKeyHash, u.APIKeyHash, u.ID)
	})
}

// IncrementUsage rewrites only the stored usage; the index buckets are left
// alone.
func (b *Bolt) IncrementUsage(_ context.Context, id string, datasets, apiCalls int, lastCall *time.Time) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		var doc userDoc
		if err := get(tx, usersBucket, id, &doc); err != nil {
			return err
		}
		doc.Usage.DatasetsCreated += datasets
		doc.Usage.APICallsMade += apiCalls
		if lastCall != nil {
			t := *lastCall
			doc.Usage.LastAPICall = &t
		}
		return put(tx, usersBucket, id, doc)
	})
}

func (b *Bolt) CreateSchema(_ context.Context, s *types.Schema) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if exists(tx, schemasBucket, s.ID) {
			return ErrDuplicate
		}
		return put(tx, schemasBucket, s.ID, s)
	})
}

func (b *Bolt) GetSchema(_ context.Context, id string) (*types.Schema, error) {
	var s types.Schema
	err := b.db.View(func(tx *bolt.Tx) error {
		return get(tx, schemasBucket, id, &s)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (b *Bolt) ListSchemas(_ context.Context, userID string) ([]*types.Schema, error) {
	list := []*types.Schema{}
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(schemasBucket).ForEach(func(k, v []byte) error {
			var s types.Schema
			if err := json.Unmarshal(v, &s); err != nil {
				log.Printf("[STORAGE] Warning: Failed to decode schema %s: %v", k, err)
				return nil
			}
			if s.UserID == userID {
				list = append(list, &s)
			}
			return nil
		})
	})
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, err
}

func (b *Bolt) CountSchemas(ctx context.Context, userID string) (int, error) {
	list, err := b.ListSchemas(ctx, userID)
	return len(list), err
}

func (b *Bolt) UpdateSchema(_ context.Context, s *types.Schema) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if !exists(tx, schemasBucket, s.ID) {
			return ErrNotFound
		}
		return put(tx, schemasBucket, s.ID, s)
	})
}

func (b *Bolt) DeleteSchema(_ context.Context, id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if !exists(tx, schemasBucket, id) {
			return ErrNotFound
		}
		return tx.Bucket(schemasBucket).Delete([]byte(id))
	})
}

func (b *Bolt) putDataset(tx *bolt.Tx, d *types.Dataset) error {
	if err := put(tx, datasetsBucket, d.ID, d.Summary()); err != nil {
		return err
	}
	if d.Data == nil {
		return tx.Bucket(datasetDataBucket).Delete([]byte(d.ID))
	}
	return put(tx, datasetDataBucket, d.ID, d.Data)
}

func (b *Bolt) CreateDataset(_ context.Context, d *types.Dataset) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if exists(tx, datasetsBucket, d.ID) {
			return ErrDuplicate
		}
		return b.putDataset(tx, d)
	})
}

func (b *Bolt) GetDataset(_ context.Context, id string) (*types.Dataset, error) {
	var d types.Dataset
	err := b.db.View(func(tx *bolt.Tx) error {
		if err := get(tx, datasetsBucket, id, &d); err != nil {
			return err
		}
		var data []generator.Record
		if err := get(tx, datasetDataBucket, id, &data); err != nil && err != ErrNotFound {
			return err
		}
		d.Data = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (b *Bolt) ListDatasets(_ context.Context, userID string) ([]*types.Dataset, error) {
	list := []*types.Dataset{}
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(datasetsBucket).ForEach(func(k, v []byte) error {
			var d types.Dataset
			if err := json.Unmarshal(v, &d); err != nil {
				log.Printf("[STORAGE] Warning: Failed to decode dataset %s: %v", k, err)
				return nil
			}
			if d.UserID == userID {
				list = append(list, &d)
			}
			return nil
		})
	})
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].GeneratedAt.After(list[j].GeneratedAt)
	})
	return list, err
}

func (b *Bolt) CountDatasets(ctx context.Context, userID, schemaID string) (int, error) {
	list, err := b.ListDatasets(ctx, userID)
	n := 0
	for _, d := range list {
		if d.SchemaID == schemaID {
			n++
		}
	}
	return n, err
}

func (b *Bolt) UpdateDataset(_ context.Context, d *types.Dataset) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if !exists(tx, datasetsBucket, d.ID) {
			return ErrNotFound
		}
		return b.putDataset(tx, d)
	})
}

func (b *Bolt) DeleteDataset(_ context.Context, id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if !exists(tx, datasetsBucket, id) {
			return ErrNotFound
		}
		if err := tx.Bucket(datasetDataBucket).Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(datasetsBucket).Delete([]byte(id))
	})
}
