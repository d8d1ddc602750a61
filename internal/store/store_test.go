package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/config"
	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/types"
)

// storeTestSuite runs the same behaviour checks against any Store implementation.
func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Users", func(t *testing.T) {
		s := newStore(t)

		u := &types.User{
			ID:        "u1",
			Email:     "ada@example.com",
			Tier:      types.TierFree,
			TokenHash: "tok-hash",
			CreatedAt: base,
			UpdatedAt: base,
		}
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		dup := *u
		dup.ID = "u2"
		if err := s.CreateUser(ctx, &dup); !errors.Is(err, ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate for repeated email, got %v", err)
		}

		got, err := s.GetUser(ctx, "u1")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if got.Email != u.Email || got.TokenHash != "tok-hash" {
			t.Errorf("Unexpected user %+v", got)
		}

		if _, err := s.GetUserByEmail(ctx, "ada@example.com"); err != nil {
			t.Errorf("GetUserByEmail failed: %v", err)
		}
		if _, err := s.GetUserByTokenHash(ctx, "tok-hash"); err != nil {
			t.Errorf("GetUserByTokenHash failed: %v", err)
		}
		if _, err := s.GetUserByAPIKeyHash(ctx, ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for empty key hash, got %v", err)
		}

		now := base.Add(time.Hour)
		got.APIKeyHash = "key-hash"
		got.TokenHash = "tok-hash-2"
		got.Usage.APICallsMade = 3
		got.Usage.LastAPICall = &now
		if err := s.UpdateUser(ctx, got); err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}

		byKey, err := s.GetUserByAPIKeyHash(ctx, "key-hash")
		if err != nil {
			t.Fatalf("GetUserByAPIKeyHash failed: %v", err)
		}
		if byKey.Usage.APICallsMade != 3 || byKey.Usage.LastAPICall == nil || !byKey.Usage.LastAPICall.Equal(now) {
			t.Errorf("Usage not persisted: %+v", byKey.Usage)
		}
		if _, err := s.GetUserByTokenHash(ctx, "tok-hash"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected old token hash to be gone, got %v", err)
		}

		missing := &types.User{ID: "nobody"}
		if err := s.UpdateUser(ctx, missing); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound updating unknown user, got %v", err)
		}
	})

	t.Run("IncrementUsage", func(t *testing.T) {
		s := newStore(t)

		u := &types.User{ID: "u1", Email: "ada@example.com", TokenHash: "tok", APIKeyHash: "key"}
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		// A key change written after the caller's read must survive a counter bump.
		changed := *u
		changed.APIKeyHash = ""
		if err := s.UpdateUser(ctx, &changed); err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}

		when := base.Add(2 * time.Hour)
		if err := s.IncrementUsage(ctx, "u1", 0, 1, &when); err != nil {
			t.Fatalf("IncrementUsage failed: %v", err)
		}
		if err := s.IncrementUsage(ctx, "u1", 2, 1, nil); err != nil {
			t.Fatalf("IncrementUsage failed: %v", err)
		}

		got, err := s.GetUser(ctx, "u1")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if got.APIKeyHash != "" {
			t.Errorf("Expected API key hash to stay cleared, got %q", got.APIKeyHash)
		}
		if got.Usage.APICallsMade != 2 || got.Usage.DatasetsCreated != 2 {
			t.Errorf("Expected 2 calls and 2 datasets, got %+v", got.Usage)
		}
		if got.Usage.LastAPICall == nil || !got.Usage.LastAPICall.Equal(when) {
			t.Errorf("Expected last call %v, got %v", when, got.Usage.LastAPICall)
		}
		if _, err := s.GetUserByAPIKeyHash(ctx, "key"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected revoked key hash to stay unindexed, got %v", err)
		}
		if _, err := s.GetUserByTokenHash(ctx, "tok"); err != nil {
			t.Errorf("Expected token lookup to keep working, got %v", err)
		}

		if err := s.IncrementUsage(ctx, "nobody", 1, 0, nil); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
		}
	})

	t.Run("Schemas", func(t *testing.T) {
		s := newStore(t)

		fields := []generator.FieldSpec{
			{Name: "id", DataType: generator.TypeUUID},
			{Name: "age", DataType: generator.TypeNumber, Options: &generator.Options{
				Min: generator.NumberBound(18),
				Max: generator.NumberBound(65),
			}},
		}
		for i, id := range []string{"s1", "s2", "s3"} {
			sc := &types.Schema{
				ID:        id,
				UserID:    "u1",
				Name:      id,
				Fields:    fields,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			if err := s.CreateSchema(ctx, sc); err != nil {
				t.Fatalf("CreateSchema(%s) failed: %v", id, err)
			}
		}
		other := &types.Schema{ID: "s4", UserID: "u2", Name: "other", CreatedAt: base}
		if err := s.CreateSchema(ctx, other); err != nil {
			t.Fatalf("CreateSchema failed: %v", err)
		}
		if err := s.CreateSchema(ctx, other); !errors.Is(err, ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}

		list, err := s.ListSchemas(ctx, "u1")
		if err != nil {
			t.Fatalf("ListSchemas failed: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("Expected 3 schemas, got %d", len(list))
		}
		if list[0].ID != "s3" || list[2].ID != "s1" {
			t.Errorf("Expected newest first, got %s..%s", list[0].ID, list[2].ID)
		}

		n, err := s.CountSchemas(ctx, "u1")
		if err != nil || n != 3 {
			t.Errorf("Expected count 3, got %d (%v)", n, err)
		}

		got, err := s.GetSchema(ctx, "s1")
		if err != nil {
			t.Fatalf("GetSchema failed: %v", err)
		}
		if len(got.Fields) != 2 || got.Fields[1].Options == nil {
			t.Fatalf("Fields not persisted: %+v", got.Fields)
		}
		if v, ok := got.Fields[1].Options.Max.Float(); !ok || v != 65 {
			t.Errorf("Expected max bound 65, got %v", v)
		}

		got.Name = "renamed"
		if err := s.UpdateSchema(ctx, got); err != nil {
			t.Fatalf("UpdateSchema failed: %v", err)
		}
		again, _ := s.GetSchema(ctx, "s1")
		if again.Name != "renamed" {
			t.Errorf("Expected renamed schema, got %s", again.Name)
		}

		if err := s.DeleteSchema(ctx, "s1"); err != nil {
			t.Fatalf("DeleteSchema failed: %v", err)
		}
		if _, err := s.GetSchema(ctx, "s1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := s.DeleteSchema(ctx, "s1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("Datasets", func(t *testing.T) {
		s := newStore(t)

		var rec generator.Record
		rec.Set("name", "Ada")
		rec.Set("age", int64(36))
		rec.Set("active", true)
		rec.Set("note", nil)

		d := &types.Dataset{
			ID:          "d1",
			SchemaID:    "s1",
			UserID:      "u1",
			Name:        "first",
			RowCount:    1,
			GeneratedAt: base,
			Status:      types.StatusGenerating,
		}
		if err := s.CreateDataset(ctx, d); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}

		d.Status = types.StatusReady
		d.Data = []generator.Record{rec}
		if err := s.UpdateDataset(ctx, d); err != nil {
			t.Fatalf("UpdateDataset failed: %v", err)
		}

		second := &types.Dataset{ID: "d2", SchemaID: "s2", UserID: "u1", GeneratedAt: base.Add(time.Minute)}
		if err := s.CreateDataset(ctx, second); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}

		got, err := s.GetDataset(ctx, "d1")
		if err != nil {
			t.Fatalf("GetDataset failed: %v", err)
		}
		if got.Status != types.StatusReady || len(got.Data) != 1 {
			t.Fatalf("Unexpected dataset %+v", got)
		}
		keys := got.Data[0].Keys()
		want := []string{"name", "age", "active", "note"}
		if len(keys) != len(want) {
			t.Fatalf("Expected keys %v, got %v", want, keys)
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Errorf("Expected key %d to be %s, got %s", i, want[i], keys[i])
			}
		}
		if age, _ := got.Data[0].Get("age"); age != int64(36) {
			t.Errorf("Expected age int64(36), got %#v", age)
		}

		list, err := s.ListDatasets(ctx, "u1")
		if err != nil {
			t.Fatalf("ListDatasets failed: %v", err)
		}
		if len(list) != 2 || list[0].ID != "d2" {
			t.Fatalf("Expected 2 datasets newest first, got %+v", list)
		}
		for _, item := range list {
			if item.Data != nil {
				t.Errorf("Expected listing without data for %s", item.ID)
			}
		}

		n, err := s.CountDatasets(ctx, "u1", "s1")
		if err != nil || n != 1 {
			t.Errorf("Expected 1 dataset for s1, got %d (%v)", n, err)
		}

		if err := s.DeleteDataset(ctx, "d1"); err != nil {
			t.Fatalf("DeleteDataset failed: %v", err)
		}
		if _, err := s.GetDataset(ctx, "d1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("ReturnsCopies", func(t *testing.T) {
		s := newStore(t)

		sc := &types.Schema{ID: "s1", UserID: "u1", Name: "orig", Fields: []generator.FieldSpec{{Name: "a", DataType: generator.TypeString}}}
		if err := s.CreateSchema(ctx, sc); err != nil {
			t.Fatalf("CreateSchema failed: %v", err)
		}
		sc.Name = "mutated"

		got, _ := s.GetSchema(ctx, "s1")
		got.Fields[0].Name = "mutated"

		again, _ := s.GetSchema(ctx, "s1")
		if again.Name != "orig" || again.Fields[0].Name != "a" {
			t.Errorf("Store returned shared state: %+v", again)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeTestSuite(t, func(t *testing.T) Store {
		return NewMemory()
	})
}

func TestBoltStore(t *testing.T) {
	storeTestSuite(t, func(t *testing.T) Store {
		s, err := NewBolt(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("failed to open bolt store: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestBoltStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := NewBolt(path)
	if err != nil {
		t.Fatalf("failed to open bolt store: %v", err)
	}
	if err := s.CreateUser(ctx, &types.User{ID: "u1", Email: "a@b.c", TokenHash: "h"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	s.Close()

	s, err = NewBolt(path)
	if err != nil {
		t.Fatalf("failed to reopen bolt store: %v", err)
	}
	defer s.Close()

	u, err := s.GetUserByTokenHash(ctx, "h")
	if err != nil {
		t.Fatalf("Expected user after reopen, got %v", err)
	}
	if u.Email != "a@b.c" {
		t.Errorf("Expected email a@b.c, got %s", u.Email)
	}
}

func TestBoltStoreLockedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.db")

	s, err := NewBolt(path)
	if err != nil {
		t.Fatalf("failed to open bolt store: %v", err)
	}
	defer s.Close()

	start := time.Now()
	_, err = NewBolt(path)
	if err == nil {
		t.Fatal("Expected error opening a locked file")
	}
	if !strings.Contains(err.Error(), "datagen serve") {
		t.Errorf("Expected hint about a running server, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Expected open to give up quickly, took %v", elapsed)
	}
}

func TestFromBSON(t *testing.T) {
	if v := fromBSON(int32(7)); v != int64(7) {
		t.Errorf("Expected int64(7), got %#v", v)
	}
	if v := fromBSON("x"); v != "x" {
		t.Errorf("Expected passthrough, got %#v", v)
	}
}

func TestOpenUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Provider = "cassandra"
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
