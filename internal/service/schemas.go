package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/store"
	"github.com/Lumos-Labs-HQ/datagen/internal/types"
	"github.com/google/uuid"
)

type Schemas struct {
	store store.Store
	now   func() time.Time
}

func NewSchemas(st store.Store) *Schemas {
	return &Schemas{store: st, now: time.Now}
}

type SchemaInput struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Fields      []generator.FieldSpec `json:"fields"`
}

// ValidateFields checks that fields is non-empty, that every field has a
// unique non-empty name and that every data type is known.
func ValidateFields(fields []generator.FieldSpec) error {
	if len(fields) == 0 {
		return newError(ErrInvalidInput, "Validation Error", "at least one field is required")
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return newError(ErrInvalidInput, "Validation Error", "field %d has no name", i+1)
		}
		if seen[name] {
			return newError(ErrInvalidInput, "Validation Error", "duplicate field name %q", name)
		}
		seen[name] = true
		if !f.DataType.Valid() {
			return newError(ErrInvalidInput, "Validation Error", "field %q has unsupported data type %q", name, f.DataType)
		}
	}
	return nil
}

func (in *SchemaInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return newError(ErrInvalidInput, "Validation Error", "name is required")
	}
	for i := range in.Fields {
		in.Fields[i].Name = strings.TrimSpace(in.Fields[i].Name)
	}
	return ValidateFields(in.Fields)
}

func (s *Schemas) Create(ctx context.Context, user *types.User, in SchemaInput) (*types.Schema, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	limits := types.LimitsFor(user.Tier)
	count, err := s.store.CountSchemas(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count schemas: %w", err)
	}
	if count >= limits.MaxSchemas {
		return nil, newError(ErrLimitExceeded, "Schema limit reached",
			"Your %s plan allows up to %d schemas", user.Tier, limits.MaxSchemas)
	}

	now := s.now().UTC()
	schema := &types.Schema{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Name:        in.Name,
		Description: in.Description,
		Fields:      in.Fields,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSchema(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func (s *Schemas) List(ctx context.Context, userID string) ([]*types.Schema, error) {
	list, err := s.store.ListSchemas(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return list, nil
}

// Get returns the schema if userID owns it.
func (s *Schemas) Get(ctx context.Context, userID, id string) (*types.Schema, error) {
	schema, err := s.store.GetSchema(ctx, id)
	if err != nil {
		return nil, lookup(err, "Schema")
	}
	if schema.UserID != userID {
		return nil, forbidden()
	}
	return schema, nil
}

func (s *Schemas) Update(ctx context.Context, userID, id string, in SchemaInput) (*types.Schema, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	schema, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	schema.Name = in.Name
	schema.Description = in.Description
	schema.Fields = in.Fields
	schema.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateSchema(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to update schema: %w", err)
	}
	return schema, nil
}

func (s *Schemas) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteSchema(ctx, id); err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}
	return nil
}
