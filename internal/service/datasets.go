package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/store"
	"github.com/Lumos-Labs-HQ/datagen/internal/types"
	"github.com/google/uuid"
)

const (
	previewDefaultCount = 10
	previewMaxCount     = 100
)

type Datasets struct {
	store store.Store
	users *Users
	gen   *generator.Generator
	now   func() time.Time

	workers           int
	parallelThreshold int
}

// NewDatasets builds the dataset service. Generations of at least
// parallelThreshold rows are split across workers goroutines.
func NewDatasets(st store.Store, users *Users, gen *generator.Generator, workers, parallelThreshold int) *Datasets {
	return &Datasets{
		store:             st,
		users:             users,
		gen:               gen,
		now:               time.Now,
		workers:           workers,
		parallelThreshold: parallelThreshold,
	}
}

type GenerateInput struct {
	SchemaID string `json:"schemaId"`
	Name     string `json:"name"`
	RowCount int    `json:"rowCount"`
}

func (s *Datasets) records(ctx context.Context, fields []generator.FieldSpec, count int) ([]generator.Record, error) {
	if s.workers > 1 && s.parallelThreshold > 0 && count >= s.parallelThreshold {
		return s.gen.GenerateParallel(ctx, fields, count, s.workers)
	}
	return s.gen.GenerateContext(ctx, fields, count)
}

// Generate creates a dataset from one of the user's schemas. The dataset is
// stored as generating first and then switched to ready or error.
func (s *Datasets) Generate(ctx context.Context, user *types.User, in GenerateInput) (*types.Dataset, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.SchemaID == "":
		return nil, newError(ErrInvalidInput, "Validation Error", "schemaId is required")
	case in.Name == "":
		return nil, newError(ErrInvalidInput, "Validation Error", "name is required")
	case in.RowCount < 1:
		return nil, newError(ErrInvalidInput, "Validation Error", "rowCount must be at least 1")
	}

	limits := types.LimitsFor(user.Tier)
	if in.RowCount > limits.MaxRowsPerGeneration {
		return nil, newError(ErrLimitExceeded, "Row count limit exceeded",
			"Your %s plan allows up to %d rows per generation", user.Tier, limits.MaxRowsPerGeneration)
	}

	schema, err := s.store.GetSchema(ctx, in.SchemaID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && schema.UserID != user.ID) {
		return nil, notFound("Schema")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	count, err := s.store.CountDatasets(ctx, user.ID, schema.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count datasets: %w", err)
	}
	if count >= limits.MaxDatasetsPerSchema {
		return nil, newError(ErrLimitExceeded, "Dataset limit reached",
			"Your %s plan allows up to %d datasets per schema", user.Tier, limits.MaxDatasetsPerSchema)
	}

	id := uuid.NewString()
	dataset := &types.Dataset{
		ID:              id,
		SchemaID:        schema.ID,
		UserID:          user.ID,
		Name:            in.Name,
		RowCount:        in.RowCount,
		GeneratedAt:     s.now().UTC(),
		APIEndpointPath: "/data/" + id,
		Status:          types.StatusGenerating,
	}
	if err := s.store.CreateDataset(ctx, dataset); err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}

	start := time.Now()
	data, genErr := s.records(ctx, schema.Fields, in.RowCount)
	if genErr == nil {
		dataset.Data = data
		dataset.Status = types.StatusReady
		genErr = s.store.UpdateDataset(ctx, dataset)
	}
	if genErr != nil {
		log.Printf("[SERVICE] Dataset %s generation failed: %v", id, genErr)
		failed := dataset.Summary()
		failed.Status = types.StatusError
		failed.ErrorMessage = "Failed to generate data"
		if err := s.store.UpdateDataset(context.WithoutCancel(ctx), &failed); err != nil {
			log.Printf("[SERVICE] Warning: failed to mark dataset %s as errored: %v", id, err)
		}
		return nil, fmt.Errorf("failed to generate dataset: %w", genErr)
	}
	log.Printf("[SERVICE] Generated dataset %s (%d rows) in %s", id, in.RowCount, time.Since(start).Round(time.Millisecond))

	if s.users != nil {
		if err := s.users.recordDataset(ctx, user.ID); err != nil {
			log.Printf("[SERVICE] Warning: failed to update usage for %s: %v", user.ID, err)
		}
	}

	summary := dataset.Summary()
	return &summary, nil
}

func (s *Datasets) List(ctx context.Context, userID string) ([]*types.Dataset, error) {
	list, err := s.store.ListDatasets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return list, nil
}

// Get returns the dataset with its records if userID owns it.
func (s *Datasets) Get(ctx context.Context, userID, id string) (*types.Dataset, error) {
	dataset, err := s.store.GetDataset(ctx, id)
	if err != nil {
		return nil, lookup(err, "Dataset")
	}
	if dataset.UserID != userID {
		return nil, forbidden()
	}
	return dataset, nil
}

func (s *Datasets) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteDataset(ctx, id); err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return nil
}

// Data returns the records served by the data API. The caller must own the
// dataset and be on a tier with API access.
func (s *Datasets) Data(ctx context.Context, user *types.User, id string) ([]generator.Record, error) {
	dataset, err := s.Get(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	if !types.LimitsFor(user.Tier).APIEnabled {
		return nil, newError(ErrForbidden, "API access not available",
			"Upgrade to Pro or Enterprise plan to access the API")
	}
	if dataset.Data == nil {
		return []generator.Record{}, nil
	}
	return dataset.Data, nil
}

// Preview generates a handful of records without storing anything.
func (s *Datasets) Preview(ctx context.Context, fields []generator.FieldSpec, count int) ([]generator.Record, error) {
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}
	if count <= 0 {
		count = previewDefaultCount
	}
	if count > previewMaxCount {
		count = previewMaxCount
	}
	return s.gen.GenerateContext(ctx, fields, count)
}
