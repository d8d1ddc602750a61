package service

import (
	"github.com/Lumos-Labs-HQ/datagen/internal/config"
	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/store"
)

// Services bundles the application services over one store.
type Services struct {
	Users    *Users
	Schemas  *Schemas
	Datasets *Datasets
}

func New(st store.Store, gen *generator.Generator, cfg *config.Config) *Services {
	users := NewUsers(st)
	return &Services{
		Users:    users,
		Schemas:  NewSchemas(st),
		Datasets: NewDatasets(st, users, gen, cfg.Generator.Workers, cfg.Generator.ParallelThreshold),
	}
}
