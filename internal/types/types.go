package types

import (
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
)

type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

func (t Tier) Valid() bool {
	_, ok := tierLimits[t]
	return ok
}

// TierLimits is the quota set attached to a subscription tier.
type TierLimits struct {
	MaxSchemas           int  `json:"maxSchemas"`
	MaxDatasetsPerSchema int  `json:"maxDatasetsPerSchema"`
	MaxRowsPerGeneration int  `json:"maxRowsPerGeneration"`
	APIEnabled           bool `json:"apiEnabled"`
	AIFeatures           bool `json:"aiFeatures"`
	RequestsPerMinute    int  `json:"requestsPerMinute"`
}

var tierLimits = map[Tier]TierLimits{
	TierFree: {
		MaxSchemas:           3,
		MaxDatasetsPerSchema: 2,
		MaxRowsPerGeneration: 1000,
		RequestsPerMinute:    60,
	},
	TierPro: {
		MaxSchemas:           10,
		MaxDatasetsPerSchema: 5,
		MaxRowsPerGeneration: 10000,
		APIEnabled:           true,
		AIFeatures:           true,
		RequestsPerMinute:    300,
	},
	TierEnterprise: {
		MaxSchemas:           100,
		MaxDatasetsPerSchema: 20,
		MaxRowsPerGeneration: 100000,
		APIEnabled:           true,
		AIFeatures:           true,
		RequestsPerMinute:    1000,
	},
}

// LimitsFor returns the limits of tier, falling back to the free tier.
func LimitsFor(tier Tier) TierLimits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[TierFree]
}

// Tiers lists the tiers from lowest to highest.
var Tiers = []Tier{TierFree, TierPro, TierEnterprise}

type Usage struct {
	DatasetsCreated int        `json:"datasetsCreated" bson:"datasetsCreated"`
	APICallsMade    int        `json:"apiCallsMade" bson:"apiCallsMade"`
	LastAPICall     *time.Time `json:"lastApiCall,omitempty" bson:"lastApiCall,omitempty"`
}

type User struct {
	ID          string    `json:"id" bson:"_id"`
	Email       string    `json:"email" bson:"email"`
	DisplayName string    `json:"displayName" bson:"displayName"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
	Tier        Tier      `json:"subscriptionTier" bson:"subscriptionTier"`
	TokenHash   string    `json:"-" bson:"tokenHash"`
	APIKeyHash  string    `json:"-" bson:"apiKeyHash,omitempty"`
	Usage       Usage     `json:"usage" bson:"usage"`
}

type Schema struct {
	ID          string                `json:"id" bson:"_id"`
	UserID      string                `json:"userId" bson:"userId"`
	Name        string                `json:"name" bson:"name"`
	Description string                `json:"description" bson:"description"`
	Fields      []generator.FieldSpec `json:"fields" bson:"fields"`
	CreatedAt   time.Time             `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt" bson:"updatedAt"`
}

type DatasetStatus string

const (
	StatusGenerating DatasetStatus = "generating"
	StatusReady      DatasetStatus = "ready"
	StatusError      DatasetStatus = "error"
)

type Dataset struct {
	ID              string             `json:"id" bson:"_id"`
	SchemaID        string             `json:"schemaId" bson:"schemaId"`
	UserID          string             `json:"userId" bson:"userId"`
	Name            string             `json:"name" bson:"name"`
	RowCount        int                `json:"rowCount" bson:"rowCount"`
	GeneratedAt     time.Time          `json:"generatedAt" bson:"generatedAt"`
	APIEndpointPath string             `json:"apiEndpoint" bson:"apiEndpoint"`
	Status          DatasetStatus      `json:"status" bson:"status"`
	ErrorMessage    string             `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	Data            []generator.Record `json:"data,omitempty" bson:"-"`
}

// Summary returns a copy of d without its records.
func (d Dataset) Summary() Dataset {
	d.Data = nil
	return d
}
