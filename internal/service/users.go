package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/store"
	"github.com/Lumos-Labs-HQ/datagen/internal/types"
	"github.com/google/uuid"
)

type Users struct {
	store store.Store
	now   func() time.Time

	// mu serialises read-modify-write of user documents. Usage counters
	// bypass it through Store.IncrementUsage.
	mu sync.Mutex
}

func NewUsers(st store.Store) *Users {
	return &Users{store: st, now: time.Now}
}

// Stats is the dashboard summary of a user's account.
type Stats struct {
	Schemas struct {
		Total int `json:"total"`
		Limit int `json:"limit"`
	} `json:"schemas"`
	Datasets struct {
		Total     int `json:"total"`
		Generated int `json:"generated"`
	} `json:"datasets"`
	API struct {
		Enabled   bool       `json:"enabled"`
		CallsMade int        `json:"callsMade"`
		LastCall  *time.Time `json:"lastCall,omitempty"`
	} `json:"api"`
	Subscription struct {
		Tier     types.Tier       `json:"tier"`
		Features types.TierLimits `json:"features"`
	} `json:"subscription"`
}

type APIKeyStatus struct {
	HasAPIKey  bool `json:"hasApiKey"`
	APIEnabled bool `json:"apiEnabled"`
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Register creates a free-tier user and returns it with its access token. The
// token is only returned here; the store keeps its hash.
func (s *Users) Register(ctx context.Context, email, displayName string) (*types.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, "", newError(ErrInvalidInput, "Registration failed", "a valid email address is required")
	}

	token, err := newSecret()
	if err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	u := &types.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   now,
		UpdatedAt:   now,
		Tier:        types.TierFree,
		TokenHash:   hashSecret(token),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", newError(ErrConflict, "Registration failed", "email %s is already registered", email)
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}
	return u, token, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Users) Authenticate(ctx context.Context, token string) (*types.User, error) {
	if token == "" {
		return nil, newError(ErrUnauthorized, "Unauthorized", "access token is required")
	}
	u, err := s.store.GetUserByTokenHash(ctx, hashSecret(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrUnauthorized, "Unauthorized", "invalid access token")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	return u, nil
}

func (s *Users) Profile(ctx context.Context, userID string) (*types.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, lookup(err, "User")
	}
	return u, nil
}

func (s *Users) UpdateProfile(ctx context.Context, userID, displayName string) (*types.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, newError(ErrInvalidInput, "Failed to update profile", "displayName cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.DisplayName = displayName
	u.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (s *Users) Stats(ctx context.Context, userID string) (*Stats, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	schemas, err := s.store.CountSchemas(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count schemas: %w", err)
	}
	datasets, err := s.store.ListDatasets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	limits := types.LimitsFor(u.Tier)
	var st Stats
	st.Schemas.Total = schemas
	st.Schemas.Limit = limits.MaxSchemas
	st.Datasets.Total = len(datasets)
	st.Datasets.Generated = u.Usage.DatasetsCreated
	st.API.Enabled = limits.APIEnabled
	st.API.CallsMade = u.Usage.APICallsMade
	st.API.LastCall = u.Usage.LastAPICall
	st.Subscription.Tier = u.Tier
	st.Subscription.Features = limits
	return &st, nil
}

// GenerateAPIKey replaces the user's API key. Only tiers with API access may
// hold one.
func (s *Users) GenerateAPIKey(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Profile(ctx, userID)
	if err != nil {
		return "", err
	}
	if !types.LimitsFor(u.Tier).APIEnabled {
		return "", newError(ErrForbidden, "Unauthorized", "API key generation requires Pro or Enterprise subscription")
	}

	key, err := newSecret()
	if err != nil {
		return "", err
	}
	u.APIKeyHash = hashSecret(key)
	u.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return "", fmt.Errorf("failed to store API key: %w", err)
	}
	return key, nil
}

func (s *Users) RevokeAPIKey(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	u.APIKeyHash = ""
	u.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	return nil
}

func (s *Users) APIKeyStatus(ctx context.Context, userID string) (*APIKeyStatus, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &APIKeyStatus{
		HasAPIKey:  u.APIKeyHash != "",
		APIEnabled: types.LimitsFor(u.Tier).APIEnabled,
	}, nil
}

// VerifyAPIKey resolves an API key to its owner and records the call.
func (s *Users) VerifyAPIKey(ctx context.Context, key string) (*types.User, error) {
	if key == "" {
		return nil, newError(ErrUnauthorized, "Unauthorized", "API key is required")
	}

	u, err := s.store.GetUserByAPIKeyHash(ctx, hashSecret(key))
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrUnauthorized, "Unauthorized", "invalid API key")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify API key: %w", err)
	}

	now := s.now().UTC()
	if err := s.store.IncrementUsage(ctx, u.ID, 0, 1, &now); err != nil {
		return nil, fmt.Errorf("failed to record API call: %w", err)
	}
	u.Usage.APICallsMade++
	u.Usage.LastAPICall = &now
	return u, nil
}

func (s *Users) SetTier(ctx context.Context, userID string, tier types.Tier) (*types.User, error) {
	if !tier.Valid() {
		return nil, newError(ErrInvalidInput, "Invalid tier", "unknown subscription tier %q", tier)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Tier = tier
	u.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update tier: %w", err)
	}
	return u, nil
}

// recordDataset bumps the user's generated-dataset counter.
func (s *Users) recordDataset(ctx context.Context, userID string) error {
	err := s.store.IncrementUsage(ctx, userID, 1, 0, nil)
	if err != nil {
		return lookup(err, "User")
	}
	return nil
}
