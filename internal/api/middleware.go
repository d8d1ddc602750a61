package api

import (
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const userKey = "user"

func currentUser(c *fiber.Ctx) *types.User {
	u, _ := c.Locals(userKey).(*types.User)
	return u
}

// requireToken authenticates "Authorization: Bearer <token>".
func (s *Server) requireToken(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Bearer token is required",
		})
	}

	u, err := s.svc.Users.Authenticate(c.UserContext(), strings.TrimSpace(token))
	if err != nil {
		return err
	}
	c.Locals(userKey, u)
	return c.Next()
}

// requireAPIKey authenticates data API calls by X-API-Key header or apiKey
// query parameter.
func (s *Server) requireAPIKey(c *fiber.Ctx) error {
	key := c.Get("X-API-Key")
	if key == "" {
		key = c.Query("apiKey")
	}

	u, err := s.svc.Users.VerifyAPIKey(c.UserContext(), key)
	if err != nil {
		return err
	}
	c.Locals(userKey, u)
	return c.Next()
}

// tierLimiters builds one fixed-window limiter per tier, keyed by user and path.
func (s *Server) tierLimiters() map[string]fiber.Handler {
	window := s.cfg.RateLimit.WindowDuration()
	limiters := make(map[string]fiber.Handler, len(types.Tiers))

	for _, tier := range types.Tiers {
		perMinute := types.LimitsFor(tier).RequestsPerMinute
		maxRequests := max(int(int64(perMinute)*int64(window)/int64(time.Minute)), 1)
		prefix := string(tier) + ":"

		limiters[string(tier)] = limiter.New(limiter.Config{
			Max:        maxRequests,
			Expiration: window,
			Storage:    s.storage,
			KeyGenerator: func(c *fiber.Ctx) string {
				if u := currentUser(c); u != nil {
					return prefix + u.ID + ":" + c.Path()
				}
				return prefix + c.IP() + ":" + c.Path()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error":   "Too Many Requests",
					"message": "Rate limit exceeded. Please try again later.",
				})
			},
		})
	}
	return limiters
}

func (s *Server) rateLimit(c *fiber.Ctx) error {
	tier := types.TierFree
	if u := currentUser(c); u != nil && u.Tier.Valid() {
		tier = u.Tier
	}
	return s.limiters[string(tier)](c)
}
