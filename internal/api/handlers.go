package api

import (
	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/service"
	"github.com/gofiber/fiber/v2"
)

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	u, token, err := s.svc.Users.Register(c.UserContext(), req.Email, req.DisplayName)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"token":   token,
		"user":    u,
	})
}

// Users

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	u, err := s.svc.Users.Profile(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	var req struct {
		DisplayName string `json:"displayName"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	u, err := s.svc.Users.UpdateProfile(c.UserContext(), currentUser(c).ID, req.DisplayName)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":     "Profile updated successfully",
		"displayName": u.DisplayName,
	})
}

func (s *Server) handleGetStats(c *fiber.Ctx) error {
	stats, err := s.svc.Users.Stats(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func (s *Server) handleAPIKeyStatus(c *fiber.Ctx) error {
	status, err := s.svc.Users.APIKeyStatus(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (s *Server) handleGenerateAPIKey(c *fiber.Ctx) error {
	key, err := s.svc.Users.GenerateAPIKey(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "API key generated successfully",
		"apiKey":  key,
	})
}

func (s *Server) handleRevokeAPIKey(c *fiber.Ctx) error {
	if err := s.svc.Users.RevokeAPIKey(c.UserContext(), currentUser(c).ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "API key revoked successfully"})
}

// Schemas

func (s *Server) handleCreateSchema(c *fiber.Ctx) error {
	var req service.SchemaInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	schema, err := s.svc.Schemas.Create(c.UserContext(), currentUser(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(schema)
}

func (s *Server) handleListSchemas(c *fiber.Ctx) error {
	list, err := s.svc.Schemas.List(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleGetSchema(c *fiber.Ctx) error {
	schema, err := s.svc.Schemas.Get(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(schema)
}

func (s *Server) handleUpdateSchema(c *fiber.Ctx) error {
	var req service.SchemaInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	schema, err := s.svc.Schemas.Update(c.UserContext(), currentUser(c).ID, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(schema)
}

func (s *Server) handleDeleteSchema(c *fiber.Ctx) error {
	if err := s.svc.Schemas.Delete(c.UserContext(), currentUser(c).ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Schema deleted successfully"})
}

// Datasets

func (s *Server) handleGenerateDataset(c *fiber.Ctx) error {
	var req service.GenerateInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	dataset, err := s.svc.Datasets.Generate(c.UserContext(), currentUser(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dataset)
}

func (s *Server) handleListDatasets(c *fiber.Ctx) error {
	list, err := s.svc.Datasets.List(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) handleGetDataset(c *fiber.Ctx) error {
	dataset, err := s.svc.Datasets.Get(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dataset)
}

func (s *Server) handleDeleteDataset(c *fiber.Ctx) error {
	if err := s.svc.Datasets.Delete(c.UserContext(), currentUser(c).ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Dataset deleted successfully"})
}

func (s *Server) handlePreview(c *fiber.Ctx) error {
	var req struct {
		Fields []generator.FieldSpec `json:"fields"`
		Count  int                   `json:"count"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	records, err := s.svc.Datasets.Preview(c.UserContext(), req.Fields, req.Count)
	if err != nil {
		return err
	}
	return c.JSON(records)
}
