package api

import (
	"bytes"
	"fmt"

	"github.com/Lumos-Labs-HQ/datagen/internal/export"
	"github.com/gofiber/fiber/v2"
	"github.com/zeebo/xxh3"
)

// handleGetData serves a dataset's records as JSON or CSV. Responses carry an
// ETag so polling clients can revalidate with If-None-Match.
func (s *Server) handleGetData(c *fiber.Ctx) error {
	records, err := s.svc.Datasets.Data(c.UserContext(), currentUser(c), c.Params("datasetId"))
	if err != nil {
		return err
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch c.Query("format", export.FormatJSON) {
	case export.FormatCSV:
		err = export.WriteCSV(&buf, records)
		contentType = "text/csv; charset=utf-8"
	default:
		err = export.WriteJSON(&buf, records, false)
		contentType = fiber.MIMEApplicationJSONCharsetUTF8
	}
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(buf.Bytes()))
	c.Set(fiber.HeaderETag, etag)
	c.Set(fiber.HeaderCacheControl, "private, no-cache")
	if c.Get(fiber.HeaderIfNoneMatch) == etag {
		return c.SendStatus(fiber.StatusNotModified)
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(buf.Bytes())
}
