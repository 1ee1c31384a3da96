package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"elysium/internal/model"
	"elysium/internal/pdf"
	"elysium/internal/service"
	"elysium/internal/sheet"
)

// Root reports basic service identity, mirroring the status document other
// tooling historically probed.
func Root() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "elysium",
			"status":  "ok",
		})
	}
}

// GenerateSheet accepts a character JSON document and streams back the
// filled PDF. An optional template_id query parameter selects a registry
// template instead of the bundled sheet.
func GenerateSheet(sheetSvc service.SheetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var character model.CharacterSheet
		if err := c.BodyParser(&character); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not a valid character document")
		}

		templateID := c.Query("template_id")

		out, err := sheetSvc.Generate(c.UserContext(), character, templateID)
		if err != nil {
			switch {
			case errors.Is(err, sheet.ErrMapping):
				// Mapping failures describe the client's own payload, so the
				// detail is safe to return.
				return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_CHARACTER", err.Error())
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "template not found")
			case errors.Is(err, service.ErrRegistryDisabled), errors.Is(err, pdf.ErrTemplateLoad):
				return writeError(c, fiber.StatusServiceUnavailable, "TEMPLATE_UNAVAILABLE", "sheet template is unavailable")
			case errors.Is(err, pdf.ErrRender):
				return writeError(c, fiber.StatusInternalServerError, "RENDER_FAILED", "could not render the filled sheet")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+sheetFilename(character.Name)+`"`)
		return c.Status(fiber.StatusOK).Send(out)
	}
}

// sheetFilename derives a safe download name from the character name.
func sheetFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "character_sheet.pdf"
	}
	return b.String() + ".pdf"
}
