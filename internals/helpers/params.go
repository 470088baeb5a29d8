package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"competency_backend/internals/helpers/apperror"
)

// ParseUUIDParam membaca path param UUID; gagal → VALIDATION_ERROR pada field itu.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperror.Validation("invalid "+name, map[string][]string{name: {"uuid"}})
	}
	return id, nil
}

// ParseUUIDQuery: query kosong → nil tanpa error.
func ParseUUIDQuery(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("invalid "+name, map[string][]string{name: {"uuid"}})
	}
	return &id, nil
}

// ParseUUIDListQuery membaca ?name=a,b,c (boleh juga diulang ?name=a&name=b).
func ParseUUIDListQuery(c *fiber.Ctx, name string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0)
	for _, raw := range c.Context().QueryArgs().PeekMulti(name) {
		for _, part := range strings.Split(string(raw), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, apperror.Validation("invalid "+name, map[string][]string{name: {"uuid"}})
			}
			out = append(out, id)
		}
	}
	return out, nil
}

// QueryUpper: ?name= dinormalisasi uppercase; kosong → nil.
func QueryUpper(c *fiber.Ctx, name string) *string {
	v := strings.ToUpper(strings.TrimSpace(c.Query(name)))
	if v == "" {
		return nil
	}
	return &v
}
