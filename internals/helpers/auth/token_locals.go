package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"competency_backend/internals/constants"
)

/* ============================================
   Locals keys (diisi oleh middleware AuthJWT)
   ============================================ */

const (
	LocUserID    = "user_id"    // string UUID
	LocStudentID = "student_id" // string UUID
	LocRole      = "role"       // string
	LocRoles     = "roles"      // []string
	LocClaims    = "jwt_claims" // jwt.MapClaims
)

const (
	RoleAdmin   = constants.RoleAdmin
	RoleTeacher = constants.RoleTeacher
	RoleStudent = constants.RoleStudent
)

/* ============================================
   Tiny shared helpers
   ============================================ */

func normalizeLocalsToStrings(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case uuid.UUID:
		if t != uuid.Nil {
			return []string{t.String()}
		}
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	return nil
}

func parseFirstUUIDFromLocals(c *fiber.Ctx, key string) (uuid.UUID, error) {
	v := c.Locals(key)
	if v == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, key+" tidak ditemukan di token")
	}
	items := normalizeLocalsToStrings(v)
	if len(items) == 0 {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, key+" kosong di token")
	}
	id, err := uuid.Parse(items[0])
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Format "+key+" tidak valid di token")
	}
	return id, nil
}

/* ============================================
   Getters
   ============================================ */

func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	return parseFirstUUIDFromLocals(c, LocUserID)
}

// GetStudentIDFromToken membaca klaim student_id; tanpa klaim itu
// pemanggil bukan siswa.
func GetStudentIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := parseFirstUUIDFromLocals(c, LocStudentID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "Token tidak memiliki student_id")
	}
	return id, nil
}

// GetRoles menggabungkan role tunggal dan daftar roles, lowercase, tanpa duplikat.
func GetRoles(c *fiber.Ctx) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 2)
	add := func(list []string) {
		for _, r := range list {
			r = strings.ToLower(r)
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	add(normalizeLocalsToStrings(c.Locals(LocRole)))
	add(normalizeLocalsToStrings(c.Locals(LocRoles)))
	return out
}

func HasRole(c *fiber.Ctx, role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}
