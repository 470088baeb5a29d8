package auth

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	helperAuth "competency_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool // pakai cookie access_token jika tidak ada Bearer
	ClockSkew           time.Duration
	Now                 func() time.Time
}

// AuthJWT memverifikasi token HMAC lalu mengisi Locals yang dibaca
// helpers/auth. Token diterbitkan service lain; di sini hanya verifikasi.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret wajib diisi")
	}
	now := o.Now
	if now == nil {
		now = time.Now
	}

	return func(c *fiber.Ctx) error {
		raw, err := extractBearerToken(c, o.AllowCookieFallback)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		parser := jwt.Parser{SkipClaimsValidation: true}
		tok, err := parser.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
		}
		if err := validateTokenExpiry(claims, now(), o.ClockSkew); err != nil {
			log.Printf("[AuthJWT] rejected: %v", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Token expired")
		}

		c.Locals(helperAuth.LocClaims, claims)

		// user_id: ambil id/sub/user_id dalam urutan preferensi
		for _, k := range []string{"id", "sub", "user_id"} {
			if v := strClaim(claims, k); v != "" {
				c.Locals(helperAuth.LocUserID, v)
				break
			}
		}
		if sid := strClaim(claims, "student_id"); sid != "" {
			c.Locals(helperAuth.LocStudentID, sid)
		}
		if role := strClaim(claims, "role"); role != "" {
			c.Locals(helperAuth.LocRole, role)
		}
		if roles := readStringSlice(claims["roles"]); len(roles) > 0 {
			c.Locals(helperAuth.LocRoles, roles)
		}

		return c.Next()
	}
}
