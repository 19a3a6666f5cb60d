package middleware

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/config"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTProtected verifies session tokens issued by the managed auth provider.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.AuthJWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// CurrentUser extracts the caller from the verified token in context.
func CurrentUser(c *fiber.Ctx) (dto.Identity, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return dto.Identity{}, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return dto.Identity{}, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return dto.Identity{}, errors.New("missing sub claim")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return dto.Identity{}, err
	}

	ident := dto.Identity{ID: id}
	ident.Email, _ = claims["email"].(string)
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		ident.Name, _ = meta["full_name"].(string)
		if ident.Name == "" {
			ident.Name, _ = meta["name"].(string)
		}
	}
	return ident, nil
}
