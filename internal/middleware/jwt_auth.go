package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// LocalClaims are the claims of the development-mode HS256 tokens.
type LocalClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// LocalAuthMiddleware checks a locally signed JWT instead of a Firebase ID
// token. Used when AUTH_MODE=local so the service runs without Firebase
// credentials.
func LocalAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims := &LocalClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			if claims.UID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token has no uid")
			}

			c.Set("uid", claims.UID)
			return next(c)
		}
	}
}
