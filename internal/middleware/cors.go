package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const DefaultCORSMaxAge = 86400

type CORSConfig struct {
	AllowOrigins     []string
	AllowCredentials bool
	MaxAge           int
}

func DefaultCORSConfig() CORSConfig {
	return CORSConfig{AllowOrigins: []string{"*"}, MaxAge: DefaultCORSMaxAge}
}

// CORS allows browser clients on AllowOrigins to call the API, exposing the
// request ID and rate limit headers.
func CORS(config CORSConfig) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: config.AllowOrigins,
		AllowMethods: []string{echo.GET, echo.HEAD, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			RequestIDHeader,
		},
		ExposeHeaders:    []string{RequestIDHeader, "X-Ratelimit-Limit", "X-Ratelimit-Remaining", "Retry-After"},
		AllowCredentials: config.AllowCredentials,
		MaxAge:           config.MaxAge,
	})
}
