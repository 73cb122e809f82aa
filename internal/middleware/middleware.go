package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"studykit/internal/contract"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Options struct {
	BodyLimit    string
	AllowOrigins []string
}

// Setup installs request logging, panic recovery, CORS, the body limit and
// the JSON error handler.
func Setup(e *echo.Echo, logr *slog.Logger, opts ...Options) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.BodyLimit == "" {
		o.BodyLimit = "20M"
	}
	if len(o.AllowOrigins) == 0 {
		o.AllowOrigins = []string{"*"}
	}

	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler(logr)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.RequestID != "" {
				attrs = append(attrs, slog.String("request_id", v.RequestID))
			}

			if v.Error == nil {
				logr.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST", attrs...)
			} else {
				attrs = append(attrs, slog.String("err", v.Error.Error()))
				logr.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR", attrs...)
			}
			return nil
		},
	}))

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: o.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderAcceptEncoding, "Accept-Language"},
	}))
	e.Use(middleware.BodyLimit(o.BodyLimit))
}

// ErrorHandler renders every error as {"error": message}. Internal errors
// are logged and never leaked.
func ErrorHandler(logr *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else if he.Message != nil {
				msg = http.StatusText(code)
			}
			if he.Internal != nil {
				logr.Error("request failed",
					slog.String("uri", c.Request().RequestURI),
					slog.Int("status", code),
					slog.String("error", he.Internal.Error()),
				)
			}
		} else {
			logr.Error("unhandled error", slog.String("uri", c.Request().RequestURI), slog.String("error", err.Error()))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, contract.ErrorResponse{Error: msg})
		}
		if err != nil {
			logr.Error("failed to write error response", slog.String("error", err.Error()))
		}
	}
}

func GetUserAuthConfig(secret string) echojwt.Config {
	return echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(contract.JWTClaims)
		},
		SigningKey:   []byte(secret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token").WithInternal(err)
		},
	}
}
