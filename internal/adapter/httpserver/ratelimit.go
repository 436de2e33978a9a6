package httpserver

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	apperrors "github.com/Type-PrAsH/SchedWise/internal/platform/errors"
)

const limiterIdleExpiry = 5 * time.Minute

// clientLimit is a per-IP token bucket. Routes that reach the suggestion
// provider or the PDF parser get their own, tighter bucket on top of the
// /api one.
type clientLimit struct {
	perSecond float64
	burst     int
}

var (
	apiLimit       = clientLimit{perSecond: 20, burst: 40}
	expensiveLimit = clientLimit{perSecond: 1, burst: 5}
)

func (l clientLimit) middleware() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(l.perSecond),
		Burst:     l.burst,
		ExpiresIn: limiterIdleExpiry,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, client string, _ error) error {
			c.Response().Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
			return HandleError(c, apperrors.TooManyError("rate limit exceeded").WithContext("client", client))
		},
	})
}

// retryAfterSeconds is the time one token takes to refill, at least a second.
func (l clientLimit) retryAfterSeconds() int {
	if l.perSecond <= 0 {
		return 60
	}
	return max(1, int(math.Ceil(1/l.perSecond)))
}
