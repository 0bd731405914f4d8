package validation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hearthstay/server/internal/logger"
	"go.uber.org/zap"
)

// ErrUnavailable is returned by a check whose service was never configured
var ErrUnavailable = errors.New("service not configured")

// Check probes one backing service
type Check func(ctx context.Context) error

// ServiceValidator fails startup when a service marked as required by a
// HEARTHSTAY_REQUIRE_<NAME> variable is unreachable. Services that are not
// required may be down; the server degrades instead.
type ServiceValidator struct {
	checks   map[string]Check
	required []string
	timeout  time.Duration
}

// NewServiceValidator creates a validator over the named checks
func NewServiceValidator(checks map[string]Check) *ServiceValidator {
	return &ServiceValidator{
		checks:   checks,
		required: parseRequiredServices(checks),
		timeout:  10 * time.Second,
	}
}

// Required lists the services that must pass
func (sv *ServiceValidator) Required() []string {
	return sv.required
}

// ValidateServices runs every required check
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.required) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services",
		zap.Strings("services", sv.required),
	)

	for _, name := range sv.required {
		timeoutCtx, cancel := context.WithTimeout(ctx, sv.timeout)
		err := sv.checks[name](timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("Required service validation failed",
				zap.String("service", name),
				zap.Error(err),
			)
			return fmt.Errorf("required service %q validation failed: %w", name, err)
		}

		logger.Log.Info("Service validated successfully",
			zap.String("service", name),
		)
	}

	return nil
}

// parseRequiredServices reads HEARTHSTAY_REQUIRE_<NAME> for every known check
func parseRequiredServices(checks map[string]Check) []string {
	var required []string
	for name := range checks {
		envVar := "HEARTHSTAY_REQUIRE_" + strings.ToUpper(name)
		if isTruthy(os.Getenv(envVar)) {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	return required
}

// isTruthy checks if a string value represents a truthy value
func isTruthy(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}
