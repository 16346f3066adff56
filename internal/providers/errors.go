package providers

import (
	"fmt"
	"strings"

	"chatquery/internal/util"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
)

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate limit"), strings.Contains(e, "too many requests"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// Classified wraps err with the sentinel matching its class so callers can
// branch with errors.Is instead of string matching.
func Classified(err error) error {
	if err == nil {
		return nil
	}
	switch ClassifyError(err) {
	case ErrorQuota:
		return fmt.Errorf("%w: %v", util.ErrQuotaExhausted, err)
	case ErrorRate:
		return fmt.Errorf("%w: %v", util.ErrRateLimited, err)
	case ErrorTransient:
		return fmt.Errorf("%w: %v", util.ErrTransient, err)
	default:
		return fmt.Errorf("%w: %v", util.ErrPermanent, err)
	}
}
