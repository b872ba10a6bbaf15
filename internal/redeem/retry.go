package redeem

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// Service is anything that can redeem a key for a user.
type Service interface {
	Redeem(ctx context.Context, userID, key string) (Result, error)
}

// RetryPolicy bounds automatic retries of ErrActivationPending.
type RetryPolicy struct {
	Attempts int           // Total attempts including the first.
	Backoff  time.Duration // Initial delay, doubled after each attempt.
}

// DefaultRetryPolicy is applied when a policy field is unset.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 200 * time.Millisecond}

// RedeemWithRetry calls svc.Redeem and retries only while the result is ErrActivationPending.
// All other failures are returned immediately. When an earlier attempt consumed the key,
// a later AlreadyActive is reported as Activated.
func RedeemWithRetry(ctx context.Context, svc Service, userID, key string, policy RetryPolicy) (Result, error) {
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultRetryPolicy.Attempts
	}
	if policy.Backoff <= 0 {
		policy.Backoff = DefaultRetryPolicy.Backoff
	}

	pending := false
	backoff := policy.Backoff
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		result, errRedeem := svc.Redeem(ctx, userID, key)
		if errRedeem == nil {
			if pending && result == AlreadyActive {
				result = Activated
			}
			return result, nil
		}
		if !errors.Is(errRedeem, ErrActivationPending) {
			return "", errRedeem
		}
		pending = true
		lastErr = errRedeem
		log.WithError(errRedeem).WithFields(log.Fields{
			"user_id": userID,
			"attempt": attempt,
		}).Warn("redeem: activation pending, retrying")

		if attempt == policy.Attempts {
			break
		}
		if errWait := sleepContext(ctx, backoff); errWait != nil {
			break
		}
		backoff *= 2
	}
	return "", lastErr
}
