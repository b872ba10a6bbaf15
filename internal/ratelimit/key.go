package ratelimit

import (
	"fmt"
	"strings"
)

// KeyForDecision builds a limiter key for the subject of the resolved scope.
// Redeem subjects are user IDs; login subjects are emails.
func KeyForDecision(subject string, decision Decision) string {
	subject = strings.ToLower(strings.TrimSpace(subject))
	if subject == "" || decision.Limit <= 0 {
		return ""
	}
	switch decision.Scope {
	case ScopeRedeem:
		return fmt.Sprintf("redeem:u:%s", subject)
	case ScopeLogin:
		return fmt.Sprintf("login:e:%s", subject)
	default:
		return ""
	}
}
