package ratelimit

import (
	"strings"
	"time"

	internalsettings "github.com/sebastian05-bossu/1337loader/internal/settings"
)

// SettingsConfig captures rate limit settings stored in DB config.
type SettingsConfig struct {
	RedeemLimit   int
	RedeemWindow  time.Duration
	LoginLimit    int
	LoginWindow   time.Duration
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Decision returns the limit and window that apply to scope. An unset window takes the scope default.
func (c SettingsConfig) Decision(scope Scope) Decision {
	switch scope {
	case ScopeRedeem:
		return Decision{Limit: c.RedeemLimit, Window: windowOrDefault(c.RedeemWindow, internalsettings.DefaultRedeemRateWindowSeconds), Scope: scope}
	case ScopeLogin:
		return Decision{Limit: c.LoginLimit, Window: windowOrDefault(c.LoginWindow, internalsettings.DefaultLoginRateWindowSeconds), Scope: scope}
	default:
		return Decision{}
	}
}

func windowOrDefault(window time.Duration, defaultSeconds int) time.Duration {
	if window > 0 {
		return window
	}
	return time.Duration(defaultSeconds) * time.Second
}

// LoadSettingsConfig loads the current rate limit settings snapshot.
func LoadSettingsConfig() SettingsConfig {
	cfg := SettingsConfig{
		RedeemLimit:  internalsettings.DefaultRedeemRateLimit,
		RedeemWindow: time.Duration(internalsettings.DefaultRedeemRateWindowSeconds) * time.Second,
		LoginLimit:   internalsettings.DefaultLoginRateLimit,
		LoginWindow:  time.Duration(internalsettings.DefaultLoginRateWindowSeconds) * time.Second,
		RedisPrefix:  internalsettings.DefaultRateLimitRedisPrefix,
	}

	if raw, ok := internalsettings.DBConfigValue(internalsettings.RedeemRateLimitKey); ok {
		if limit, okParse := internalsettings.ParseNonNegativeInt(raw); okParse {
			cfg.RedeemLimit = limit
		}
	}
	if raw, ok := internalsettings.DBConfigValue(internalsettings.LoginRateLimitKey); ok {
		if limit, okParse := internalsettings.ParseNonNegativeInt(raw); okParse {
			cfg.LoginLimit = limit
		}
	}
	if raw, ok := internalsettings.DBConfigValue(internalsettings.RedeemRateWindowSecondsKey); ok {
		if seconds, okParse := internalsettings.ParsePositiveInt(raw); okParse {
			cfg.RedeemWindow = time.Duration(seconds) * time.Second
		}
	}
	if raw, ok := internalsettings.DBConfigValue(internalsettings.LoginRateWindowSecondsKey); ok {
		if seconds, okParse := internalsettings.ParsePositiveInt(raw); okParse {
			cfg.LoginWindow = time.Duration(seconds) * time.Second
		}
	}
	if raw, ok := internalsettings.DBConfigValue(internalsettings.RateLimitRedisEnabledKey); ok {
		if enabled, okParse := internalsettings.ParseBool(raw); okParse {
			cfg.RedisEnabled = enabled
		}
	}
	if raw, ok := internalsettings.DBConfigValue(internalsettings.RateLimitRedisAddrKey); ok {
		if addr, okParse := internalsettings.ParseString(raw); okParse {
			cfg.RedisAddr = addr
		}
	}
	if raw, ok := internalsettings.DBConfigValue(internalsettings.RateLimitRedisPasswordKey); ok {
		if password, okParse := internalsettings.ParseString(raw); okParse {
			cfg.RedisPassword = password
		}
	}
	if raw, ok := internalsettings.DBConfigValue(internalsettings.RateLimitRedisDBKey); ok {
		if db, okParse := internalsettings.ParseNonNegativeInt(raw); okParse {
			cfg.RedisDB = db
		}
	}
	if raw, ok := internalsettings.DBConfigValue(internalsettings.RateLimitRedisPrefixKey); ok {
		if prefix, okParse := internalsettings.ParseString(raw); okParse {
			cfg.RedisPrefix = prefix
		}
	}
	cfg.RedisAddr = strings.TrimSpace(cfg.RedisAddr)
	cfg.RedisPassword = strings.TrimSpace(cfg.RedisPassword)
	cfg.RedisPrefix = strings.TrimSpace(cfg.RedisPrefix)
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = internalsettings.DefaultRateLimitRedisPrefix
	}
	return cfg
}
