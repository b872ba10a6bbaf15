package settings

// DB config keys and defaults for settings.
const (
	// SiteNameKey is the DB config key for the UI site name.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback UI site name.
	DefaultSiteName = "1337"
	// RedeemRateLimitKey controls how many redemption attempts a user may make per window.
	RedeemRateLimitKey = "REDEEM_RATE_LIMIT"
	// RedeemRateWindowSecondsKey controls the redemption rate limit window in seconds.
	RedeemRateWindowSecondsKey = "REDEEM_RATE_WINDOW_SECONDS"
	// LoginRateLimitKey controls how many sign-in attempts an email may make per window.
	LoginRateLimitKey = "LOGIN_RATE_LIMIT"
	// LoginRateWindowSecondsKey controls the sign-in rate limit window in seconds.
	LoginRateWindowSecondsKey = "LOGIN_RATE_WINDOW_SECONDS"
	// RateLimitRedisEnabledKey toggles Redis-backed rate limiting.
	RateLimitRedisEnabledKey = "RATE_LIMIT_REDIS_ENABLED"
	// RateLimitRedisAddrKey defines the Redis address for rate limiting.
	RateLimitRedisAddrKey = "RATE_LIMIT_REDIS_ADDR"
	// RateLimitRedisPasswordKey defines the Redis password for rate limiting.
	RateLimitRedisPasswordKey = "RATE_LIMIT_REDIS_PASSWORD"
	// RateLimitRedisDBKey defines the Redis DB index for rate limiting.
	RateLimitRedisDBKey = "RATE_LIMIT_REDIS_DB"
	// RateLimitRedisPrefixKey defines the Redis key prefix for rate limiting.
	RateLimitRedisPrefixKey = "RATE_LIMIT_REDIS_PREFIX"
	// DefaultRedeemRateLimit is the fallback redemption attempt limit (0 means unlimited).
	DefaultRedeemRateLimit = 10
	// DefaultRedeemRateWindowSeconds is the fallback redemption rate limit window.
	DefaultRedeemRateWindowSeconds = 60
	// DefaultLoginRateWindowSeconds is the fallback sign-in rate limit window.
	DefaultLoginRateWindowSeconds = 300
	// DefaultLoginRateLimit is the fallback sign-in attempt limit (0 means unlimited).
	DefaultLoginRateLimit = 20
	// DefaultRateLimitRedisPrefix is the fallback Redis key prefix.
	DefaultRateLimitRedisPrefix = "portal:rl"
)
