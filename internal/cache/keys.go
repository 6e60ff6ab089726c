package cache

import "strings"

const (
	GlobalKeyPrefix = "kelajak"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// AttemptSheetKey is where the rendered question sheet of an attempt is cached.
func AttemptSheetKey(userTestID string) string {
	return GenerateCacheKey("attempt", "sheet", userTestID)
}

// JobLockKey is the lease key guarding one scheduled job.
func JobLockKey(job string) string {
	return GenerateCacheKey("scheduler", "lock", job)
}
