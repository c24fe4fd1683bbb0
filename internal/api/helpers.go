package api

import (
	"context"       // Context for Redis operations
	"encoding/json" // Nullable field decoding
	"strconv"       // String conversion
	"strings"       // Error string inspection
	"time"          // Date parsing

	"github.com/hoangchung16-00/personal-finance-backend/internal/utils" // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// dateLayout is the wire format for transaction dates
const dateLayout = "2006-01-02"

// OptionalUint distinguishes an absent JSON field from an explicit null, so a
// partial update can clear a nullable reference. Set is true whenever the
// field appeared in the payload; Value stays nil for a literal null.
type OptionalUint struct {
	Set   bool  // Field was present in the payload
	Value *uint // nil when the payload carried null
}

// UnmarshalJSON records presence and decodes the value; only called for
// fields that appear in the payload
func (o *OptionalUint) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// currentUserID returns the authenticated user's ID stored by the auth middleware
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// pathID parses the :id path parameter
func pathID(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

// parseDate parses a YYYY-MM-DD date string
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// isUniqueConstraintError reports whether err is a uniqueness violation.
// Matched by message since the MySQL and SQLite drivers surface different types.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Duplicate entry") ||
		strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "UNIQUE constraint")
}

// accountCacheKey builds the cache key for a single account read
func accountCacheKey(userID, accountID uint) string {
	return "account:user:" + strconv.Itoa(int(userID)) + ":id:" + strconv.Itoa(int(accountID))
}

// txListCacheKey builds the cache key for one page of the unfiltered
// transaction listing; accountID 0 means the user-wide listing
func txListCacheKey(userID, accountID uint, page, pageSize int) string {
	return "txlist:user:" + strconv.Itoa(int(userID)) +
		":account:" + strconv.Itoa(int(accountID)) +
		":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
}

// invalidateAccountCaches drops the cached account read and the cached
// transaction listings touched by a mutation on that account
// (simple version: delete first 5 pages at the default page size)
func invalidateAccountCaches(ctx context.Context, rdb *redis.Client, userID, accountID uint) {
	_ = utils.DeleteCache(ctx, rdb, accountCacheKey(userID, accountID)) // Invalidate account cache
	for page := 1; page <= 5; page++ {
		// Delete cache entries for the per-account and user-wide listings
		_ = utils.DeleteCache(ctx, rdb, txListCacheKey(userID, accountID, page, defaultPageSize))
		_ = utils.DeleteCache(ctx, rdb, txListCacheKey(userID, 0, page, defaultPageSize))
	}
}
