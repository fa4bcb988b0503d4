package middlewares

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ncngteam/miniapp/model"
	. "github.com/ncngteam/miniapp/utils/log"
)

// adminCacheTTL bounds how stale an admin decision can be after a role
// change. Kept short since role edits must take effect quickly.
const adminCacheTTL = time.Minute

var (
	// db is the shared store handle all middlewares read from. Set once via
	// Setup before any middleware is used.
	db *gorm.DB

	// adminCache memoizes admin lookups per telegram id so the admin gate does
	// not hit the store on every request. Process-local by design, the check
	// is cheap to redo after a restart.
	m          sync.RWMutex
	adminCache = make(map[int64]adminCacheEntry)
)

type adminCacheEntry struct {
	isAdmin   bool
	expiresAt time.Time
}

// Setup initializes all package scoped variables that are needed to perform
// middleware functionalities. This function must be called before any
// middleware is used.
func Setup(d *gorm.DB) {
	db = d
}

// TelegramId extracts the caller-supplied telegram id from the request,
// header first, query param as fallback. Returns false when absent or not
// numeric. The id is trusted as-is: authentication is out of scope for this
// app, the surface is gated at the Telegram WebApp layer.
func TelegramId(c *gin.Context) (int64, bool) {
	raw := c.GetHeader("X-Telegram-Id")
	if raw == "" {
		raw = c.Query("telegram_id")
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// AdminOnly rejects any request whose telegram id does not map to a user
// holding the admin role. 401 on missing id, 403 on insufficient role.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := TelegramId(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Telegram ID required for admin access",
			})
			c.Abort()
			return
		}

		if !isAdmin(id) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Access denied. Admin privileges required.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func isAdmin(telegramId int64) bool {
	m.RLock()
	entry, ok := adminCache[telegramId]
	m.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.isAdmin
	}

	var user model.User
	err := db.Preload("Role").Where("telegram_id = ?", telegramId).First(&user).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			Log.Error("fail to check admin status: ", err)
		}
		// Unknown user or store failure both deny access, and a failure is not
		// cached so the next request retries the lookup.
		return false
	}

	verdict := user.RoleName() == model.AdminRoleName
	m.Lock()
	adminCache[telegramId] = adminCacheEntry{isAdmin: verdict, expiresAt: time.Now().Add(adminCacheTTL)}
	m.Unlock()
	return verdict
}

// ResetAdminCache drops all memoized admin decisions. Called after role
// mutations and from tests.
func ResetAdminCache() {
	m.Lock()
	adminCache = make(map[int64]adminCacheEntry)
	m.Unlock()
}

// TouchLastLogin updates the caller's last_login_at on any API request that
// carries a telegram id. The write runs asynchronously so it never slows down
// the response.
func TouchLastLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := TelegramId(c); ok {
			go touchLastLogin(id)
		}
		c.Next()
	}
}

func touchLastLogin(telegramId int64) {
	now := time.Now().UTC()
	err := db.Model(&model.User{}).
		Where("telegram_id = ?", telegramId).
		Updates(map[string]interface{}{"last_login_at": now, "updated_at": now}).Error
	if err != nil {
		Log.Error("fail to update last login: ", err)
	}
}
