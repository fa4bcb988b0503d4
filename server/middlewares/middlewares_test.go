package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncngteam/miniapp/model"
	"github.com/ncngteam/miniapp/utils"
)

func testContext(t *testing.T, target string, header string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		c.Request.Header.Set("X-Telegram-Id", header)
	}
	return c
}

func TestTelegramIdFromHeader(t *testing.T) {
	id, ok := TelegramId(testContext(t, "/api/health", "123456"))
	require.True(t, ok)
	assert.Equal(t, int64(123456), id)
}

func TestTelegramIdFromQueryFallback(t *testing.T) {
	id, ok := TelegramId(testContext(t, "/api/health?telegram_id=42", ""))
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestTelegramIdHeaderWinsOverQuery(t *testing.T) {
	id, ok := TelegramId(testContext(t, "/api/health?telegram_id=42", "7"))
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestTelegramIdMissingOrMalformed(t *testing.T) {
	_, ok := TelegramId(testContext(t, "/api/health", ""))
	assert.False(t, ok)

	_, ok = TelegramId(testContext(t, "/api/health", "not-a-number"))
	assert.False(t, ok)
}

// One store lookup serves repeated checks for the same id within the cache
// TTL.
func TestIsAdminCachesVerdict(t *testing.T) {
	db, mock := utils.NewMockDB(t)
	Setup(db)
	ResetAdminCache()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE telegram_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "telegram_id", "role_id", "created_at", "updated_at",
		}).AddRow("u1", int64(7), "r-admin", now, now))
	mock.ExpectQuery(`SELECT \* FROM "roles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "created_at", "updated_at"}).
			AddRow("r-admin", model.AdminRoleName, "#28a745", now, now))

	assert.True(t, isAdmin(7))
	assert.True(t, isAdmin(7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An unknown user is denied but the verdict is not cached, so the next check
// hits the store again.
func TestIsAdminUnknownUserRetries(t *testing.T) {
	db, mock := utils.NewMockDB(t)
	Setup(db)
	ResetAdminCache()

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE telegram_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "telegram_id"}))
	}

	assert.False(t, isAdmin(404))
	assert.False(t, isAdmin(404))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetAdminCacheForcesLookup(t *testing.T) {
	db, mock := utils.NewMockDB(t)
	Setup(db)
	ResetAdminCache()

	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE telegram_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "telegram_id", "role_id", "created_at", "updated_at",
			}).AddRow("u1", int64(7), "r-admin", now, now))
		mock.ExpectQuery(`SELECT \* FROM "roles"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "created_at", "updated_at"}).
				AddRow("r-admin", model.AdminRoleName, "#28a745", now, now))
	}

	assert.True(t, isAdmin(7))
	ResetAdminCache()
	assert.True(t, isAdmin(7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
