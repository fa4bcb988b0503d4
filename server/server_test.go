package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncngteam/miniapp/model"
	"github.com/ncngteam/miniapp/server/middlewares"
	"github.com/ncngteam/miniapp/utils"
)

var (
	userColumns = []string{
		"id", "telegram_id", "username", "first_name", "last_name", "language_code",
		"role_id", "created_at", "updated_at", "first_login_at", "last_login_at",
	}
	roleColumns = []string{"id", "name", "description", "color", "created_at", "updated_at"}
	contentColumns = []string{
		"id", "created_at", "updated_at", "role_name", "title", "description",
		"is_scheduled", "scheduled_at", "published_at", "status",
	}
	linkColumns = []string{"id", "content_id", "link_type", "link_title", "link_url", "created_at"}
)

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock := utils.NewMockDB(t)
	middlewares.Setup(db)
	middlewares.ResetAdminCache()

	router := gin.New()
	RegisterRoutes(router, db)
	return router, mock
}

func perform(router http.Handler, method, target, body, telegramId string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if telegramId != "" {
		req.Header.Set("X-Telegram-Id", telegramId)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// expectAdminLookup queues the user and role reads the admin gate performs on
// a cache miss, mapping telegramId to the admin role.
func expectAdminLookup(mock sqlmock.Sqlmock, telegramId int64) {
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE telegram_id = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-admin", telegramId, nil, nil, nil, nil, "r-admin", now, now, nil, nil))
	mock.ExpectQuery(`SELECT \* FROM "roles"`).
		WillReturnRows(sqlmock.NewRows(roleColumns).
			AddRow("r-admin", model.AdminRoleName, nil, "#28a745", now, now))
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := perform(router, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAdminGateMissingTelegramId(t *testing.T) {
	router, mock := newTestRouter(t)

	w := perform(router, http.MethodGet, "/api/admin/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminGateUnknownUser(t *testing.T) {
	router, mock := newTestRouter(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE telegram_id = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	w := perform(router, http.MethodGet, "/api/admin/users", "", "404404")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminGateNonAdminRole(t *testing.T) {
	router, mock := newTestRouter(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE telegram_id = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u1", int64(555), nil, nil, nil, nil, "r-student", now, now, nil, nil))
	mock.ExpectQuery(`SELECT \* FROM "roles"`).
		WillReturnRows(sqlmock.NewRows(roleColumns).
			AddRow("r-student", "student", nil, "#28a745", now, now))

	w := perform(router, http.MethodGet, "/api/admin/users", "", "555")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListUsers(t *testing.T) {
	router, mock := newTestRouter(t)
	expectAdminLookup(mock, 1)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u1", int64(1), nil, nil, nil, nil, "r-admin", now, now, now, now).
			AddRow("u2", int64(2), nil, nil, nil, nil, nil, now, now, nil, nil))
	mock.ExpectQuery(`SELECT \* FROM "roles"`).
		WillReturnRows(sqlmock.NewRows(roleColumns).
			AddRow("r-admin", model.AdminRoleName, nil, "#28a745", now, now))

	w := perform(router, http.MethodGet, "/api/admin/users", "", "1")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(2), body["total"])
	users := body["users"].([]interface{})
	require.Len(t, users, 2)

	first := users[0].(map[string]interface{})
	assert.Equal(t, model.AdminRoleName, first["role"])
	assert.Contains(t, first["avatar"], "ui-avatars.com")
}

func TestGetSettings(t *testing.T) {
	router, mock := newTestRouter(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "app_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
			AddRow("show_prices", "true", now).
			AddRow("welcome_text", "hi", now))

	w := perform(router, http.MethodGet, "/api/settings", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Len(t, body["settings"], 2)
}

func TestUpdateSettingNotFound(t *testing.T) {
	router, mock := newTestRouter(t)
	expectAdminLookup(mock, 1)
	mock.ExpectExec(`UPDATE "app_settings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := perform(router, http.MethodPut, "/api/settings/missing", `{"value":"x"}`, "1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Setting not found", body["error"])
}

func TestGetTariffPrices(t *testing.T) {
	router, mock := newTestRouter(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "tariff_prices"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"tariff_key", "tariff_index", "title", "price", "original_price", "description", "updated_at",
		}).AddRow("basic", 0, "Basic", "990", "1990", nil, now))

	w := perform(router, http.MethodGet, "/api/tariff-prices", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	prices := body["prices"].([]interface{})
	require.Len(t, prices, 1)
	assert.Equal(t, "basic", prices[0].(map[string]interface{})["tariff_key"])
}
