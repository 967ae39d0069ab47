package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/loom-academy/loom-go-api/internal/handler"
	"github.com/loom-academy/loom-go-api/internal/models"
	"github.com/loom-academy/loom-go-api/internal/privacy"
	"github.com/loom-academy/loom-go-api/internal/repository"
	"github.com/loom-academy/loom-go-api/internal/service"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ActivityLog{}, &models.Course{}, &models.Purchase{}))
	return db
}

func newActivityService(t *testing.T, db *gorm.DB) service.ActivityService {
	t.Helper()
	anonymizer, err := privacy.NewAnonymizer("test-secret")
	require.NoError(t, err)
	return service.NewActivityService(repository.NewActivityLogRepository(db), anonymizer, time.Second, zerolog.Nop())
}

func authenticated(id uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		c.Locals("user_role", role)
		return c.Next()
	}
}

func TestActivityHandlerRecordPersistsHashedEntry(t *testing.T) {
	db := setupHandlerDB(t)
	svc := newActivityService(t, db)
	h := handler.NewActivityHandler(svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v2/activity", authenticated(7, "student"))
	h.Register(group)

	body := strings.NewReader(`{"action":"course_viewed","entity_type":"course","entity_id":3}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v2/activity/", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	svc.Drain()

	var entries []models.ActivityLog
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	require.Equal(t, uint(7), entries[0].ActorID)
	require.Equal(t, "course_viewed", entries[0].Action)
	require.Len(t, entries[0].IPHash, 64)
	require.NotContains(t, entries[0].IPHash, "203.0.113.7")
}

func TestActivityHandlerRecordRequiresAuthentication(t *testing.T) {
	db := setupHandlerDB(t)
	svc := newActivityService(t, db)
	h := handler.NewActivityHandler(svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	app := fiber.New()
	h.Register(app.Group("/api/v2/activity"))

	body := strings.NewReader(`{"action":"course_viewed"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v2/activity/", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	svc.Drain()

	var count int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestActivityHandlerRecordRejectsInvalidPayload(t *testing.T) {
	db := setupHandlerDB(t)
	svc := newActivityService(t, db)
	h := handler.NewActivityHandler(svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	app := fiber.New()
	h.Register(app.Group("/api/v2/activity", authenticated(7, "student")))

	body := strings.NewReader(`{"entity_type":"course"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v2/activity/", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActivityHandlerAdminList(t *testing.T) {
	db := setupHandlerDB(t)
	svc := newActivityService(t, db)
	h := handler.NewActivityHandler(svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	require.NoError(t, db.Create(&models.ActivityLog{ActorID: 1, ActorRole: "student", Action: "course_viewed", IPHash: "abc"}).Error)

	app := fiber.New()
	h.RegisterAdmin(app.Group("/api/v2/admin/activity"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/admin/activity/?page=1&pageSize=5", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Data struct {
			Items []struct {
				Action string `json:"action"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Data.Items, 1)
	require.Equal(t, "course_viewed", payload.Data.Items[0].Action)
}
