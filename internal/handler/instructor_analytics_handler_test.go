package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/loom-academy/loom-go-api/internal/handler"
	"github.com/loom-academy/loom-go-api/internal/models"
	"github.com/loom-academy/loom-go-api/internal/repository"
	"github.com/loom-academy/loom-go-api/internal/service"
)

func TestInstructorAnalyticsHandlerSummary(t *testing.T) {
	db := setupHandlerDB(t)

	courseA := models.Course{InstructorID: 9, Title: "A", Price: 10}
	courseB := models.Course{InstructorID: 9, Title: "B", Price: 20}
	require.NoError(t, db.Create(&courseA).Error)
	require.NoError(t, db.Create(&courseB).Error)

	priceA, priceB := 10.0, 20.0
	require.NoError(t, db.Create(&models.Purchase{CourseID: courseA.ID, UserID: 100, Price: &priceA}).Error)
	require.NoError(t, db.Create(&models.Purchase{CourseID: courseB.ID, UserID: 101, Price: &priceB}).Error)
	require.NoError(t, db.Create(&models.Purchase{CourseID: courseB.ID, UserID: 102, Price: &priceB}).Error)

	analytics := service.NewInstructorAnalyticsService(
		repository.NewCourseRepository(db),
		repository.NewPurchaseRepository(db),
		nil, time.Minute, zerolog.Nop(),
	)
	activity := newActivityService(t, db)
	h := handler.NewInstructorAnalyticsHandler(analytics, activity, zerolog.Nop())

	app := fiber.New()
	h.Register(app.Group("/api/v2/instructor", authenticated(9, "instructor")))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/instructor/analytics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "false", resp.Header.Get("X-Cache-Hit"))

	var payload struct {
		Data struct {
			TotalRevenue float64 `json:"total_revenue"`
			TotalSales   int64   `json:"total_sales"`
			Data         []struct {
				Name  string  `json:"name"`
				Total float64 `json:"total"`
			} `json:"data"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, 50.0, payload.Data.TotalRevenue)
	require.Equal(t, int64(3), payload.Data.TotalSales)
	require.Len(t, payload.Data.Data, 2)

	// Viewing the dashboard leaves an audit entry of its own.
	activity.Drain()
	var count int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Where("action = ?", "analytics_viewed").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestInstructorAnalyticsHandlerRequiresAuthentication(t *testing.T) {
	db := setupHandlerDB(t)

	analytics := service.NewInstructorAnalyticsService(
		repository.NewCourseRepository(db),
		repository.NewPurchaseRepository(db),
		nil, time.Minute, zerolog.Nop(),
	)
	h := handler.NewInstructorAnalyticsHandler(analytics, newActivityService(t, db), zerolog.Nop())

	app := fiber.New()
	h.Register(app.Group("/api/v2/instructor"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/instructor/analytics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
