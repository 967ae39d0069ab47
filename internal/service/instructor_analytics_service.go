package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/loom-academy/loom-go-api/internal/dto"
	"github.com/loom-academy/loom-go-api/internal/models"
	"github.com/loom-academy/loom-go-api/internal/observability"
	"github.com/loom-academy/loom-go-api/internal/repository"
)

// unknownCourseBucket collects purchases whose course id no longer resolves.
const unknownCourseBucket = "Unknown"

// aggregationTimeout bounds the relational round trips. A timeout surfaces
// as an error to the caller; stale or partial financial data is worse than
// an unavailable report.
const aggregationTimeout = 5 * time.Second

// InstructorAnalyticsService aggregates revenue and sales for one instructor.
type InstructorAnalyticsService interface {
	// GetAnalytics is a pure fold over externally owned course and purchase
	// records: no side effects, safe to call concurrently and repeatedly.
	// Fetch failures surface to the caller; financial data has no safe
	// silent default.
	GetAnalytics(ctx context.Context, instructorID uint) (dto.InstructorAnalyticsResponse, error)
}

type instructorAnalyticsService struct {
	courses   repository.CourseRepository
	purchases repository.PurchaseRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewInstructorAnalyticsService constructs the analytics service.
func NewInstructorAnalyticsService(courses repository.CourseRepository, purchases repository.PurchaseRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) InstructorAnalyticsService {
	return &instructorAnalyticsService{
		courses:   courses,
		purchases: purchases,
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "instructor_analytics_service").Logger(),
	}
}

func (s *instructorAnalyticsService) GetAnalytics(ctx context.Context, instructorID uint) (dto.InstructorAnalyticsResponse, error) {
	start := time.Now()
	defer func() {
		observability.AnalyticsLatency().Observe(time.Since(start).Seconds())
	}()

	cacheKey := fmt.Sprintf("analytics:instructor:%d", instructorID)
	tracer := otel.Tracer("github.com/loom-academy/loom-go-api/internal/service/instructor_analytics")
	ctx, span := tracer.Start(ctx, "analytics.aggregate")
	span.SetAttributes(attribute.String("analytics.cache_key", cacheKey))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, aggregationTimeout)
	defer cancel()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.InstructorAnalyticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
	}

	courses, err := s.courses.ListByInstructor(ctx, instructorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_courses_failed")
		return dto.InstructorAnalyticsResponse{}, fmt.Errorf("list courses for instructor %d: %w", instructorID, err)
	}

	// An instructor without courses has nothing to report; that is the
	// answer, not an error.
	if len(courses) == 0 {
		return dto.InstructorAnalyticsResponse{Data: []dto.CourseRevenue{}}, nil
	}

	courseIDs := make([]uint, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	purchases, err := s.purchases.ListForCourses(ctx, courseIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_purchases_failed")
		return dto.InstructorAnalyticsResponse{}, fmt.Errorf("list purchases for instructor %d: %w", instructorID, err)
	}

	response := s.buildResponse(courses, purchases)
	span.SetAttributes(
		attribute.Int("analytics.course_count", len(courses)),
		attribute.Int64("analytics.total_sales", response.TotalSales),
	)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

func (s *instructorAnalyticsService) buildResponse(courses []models.Course, purchases []models.Purchase) dto.InstructorAnalyticsResponse {
	titles := make(map[uint]string, len(courses))
	for _, course := range courses {
		titles[course.ID] = course.Title
	}

	rows := map[uint]*dto.CourseRevenue{}
	response := dto.InstructorAnalyticsResponse{}

	for _, purchase := range purchases {
		row, ok := rows[purchase.CourseID]
		if !ok {
			name, known := titles[purchase.CourseID]
			if !known {
				name = unknownCourseBucket
			}
			row = &dto.CourseRevenue{CourseID: purchase.CourseID, Name: name}
			rows[purchase.CourseID] = row
		}

		// A missing price contributes zero revenue but still counts as a
		// sale: sales are counted over purchase rows, not priced rows.
		price := 0.0
		if purchase.Price != nil {
			price = *purchase.Price
		}

		row.Total += price
		row.Sales++
		response.TotalRevenue += price
		response.TotalSales++
	}

	response.Data = make([]dto.CourseRevenue, 0, len(rows))
	for _, row := range rows {
		response.Data = append(response.Data, *row)
	}
	sort.Slice(response.Data, func(i, j int) bool {
		return response.Data[i].CourseID < response.Data[j].CourseID
	})

	return response
}
