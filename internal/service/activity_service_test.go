package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/loom-academy/loom-go-api/internal/dto"
	"github.com/loom-academy/loom-go-api/internal/models"
	"github.com/loom-academy/loom-go-api/internal/privacy"
	"github.com/loom-academy/loom-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type recordingActivityRepo struct {
	mu      sync.Mutex
	entries []models.ActivityLog
	err     error
}

func (r *recordingActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *recordingActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	return append([]models.ActivityLog(nil), r.entries...), int64(len(r.entries)), nil
}

func (r *recordingActivityRepo) stored() []models.ActivityLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ActivityLog(nil), r.entries...)
}

func newTestActivityService(t *testing.T, repo repository.ActivityLogRepository) ActivityService {
	t.Helper()
	anonymizer, err := privacy.NewAnonymizer("test-secret")
	require.NoError(t, err)
	return NewActivityService(repo, anonymizer, time.Second, testLogger())
}

func TestActivityServiceRecordHashesAddress(t *testing.T) {
	repo := &recordingActivityRepo{}
	svc := newTestActivityService(t, repo)

	entityID := uint(12)
	svc.Record(context.Background(), ActivityCaller{
		ActorID:    7,
		ActorRole:  "Student",
		RemoteAddr: "203.0.113.7",
	}, ActivityEntry{
		Action:     " Course_Viewed ",
		EntityType: "Course",
		EntityID:   &entityID,
	})
	svc.Drain()

	entries := repo.stored()
	require.Len(t, entries, 1)
	entry := entries[0]
	require.Equal(t, uint(7), entry.ActorID)
	require.Equal(t, "student", entry.ActorRole)
	require.Equal(t, "course_viewed", entry.Action)
	require.Equal(t, "course", entry.EntityType)
	require.Equal(t, &entityID, entry.EntityID)
	require.Len(t, entry.IPHash, 64)
	require.NotContains(t, entry.IPHash, "203.0.113.7")
}

func TestActivityServiceRecordAnonymousIsNoOp(t *testing.T) {
	repo := &recordingActivityRepo{}
	svc := newTestActivityService(t, repo)

	svc.Record(context.Background(), ActivityCaller{RemoteAddr: "203.0.113.7"}, ActivityEntry{Action: "course_viewed"})
	svc.Drain()

	require.Empty(t, repo.stored())
}

func TestActivityServiceRecordSkipsEmptyAction(t *testing.T) {
	repo := &recordingActivityRepo{}
	svc := newTestActivityService(t, repo)

	svc.Record(context.Background(), ActivityCaller{ActorID: 7}, ActivityEntry{Action: "   "})
	svc.Drain()

	require.Empty(t, repo.stored())
}

func TestActivityServiceRecordSwallowsWriteFailure(t *testing.T) {
	repo := &recordingActivityRepo{err: fmt.Errorf("store down")}
	svc := newTestActivityService(t, repo)

	// Must not panic or block; the failure stays inside the service.
	svc.Record(context.Background(), ActivityCaller{ActorID: 7, RemoteAddr: "203.0.113.7"}, ActivityEntry{Action: "course_viewed"})
	svc.Drain()
}

func TestActivityServiceRecordSanitizesMetadata(t *testing.T) {
	repo := &recordingActivityRepo{}
	svc := newTestActivityService(t, repo)

	svc.Record(context.Background(), ActivityCaller{ActorID: 7}, ActivityEntry{
		Action: "profile_updated",
		Metadata: map[string]interface{}{
			"email":   "user@example.com",
			"token":   "abc123",
			"comment": "<script>alert(1)</script>fine",
			"count":   3,
		},
	})
	svc.Drain()

	entries := repo.stored()
	require.Len(t, entries, 1)
	metadata := entries[0].Metadata
	require.Equal(t, "***", metadata["email"])
	require.Equal(t, "***", metadata["token"])
	require.NotContains(t, metadata["comment"], "<script>")
	require.Equal(t, 3, metadata["count"])
}

func TestActivityServiceListPaginates(t *testing.T) {
	repo := &recordingActivityRepo{}
	svc := newTestActivityService(t, repo)

	for i := 0; i < 3; i++ {
		svc.Record(context.Background(), ActivityCaller{ActorID: uint(i + 1)}, ActivityEntry{Action: "course_viewed"})
	}
	svc.Drain()

	response, err := svc.List(context.Background(), dto.AdminActivityListRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), response.Pagination.TotalItems)
	require.Equal(t, 2, response.Pagination.TotalPages)
}
