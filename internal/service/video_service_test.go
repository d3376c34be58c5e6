package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/pkg/errs"
	"github.com/qs3c/fbsched_server/internal/testutil"
)

func mp4Upload(title string, size int64) UploadInput {
	return UploadInput{
		Title:       title,
		Filename:    "clip.mp4",
		Size:        size,
		ContentType: "video/mp4",
		Body:        strings.NewReader("fake video bytes"),
	}
}

func storageUsed(t *testing.T, env *testEnv, userID int64) int64 {
	t.Helper()
	m, err := env.usage.GetMetrics(context.Background(), userID)
	require.NoError(t, err)
	return m.StorageUsed
}

func TestVideoService_Upload(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := testutil.TestAccount(t, env.repos)

	video, err := env.videos.Upload(ctx, user.ID, mp4Upload("  Launch  ", 2*mb))
	require.NoError(t, err)

	assert.Equal(t, "Launch", video.Title)
	assert.Equal(t, model.VideoStatusPending, video.Status)
	assert.Nil(t, video.ScheduledFor)
	assert.Equal(t, int64(2*mb), video.Filesize)
	assert.Equal(t, int64(2*mb), storageUsed(t, env, user.ID))

	_, err = os.Stat(filepath.Join(env.uploadDir, video.Filename))
	assert.NoError(t, err)
}

func TestVideoService_Upload_Validation(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := testutil.TestAccount(t, env.repos)

	tests := []struct {
		name  string
		input UploadInput
		want  error
	}{
		{"empty title", mp4Upload("   ", mb), ErrTitleRequired},
		{"zero size", mp4Upload("a", 0), ErrInvalidFilesize},
		{"too large", mp4Upload("a", 101*mb), ErrFileTooLarge},
		{"wrong type", UploadInput{Title: "a", Filename: "a.avi", Size: mb, ContentType: "video/x-msvideo", Body: strings.NewReader("x")}, ErrInvalidFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.videos.Upload(ctx, user.ID, tt.input)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, errs.Is(err, errs.KindValidation))
		})
	}

	assert.Zero(t, storageUsed(t, env, user.ID))
}

func TestVideoService_Upload_QuotaEnforced(t *testing.T) {
	env := setupServices(t, func(cfg *config.Config) { cfg.Upload.MaxSize = 0 })
	ctx := context.Background()
	user := testutil.TestAccount(t, env.repos, testutil.WithLimits(1024, 100))

	ok, err := env.usage.CanConsumeStorage(ctx, user.ID, 2000*mb)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.videos.Upload(ctx, user.ID, UploadInput{Title: "huge", Filename: "huge.mp4", Size: 2000 * mb})
	assert.ErrorIs(t, err, ErrStorageQuotaExceeded)

	videos, err := env.videos.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, videos)
	assert.Zero(t, storageUsed(t, env, user.ID))
}

func TestVideoService_Upload_SoftLimit(t *testing.T) {
	env := setupServices(t, withoutEnforce, func(cfg *config.Config) { cfg.Upload.MaxSize = 0 })
	ctx := context.Background()
	user := testutil.TestAccount(t, env.repos, testutil.WithLimits(1024, 100))

	ok, err := env.usage.CanConsumeStorage(ctx, user.ID, 2000*mb)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.videos.Upload(ctx, user.ID, UploadInput{Title: "huge", Filename: "huge.mp4", Size: 2000 * mb})
	require.NoError(t, err)
	assert.Equal(t, int64(2000*mb), storageUsed(t, env, user.ID))
}

func TestVideoService_UploadDelete_RoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestUser(t, env.repos)
		testutil.TestSubscription(t, env.repos, user.ID)
		testutil.TestUsage(t, env.repos, user.ID, 3*mb, 0)

		video, err := env.videos.Upload(ctx, user.ID, mp4Upload("clip", 5*mb))
		require.NoError(t, err)
		assert.Equal(t, int64(8*mb), storageUsed(t, env, user.ID))

		require.NoError(t, env.videos.Delete(ctx, user.ID, video.ID))
		assert.Equal(t, int64(3*mb), storageUsed(t, env, user.ID))

		_, err = os.Stat(filepath.Join(env.uploadDir, video.Filename))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestVideoService_Delete_ClampsStorage(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestUser(t, env.repos)
		testutil.TestUsage(t, env.repos, user.ID, mb, 0)
		video := testutil.TestVideo(t, env.repos, user.ID, testutil.WithFilesize(10*mb))

		require.NoError(t, env.videos.Delete(ctx, user.ID, video.ID))
		assert.Equal(t, int64(0), storageUsed(t, env, user.ID))
	})
}

func TestVideoService_Delete_Twice(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := testutil.TestAccount(t, env.repos)
	video := testutil.TestVideo(t, env.repos, user.ID)

	require.NoError(t, env.videos.Delete(ctx, user.ID, video.ID))

	err := env.videos.Delete(ctx, user.ID, video.ID)
	assert.ErrorIs(t, err, ErrVideoNotFound)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestVideoService_Delete_NotOwner(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := testutil.TestAccount(t, env.repos)
	other := testutil.TestAccount(t, env.repos)
	video := testutil.TestVideo(t, env.repos, owner.ID)

	err := env.videos.Delete(ctx, other.ID, video.ID)
	assert.ErrorIs(t, err, ErrVideoDenied)

	_, err = env.videos.Get(ctx, owner.ID, video.ID)
	assert.NoError(t, err)
}

func TestVideoService_Schedule(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestAccount(t, env.repos)
		video := testutil.TestVideo(t, env.repos, user.ID)

		when := time.Date(2030, 5, 1, 10, 30, 45, 0, time.FixedZone("CST", 8*3600))
		scheduled, err := env.videos.Schedule(ctx, user.ID, video.ID, when)
		require.NoError(t, err)

		assert.Equal(t, model.VideoStatusScheduled, scheduled.Status)
		require.NotNil(t, scheduled.ScheduledFor)
		assert.True(t, scheduled.ScheduledFor.Equal(time.Date(2030, 5, 1, 2, 30, 0, 0, time.UTC)))
	})
}

func TestVideoService_Schedule_SlotConflict(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		alice := testutil.TestAccount(t, env.repos)
		bob := testutil.TestAccount(t, env.repos)

		v1 := testutil.TestVideo(t, env.repos, alice.ID)
		v2 := testutil.TestVideo(t, env.repos, alice.ID)
		v3 := testutil.TestVideo(t, env.repos, bob.ID)

		slot := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

		_, err := env.videos.Schedule(ctx, alice.ID, v1.ID, slot)
		require.NoError(t, err)

		_, err = env.videos.Schedule(ctx, alice.ID, v2.ID, slot.Add(20*time.Second))
		assert.ErrorIs(t, err, ErrSlotTaken)
		assert.True(t, errs.Is(err, errs.KindConflict))

		_, err = env.videos.Schedule(ctx, bob.ID, v3.ID, slot)
		assert.NoError(t, err)

		// 同一视频重复排到原时段不算冲突
		_, err = env.videos.Schedule(ctx, alice.ID, v1.ID, slot)
		assert.NoError(t, err)
	})
}

func TestVideoService_Schedule_FreedSlot(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestAccount(t, env.repos)
		v1 := testutil.TestVideo(t, env.repos, user.ID)
		v2 := testutil.TestVideo(t, env.repos, user.ID)
		slot := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

		_, err := env.videos.Schedule(ctx, user.ID, v1.ID, slot)
		require.NoError(t, err)
		_, err = env.videos.Unschedule(ctx, user.ID, v1.ID)
		require.NoError(t, err)

		_, err = env.videos.Schedule(ctx, user.ID, v2.ID, slot)
		assert.NoError(t, err)
	})
}

func TestVideoService_Schedule_Rejected(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestAccount(t, env.repos)
		other := testutil.TestAccount(t, env.repos)
		slot := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

		published := testutil.TestVideo(t, env.repos, user.ID, testutil.WithVideoStatus(model.VideoStatusPublished))
		_, err := env.videos.Schedule(ctx, user.ID, published.ID, slot)
		assert.ErrorIs(t, err, ErrVideoNotSchedulable)

		_, err = env.videos.Schedule(ctx, user.ID, 9999, slot)
		assert.ErrorIs(t, err, ErrVideoNotFound)

		foreign := testutil.TestVideo(t, env.repos, other.ID)
		_, err = env.videos.Schedule(ctx, user.ID, foreign.ID, slot)
		assert.ErrorIs(t, err, ErrVideoDenied)
	})
}

func TestVideoService_Schedule_ClearsFailure(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := testutil.TestAccount(t, env.repos)
	video := testutil.TestVideo(t, env.repos, user.ID, func(v *model.Video) {
		v.Status = model.VideoStatusFailed
		v.FailureReason = "token expired"
	})

	scheduled, err := env.videos.Schedule(ctx, user.ID, video.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.VideoStatusScheduled, scheduled.Status)
	assert.Empty(t, scheduled.FailureReason)
}

func TestVideoService_Unschedule(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestAccount(t, env.repos)
		slot := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

		statuses := []func(*model.Video){
			testutil.WithSchedule(slot),
			testutil.WithVideoStatus(model.VideoStatusPending),
			testutil.WithVideoStatus(model.VideoStatusFailed),
			testutil.WithVideoStatus(model.VideoStatusPublished),
		}

		for _, opt := range statuses {
			video := testutil.TestVideo(t, env.repos, user.ID, opt)

			for i := 0; i < 2; i++ {
				got, err := env.videos.Unschedule(ctx, user.ID, video.ID)
				require.NoError(t, err)
				assert.Equal(t, model.VideoStatusPending, got.Status)
				assert.Nil(t, got.ScheduledFor)
			}
		}
	})
}

func TestVideoService_Unschedule_Processing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestAccount(t, env.repos)
		now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
		env.videos.now = func() time.Time { return now }

		video := testutil.TestVideo(t, env.repos, user.ID, testutil.WithSchedule(now.Add(-time.Minute)))
		n, err := env.videos.DispatchDue(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		_, err = env.videos.Unschedule(ctx, user.ID, video.ID)
		assert.ErrorIs(t, err, ErrVideoPublishing)
		assert.True(t, errs.Is(err, errs.KindConflict))

		// 发布结果仍然生效
		got, err := env.videos.MarkPublished(ctx, video.ID)
		require.NoError(t, err)
		assert.Equal(t, model.VideoStatusPublished, got.Status)
		assert.NotNil(t, got.PublishedAt)
	})
}

func TestVideoService_PublishedNotRescheduled(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestAccount(t, env.repos)
		now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
		env.videos.now = func() time.Time { return now }

		video := testutil.TestVideo(t, env.repos, user.ID)
		_, err := env.videos.Schedule(ctx, user.ID, video.ID, now.Add(-time.Minute))
		require.NoError(t, err)
		_, err = env.videos.DispatchDue(ctx)
		require.NoError(t, err)
		_, err = env.videos.MarkPublished(ctx, video.ID)
		require.NoError(t, err)

		got, err := env.videos.Unschedule(ctx, user.ID, video.ID)
		require.NoError(t, err)
		assert.Equal(t, model.VideoStatusPending, got.Status)
		assert.Nil(t, got.ScheduledFor)
		assert.NotNil(t, got.PublishedAt)

		_, err = env.videos.Schedule(ctx, user.ID, video.ID, now.Add(-time.Minute))
		assert.ErrorIs(t, err, ErrVideoNotSchedulable)

		n, err := env.videos.DispatchDue(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Len(t, env.queue.jobs, 1)
	})
}

func TestVideoService_ListScheduled(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := testutil.TestAccount(t, env.repos)
	base := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

	late := testutil.TestVideo(t, env.repos, user.ID, testutil.WithSchedule(base.Add(2*time.Hour)))
	testutil.TestVideo(t, env.repos, user.ID)
	early := testutil.TestVideo(t, env.repos, user.ID, testutil.WithSchedule(base))

	list, err := env.videos.ListScheduled(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].VideoID)
	assert.Equal(t, late.ID, list[1].VideoID)
	assert.Equal(t, late.Title, list[1].Title)
}

func TestVideoService_DispatchDue(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestAccount(t, env.repos)
		now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
		env.videos.now = func() time.Time { return now }

		due := testutil.TestVideo(t, env.repos, user.ID, testutil.WithSchedule(now.Add(-time.Minute)))
		future := testutil.TestVideo(t, env.repos, user.ID, testutil.WithSchedule(now.Add(time.Hour)))

		n, err := env.videos.DispatchDue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.Len(t, env.queue.jobs, 1)
		assert.Equal(t, due.ID, env.queue.jobs[0].VideoID)
		assert.Equal(t, user.ID, env.queue.jobs[0].UserID)

		got, err := env.videos.Get(ctx, user.ID, due.ID)
		require.NoError(t, err)
		assert.Equal(t, model.VideoStatusProcessing, got.Status)

		got, err = env.videos.Get(ctx, user.ID, future.ID)
		require.NoError(t, err)
		assert.Equal(t, model.VideoStatusScheduled, got.Status)

		n, err = env.videos.DispatchDue(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestVideoService_DispatchDue_PushFailure(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := testutil.TestAccount(t, env.repos)
	env.queue.err = errors.New("redis down")

	video := testutil.TestVideo(t, env.repos, user.ID, testutil.WithSchedule(time.Now().Add(-time.Minute)))

	n, err := env.videos.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := env.videos.Get(ctx, user.ID, video.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VideoStatusScheduled, got.Status)
}

func TestVideoService_ProcessingSlotStaysTaken(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestAccount(t, env.repos)
		slot := time.Now().Add(-time.Minute).UTC().Truncate(time.Minute)

		testutil.TestVideo(t, env.repos, user.ID, testutil.WithSchedule(slot))
		_, err := env.videos.DispatchDue(ctx)
		require.NoError(t, err)

		other := testutil.TestVideo(t, env.repos, user.ID)
		_, err = env.videos.Schedule(ctx, user.ID, other.ID, slot)
		assert.ErrorIs(t, err, ErrSlotTaken)
	})
}

func TestVideoService_MarkPublishedAndFailed(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		user := testutil.TestAccount(t, env.repos)

		processing := testutil.TestVideo(t, env.repos, user.ID, testutil.WithVideoStatus(model.VideoStatusProcessing))
		got, err := env.videos.MarkPublished(ctx, processing.ID)
		require.NoError(t, err)
		assert.Equal(t, model.VideoStatusPublished, got.Status)
		assert.NotNil(t, got.PublishedAt)

		failing := testutil.TestVideo(t, env.repos, user.ID, testutil.WithVideoStatus(model.VideoStatusProcessing))
		got, err = env.videos.MarkFailed(ctx, failing.ID, "page token invalid")
		require.NoError(t, err)
		assert.Equal(t, model.VideoStatusFailed, got.Status)
		assert.Equal(t, "page token invalid", got.FailureReason)

		// 已取消排期的视频不受发布结果影响
		pending := testutil.TestVideo(t, env.repos, user.ID)
		got, err = env.videos.MarkPublished(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, model.VideoStatusPending, got.Status)

		_, err = env.videos.MarkFailed(ctx, 9999, "gone")
		assert.ErrorIs(t, err, ErrVideoNotFound)
	})
}
