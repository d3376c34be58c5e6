package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/model/dto"
	"github.com/qs3c/fbsched_server/internal/pkg/keylock"
	"github.com/qs3c/fbsched_server/internal/pkg/queue"
	"github.com/qs3c/fbsched_server/internal/pkg/storage"
	"github.com/qs3c/fbsched_server/internal/repository"
)

// Enqueuer 发布任务入队
type Enqueuer interface {
	Push(ctx context.Context, job *queue.PublishJob) error
}

// UploadInput 上传参数，Body 为空时表示文件已由传输层落盘
type UploadInput struct {
	Title       string
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// VideoService 视频生命周期与排期
type VideoService struct {
	videoRepo repository.VideoRepository
	usage     *UsageService
	files     storage.FileStore
	locker    keylock.Locker
	queue     Enqueuer
	enforce   bool
	maxSize   int64
	mimeTypes []string
	log       zerolog.Logger
	now       func() time.Time
}

func NewVideoService(
	repos *repository.Repositories,
	usage *UsageService,
	files storage.FileStore,
	locker keylock.Locker,
	cfg *config.Config,
	log zerolog.Logger,
) *VideoService {
	return &VideoService{
		videoRepo: repos.Video,
		usage:     usage,
		files:     files,
		locker:    locker,
		enforce:   cfg.Quota.Enforce,
		maxSize:   cfg.Upload.MaxSize,
		mimeTypes: cfg.Upload.AllowedMimeTypes,
		log:       log.With().Str("service", "video").Logger(),
		now:       time.Now,
	}
}

// SetQueue 设置发布队列，未设置时 DispatchDue 不可用
func (s *VideoService) SetQueue(q Enqueuer) {
	s.queue = q
}

func (s *VideoService) allowedType(contentType string) bool {
	if len(s.mimeTypes) == 0 {
		return true
	}
	contentType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, t := range s.mimeTypes {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}

func (s *VideoService) validateUpload(in *UploadInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrTitleRequired
	}
	if in.Size <= 0 {
		return ErrInvalidFilesize
	}
	if s.maxSize > 0 && in.Size > s.maxSize {
		return ErrFileTooLarge
	}
	if in.Body != nil && !s.allowedType(in.ContentType) {
		return ErrInvalidFileType
	}
	return nil
}

// Upload 保存文件并创建 pending 视频，同时记入存储用量。
// 开启额度校验时先占用额度，失败的上传会退还。
func (s *VideoService) Upload(ctx context.Context, userID int64, in UploadInput) (*model.Video, error) {
	if err := s.validateUpload(&in); err != nil {
		return nil, err
	}

	if s.enforce {
		if err := s.usage.ConsumeStorage(ctx, userID, in.Size); err != nil {
			return nil, err
		}
	}

	refund := func() {
		if !s.enforce {
			return
		}
		if err := s.usage.AdjustStorage(context.WithoutCancel(ctx), userID, -in.Size); err != nil {
			s.log.Error().Err(err).Int64("user_id", userID).Msg("failed to refund storage")
		}
	}

	filename := in.Filename
	if in.Body != nil {
		filename = storage.ObjectKey(userID, in.Filename)
		if err := s.files.Save(ctx, filename, in.Body, in.Size, in.ContentType); err != nil {
			refund()
			return nil, fmt.Errorf("failed to store video file: %w", err)
		}
	}

	video := &model.Video{
		UserID:   userID,
		Title:    in.Title,
		Filename: filename,
		Filesize: in.Size,
		Status:   model.VideoStatusPending,
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		if in.Body != nil {
			s.removeFile(ctx, filename)
		}
		refund()
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	if !s.enforce {
		if err := s.usage.AdjustStorage(ctx, userID, in.Size); err != nil {
			s.log.Error().Err(err).Int64("video_id", video.ID).Msg("failed to record storage usage")
		}
	}

	s.log.Info().Int64("user_id", userID).Int64("video_id", video.ID).Int64("size", in.Size).Msg("video uploaded")
	return video, nil
}

// Get 获取自己的视频
func (s *VideoService) Get(ctx context.Context, userID, videoID int64) (*model.Video, error) {
	return requireOwner(ctx, s.videoRepo.GetByID, videoID, userID, ErrVideoNotFound, ErrVideoDenied)
}

// List 按插入顺序列出用户视频
func (s *VideoService) List(ctx context.Context, userID int64) ([]*model.Video, error) {
	return s.videoRepo.ListByUser(ctx, userID)
}

// Schedule 为视频分配发布时段；同一用户同一分钟只能有一个视频
func (s *VideoService) Schedule(ctx context.Context, userID, videoID int64, when time.Time) (*model.Video, error) {
	slot := NormalizeSlot(when)

	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	defer unlock()

	video, err := requireOwner(ctx, s.videoRepo.GetByID, videoID, userID, ErrVideoNotFound, ErrVideoDenied)
	if err != nil {
		return nil, err
	}
	// 发布过的视频即使取消排期也不能再次发布
	if video.Status == model.VideoStatusProcessing || video.Status == model.VideoStatusPublished || video.PublishedAt != nil {
		return nil, ErrVideoNotSchedulable
	}

	occupied, err := s.videoRepo.FindBySlot(ctx, userID, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	for _, other := range occupied {
		if other.ID != videoID {
			return nil, ErrSlotTaken
		}
	}

	patch := model.ScheduleAt(slot)
	patch.FailureReason = ptr("")
	updated, err := s.videoRepo.Update(ctx, videoID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule video: %w", err)
	}

	s.log.Info().Int64("video_id", videoID).Time("slot", slot).Msg("video scheduled")
	return updated, nil
}

// Unschedule 清空排期，状态回到 pending；发布中的视频需等待发布结果
func (s *VideoService) Unschedule(ctx context.Context, userID, videoID int64) (*model.Video, error) {
	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	defer unlock()

	video, err := requireOwner(ctx, s.videoRepo.GetByID, videoID, userID, ErrVideoNotFound, ErrVideoDenied)
	if err != nil {
		return nil, err
	}
	if video.Status == model.VideoStatusProcessing {
		return nil, ErrVideoPublishing
	}

	updated, err := s.videoRepo.Update(ctx, videoID, model.ClearSchedule())
	if err != nil {
		return nil, fmt.Errorf("failed to unschedule video: %w", err)
	}
	return updated, nil
}

// Delete 删除视频、文件并退还存储用量；文件删除失败只记录日志
func (s *VideoService) Delete(ctx context.Context, userID, videoID int64) error {
	video, err := requireOwner(ctx, s.videoRepo.GetByID, videoID, userID, ErrVideoNotFound, ErrVideoDenied)
	if err != nil {
		return err
	}

	existed, err := s.videoRepo.Delete(ctx, videoID)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if !existed {
		return ErrVideoNotFound
	}

	s.removeFile(ctx, video.Filename)

	if err := s.usage.AdjustStorage(ctx, userID, -video.Filesize); err != nil {
		return err
	}

	s.log.Info().Int64("user_id", userID).Int64("video_id", videoID).Msg("video deleted")
	return nil
}

func (s *VideoService) removeFile(ctx context.Context, filename string) {
	if s.files == nil || filename == "" {
		return
	}
	if err := s.files.Delete(ctx, filename); err != nil {
		s.log.Warn().Err(err).Str("filename", filename).Msg("failed to delete video file")
	}
}

// ListScheduled 已排期视频，按时段升序
func (s *VideoService) ListScheduled(ctx context.Context, userID int64) ([]dto.ScheduledVideo, error) {
	videos, err := s.videoRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ScheduledVideo, 0, len(videos))
	for _, v := range videos {
		if v.ScheduledFor == nil {
			continue
		}
		result = append(result, dto.ScheduledVideo{
			ID:           v.ID,
			VideoID:      v.ID,
			Title:        v.Title,
			ScheduledFor: *v.ScheduledFor,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ScheduledFor.Before(result[j].ScheduledFor)
	})
	return result, nil
}

// DispatchDue 将到期的已排期视频转为 processing 并推入发布队列，返回入队数量
func (s *VideoService) DispatchDue(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, errors.New("publish queue not configured")
	}

	now := s.now()
	due, err := s.videoRepo.ListDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due videos: %w", err)
	}

	dispatched := 0
	for _, v := range due {
		ok, err := s.dispatch(ctx, v.UserID, v.ID, now)
		if err != nil {
			s.log.Error().Err(err).Int64("video_id", v.ID).Msg("failed to dispatch video")
			continue
		}
		if ok {
			dispatched++
		}
	}
	return dispatched, nil
}

func (s *VideoService) dispatch(ctx context.Context, userID, videoID int64, now time.Time) (bool, error) {
	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return false, err
	}
	defer unlock()

	// 加锁后重新读取，期间可能已被取消排期
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if video.Status != model.VideoStatusScheduled || video.ScheduledFor == nil || video.ScheduledFor.After(now) {
		return false, nil
	}

	processing := model.VideoStatusProcessing
	if _, err := s.videoRepo.Update(ctx, videoID, model.VideoPatch{Status: &processing}); err != nil {
		return false, err
	}

	job := &queue.PublishJob{
		VideoID:      video.ID,
		UserID:       video.UserID,
		Title:        video.Title,
		Filename:     video.Filename,
		ScheduledFor: *video.ScheduledFor,
	}
	if err := s.queue.Push(ctx, job); err != nil {
		scheduled := model.VideoStatusScheduled
		if _, rerr := s.videoRepo.Update(ctx, videoID, model.VideoPatch{Status: &scheduled}); rerr != nil {
			s.log.Error().Err(rerr).Int64("video_id", videoID).Msg("failed to revert video status")
		}
		return false, fmt.Errorf("failed to enqueue video: %w", err)
	}
	return true, nil
}

// MarkPublished 发布成功；只处理 processing 状态的视频
func (s *VideoService) MarkPublished(ctx context.Context, videoID int64) (*model.Video, error) {
	return s.finish(ctx, videoID, func(patch *model.VideoPatch) {
		now := s.now()
		patch.Status = ptr(model.VideoStatusPublished)
		patch.PublishedAt = &now
	})
}

// MarkFailed 发布失败并记录原因
func (s *VideoService) MarkFailed(ctx context.Context, videoID int64, reason string) (*model.Video, error) {
	return s.finish(ctx, videoID, func(patch *model.VideoPatch) {
		patch.Status = ptr(model.VideoStatusFailed)
		patch.FailureReason = &reason
	})
}

func (s *VideoService) finish(ctx context.Context, videoID int64, build func(*model.VideoPatch)) (*model.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, userLockKey(video.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	video, err = s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	if video.Status != model.VideoStatusProcessing {
		s.log.Warn().Int64("video_id", videoID).Str("status", string(video.Status)).Msg("video no longer processing, result ignored")
		return video, nil
	}

	var patch model.VideoPatch
	build(&patch)
	return s.videoRepo.Update(ctx, videoID, patch)
}
