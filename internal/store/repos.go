package store

import (
	"context"
	"time"

	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.s.now()
	}
	user.UpdatedAt = user.CreatedAt
	created, ok := r.s.users.createUnique(*user, func(u *model.User) bool {
		return u.Username == user.Username
	})
	if !ok {
		return repository.ErrDuplicate
	}
	*user = created
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.s.users.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := r.s.users.find(func(u *model.User) bool { return u.Username == username })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) Update(_ context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	u, ok := r.s.users.update(id, func(u *model.User) {
		patch.Apply(u)
		u.UpdatedAt = r.s.now()
	})
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type facebookSettingsRepo struct{ s *Store }

func (r *facebookSettingsRepo) GetByUserID(_ context.Context, userID int64) (*model.FacebookSettings, error) {
	fs, ok := r.s.settings.find(func(f *model.FacebookSettings) bool { return f.UserID == userID })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &fs, nil
}

func (r *facebookSettingsRepo) Create(_ context.Context, settings *model.FacebookSettings) error {
	created, ok := r.s.settings.createUnique(*settings, func(f *model.FacebookSettings) bool {
		return f.UserID == settings.UserID
	})
	if !ok {
		return repository.ErrDuplicate
	}
	*settings = created
	return nil
}

func (r *facebookSettingsRepo) UpdateByUserID(_ context.Context, userID int64, patch model.FacebookSettingsPatch) (*model.FacebookSettings, error) {
	fs, ok := r.s.settings.updateWhere(
		func(f *model.FacebookSettings) bool { return f.UserID == userID },
		func(f *model.FacebookSettings) {
			patch.Apply(f)
			f.UserID = userID
		},
	)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &fs, nil
}

type videoRepo struct{ s *Store }

func (r *videoRepo) Create(_ context.Context, video *model.Video) error {
	if video.CreatedAt.IsZero() {
		video.CreatedAt = r.s.now()
	}
	*video = r.s.videos.create(*video)
	return nil
}

func (r *videoRepo) GetByID(_ context.Context, id int64) (*model.Video, error) {
	v, ok := r.s.videos.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *videoRepo) ListByUser(_ context.Context, userID int64) ([]*model.Video, error) {
	return ptrs(r.s.videos.list(func(v *model.Video) bool { return v.UserID == userID })), nil
}

func (r *videoRepo) Update(_ context.Context, id int64, patch model.VideoPatch) (*model.Video, error) {
	var owner int64
	v, ok := r.s.videos.update(id, func(v *model.Video) {
		owner = v.UserID
		patch.Apply(v)
		v.UserID = owner
	})
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *videoRepo) Delete(_ context.Context, id int64) (bool, error) {
	return r.s.videos.delete(id), nil
}

func (r *videoRepo) FindBySlot(_ context.Context, userID int64, slot time.Time) ([]*model.Video, error) {
	return ptrs(r.s.videos.list(func(v *model.Video) bool {
		return v.UserID == userID &&
			v.Status.OccupiesSlot() &&
			v.ScheduledFor != nil &&
			v.ScheduledFor.Equal(slot)
	})), nil
}

func (r *videoRepo) ListDue(_ context.Context, before time.Time) ([]*model.Video, error) {
	due := r.s.videos.list(func(v *model.Video) bool {
		return v.Status == model.VideoStatusScheduled &&
			v.ScheduledFor != nil &&
			!v.ScheduledFor.After(before)
	})
	sortBySlot(due)
	return ptrs(due), nil
}

type captionRepo struct{ s *Store }

func (r *captionRepo) Create(_ context.Context, caption *model.Caption) error {
	if caption.CreatedAt.IsZero() {
		caption.CreatedAt = r.s.now()
	}
	*caption = r.s.captions.create(*caption)
	return nil
}

func (r *captionRepo) GetByID(_ context.Context, id int64) (*model.Caption, error) {
	c, ok := r.s.captions.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *captionRepo) ListByUser(_ context.Context, userID int64) ([]*model.Caption, error) {
	return ptrs(r.s.captions.list(func(c *model.Caption) bool { return c.UserID == userID })), nil
}

func (r *captionRepo) Delete(_ context.Context, id int64) (bool, error) {
	return r.s.captions.delete(id), nil
}

type subscriptionRepo struct{ s *Store }

func (r *subscriptionRepo) GetByUserID(_ context.Context, userID int64) (*model.Subscription, error) {
	sub, ok := r.s.subscriptions.find(func(s *model.Subscription) bool { return s.UserID == userID })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func (r *subscriptionRepo) Create(_ context.Context, sub *model.Subscription) error {
	created, ok := r.s.subscriptions.createUnique(*sub, func(s *model.Subscription) bool {
		return s.UserID == sub.UserID
	})
	if !ok {
		return repository.ErrDuplicate
	}
	*sub = created
	return nil
}

func (r *subscriptionRepo) UpdateByUserID(_ context.Context, userID int64, patch model.SubscriptionPatch) (*model.Subscription, error) {
	sub, ok := r.s.subscriptions.updateWhere(
		func(s *model.Subscription) bool { return s.UserID == userID },
		func(s *model.Subscription) {
			patch.Apply(s)
			s.UserID = userID
		},
	)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func (r *subscriptionRepo) ListActiveExpiringBefore(_ context.Context, before time.Time) ([]*model.Subscription, error) {
	return ptrs(r.s.subscriptions.list(func(s *model.Subscription) bool {
		return s.Status == model.SubscriptionActive && s.ExpiresAt != nil && s.ExpiresAt.Before(before)
	})), nil
}

type usageRepo struct{ s *Store }

func (r *usageRepo) GetByUserID(_ context.Context, userID int64) (*model.UsageMetrics, error) {
	m, ok := r.s.usage.find(func(m *model.UsageMetrics) bool { return m.UserID == userID })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *usageRepo) Create(_ context.Context, metrics *model.UsageMetrics) error {
	created, ok := r.s.usage.createUnique(*metrics, func(m *model.UsageMetrics) bool {
		return m.UserID == metrics.UserID
	})
	if !ok {
		return repository.ErrDuplicate
	}
	*metrics = created
	return nil
}

func (r *usageRepo) UpdateByUserID(_ context.Context, userID int64, patch model.UsageMetricsPatch) (*model.UsageMetrics, error) {
	m, ok := r.s.usage.updateWhere(
		func(m *model.UsageMetrics) bool { return m.UserID == userID },
		func(m *model.UsageMetrics) {
			patch.Apply(m)
			m.UserID = userID
		},
	)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}
