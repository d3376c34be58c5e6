package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/testutil"
)

func TestSubscriptionService_ListPlans(t *testing.T) {
	env := setupServices(t)

	plans := env.subscriptions.ListPlans()
	require.Len(t, plans, 4)
	assert.Equal(t, model.PlanTrial, plans[0].Plan)
	assert.Equal(t, model.PlanFiveDay, plans[3].Plan)
	for i := 1; i < len(plans); i++ {
		assert.LessOrEqual(t, plans[i-1].Price, plans[i].Price)
	}
}

func TestSubscriptionService_StartTrial(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	env.subscriptions.now = func() time.Time { return now }
	user := testutil.TestUser(t, env.repos)

	sub, err := env.subscriptions.StartTrial(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanTrial, sub.Plan)
	assert.Equal(t, model.SubscriptionActive, sub.Status)
	assert.Equal(t, 512, sub.Storage)
	assert.Equal(t, 100, sub.Tasks)
	require.NotNil(t, sub.ExpiresAt)
	assert.True(t, sub.ExpiresAt.Equal(now.Add(26*24*time.Hour)))

	again, err := env.subscriptions.StartTrial(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
}

func TestSubscriptionService_ChangePlan(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := testutil.TestAccount(t, env.repos, testutil.WithSubscriptionStatus(model.SubscriptionExpired))

	sub, err := env.subscriptions.ChangePlan(ctx, user.ID, model.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, sub.Plan)
	assert.Equal(t, model.SubscriptionActive, sub.Status)
	assert.Equal(t, 2048, sub.Storage)

	ok, err := env.usage.CanConsumeStorage(ctx, user.ID, 2000*mb)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = env.subscriptions.ChangePlan(ctx, user.ID, "platinum")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestSubscriptionService_ChangePlan_CreatesMissing(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := testutil.TestUser(t, env.repos)

	sub, err := env.subscriptions.ChangePlan(ctx, user.ID, model.PlanBasic)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sub.UserID)
	assert.Equal(t, 1024, sub.Storage)

	got, err := env.subscriptions.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanBasic, got.Plan)
}

func TestSubscriptionService_Cancel(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := testutil.TestAccount(t, env.repos)

	sub, err := env.subscriptions.Cancel(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionCancelled, sub.Status)

	ok, err := env.usage.CanConsumeStorage(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.subscriptions.Cancel(ctx, 9999)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestSubscriptionService_ExpireDue(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	lapsed := testutil.TestAccount(t, env.repos, testutil.WithExpiresAt(&past))
	current := testutil.TestAccount(t, env.repos, testutil.WithExpiresAt(&future))
	forever := testutil.TestAccount(t, env.repos, testutil.WithExpiresAt(nil))

	n, err := env.subscriptions.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sub, err := env.subscriptions.Get(ctx, lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionExpired, sub.Status)

	for _, id := range []int64{current.ID, forever.ID} {
		sub, err := env.subscriptions.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionActive, sub.Status)
	}
}
