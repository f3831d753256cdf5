package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timera-ai/timera-api/common"
)

func TestCreateSubscriptionGrantsCredits(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 0)

	sub, err := CreateSubscription(user.Id, "pro", true)
	require.NoError(t, err)
	assert.Equal(t, "pro", sub.PlanId)
	assert.Equal(t, common.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.AutoRenew)
	assert.Greater(t, sub.RenewsAt, sub.StartedAt)

	requireBalance(t, user.Id, 1800, 0, 1800)
}

func TestCreateSubscriptionReplacesActive(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 0)

	first, err := CreateSubscription(user.Id, "starter", true)
	require.NoError(t, err)
	second, err := CreateSubscription(user.Id, "pro", true)
	require.NoError(t, err)

	active, err := GetActiveSubscription(user.Id)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.Id, active.Id)
	assert.NotEqual(t, first.Id, active.Id)

	// both grants landed, the plans just do not stack as subscriptions
	requireBalance(t, user.Id, 750+1800, 0, 750+1800)
}

func TestCancelSubscriptionKeepsItActive(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 0)

	_, err := CreateSubscription(user.Id, "starter", true)
	require.NoError(t, err)
	require.NoError(t, CancelSubscription(user.Id))

	active, err := GetActiveSubscription(user.Id)
	require.NoError(t, err)
	require.NotNil(t, active, "cancelled plans run until the period ends")
	assert.False(t, active.AutoRenew)
}

func TestCancelWithoutSubscription(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 0)
	require.Error(t, CancelSubscription(user.Id))
}

func TestGetActiveSubscriptionNone(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, 0)

	sub, err := GetActiveSubscription(user.Id)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestRenewDueSubscriptions(t *testing.T) {
	setupTestDB(t)
	renewing := createTestUser(t, 0)
	lapsing := &User{Email: "lapsing@example.com", Password: "secret-password"}
	require.NoError(t, lapsing.Insert())
	require.NoError(t, DB.Model(lapsing).Update("credits", 0).Error)

	subA, err := CreateSubscription(renewing.Id, "starter", true)
	require.NoError(t, err)
	subB, err := CreateSubscription(lapsing.Id, "starter", false)
	require.NoError(t, err)

	// push both renewal dates into the past
	require.NoError(t, DB.Model(&Subscription{}).Where("id IN ?", []int{subA.Id, subB.Id}).
		Update("renews_at", 1).Error)

	require.NoError(t, RenewDueSubscriptions())

	// auto-renew granted another period's credits and moved the date forward
	requireBalance(t, renewing.Id, 1500, 0, 1500)
	active, err := GetActiveSubscription(renewing.Id)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Greater(t, active.RenewsAt, int64(1))

	// the non-renewing one expired without another grant
	requireBalance(t, lapsing.Id, 750, 0, 750)
	expired, err := GetActiveSubscription(lapsing.Id)
	require.NoError(t, err)
	assert.Nil(t, expired)
}
