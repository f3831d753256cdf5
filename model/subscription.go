package model

import (
	"errors"

	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/common/helper"
	"gorm.io/gorm"
)

// SubscriptionPlan mirrors the product's plan table; credits are granted up
// front on activation and again on each renewal.
type SubscriptionPlan struct {
	Id       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Credits  int     `json:"credits"`
	Period   string  `json:"period"`
	Popular  bool    `json:"popular,omitempty"`
}

var SubscriptionPlans = []SubscriptionPlan{
	{Id: "demo", Name: "Demo", Price: 0.1, Currency: "₼", Credits: 500, Period: "day"},
	{Id: "starter", Name: "Starter", Price: 19, Currency: "₼", Credits: 750, Period: "month"},
	{Id: "pro", Name: "Pro", Price: 39, Currency: "₼", Credits: 1800, Period: "month", Popular: true},
	{Id: "agency", Name: "Agency", Price: 79, Currency: "₼", Credits: 4000, Period: "month"},
}

func GetSubscriptionPlanById(id string) *SubscriptionPlan {
	for i := range SubscriptionPlans {
		if SubscriptionPlans[i].Id == id {
			return &SubscriptionPlans[i]
		}
	}
	return nil
}

type Subscription struct {
	Id        int    `json:"id"`
	UserId    int    `json:"user_id" gorm:"index"`
	PlanId    string `json:"plan"`
	Status    string `json:"status" gorm:"index;default:'active'"`
	AutoRenew bool   `json:"auto_renew" gorm:"default:true"`
	StartedAt int64  `json:"started_at" gorm:"bigint"`
	RenewsAt  int64  `json:"renews_at" gorm:"bigint"`
	UpdatedAt int64  `json:"updated_at" gorm:"bigint"`
}

func periodSeconds(period string) int64 {
	if period == "day" {
		return 24 * 3600
	}
	return 30 * 24 * 3600
}

// CreateSubscription activates a plan for the user and grants its credits
// immediately. An existing active subscription is replaced.
func CreateSubscription(userId int, planId string, autoRenew bool) (*Subscription, error) {
	plan := GetSubscriptionPlanById(planId)
	if plan == nil {
		return nil, errors.New("unknown subscription plan")
	}
	now := helper.GetTimestamp()

	err := DB.Model(&Subscription{}).
		Where("user_id = ? AND status = ?", userId, common.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":     common.SubscriptionStatusCancelled,
			"updated_at": now,
		}).Error
	if err != nil {
		return nil, err
	}

	sub := Subscription{
		UserId:    userId,
		PlanId:    plan.Id,
		Status:    common.SubscriptionStatusActive,
		AutoRenew: autoRenew,
		StartedAt: now,
		RenewsAt:  now + periodSeconds(plan.Period),
		UpdatedAt: now,
	}
	err = DB.Create(&sub).Error
	if err != nil {
		return nil, err
	}
	err = IncreaseUserCredits(userId, plan.Credits)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func GetActiveSubscription(userId int) (*Subscription, error) {
	sub := Subscription{}
	err := DB.Where("user_id = ? AND status = ?", userId, common.SubscriptionStatusActive).
		Order("id desc").First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription turns auto-renew off; the plan stays usable until the
// end of the paid period.
func CancelSubscription(userId int) error {
	result := DB.Model(&Subscription{}).
		Where("user_id = ? AND status = ?", userId, common.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"auto_renew": false,
			"updated_at": helper.GetTimestamp(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("no active subscription")
	}
	return nil
}

// RenewDueSubscriptions grants credits for every auto-renewing subscription
// whose period has lapsed and pushes the renewal date forward. Expired
// non-renewing subscriptions are closed. Called from a periodic goroutine.
func RenewDueSubscriptions() error {
	now := helper.GetTimestamp()
	var due []*Subscription
	err := DB.Where("status = ? AND renews_at <= ?", common.SubscriptionStatusActive, now).Find(&due).Error
	if err != nil {
		return err
	}
	for _, sub := range due {
		plan := GetSubscriptionPlanById(sub.PlanId)
		if plan == nil {
			continue
		}
		if !sub.AutoRenew {
			err = DB.Model(sub).Updates(map[string]interface{}{
				"status":     common.SubscriptionStatusExpired,
				"updated_at": now,
			}).Error
			if err != nil {
				return err
			}
			continue
		}
		err = IncreaseUserCredits(sub.UserId, plan.Credits)
		if err != nil {
			return err
		}
		err = DB.Model(sub).Updates(map[string]interface{}{
			"renews_at":  sub.RenewsAt + periodSeconds(plan.Period),
			"updated_at": now,
		}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
