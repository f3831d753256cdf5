package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// TopupPackage is a one-off credit bundle the API sells. TotalCredits,
// bonus included, is what lands on the account.
type TopupPackage struct {
	Id           string  `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Credits      int     `json:"credits"`
	BonusCredits int     `json:"bonus_credits"`
	TotalCredits int     `json:"total_credits"`
}

// TopupPackages lists the purchasable credit bundles.
func (c *Client) TopupPackages(ctx context.Context) ([]TopupPackage, error) {
	var list []TopupPackage
	if err := c.do(ctx, http.MethodGet, "/api/topup/packages", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Topup is the answer to a purchase request. With a payment provider
// configured CheckoutUrl is set and the credits arrive after checkout; in
// dev mode the order settles immediately and UserCredits carries the new
// total.
type Topup struct {
	PurchaseId       int    `json:"purchase_id"`
	CheckoutUrl      string `json:"checkout_url"`
	Status           int    `json:"status"`
	UserCredits      int    `json:"user_credits"`
	CreditsPurchased int    `json:"credits_purchased"`
}

// CreateTopup opens a purchase order for the named package.
func (c *Client) CreateTopup(ctx context.Context, packageId string) (*Topup, error) {
	raw, err := c.doRaw(ctx, http.MethodPost, "/api/topup/create", map[string]string{
		"package": packageId,
	})
	if err != nil {
		return nil, err
	}
	var t Topup
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	c.applyCreditTotal(t.UserCredits, t.CheckoutUrl == "")
	return &t, nil
}

// CompleteTopup settles a pending order after the payment flow finished.
func (c *Client) CompleteTopup(ctx context.Context, purchaseId int, paymentId string) (*Topup, error) {
	raw, err := c.doRaw(ctx, http.MethodPost, "/api/topup/complete", map[string]any{
		"purchase_id": purchaseId,
		"payment_id":  paymentId,
	})
	if err != nil {
		return nil, err
	}
	var t Topup
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	t.PurchaseId = purchaseId
	c.applyCreditTotal(t.UserCredits, true)
	return &t, nil
}

// applyCreditTotal folds a settled purchase into the cached balance. Only
// the total changed server-side; holds are untouched by top-ups.
func (c *Client) applyCreditTotal(total int, settled bool) {
	if !settled || total <= 0 {
		return
	}
	last, ok := c.Balance.Last()
	if !ok {
		return
	}
	last.Credits = total
	last.AvailableCredits = total - last.HeldCredits
	c.Balance.Set(last)
}

// SubscriptionPlan is a recurring credit grant.
type SubscriptionPlan struct {
	Id       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Credits  int     `json:"credits"`
	Period   string  `json:"period"`
	Popular  bool    `json:"popular"`
}

// SubscriptionPlans lists the available plans.
func (c *Client) SubscriptionPlans(ctx context.Context) ([]SubscriptionPlan, error) {
	var list []SubscriptionPlan
	if err := c.do(ctx, http.MethodGet, "/api/subscriptions/plans", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Subscription is the caller's active plan, if any.
type Subscription struct {
	Id        int    `json:"id"`
	PlanId    string `json:"plan"`
	Status    string `json:"status"`
	AutoRenew bool   `json:"auto_renew"`
	StartedAt int64  `json:"started_at"`
	RenewsAt  int64  `json:"renews_at"`
}

type subscriptionResponse struct {
	Subscription *Subscription `json:"subscription"`
	UserCredits  int           `json:"user_credits"`
}

// Subscribe activates a plan; the plan's credits are granted immediately and
// the cached balance is updated from the response.
func (c *Client) Subscribe(ctx context.Context, planId string, autoRenew bool) (*Subscription, error) {
	var resp subscriptionResponse
	err := c.do(ctx, http.MethodPost, "/api/subscriptions/create", map[string]any{
		"plan":       planId,
		"auto_renew": autoRenew,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.applyCreditTotal(resp.UserCredits, true)
	return resp.Subscription, nil
}

// SubscriptionInfo returns the active subscription, nil when there is none.
func (c *Client) SubscriptionInfo(ctx context.Context) (*Subscription, error) {
	var resp subscriptionResponse
	if err := c.do(ctx, http.MethodGet, "/api/subscriptions/info", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Subscription, nil
}

// CancelSubscription turns off auto-renew; the plan stays active until
// RenewsAt.
func (c *Client) CancelSubscription(ctx context.Context) (*Subscription, error) {
	var resp subscriptionResponse
	if err := c.do(ctx, http.MethodPost, "/api/subscriptions/cancel", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Subscription, nil
}
