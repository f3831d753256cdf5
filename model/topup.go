package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/webhook"
	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/common/helper"
	"github.com/timera-ai/timera-api/common/logger"
)

// TopupPackage is a static purchasable credit bundle. BonusCredits are free
// extras on the larger bundles; TotalCredits is what actually lands on the
// account.
type TopupPackage struct {
	Id           string  `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Credits      int     `json:"credits"`
	BonusCredits int     `json:"bonus_credits"`
	TotalCredits int     `json:"total_credits"`
	StripePrice  string  `json:"-"`
}

var TopupPackages = []TopupPackage{
	{Id: "small", Name: "Small", Price: 5, Currency: "₼", Credits: 250, BonusCredits: 0, TotalCredits: 250},
	{Id: "medium", Name: "Medium", Price: 15, Currency: "₼", Credits: 800, BonusCredits: 50, TotalCredits: 850},
	{Id: "large", Name: "Large", Price: 29, Currency: "₼", Credits: 1700, BonusCredits: 200, TotalCredits: 1900},
	{Id: "mega", Name: "Mega", Price: 55, Currency: "₼", Credits: 3500, BonusCredits: 600, TotalCredits: 4100},
}

func GetTopupPackageById(id string) *TopupPackage {
	for i := range TopupPackages {
		if TopupPackages[i].Id == id {
			return &TopupPackages[i]
		}
	}
	return nil
}

type TopupOrder struct {
	Id        int     `json:"id"`
	UserId    int     `json:"user_id" gorm:"index"`
	OrderNo   string  `json:"order_no" gorm:"uniqueIndex"`
	PackageId string  `json:"package_id"`
	PaymentId string  `json:"payment_id"`
	Status    int     `json:"status" gorm:"index;default:1"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Credits   int     `json:"credits"`
	CreatedAt int64   `json:"created_at" gorm:"bigint"`
	UpdatedAt int64   `json:"updated_at" gorm:"bigint"`
}

// CreateTopupOrder records the purchase intent and, when Stripe is enabled,
// returns a hosted checkout URL.
func CreateTopupOrder(userId int, packageId string, paymentId string) (*TopupOrder, string, error) {
	pkg := GetTopupPackageById(packageId)
	if pkg == nil {
		return nil, "", errors.New("unknown top-up package")
	}
	order := TopupOrder{
		UserId:    userId,
		OrderNo:   helper.GenOrderNo(),
		PackageId: pkg.Id,
		PaymentId: paymentId,
		Status:    common.TopupStatusCreated,
		Amount:    pkg.Price,
		Currency:  pkg.Currency,
		Credits:   pkg.TotalCredits,
		CreatedAt: helper.GetTimestamp(),
		UpdatedAt: helper.GetTimestamp(),
	}
	err := DB.Create(&order).Error
	if err != nil {
		return nil, "", err
	}

	if !config.StripePaymentEnabled {
		return &order, "", nil
	}

	stripe.Key = config.StripePrivateKey
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s credit pack (%d credits)", pkg.Name, pkg.TotalCredits)),
					},
					UnitAmount: stripe.Int64(int64(pkg.Price * 100)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(config.StripeSuccessUrl + "?purchase_id=" + fmt.Sprintf("%d", order.Id)),
		CancelURL:  stripe.String(config.StripeCancelUrl),
		Metadata: map[string]string{
			"order_no": order.OrderNo,
		},
	}
	result, err := session.New(params)
	if err != nil {
		return nil, "", err
	}
	return &order, result.URL, nil
}

// CompleteTopupOrder credits the account exactly once. The status guard in
// the UPDATE makes the webhook and the redirect completion path idempotent
// with respect to each other.
func CompleteTopupOrder(orderId int, userId int, paymentId string) (*TopupOrder, error) {
	order := TopupOrder{}
	err := DB.First(&order, "id = ? AND user_id = ?", orderId, userId).Error
	if err != nil {
		return nil, err
	}
	return settleTopupOrder(&order, paymentId)
}

func completeTopupOrderByOrderNo(orderNo string, paymentId string) (*TopupOrder, error) {
	order := TopupOrder{}
	err := DB.First(&order, "order_no = ?", orderNo).Error
	if err != nil {
		return nil, err
	}
	return settleTopupOrder(&order, paymentId)
}

func settleTopupOrder(order *TopupOrder, paymentId string) (*TopupOrder, error) {
	if order.Status == common.TopupStatusPaid {
		return order, nil
	}
	result := DB.Model(&TopupOrder{}).
		Where("id = ? AND status IN ?", order.Id, []int{common.TopupStatusCreated, common.TopupStatusPending}).
		Updates(map[string]interface{}{
			"status":     common.TopupStatusPaid,
			"payment_id": paymentId,
			"updated_at": helper.GetTimestamp(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// someone else settled it first, nothing more to credit
		return order, nil
	}
	err := IncreaseUserCredits(order.UserId, order.Credits)
	if err != nil {
		return nil, err
	}
	order.Status = common.TopupStatusPaid
	order.PaymentId = paymentId
	return order, nil
}

func GetUserTopupOrders(userId int, startIdx int, num int) ([]*TopupOrder, error) {
	var orders []*TopupOrder
	err := DB.Where("user_id = ?", userId).Order("id desc").Limit(num).Offset(startIdx).Find(&orders).Error
	return orders, err
}

// HandleStripeCallback verifies and applies a Stripe webhook event. Orders
// are matched by the order_no we put in the session metadata.
func HandleStripeCallback(req *http.Request) error {
	const MaxBodyBytes = int64(65536)
	payload, err := io.ReadAll(io.LimitReader(req.Body, MaxBodyBytes))
	if err != nil {
		return err
	}

	signatureHeader := req.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, signatureHeader, config.StripeEndpointSecret)
	if err != nil {
		return err
	}

	switch event.Type {
	case "checkout.session.completed":
		var checkoutSession stripe.CheckoutSession
		err := json.Unmarshal(event.Data.Raw, &checkoutSession)
		if err != nil {
			return err
		}
		orderNo := checkoutSession.Metadata["order_no"]
		if orderNo == "" {
			return errors.New("checkout session has no order_no metadata")
		}
		_, err = completeTopupOrderByOrderNo(orderNo, checkoutSession.ID)
		return err
	case "payment_intent.payment_failed":
		var paymentIntent stripe.PaymentIntent
		err := json.Unmarshal(event.Data.Raw, &paymentIntent)
		if err != nil {
			return err
		}
		logger.SysLog(fmt.Sprintf("stripe payment failed: %s", paymentIntent.ID))
		return nil
	default:
		logger.SysLog(fmt.Sprintf("unhandled stripe event type: %s", event.Type))
	}
	return nil
}
