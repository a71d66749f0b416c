package cart

import (
	"context"
	"log/slog"

	"storefront/internal/model"
	"storefront/internal/notify"
)

// Buyer is who is checking out. session.Session implements it.
type Buyer interface {
	IsGuest() bool
}

// CheckoutDetails is the contact and delivery information for an order.
type CheckoutDetails struct {
	FullName              string `json:"fullName"`
	Email                 string `json:"email"`
	PhoneNumber           string `json:"phoneNumber"`
	CurrentLocation       string `json:"currentLocation"`
	PreferredDeliveryTime string `json:"preferredDeliveryTime"`
}

type order struct {
	CheckoutDetails
	Items []LineItem `json:"items"`
	Total float64    `json:"total"`
}

// Checkout places an order for the current lines and empties the cart on
// success. Guests are sent to signup.
func (c *Cart) Checkout(ctx context.Context, buyer Buyer, details CheckoutDetails) *model.Result {
	if buyer == nil || buyer.IsGuest() {
		return model.FromError(model.NewValidationError("account", MsgSignupRequired))
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	items := c.Items()
	if len(items) == 0 {
		return model.FromError(model.NewValidationError("items", MsgEmptyCart))
	}

	res := c.remote.SubmitCheckout(ctx, order{
		CheckoutDetails: details,
		Items:           items,
		Total:           c.Total(),
	})
	if !res.Success {
		c.logger.Warn("checkout rejected", slog.String("message", res.Message))
		c.notifier.Notify(notify.LevelError, orDefault(res.Message, "Error submitting order. Please try again."))
		return res
	}

	c.logger.Info("order placed", slog.Int("lines", len(items)))
	c.set(ctx, nil)
	if cleared := c.remote.EmptyCart(ctx); !cleared.Success {
		c.logger.Warn("emptying remote cart after checkout", slog.String("message", cleared.Message))
	}
	c.notifier.Notify(notify.LevelSuccess, orDefault(res.Message, MsgOrderPlaced))
	return res
}
