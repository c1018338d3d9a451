// Package checkout collects and validates the fields needed to place an
// order, assembles the submission draft, and seeds the next checkout's
// prefill. It performs no network calls; the draft is handed to the payment
// orchestrator.
package checkout

import (
	"errors"
	"fmt"
	"log"
	"time"

	"restaurant-storefront/models"
	"restaurant-storefront/pricing"
	"restaurant-storefront/storage"

	"github.com/go-playground/validator/v10"
)

// ReorderSeedTTL is how long a saved reorder snapshot wins the prefill
// precedence over saved addresses and the profile.
const ReorderSeedTTL = 5 * time.Minute

// Form is one checkout submission as entered by the customer
type Form struct {
	FirstName string `json:"f_name" validate:"required"`
	LastName  string `json:"l_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`

	OrderType     models.OrderType     `json:"order_type" validate:"required,oneof=delivery pickup"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=cash_on_delivery digital_payment"`

	Address string `json:"address" validate:"required_if=OrderType delivery"`
	City    string `json:"city" validate:"required_if=OrderType delivery"`
	State   string `json:"state" validate:"required_if=OrderType delivery"`
	Zip     string `json:"zip" validate:"required_if=OrderType delivery"`

	Scheduled  bool       `json:"scheduled"`
	ScheduleAt *time.Time `json:"schedule_at"`

	Note    string               `json:"note"`
	Cutlery bool                 `json:"cutlery"`
	Tip     pricing.TipSelection `json:"tip"`

	Coupon *models.AppliedCoupon `json:"coupon,omitempty"`
}

// ValidationError carries field-keyed messages back to the form
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: %d invalid field(s)", len(e.Fields))
}

// Controller owns form validation, prefill and draft assembly
type Controller struct {
	validate *validator.Validate
	state    *storage.CheckoutState
	now      func() time.Time
}

func NewController(state *storage.CheckoutState) *Controller {
	return &Controller{
		validate: validator.New(),
		state:    state,
		now:      time.Now,
	}
}

// SetClock overrides the controller's clock, mainly for tests
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// Validate checks the conditional ruleset: contact fields and payment method
// always, the address block only for delivery, a future schedule time only
// when scheduling is on.
func (c *Controller) Validate(form Form) error {
	fields := map[string]string{}
	if err := c.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = messageFor(fe)
		}
	}
	if form.Scheduled {
		if form.ScheduleAt == nil {
			fields["ScheduleAt"] = "schedule time is required"
		} else if !form.ScheduleAt.After(c.now()) {
			fields["ScheduleAt"] = "schedule time must be in the future"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "invalid value"
	}
}

// Prefill resolves the starting form values. Precedence, highest first: a
// reorder seed saved within ReorderSeedTTL, the first saved address, the
// profile's name and phone, empty defaults.
func (c *Controller) Prefill(profile *models.Profile, addresses []models.Address) Form {
	var form Form
	form.OrderType = models.OrderDelivery

	if profile != nil {
		form.FirstName = profile.FirstName
		form.LastName = profile.LastName
		form.Phone = profile.Phone
		form.Email = profile.Email
	}
	if len(addresses) > 0 {
		form.Address = addresses[0].Address
		form.City = addresses[0].City
		form.State = addresses[0].State
		form.Zip = addresses[0].Zip
	}
	if seed, ok := c.state.ReorderSeed(); ok && c.now().Sub(seed.SavedAt) <= ReorderSeedTTL {
		form.FirstName = seed.FirstName
		form.LastName = seed.LastName
		form.Phone = seed.Phone
		form.Address = seed.Address
		form.City = seed.City
		form.State = seed.State
		form.Zip = seed.Zip
		if seed.OrderType != "" {
			form.OrderType = seed.OrderType
		}
	}
	return form
}

// BuildDraft validates the form, computes the canonical quote and assembles
// the order draft. The same quote total becomes the submitted order_amount.
// A successful build also snapshots the reorder seed, independent of how the
// payment later turns out.
func (c *Controller) BuildDraft(form Form, items []models.CartItem, meta models.RestaurantMeta, cfg models.PlatformConfig, guestID string) (models.OrderDraft, pricing.Breakdown, error) {
	if err := c.Validate(form); err != nil {
		return models.OrderDraft{}, pricing.Breakdown{}, err
	}

	quote := pricing.Quote(items, meta, cfg, form.OrderType, form.Tip, form.Coupon)

	draft := models.OrderDraft{
		RestaurantID:   meta.ID,
		OrderType:      form.OrderType,
		PaymentMethod:  form.PaymentMethod,
		ScheduleAt:     form.ScheduleAt,
		OrderAmount:    quote.Total,
		DeliveryCharge: quote.DeliveryFee,
		TipAmount:      quote.Tip,
		Cutlery:        form.Cutlery,
		FirstName:      form.FirstName,
		LastName:       form.LastName,
		Phone:          form.Phone,
		Email:          form.Email,
		Address:        form.Address,
		City:           form.City,
		State:          form.State,
		Zip:            form.Zip,
		Note:           form.Note,
		GuestID:        guestID,
		Items:          items,
	}
	if !form.Scheduled {
		draft.ScheduleAt = nil
	}
	if form.Coupon != nil {
		draft.CouponCode = form.Coupon.Code
		draft.CouponDiscount = quote.CouponDiscount
	}

	seed := models.ReorderSeed{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Phone:     form.Phone,
		Address:   form.Address,
		City:      form.City,
		State:     form.State,
		Zip:       form.Zip,
		OrderType: form.OrderType,
		SavedAt:   c.now(),
	}
	if err := c.state.SetReorderSeed(seed); err != nil {
		log.Printf("checkout: could not save reorder seed: %v", err)
	}

	return draft, quote, nil
}
