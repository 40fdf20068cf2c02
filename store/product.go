package store

import (
	"github.com/shopspring/decimal"
)

// Product describes a one-time purchasable item. It is a tagged union keyed
// by Platform: the platform-specific pricing surface is only reachable
// through the accessor matching the tag, so a descriptor can never carry both
// stores' fields at once.
type Product struct {
	ID       string
	Title    string
	Platform Platform

	apple  *AppleProduct
	google *GoogleProduct
}

// AppleProduct is the StoreKit pricing surface of a product.
type AppleProduct struct {
	// DisplayPrice is the localized price string, e.g. "$0.99".
	DisplayPrice string
	Price        decimal.Decimal
	Currency     string
}

// GoogleProduct is the Play Billing one-time offer pricing surface.
type GoogleProduct struct {
	FormattedPrice    string
	PriceAmountMicros int64
	PriceCurrencyCode string
}

// PriceAmount converts the Play micros representation into a decimal amount.
func (g *GoogleProduct) PriceAmount() decimal.Decimal {
	return decimal.New(g.PriceAmountMicros, -6)
}

func NewAppleProduct(id, title string, detail *AppleProduct) *Product {
	return &Product{ID: id, Title: title, Platform: PlatformApple, apple: detail}
}

func NewGoogleProduct(id, title string, detail *GoogleProduct) *Product {
	return &Product{ID: id, Title: title, Platform: PlatformGoogle, google: detail}
}

// Apple returns the StoreKit detail and whether the descriptor carries one.
func (p *Product) Apple() (*AppleProduct, bool) {
	return p.apple, p.apple != nil
}

// Google returns the Play detail and whether the descriptor carries one.
func (p *Product) Google() (*GoogleProduct, bool) {
	return p.google, p.google != nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}

	clone := &Product{
		ID:       p.ID,
		Title:    p.Title,
		Platform: p.Platform,
	}
	if p.apple != nil {
		detail := *p.apple
		clone.apple = &detail
	}
	if p.google != nil {
		detail := *p.google
		clone.google = &detail
	}
	return clone
}

// Subscription describes a recurring product. Same tagged-union shape as
// Product; the Play arm additionally carries an ordered offer list.
type Subscription struct {
	ID       string
	Title    string
	Platform Platform

	apple  *AppleSubscription
	google *GoogleSubscription
}

// AppleSubscription models the single implicit offer StoreKit exposes per
// subscription.
type AppleSubscription struct {
	DisplayPrice string
	Price        decimal.Decimal
	Currency     string

	// Period is the renewal period in ISO 8601 form, e.g. "P1M".
	Period string
}

// GoogleSubscription carries the ordered offers of a Play subscription.
type GoogleSubscription struct {
	Offers []*OfferDetail
}

// OfferDetail is one selectable Play pricing offer. The token is what a
// purchase intent must carry to select the offer.
type OfferDetail struct {
	OfferID    string
	OfferToken string
	BasePlanID string
	Phases     []*PricingPhase
}

// PricingPhase is one step of an offer's pricing schedule.
type PricingPhase struct {
	// BillingPeriod is ISO 8601, e.g. "P1W", "P1M".
	BillingPeriod     string
	FormattedPrice    string
	PriceAmountMicros int64
	PriceCurrencyCode string
}

// PriceAmount converts the Play micros representation into a decimal amount.
func (ph *PricingPhase) PriceAmount() decimal.Decimal {
	return decimal.New(ph.PriceAmountMicros, -6)
}

func NewAppleSubscription(id, title string, detail *AppleSubscription) *Subscription {
	return &Subscription{ID: id, Title: title, Platform: PlatformApple, apple: detail}
}

func NewGoogleSubscription(id, title string, detail *GoogleSubscription) *Subscription {
	return &Subscription{ID: id, Title: title, Platform: PlatformGoogle, google: detail}
}

// Apple returns the StoreKit detail and whether the descriptor carries one.
func (s *Subscription) Apple() (*AppleSubscription, bool) {
	return s.apple, s.apple != nil
}

// Google returns the Play detail and whether the descriptor carries one.
func (s *Subscription) Google() (*GoogleSubscription, bool) {
	return s.google, s.google != nil
}

func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}

	clone := &Subscription{
		ID:       s.ID,
		Title:    s.Title,
		Platform: s.Platform,
	}
	if s.apple != nil {
		detail := *s.apple
		clone.apple = &detail
	}
	if s.google != nil {
		clone.google = &GoogleSubscription{
			Offers: make([]*OfferDetail, 0, len(s.google.Offers)),
		}
		for _, offer := range s.google.Offers {
			clone.google.Offers = append(clone.google.Offers, offer.Clone())
		}
	}
	return clone
}

func (o *OfferDetail) Clone() *OfferDetail {
	if o == nil {
		return nil
	}

	clone := &OfferDetail{
		OfferID:    o.OfferID,
		OfferToken: o.OfferToken,
		BasePlanID: o.BasePlanID,
		Phases:     make([]*PricingPhase, 0, len(o.Phases)),
	}
	for _, phase := range o.Phases {
		copied := *phase
		clone.Phases = append(clone.Phases, &copied)
	}
	return clone
}
