package store

import (
	"fmt"
	"time"
)

// ProductType mirrors the two purchase categories every store distinguishes.
type ProductType uint8

const (
	TypeUnknown ProductType = iota
	TypeInApp
	TypeSubs
)

func (t ProductType) String() string {
	switch t {
	case TypeInApp:
		return "inapp"
	case TypeSubs:
		return "subs"
	default:
		return "unknown"
	}
}

// PurchaseIntent is one purchase attempt as assembled by the caller. Intents
// are transient; the store keeps no record of them.
type PurchaseIntent struct {
	SKUs []string
	Type ProductType

	// OfferTokens selects a pricing offer per SKU. Play subscriptions with
	// offers require an entry for every SKU in the intent; StoreKit ignores
	// them.
	OfferTokens map[string]string
}

func (i *PurchaseIntent) Clone() *PurchaseIntent {
	if i == nil {
		return nil
	}

	clone := &PurchaseIntent{
		SKUs: append([]string(nil), i.SKUs...),
		Type: i.Type,
	}
	if i.OfferTokens != nil {
		clone.OfferTokens = make(map[string]string, len(i.OfferTokens))
		for sku, token := range i.OfferTokens {
			clone.OfferTokens[sku] = token
		}
	}
	return clone
}

// Purchase is the success payload of a purchase result.
type Purchase struct {
	SKU     string
	OrderID string

	// Token is the opaque purchase token verification calls are keyed by.
	Token string

	// Receipt is the platform's proof of purchase: signed receipt data or a
	// JWS on Apple, the purchase token on Google.
	Receipt string

	Platform    Platform
	PurchasedAt time.Time
}

func (p *Purchase) Clone() *Purchase {
	if p == nil {
		return nil
	}

	clone := *p
	return &clone
}

// PurchaseErrorCode classifies failed purchase outcomes.
type PurchaseErrorCode uint8

const (
	PurchaseErrorUnknown PurchaseErrorCode = iota
	PurchaseErrorCancelled
	PurchaseErrorItemUnavailable
	PurchaseErrorAlreadyOwned
	PurchaseErrorNetwork
	PurchaseErrorDeveloper
)

func (c PurchaseErrorCode) String() string {
	switch c {
	case PurchaseErrorCancelled:
		return "cancelled"
	case PurchaseErrorItemUnavailable:
		return "item_unavailable"
	case PurchaseErrorAlreadyOwned:
		return "already_owned"
	case PurchaseErrorNetwork:
		return "network"
	case PurchaseErrorDeveloper:
		return "developer"
	default:
		return "unknown"
	}
}

// PurchaseError is the failure payload of a purchase result. It is event
// data for consumer-facing messaging, never a synchronous return from
// dispatch.
type PurchaseError struct {
	SKU     string
	Code    PurchaseErrorCode
	Message string
}

func (e *PurchaseError) Error() string {
	return fmt.Sprintf("purchase of %s failed (%s): %s", e.SKU, e.Code, e.Message)
}

func (e *PurchaseError) Clone() *PurchaseError {
	if e == nil {
		return nil
	}

	clone := *e
	return &clone
}

// PurchaseResult is the outcome union delivered for every purchase attempt
// and every store-driven redelivery. Exactly one of Purchase or Err is set.
type PurchaseResult struct {
	Purchase *Purchase
	Err      *PurchaseError
}

func (r *PurchaseResult) Succeeded() bool {
	return r.Purchase != nil
}

func (r *PurchaseResult) Clone() *PurchaseResult {
	if r == nil {
		return nil
	}

	return &PurchaseResult{
		Purchase: r.Purchase.Clone(),
		Err:      r.Err.Clone(),
	}
}

// SyncErrorCode classifies session-level store failures.
type SyncErrorCode uint8

const (
	SyncCodeUnknown SyncErrorCode = iota
	SyncCodeReauthRequired
	SyncCodeStoreUnavailable
	SyncCodeSessionExpired
)

func (c SyncErrorCode) String() string {
	switch c {
	case SyncCodeReauthRequired:
		return "reauth_required"
	case SyncCodeStoreUnavailable:
		return "store_unavailable"
	case SyncCodeSessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}

// SyncError is a session-level failure independent of any single purchase,
// e.g. the store demanding the user re-authenticate.
type SyncError struct {
	Code    SyncErrorCode
	Message string
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("store sync error (%s): %s", e.Code, e.Message)
}

// Terminal reports whether the billing session is unrecoverable. A terminal
// sync error ends the connection.
func (e *SyncError) Terminal() bool {
	return e.Code == SyncCodeSessionExpired
}

// Signature identifies the underlying cause; repeated emissions of the same
// cause share a signature.
func (e *SyncError) Signature() string {
	return fmt.Sprintf("%s:%s", e.Code, e.Message)
}

func (e *SyncError) Clone() *SyncError {
	if e == nil {
		return nil
	}

	clone := *e
	return &clone
}
