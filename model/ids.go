package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// GenerateOrderID mints a store-side order identifier for a completed
// purchase (the shape a billing backend would stamp on the transaction).
func GenerateOrderID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func MustGenerateOrderID() string {
	id, err := GenerateOrderID()
	if err != nil {
		panic(fmt.Sprintf("failed to generate order id: %v", err))
	}

	return id
}

// GeneratePurchaseToken mints an opaque purchase token of the kind a store
// hands back with a completed purchase and expects on later verification
// calls.
func GeneratePurchaseToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return base58.Encode(id[:]), nil
}

func MustGeneratePurchaseToken() string {
	token, err := GeneratePurchaseToken()
	if err != nil {
		panic(fmt.Sprintf("failed to generate purchase token: %v", err))
	}

	return token
}
