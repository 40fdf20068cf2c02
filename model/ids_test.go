package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderID(t *testing.T) {
	id := MustGenerateOrderID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	require.NotEqual(t, id, MustGenerateOrderID())
}

func TestGeneratePurchaseToken(t *testing.T) {
	token := MustGeneratePurchaseToken()

	decoded, err := base58.Decode(token)
	require.NoError(t, err)
	require.Len(t, decoded, 16)

	require.NotEqual(t, token, MustGeneratePurchaseToken())
}
