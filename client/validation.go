package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/code-payments/iap-client/receipt"
)

// ValidateReceipt drives the configured validator for productID and tracks
// the attempt's lifecycle: the status moves to Validating while the check is
// in flight and lands on the validator's outcome. If the attempt itself
// cannot run (cancelled context, unreachable verification endpoint) the
// status returns to Idle and the error is reported for the caller to retry.
//
// An Indeterminate outcome is not a failure: on platforms without local
// receipt data it is the only possible answer.
func (c *Client) ValidateReceipt(ctx context.Context, productID string) (*receipt.ValidationResult, error) {
	c.setValidationStatus(productID, receipt.StatusValidating)

	result, err := c.validator.Validate(ctx, productID)
	if err != nil {
		c.setValidationStatus(productID, receipt.StatusIdle)
		return nil, err
	}

	c.setValidationStatus(productID, result.Status)

	c.log.Debug("Receipt validated",
		zap.String("product_id", productID),
		zap.String("status", result.Status.String()),
	)

	return result, nil
}

// ValidationStatus reads the lifecycle status of productID's most recent
// validation attempt. StatusIdle before any attempt.
func (c *Client) ValidationStatus(productID string) receipt.Status {
	c.validationsMu.Lock()
	defer c.validationsMu.Unlock()

	return c.validations[productID]
}

func (c *Client) setValidationStatus(productID string, status receipt.Status) {
	c.validationsMu.Lock()
	c.validations[productID] = status
	c.validationsMu.Unlock()
}
