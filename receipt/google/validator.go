package google

import (
	"context"

	"github.com/code-payments/iap-client/receipt"
)

const indeterminateReason = "purchase tokens are verified by the Play Developer API, which requires service account credentials the client does not hold"

// Validator reports the Play side of receipt validation. Purchase tokens can
// only be judged by the Play Developer API with server-held credentials, so
// every validation is Indeterminate; RequiredParams documents what a
// server-side verifier needs to finish the job.
type Validator struct {
	packageName string
}

func NewValidator(packageName string) *Validator {
	return &Validator{packageName: packageName}
}

func (v *Validator) Validate(ctx context.Context, productID string) (*receipt.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &receipt.ValidationResult{
		Status: receipt.StatusIndeterminate,
		Reason: indeterminateReason,
	}, nil
}

// RequiredParams returns the parameters a server-side verifier needs to
// validate productToken. AccessToken is the server's own credential and is
// always empty here.
func (v *Validator) RequiredParams(productToken string) receipt.VerificationParams {
	return receipt.VerificationParams{
		PackageName:  v.packageName,
		ProductToken: productToken,
	}
}
