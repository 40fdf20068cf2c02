package appstore

import (
	"context"
	"encoding/json"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	productionURL = "https://buy.itunes.apple.com/verifyReceipt"
	sandboxURL    = "https://sandbox.itunes.apple.com/verifyReceipt"

	statusOK = 0

	// statusSandboxReceipt means a sandbox receipt was sent to the production
	// endpoint. Apple's guidance is to verify against production first and
	// retry sandbox on this status.
	statusSandboxReceipt = 21007

	statusServerUnavailable = 21005
)

// ErrServiceUnavailable is returned when the verification endpoint reports it
// could not process the request. The receipt itself was not judged.
var ErrServiceUnavailable = errors.New("verification service unavailable")

type VerifyRequest struct {
	ReceiptData            string `json:"receipt-data"`
	Password               string `json:"password"`
	ExcludeOldTransactions bool   `json:"exclude-old-transactions"`
}

type VerifyResponse struct {
	Status      int    `json:"status"`
	Environment string `json:"environment"`
	Receipt     struct {
		BundleID string         `json:"bundle_id"`
		InApp    []InAppReceipt `json:"in_app"`
	} `json:"receipt"`
	LatestReceiptInfo []InAppReceipt `json:"latest_receipt_info"`
}

type InAppReceipt struct {
	ProductID             string `json:"product_id"`
	TransactionID         string `json:"transaction_id"`
	OriginalTransactionID string `json:"original_transaction_id"`
	PurchaseDateMS        string `json:"purchase_date_ms"`
}

// Client talks to Apple's verifyReceipt endpoints.
type Client struct {
	secret        string
	productionURL string
	sandboxURL    string
	http          *resty.Client
}

// NewClient returns a client verifying against Apple's production endpoint,
// falling back to sandbox when production reports a sandbox receipt. Endpoint
// overrides, production then sandbox, take effect when provided.
func NewClient(sharedSecret string, baseURL ...string) *Client {
	c := &Client{
		secret:        sharedSecret,
		productionURL: productionURL,
		sandboxURL:    sandboxURL,
		http:          resty.New(),
	}
	if len(baseURL) > 0 {
		c.productionURL = baseURL[0]
	}
	if len(baseURL) > 1 {
		c.sandboxURL = baseURL[1]
	}
	return c
}

func (c *Client) VerifyReceipt(ctx context.Context, encodedReceipt string) (*VerifyResponse, error) {
	result, err := c.post(ctx, c.productionURL, encodedReceipt)
	if err != nil {
		return nil, err
	}

	if result.Status == statusSandboxReceipt {
		result, err = c.post(ctx, c.sandboxURL, encodedReceipt)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (c *Client) post(ctx context.Context, url, encodedReceipt string) (*VerifyResponse, error) {
	request := &VerifyRequest{
		ReceiptData: encodedReceipt,
		Password:    c.secret,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request).
		Post(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call verifyReceipt")
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, errors.Errorf("verifyReceipt returned non-2xx: %d, body: %s", resp.StatusCode(), resp.String())
	}

	var result VerifyResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, errors.Wrap(err, "failed to parse verifyReceipt response")
	}

	if result.Status == statusServerUnavailable {
		return nil, errors.Wrapf(ErrServiceUnavailable, "verifyReceipt status %d", result.Status)
	}

	return &result, nil
}
