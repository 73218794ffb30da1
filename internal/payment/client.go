package payment

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Client talks to the remote gateway's REST API. Amounts are sent in the
// smallest currency unit, as the gateway requires.
type Client struct {
	baseURL string
	keyID   string
	secret  string
	http    *http.Client
}

// NewClient creates a gateway Client with the given credentials.
func NewClient(baseURL, keyID, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		keyID:   keyID,
		secret:  secret,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

var _ Gateway = (*Client)(nil)

// CreateIntent registers a payment intent with the gateway and returns the
// gateway-issued intent id.
func (c *Client) CreateIntent(ctx context.Context, amount decimal.Decimal, receipt string) (string, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("amount", func(e *jx.Encoder) {
			// Smallest currency unit.
			e.Int64(amount.Mul(decimal.NewFromInt(100)).IntPart())
		})
		e.Field("currency", func(e *jx.Encoder) { e.Str("INR") })
		e.Field("receipt", func(e *jx.Encoder) { e.Str(receipt) })
		e.Field("payment_capture", func(e *jx.Encoder) { e.Int(1) })
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(e.Bytes()))
	if err != nil {
		return "", errors.Wrap(err, "build intent request")
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "create intent")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read intent response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("gateway returned status %d", resp.StatusCode)
	}

	id, err := extractIntentID(body)
	if err != nil {
		return "", errors.Wrap(err, "parse intent response")
	}
	return id, nil
}

// extractIntentID pulls the "id" field out of the gateway response without
// depending on the rest of its (version-dependent) shape.
func extractIntentID(body []byte) (string, error) {
	var id string
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key == "id" {
			v, err := d.Str()
			if err != nil {
				return err
			}
			id = v
			return nil
		}
		return d.Skip()
	}); err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.New("response missing intent id")
	}
	return id, nil
}

// VerifySignature checks a capture callback signature against the gateway
// secret.
func (c *Client) VerifySignature(intentID, paymentID, signature string) bool {
	return VerifyHMAC([]byte(c.secret), intentID, paymentID, signature)
}
