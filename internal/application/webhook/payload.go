// Package webhook ingests signed payment notifications. A payload is not
// trusted until its signature verifies against the shared secret; only then
// do attribution and settlement run.
package webhook

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	vo "settlo/internal/domain/order/valueobjects"
	apperrors "settlo/internal/shared/errors"
)

var txHashPattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{16,128}$`)

// Payload is the inbound notification body. Amount stays a json.Number
// until conversion so the third-decimal suffix digits survive intact.
type Payload struct {
	OrderID     string      `json:"order_id" validate:"omitempty,max=64"`
	Amount      json.Number `json:"amount" validate:"required"`
	TxHash      string      `json:"tx_hash" validate:"required"`
	BlockNumber int64       `json:"block_number" validate:"gte=0"`
	Timestamp   int64       `json:"timestamp" validate:"required,gt=0"`
	OrderType   string      `json:"order_type" validate:"omitempty,oneof=subscription deposit currency_swap network_fee"`
	Signature   string      `json:"signature" validate:"required,len=64,hexadecimal"`
}

// ParsePayload decodes the raw body. Decode failures are malformed-payload
// errors so the transport layer can answer 400 without inspecting the body.
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, apperrors.NewMalformedPayloadError("invalid JSON body", err.Error())
	}
	return &p, nil
}

// Validate checks shape and field ranges: amount plausibility, hash format
// and the timestamp freshness window. Runs after signature verification,
// before any storage lookup.
func (p *Payload) Validate(v *validator.Validate, now time.Time, skew time.Duration) error {
	if err := v.Struct(p); err != nil {
		return apperrors.NewMalformedPayloadError("payload failed validation", err.Error())
	}

	if !txHashPattern.MatchString(p.TxHash) {
		return apperrors.NewMalformedPayloadError(fmt.Sprintf("malformed tx hash %q", p.TxHash))
	}

	if _, err := p.AmountMicro(); err != nil {
		return err
	}

	ts := time.Unix(p.Timestamp, 0).UTC()
	if ts.Before(now.Add(-skew)) || ts.After(now.Add(skew)) {
		return apperrors.NewMalformedPayloadError(
			fmt.Sprintf("timestamp %d outside freshness window of %s", p.Timestamp, skew))
	}

	return nil
}

// AmountMicro converts the reported amount to micro-units, rounding to the
// nearest micro to absorb float formatting noise from upstream notifiers.
func (p *Payload) AmountMicro() (int64, error) {
	m, err := vo.MicroFromReceived(p.Amount.String())
	if err != nil {
		return 0, apperrors.NewMalformedPayloadError(fmt.Sprintf("implausible amount %q", p.Amount.String()), err.Error())
	}
	return m, nil
}

// Type returns the declared order type, empty when the notifier did not set
// one. Attribution falls back to the matched order's own type in that case.
func (p *Payload) Type() vo.OrderType {
	return vo.OrderType(p.OrderType)
}
