// Package payment builds checkout links for the supported payment providers.
package payment

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// paymeAccountField is the account parameter the merchant cabinet is set up with.
const paymeAccountField = "id"

var tiyinPerSum = decimal.NewFromInt(100)

// PaymeGateway encodes the checkout parameters into the base64 path segment
// Payme expects. Amounts are sent in tiyin.
type PaymeGateway struct {
	merchantID  string
	checkoutURL string
	returnURL   string
}

func NewPaymeGateway(cfg config.PaymeConfig) *PaymeGateway {
	return &PaymeGateway{
		merchantID:  cfg.MerchantID,
		checkoutURL: strings.TrimRight(cfg.CheckoutURL, "/"),
		returnURL:   cfg.ReturnURL,
	}
}

func (g *PaymeGateway) Provider() domain.PaymentProvider {
	return domain.ProviderPayme
}

func (g *PaymeGateway) PaymentURL(req domain.PaymentLinkRequest) (string, error) {
	if g.merchantID == "" {
		return "", fmt.Errorf("payme merchant id is not configured")
	}
	if req.TransactionID == "" {
		return "", fmt.Errorf("payme link needs a transaction id")
	}
	params := fmt.Sprintf("m=%s;ac.%s=%s;a=%s",
		g.merchantID, paymeAccountField, req.TransactionID, req.Amount.Mul(tiyinPerSum).Round(0).String())
	if g.returnURL != "" {
		params += ";c=" + g.returnURL
	}
	return g.checkoutURL + "/" + base64.StdEncoding.EncodeToString([]byte(params)), nil
}
