package payment

import (
	"fmt"
	"net/url"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
)

// ClickGateway builds a my.click.uz services/pay link with the amount in sum.
type ClickGateway struct {
	serviceID   string
	merchantID  string
	checkoutURL string
	returnURL   string
}

func NewClickGateway(cfg config.ClickConfig) *ClickGateway {
	return &ClickGateway{
		serviceID:   cfg.ServiceID,
		merchantID:  cfg.MerchantID,
		checkoutURL: cfg.CheckoutURL,
		returnURL:   cfg.ReturnURL,
	}
}

func (g *ClickGateway) Provider() domain.PaymentProvider {
	return domain.ProviderClick
}

func (g *ClickGateway) PaymentURL(req domain.PaymentLinkRequest) (string, error) {
	if g.serviceID == "" || g.merchantID == "" {
		return "", fmt.Errorf("click service and merchant ids are not configured")
	}
	if req.TransactionID == "" {
		return "", fmt.Errorf("click link needs a transaction id")
	}
	u, err := url.Parse(g.checkoutURL)
	if err != nil {
		return "", fmt.Errorf("invalid click checkout url: %w", err)
	}
	q := u.Query()
	q.Set("service_id", g.serviceID)
	q.Set("merchant_id", g.merchantID)
	q.Set("amount", req.Amount.StringFixed(2))
	q.Set("transaction_param", req.TransactionID)
	if g.returnURL != "" {
		q.Set("return_url", g.returnURL)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
