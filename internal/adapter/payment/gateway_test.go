package payment

import (
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymeGateway_PaymentURL(t *testing.T) {
	gw := NewPaymeGateway(config.PaymeConfig{
		MerchantID:  "merchant-1",
		CheckoutURL: "https://checkout.paycom.uz/",
		ReturnURL:   "https://kelajakmediklari.uz/",
	})
	assert.Equal(t, domain.ProviderPayme, gw.Provider())

	link, err := gw.PaymentURL(domain.PaymentLinkRequest{
		TransactionID: "tx-42",
		Amount:        decimal.RequireFromString("150000.50"),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://checkout.paycom.uz/"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(link, "https://checkout.paycom.uz/"))
	require.NoError(t, err)
	assert.Equal(t, "m=merchant-1;ac.id=tx-42;a=15000050;c=https://kelajakmediklari.uz/", string(raw))
}

func TestPaymeGateway_RequiresMerchant(t *testing.T) {
	gw := NewPaymeGateway(config.PaymeConfig{CheckoutURL: "https://checkout.paycom.uz"})
	_, err := gw.PaymentURL(domain.PaymentLinkRequest{TransactionID: "tx", Amount: decimal.NewFromInt(1)})
	assert.Error(t, err)
}

func TestClickGateway_PaymentURL(t *testing.T) {
	gw := NewClickGateway(config.ClickConfig{
		ServiceID:   "svc-7",
		MerchantID:  "m-9",
		CheckoutURL: "https://my.click.uz/services/pay",
		ReturnURL:   "https://kelajakmediklari.uz/",
	})
	assert.Equal(t, domain.ProviderClick, gw.Provider())

	link, err := gw.PaymentURL(domain.PaymentLinkRequest{TransactionID: "tx-42", Amount: decimal.NewFromInt(80000)})
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "my.click.uz", u.Host)
	assert.Equal(t, "/services/pay", u.Path)
	assert.Equal(t, "svc-7", u.Query().Get("service_id"))
	assert.Equal(t, "m-9", u.Query().Get("merchant_id"))
	assert.Equal(t, "80000.00", u.Query().Get("amount"))
	assert.Equal(t, "tx-42", u.Query().Get("transaction_param"))
	assert.Equal(t, "https://kelajakmediklari.uz/", u.Query().Get("return_url"))
}

func TestClickGateway_RequiresIDs(t *testing.T) {
	gw := NewClickGateway(config.ClickConfig{CheckoutURL: "https://my.click.uz/services/pay"})
	_, err := gw.PaymentURL(domain.PaymentLinkRequest{TransactionID: "tx", Amount: decimal.NewFromInt(1)})
	assert.Error(t, err)
}
