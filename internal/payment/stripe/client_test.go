package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	paymentdomain "github.com/contenivelabs/renewal/internal/payment/domain"
)

func TestCreateChargeSuccess(t *testing.T) {
	var gotForm map[string]string
	var gotIdempotencyKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))
		gotIdempotencyKey = r.Header.Get("Idempotency-Key")

		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for key := range r.PostForm {
			gotForm[key] = r.PostForm.Get(key)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","status":"succeeded","amount":999,"currency":"usd"}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test_abc", srv.URL)
	result, err := client.CreateCharge(context.Background(), paymentdomain.ChargeRequest{
		CustomerID:      "cus_1",
		PaymentMethodID: "pm_1",
		Amount:          999,
		Currency:        "USD",
		IdempotencyKey:  "plan_renewal:42",
	})
	require.NoError(t, err)
	require.Equal(t, "pi_1", result.ProviderPaymentID)
	require.Equal(t, "succeeded", result.Status)

	require.Equal(t, "plan_renewal:42", gotIdempotencyKey)
	require.Equal(t, "999", gotForm["amount"])
	require.Equal(t, "usd", gotForm["currency"])
	require.Equal(t, "cus_1", gotForm["customer"])
	require.Equal(t, "pm_1", gotForm["payment_method"])
	require.Equal(t, "true", gotForm["confirm"])
	require.Equal(t, "true", gotForm["off_session"])
}

func TestCreateChargeCardDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test_abc", srv.URL)
	_, err := client.CreateCharge(context.Background(), paymentdomain.ChargeRequest{
		CustomerID:      "cus_1",
		PaymentMethodID: "pm_1",
		Amount:          999,
		Currency:        "usd",
	})
	require.ErrorIs(t, err, paymentdomain.ErrCardDeclined)
}

func TestCreateChargeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such customer"}}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test_abc", srv.URL)
	_, err := client.CreateCharge(context.Background(), paymentdomain.ChargeRequest{
		CustomerID:      "cus_missing",
		PaymentMethodID: "pm_1",
		Amount:          999,
		Currency:        "usd",
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, paymentdomain.ErrCardDeclined)
	require.Contains(t, err.Error(), "No such customer")
}

func TestCreateChargeMissingAPIKey(t *testing.T) {
	client := NewClient("", "")
	_, err := client.CreateCharge(context.Background(), paymentdomain.ChargeRequest{Amount: 1, Currency: "usd"})
	require.Error(t, err)
}
