package billing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"

	sharedauth "coach-backend/internal/shared/auth"
)

type fakeStripe struct {
	lastCheckout *stripe.CheckoutSessionParams
	lastPortal   *stripe.BillingPortalSessionParams
	customer     *stripe.Customer
	customerErr  error
}

func (f *fakeStripe) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.lastCheckout = params
	return &stripe.CheckoutSession{URL: "https://checkout.example/session"}, nil
}

func (f *fakeStripe) NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	f.lastPortal = params
	return &stripe.BillingPortalSession{URL: "https://portal.example/session"}, nil
}

func (f *fakeStripe) FindCustomerByEmail(email string) (*stripe.Customer, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	if f.customer == nil {
		return nil, ErrCustomerNotFound
	}
	return f.customer, nil
}

func newBillingRouter(client StripeClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rg := r.Group("/billing")
	NewHandler(client, "https://app.example/success", "https://app.example/cancel", "").RegisterRoutes(rg)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckoutSessionRequiresPriceID(t *testing.T) {
	r := newBillingRouter(&fakeStripe{})
	w := postJSON(t, r, "/billing/checkout-session", `{"mode":"payment"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["error"] == "" {
		t.Fatal("expected error message")
	}
}

func TestCheckoutSessionModeDefaultsToPayment(t *testing.T) {
	client := &fakeStripe{}
	r := newBillingRouter(client)

	w := postJSON(t, r, "/billing/checkout-session", `{"price_id":"price_123"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if client.lastCheckout == nil || client.lastCheckout.Mode == nil {
		t.Fatal("mode not set on params")
	}
	if *client.lastCheckout.Mode != string(stripe.CheckoutSessionModePayment) {
		t.Fatalf("mode = %q, want payment", *client.lastCheckout.Mode)
	}
}

func TestCheckoutSessionRejectsInvalidMode(t *testing.T) {
	r := newBillingRouter(&fakeStripe{})
	w := postJSON(t, r, "/billing/checkout-session", `{"price_id":"price_123","mode":"setup"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCheckoutSessionUsesBodyEmailFallback(t *testing.T) {
	client := &fakeStripe{}
	r := newBillingRouter(client)

	w := postJSON(t, r, "/billing/checkout-session", `{"price_id":"price_123","email":"buyer@example.com"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if client.lastCheckout.CustomerEmail == nil || *client.lastCheckout.CustomerEmail != "buyer@example.com" {
		t.Fatal("body email should be used when no bearer token is present")
	}
}

func TestCheckoutSessionPrefersTokenEmail(t *testing.T) {
	token, err := sharedauth.SignJWT(sharedauth.Claims{Sub: "google:1", Email: "user@example.com"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	client := &fakeStripe{}
	r := newBillingRouter(client)

	w := postJSON(t, r, "/billing/checkout-session",
		`{"price_id":"price_123","email":"spoof@example.com"}`,
		map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if client.lastCheckout.CustomerEmail == nil || *client.lastCheckout.CustomerEmail != "user@example.com" {
		t.Fatal("token email should win over body email")
	}
}

func TestPortalSessionRequiresAuth(t *testing.T) {
	r := newBillingRouter(&fakeStripe{})
	w := postJSON(t, r, "/billing/portal-session",
		`{"plan_type":"pro","return_url":"https://app.example/billing"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestPortalSessionAcceptsBothReturnURLKeys(t *testing.T) {
	token, err := sharedauth.SignJWT(sharedauth.Claims{Sub: "google:1", Email: "user@example.com"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	client := &fakeStripe{customer: &stripe.Customer{ID: "cus_123"}}
	r := newBillingRouter(client)

	w := postJSON(t, r, "/billing/portal-session",
		`{"plan_type":"pro","returnUrl":"https://app.example/billing"}`,
		map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if client.lastPortal == nil || client.lastPortal.ReturnURL == nil {
		t.Fatal("return url not set")
	}
	if *client.lastPortal.ReturnURL != "https://app.example/billing" {
		t.Fatalf("return url = %q", *client.lastPortal.ReturnURL)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["url"] != "https://portal.example/session" {
		t.Fatalf("url = %q", resp["url"])
	}
}

func TestPortalSessionUnknownCustomer(t *testing.T) {
	token, err := sharedauth.SignJWT(sharedauth.Claims{Sub: "google:1", Email: "user@example.com"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	r := newBillingRouter(&fakeStripe{})

	w := postJSON(t, r, "/billing/portal-session",
		`{"plan_type":"pro","return_url":"https://app.example/billing"}`,
		map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
