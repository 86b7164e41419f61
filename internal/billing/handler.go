package billing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"

	sharedauth "coach-backend/internal/shared/auth"
	"coach-backend/internal/shared/telemetry"
)

// Handler creates hosted checkout and billing-portal sessions. These routes
// sit outside the authenticated API group; identity comes from the bearer
// token when present.
type Handler struct {
	Client         StripeClient
	SuccessURL     string
	CancelURL      string
	PortalConfigID string
}

func NewHandler(client StripeClient, successURL, cancelURL, portalConfigID string) *Handler {
	return &Handler{
		Client:         client,
		SuccessURL:     successURL,
		CancelURL:      cancelURL,
		PortalConfigID: portalConfigID,
	}
}

// RegisterRoutes attaches billing routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout-session", h.createCheckoutSession)
	rg.POST("/portal-session", h.createPortalSession)
}

type checkoutRequest struct {
	PriceID string `json:"price_id"`
	Mode    string `json:"mode"`
	Email   string `json:"email"`
}

func (h *Handler) createCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}
	if strings.TrimSpace(req.PriceID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price_id is required"})
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = string(stripe.CheckoutSessionModePayment)
	}
	if mode != string(stripe.CheckoutSessionModePayment) && mode != string(stripe.CheckoutSessionModeSubscription) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be payment or subscription"})
		return
	}

	// Token identity preferred; the body email is an accepted fallback so a
	// purchase can start before login completes.
	email := emailFromBearer(c)
	if email == "" {
		email = strings.TrimSpace(req.Email)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(mode),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(h.SuccessURL),
		CancelURL:  stripe.String(h.CancelURL),
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	session, err := h.Client.NewCheckoutSession(params)
	if err != nil {
		telemetry.Error("billing.checkout_failed", map[string]any{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create checkout session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": session.URL})
}

type portalRequest struct {
	PlanType    string `json:"plan_type"`
	ReturnURL   string `json:"return_url"`
	ReturnURLCc string `json:"returnUrl"`
}

func (h *Handler) createPortalSession(c *gin.Context) {
	var req portalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = req.ReturnURLCc
	}
	if returnURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "return_url is required"})
		return
	}

	// Portal access requires a verified identity; no body fallback here.
	email := emailFromBearer(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	cust, err := h.Client.FindCustomerByEmail(email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no billing account for this user"})
		return
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(cust.ID),
		ReturnURL: stripe.String(returnURL),
	}
	if h.PortalConfigID != "" {
		params.Configuration = stripe.String(h.PortalConfigID)
	}

	session, err := h.Client.NewPortalSession(params)
	if err != nil {
		telemetry.Error("billing.portal_failed", map[string]any{
			"plan_type": req.PlanType,
			"error":     err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create portal session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": session.URL})
}

func emailFromBearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	claims, err := sharedauth.VerifyJWT(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return ""
	}
	return claims.Email
}
