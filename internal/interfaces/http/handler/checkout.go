package handler

import (
	salesapp "github.com/erp/pos/internal/application/sales"
	"github.com/gin-gonic/gin"
)

// CheckoutHandler turns a session cart into a recorded sale
type CheckoutHandler struct {
	BaseHandler
	checkoutService *salesapp.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *salesapp.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// Checkout godoc
// @Summary      Check out the session cart
// @Description  Records the sale, writes the new stock levels and clears the cart.
// @Description  The payment is split across cash, card and account. Underpayment is rejected.
// @Description  A failure after the first write returns CHECKOUT_FAILED; writes already made are kept.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        session_id path string true "Till session ID"
// @Param        Idempotency-Key header string false "Client submission key"
// @Param        request body salesapp.CheckoutRequest true "Payment tendered"
// @Success      201 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /carts/{session_id}/checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	cashierID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req salesapp.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	sale, err := h.checkoutService.Checkout(c.Request.Context(), c.Param("session_id"), req, cashierID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, sale)
}
