package handler

import (
	salesapp "github.com/erp/pos/internal/application/sales"
	"github.com/gin-gonic/gin"
)

// CartHandler handles the session cart of a till
type CartHandler struct {
	BaseHandler
	cartService *salesapp.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *salesapp.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// Get godoc
// @Summary      Get the session cart
// @Description  Returns the cart with its subtotal, discounts and total. A session without a cart returns an empty cart.
// @Tags         cart
// @Produce      json
// @Param        session_id path string true "Till session ID"
// @Success      200 {object} dto.Response{data=salesapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /carts/{session_id} [get]
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.cartService.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, cart)
}

// AddItem godoc
// @Summary      Add a product to the cart
// @Description  Adds one unit, found by product_id or barcode. Adding a product already in the cart raises its quantity up to the stock seen when it was first added.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        session_id path string true "Till session ID"
// @Param        request body salesapp.AddToCartRequest true "Product to add"
// @Success      200 {object} dto.Response{data=salesapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /carts/{session_id}/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req salesapp.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	if req.ProductID == nil && req.Barcode == "" {
		h.BadRequest(c, "product_id or barcode is required")
		return
	}

	cart, err := h.cartService.AddProduct(c.Request.Context(), c.Param("session_id"), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveItem godoc
// @Summary      Remove one unit from the cart
// @Description  Decrements the line quantity, deleting the line when it reaches zero
// @Tags         cart
// @Produce      json
// @Param        session_id path string true "Till session ID"
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /carts/{session_id}/items/{product_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := h.parseUUIDParam(c, "product_id", "product")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveProduct(c.Request.Context(), c.Param("session_id"), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, cart)
}

// SetLineDiscount godoc
// @Summary      Set a line discount
// @Description  Sets the discount percentage applied to one cart line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        session_id path string true "Till session ID"
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        request body salesapp.DiscountRequest true "Discount percentage"
// @Success      200 {object} dto.Response{data=salesapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /carts/{session_id}/items/{product_id}/discount [put]
func (h *CartHandler) SetLineDiscount(c *gin.Context) {
	productID, ok := h.parseUUIDParam(c, "product_id", "product")
	if !ok {
		return
	}

	var req salesapp.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	cart, err := h.cartService.SetLineDiscount(c.Request.Context(), c.Param("session_id"), productID, req.Percent)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, cart)
}

// SetOverallDiscount godoc
// @Summary      Set the overall discount
// @Description  Sets the percentage applied to the total after line discounts
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        session_id path string true "Till session ID"
// @Param        request body salesapp.DiscountRequest true "Discount percentage"
// @Success      200 {object} dto.Response{data=salesapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /carts/{session_id}/discount [put]
func (h *CartHandler) SetOverallDiscount(c *gin.Context) {
	var req salesapp.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	cart, err := h.cartService.SetOverallDiscount(c.Request.Context(), c.Param("session_id"), req.Percent)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, cart)
}

// Clear godoc
// @Summary      Clear the cart
// @Tags         cart
// @Produce      json
// @Param        session_id path string true "Till session ID"
// @Success      200 {object} dto.Response{data=salesapp.CartResponse}
// @Security     BearerAuth
// @Router       /carts/{session_id} [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	cart, err := h.cartService.Clear(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, cart)
}
