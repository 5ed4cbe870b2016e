package v1

import (
	"net/http"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/auth"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
)

// ValidateCouponRequest asks whether a coupon applies to a hypothetical total.
type ValidateCouponRequest struct {
	Code       string  `json:"code"`
	OrderTotal float64 `json:"order_total"`
}

// ValidateCouponResponse reports the discount a valid coupon would grant.
type ValidateCouponResponse struct {
	Valid          bool    `json:"valid"`
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalTotal     float64 `json:"final_total"`
}

// listCoupons handles GET /api/v1/coupons
func (rr *Routes) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := rr.deps.Coupons.ListCoupons(r.Context())
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusOK, coupons)
}

// createCoupon handles POST /api/v1/coupons
func (rr *Routes) createCoupon(w http.ResponseWriter, r *http.Request) {
	var coupon models.Coupon
	if err := decodeJSON(r, &coupon); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if coupon.Code == "" {
		rr.writeErrorResponse(w, "coupon code is required", http.StatusBadRequest)
		return
	}
	if coupon.DiscountType != models.DiscountPercentage && coupon.DiscountType != models.DiscountFixed {
		rr.writeErrorResponse(w, "discount_type must be percentage or fixed", http.StatusBadRequest)
		return
	}
	if coupon.DiscountValue <= 0 {
		rr.writeErrorResponse(w, "discount_value must be positive", http.StatusBadRequest)
		return
	}
	if !coupon.ValidUntil.After(coupon.ValidFrom) {
		rr.writeErrorResponse(w, "valid_until must be after valid_from", http.StatusBadRequest)
		return
	}
	if err := rr.deps.Coupons.CreateCoupon(r.Context(), &coupon); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusCreated, coupon)
}

// validateCoupon handles POST /api/v1/coupons/validate
func (rr *Routes) validateCoupon(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		rr.writeErrorResponse(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req ValidateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		rr.writeErrorResponse(w, "coupon code is required", http.StatusBadRequest)
		return
	}

	coupon, discount, err := rr.deps.Checkout.ValidateCoupon(r.Context(), req.Code, identity.UserID, req.OrderTotal)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}

	rr.writeJSONResponse(w, http.StatusOK, ValidateCouponResponse{
		Valid:          true,
		Code:           coupon.Code,
		DiscountAmount: discount,
		FinalTotal:     req.OrderTotal - discount,
	})
}
