package ordering

import "sorvetao/internal/core/types"

// DeliveryEligibility tells whether the order meets the client's delivery minimum.
type DeliveryEligibility struct {
	IsEligible bool        `json:"isEligible"`
	Shortfall  types.Money `json:"shortfall"`
}

// CheckEligibility compares the subtotal (before discount and fee) with the
// delivery minimum. Pickup orders are always eligible.
func CheckEligibility(orderSubtotal, minimumOrderForDelivery types.Money, mode FulfillmentMode) DeliveryEligibility {
	if mode != ModeDelivery {
		return DeliveryEligibility{IsEligible: true, Shortfall: types.Zero()}
	}

	return DeliveryEligibility{
		IsEligible: orderSubtotal.GreaterThanOrEqual(minimumOrderForDelivery),
		Shortfall:  types.MaxMoney(types.Zero(), minimumOrderForDelivery.Sub(orderSubtotal)),
	}
}
