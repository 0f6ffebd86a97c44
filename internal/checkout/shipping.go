package checkout

import "github.com/vladislavdragonenkov/storefront/internal/domain"

// ShippingTier — вариант доставки из фиксированной таблицы.
type ShippingTier string

const (
	ShippingStandard ShippingTier = "standard"
	ShippingExpress  ShippingTier = "express"
	ShippingSameDay  ShippingTier = "same_day"
)

// Стоимость доставки в минимальных денежных единицах.
var shippingFees = map[ShippingTier]int64{
	ShippingStandard: 300,
	ShippingExpress:  700,
	ShippingSameDay:  1500,
}

// ShippingFee возвращает стоимость доставки; пустой вариант считается стандартным.
func ShippingFee(tier ShippingTier) (int64, error) {
	if tier == "" {
		tier = ShippingStandard
	}
	fee, ok := shippingFees[tier]
	if !ok {
		return 0, domain.NewValidationError("shipping_tier", "is not supported")
	}
	return fee, nil
}
