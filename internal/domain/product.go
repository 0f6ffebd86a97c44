package domain

// Product — снимок карточки товара, неизменный в пределах сессии.
type Product struct {
	ID         int64
	Name       string
	PriceMinor int64
	Image      string
	Available  bool
	Quantity   int32
}

// CanFulfil проверяет, хватает ли остатка на qty единиц.
func (p Product) CanFulfil(qty int32) bool {
	return p.Available && qty <= p.Quantity
}
