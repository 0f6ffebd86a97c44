package domain

// CartLine — позиция корзины; идентификатор назначает сервер, клиент держит зеркало.
type CartLine struct {
	ID        int64
	ProductID int64
	Quantity  int32
}

// EnrichedCartLine — позиция корзины, дополненная живыми данными товара.
type EnrichedCartLine struct {
	CartLine
	ProductName  string
	ProductImage string
	// Цена за единицу в минимальных денежных единицах.
	PriceMinor   int64
	IsAvailable  bool
	AvailableQty int32
}

// SubtotalMinor возвращает стоимость позиции: qty * price.
func (l EnrichedCartLine) SubtotalMinor() int64 {
	return int64(l.Quantity) * l.PriceMinor
}

// Enrich соединяет позицию корзины с карточкой товара.
func Enrich(line CartLine, product Product) EnrichedCartLine {
	return EnrichedCartLine{
		CartLine:     line,
		ProductName:  product.Name,
		ProductImage: product.Image,
		PriceMinor:   product.PriceMinor,
		IsAvailable:  product.Available && product.Quantity > 0,
		AvailableQty: product.Quantity,
	}
}

// Cart — ответ сервера на чтение корзины.
type Cart struct {
	Lines []CartLine
}
