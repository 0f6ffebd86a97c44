package domain

// WishlistItem — товар в списке желаний пользователя.
type WishlistItem struct {
	ProductID    int64
	ProductName  string
	ProductImage string
	PriceMinor   int64
}
