package domain

// Address — адрес доставки пользователя.
type Address struct {
	ID        int64
	Recipient string
	Phone     string
	Line      string
	City      string
	Default   bool
}
