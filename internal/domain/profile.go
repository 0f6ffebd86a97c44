package domain

// Profile — отображаемые данные текущего пользователя.
type Profile struct {
	ID     int64
	Name   string
	Email  string
	Avatar string
}

// Anonymous — идентичность гостя без сессии.
var Anonymous = Profile{}

// IsAnonymous сообщает, что профиль не загружен.
func (p Profile) IsAnonymous() bool {
	return p.ID == 0
}
