package models

// All returns every model whose table the service needs
func All() []any {
	return []any{&User{}}
}
