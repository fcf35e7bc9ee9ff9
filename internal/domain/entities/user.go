package entities

import "fmt"

// User represents a registered user
type User struct {
	Base
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// NewUser creates a user that has not been persisted yet
func NewUser(name string, age int) *User {
	return &User{Name: name, Age: age}
}

func (u *User) String() string {
	return u.Base.String() + fmt.Sprintf("Name: %s, Age: %d", u.Name, u.Age)
}

// CreateUserInput represents input for registering a user
type CreateUserInput struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Age  int    `json:"age" binding:"gte=0,lte=150"`
}

// UpdateUserInput represents input for changing a user
type UpdateUserInput struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Age  int    `json:"age" binding:"gte=0,lte=150"`
}
