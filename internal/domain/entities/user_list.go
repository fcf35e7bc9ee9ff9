package entities

import "strings"

// UserList is an ordered collection of users in result-set order
type UserList []*User

// NewUserList narrows a list of entities to users, skipping other kinds
func NewUserList(list []Entity) UserList {
	users := make(UserList, 0, len(list))
	for _, e := range list {
		if u, ok := e.(*User); ok && u != nil {
			users = append(users, u)
		}
	}
	return users
}

// First returns the first user or nil when the list is empty
func (l UserList) First() *User {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

func (l UserList) String() string {
	lines := make([]string, 0, len(l))
	for _, u := range l {
		lines = append(lines, u.String())
	}
	return strings.Join(lines, "\n")
}
