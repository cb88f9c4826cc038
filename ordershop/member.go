package ordershop

import (
	"errors"
)

// ErrDuplicateMember is returned when registering a member whose name is already taken.
var ErrDuplicateMember = errors.New("a member with this name is already registered")

// Address is an embedded value shared by Member and Delivery.
type Address struct {
	City    string
	Street  string
	ZipCode string
}

// Member is a buyer. It does not hold a collection of its orders;
// the Member-to-Order direction is resolved at query time through the loader,
// so there is no inverse side to keep in sync.
type Member struct {
	ID      MemberIDInt64
	Name    string
	Address Address
}

// BuildMember creates a new Member.
func BuildMember(name string, address Address) Member {
	return Member{Name: name, Address: address}
}
