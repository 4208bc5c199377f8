package notify

import "fmt"

type SelectorKind int

const (
	KindSingleUser SelectorKind = iota
	KindAllUsers
	KindAllAdmins
)

// Selector names the recipients of a send.
type Selector struct {
	kind   SelectorKind
	userID int64
}

func SingleUser(id int64) Selector { return Selector{kind: KindSingleUser, userID: id} }

// AllUsers selects every role=user account.
func AllUsers() Selector { return Selector{kind: KindAllUsers} }

// AllAdmins selects admins and super admins.
func AllAdmins() Selector { return Selector{kind: KindAllAdmins} }

func (s Selector) Kind() SelectorKind { return s.kind }

func (s Selector) UserID() int64 { return s.userID }

// String is the metric and audit label.
func (s Selector) String() string {
	switch s.kind {
	case KindSingleUser:
		return "user"
	case KindAllUsers:
		return "all_users"
	case KindAllAdmins:
		return "all_admins"
	default:
		return fmt.Sprintf("selector(%d)", int(s.kind))
	}
}
