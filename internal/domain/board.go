package domain

// Board is a workspace owning cards. Owner is never a member of SharedWith:
// ownership implies full access, SharedWith grants read/write only.
type Board struct {
	Id         BoardId
	Title      BoardTitle
	Owner      UserId
	SharedWith []UserId
}

func (b *Board) IsOwner(user UserId) bool {
	return b.Owner == user
}

func (b *Board) IsSharedWith(user UserId) bool {
	for _, id := range b.SharedWith {
		if id == user {
			return true
		}
	}
	return false
}

// CanAccess reports whether user may read or write the board's cards.
func (b *Board) CanAccess(user UserId) bool {
	return b.IsOwner(user) || b.IsSharedWith(user)
}
