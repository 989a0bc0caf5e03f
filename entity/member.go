package entity

// MemberStatus is a closed local view of the open-ended chat member status
// strings returned by the Telegram gateway. Anything unrecognized maps to
// StatusOther, which counts as not subscribed (fail-closed).
type MemberStatus string

const (
	StatusMember  MemberStatus = "member"
	StatusAdmin   MemberStatus = "administrator"
	StatusCreator MemberStatus = "creator"
	StatusOther   MemberStatus = "other"
)

func ParseMemberStatus(status string) MemberStatus {
	switch status {
	case "member":
		return StatusMember
	case "administrator":
		return StatusAdmin
	case "creator":
		return StatusCreator
	default:
		return StatusOther
	}
}

func (s MemberStatus) Subscribed() bool {
	return s == StatusMember || s == StatusAdmin || s == StatusCreator
}
