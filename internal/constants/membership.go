package constants

type InvitationStatus string

const (
	InvitationInvited InvitationStatus = "INVITED"
	InvitationActive  InvitationStatus = "ACTIVE"
)

type AccountState string

const (
	AccountActive AccountState = "ACTIVE"
	AccountBanned AccountState = "BANNED"
)

type MemberFilter string

const (
	MemberFilterAll      MemberFilter = "ALL"
	MemberFilterOnlyMine MemberFilter = "ONLY_MINE"
)

// ParseMemberFilter also accepts the legacy "all", "workspace" and "user"
// spellings. Anything unrecognised falls back to ALL.
func ParseMemberFilter(v string) MemberFilter {
	switch v {
	case "ONLY_MINE", "only_mine", "mine", "user", "USER":
		return MemberFilterOnlyMine
	default:
		return MemberFilterAll
	}
}
