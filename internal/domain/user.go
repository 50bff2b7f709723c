package domain

type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	IsSystemAdmin bool   `json:"is_system_admin"`
}

type MemberRole string

const (
	MemberRoleMember       MemberRole = "MEMBER"
	MemberRoleBillingAdmin MemberRole = "BILLING_ADMIN"
)

// AccountMember links a user to a ledger account they act for
type AccountMember struct {
	UserID    int64      `json:"user_id"`
	AccountID int64      `json:"account_id"`
	Role      MemberRole `json:"role"`
}
