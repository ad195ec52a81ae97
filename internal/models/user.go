package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleBuyer       Role = "buyer"
	RoleProducer    Role = "producer"
	RoleDriver      Role = "driver"
	RoleTransporter Role = "transporter"
	RoleAdmin       Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleBuyer, RoleProducer, RoleDriver, RoleTransporter, RoleAdmin:
		return r, true
	}
	return "", false
}

// IsReviewer reports whether the role may override document statuses.
func (r Role) IsReviewer() bool {
	return r == RoleAdmin
}

type User struct {
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Role      Role      `db:"role"`
	KYCStatus KYCStatus `db:"kyc_status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
