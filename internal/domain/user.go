package domain

// Role is the user type a booking participant acts as
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleTranslator Role = "translator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// User is the participant record the booking core references but does not own
type User struct {
	ID          int64   `json:"id"`
	Role        Role    `json:"role"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone,omitempty"`
	LanguageIDs []int64 `json:"language_ids,omitempty"`
}

// IsAdminOrSuperAdmin is the only capability check the service knows about
func (u *User) IsAdminOrSuperAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// SpeaksLanguage reports whether languageID is in the translator's profile
func (u *User) SpeaksLanguage(languageID int64) bool {
	for _, id := range u.LanguageIDs {
		if id == languageID {
			return true
		}
	}
	return false
}
