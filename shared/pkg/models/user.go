package models

const (
	FieldID     = "_id"
	FieldEmail  = "email"
	FieldRole   = "role"
	FieldStatus = "status"

	RoleAdmin = "admin"
)

type User struct {
	ID          string `json:"_id,omitempty" bson:"_id,omitempty"`
	Email       string `json:"email" bson:"email"`
	DisplayName string `json:"displayName,omitempty" bson:"displayName,omitempty"`
	Phone       string `json:"phone,omitempty" bson:"phone,omitempty"`
	Address     string `json:"address,omitempty" bson:"address,omitempty"`
	Role        string `json:"role,omitempty" bson:"role,omitempty"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserProfile is the client-writable part of a User. It has no role; role
// only changes through admin promotion.
type UserProfile struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
}

func (p UserProfile) User() User {
	return User{Email: p.Email, DisplayName: p.DisplayName, Phone: p.Phone, Address: p.Address}
}

// Fields returns the profile as a partial-update patch. Empty optional
// fields are left out so an upsert never blanks stored values.
func (p UserProfile) Fields() map[string]any {
	m := map[string]any{FieldEmail: p.Email}
	if p.DisplayName != "" {
		m["displayName"] = p.DisplayName
	}
	if p.Phone != "" {
		m["phone"] = p.Phone
	}
	if p.Address != "" {
		m["address"] = p.Address
	}
	return m
}
