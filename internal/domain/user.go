package domain

import "time"

// User is an account. Phone, username and email are optional but unique when set;
// they are omitted from the item when nil so the GSIs stay sparse.
type User struct {
	UserID    string    `json:"id" dynamodbav:"user_id"`
	Username  *string   `json:"username" dynamodbav:"username,omitempty"`
	Email     *string   `json:"email" dynamodbav:"email,omitempty"`
	Phone     *string   `json:"phone" dynamodbav:"phone,omitempty"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// UserWhereUnique selects a single user by exactly one unique attribute.
type UserWhereUnique struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Username string `json:"username"`
}

type UpdateUsernameRequest struct {
	Username string `json:"username" validate:"required,username"`
}

type UpdatePhoneRequest struct {
	Phone        string  `json:"phone" validate:"required"`
	Code         string  `json:"code" validate:"required,numeric,len=6"`
	OldPhoneCode *string `json:"old_phone_code" validate:"omitempty,numeric,len=6"`
}

// Public returns a copy safe to show to users other than the owner.
func (u *User) Public() *User {
	c := *u
	c.Email = nil
	c.Phone = nil
	return &c
}
