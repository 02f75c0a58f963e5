package domain

import "time"

// AccessToken backs a bearer credential. Deleting the row revokes every JWT
// issued for it.
type AccessToken struct {
	TokenID          string    `json:"id" dynamodbav:"token_id"`
	UserID           string    `json:"user_id" dynamodbav:"user_id"`
	ExpiresAt        time.Time `json:"expired_at" dynamodbav:"expires_at"`
	RefreshToken     string    `json:"-" dynamodbav:"refresh_token"`
	RefreshExpiresAt int64     `json:"-" dynamodbav:"refresh_expires_at"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	User             *User     `json:"user,omitempty" dynamodbav:"-"`
}

type CreateAccessTokenRequest struct {
	Phone string `json:"phone" validate:"required"`
	OTP   string `json:"otp" validate:"required,numeric,len=6"`
}

type RefreshAccessTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,hexadecimal,len=64"`
}
