package domain

import "time"

// VerificationCode is the single active OTP for a phone number.
// PK: phone. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type VerificationCode struct {
	Phone     string    `json:"phone" dynamodbav:"phone"`
	CodeHash  string    `json:"-" dynamodbav:"code_hash"`
	Attempts  int       `json:"attempts" dynamodbav:"attempts"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"`
}

// Expired reports whether the code is past its expiry at now.
func (v *VerificationCode) Expired(now time.Time) bool {
	return v.ExpiresAt <= now.Unix()
}

type SendPhoneOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
}
