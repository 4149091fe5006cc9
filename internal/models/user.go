package models

import (
	"encoding/json"
	"time"
)

// User is an authenticated identity. Field names match the blobs written by
// the original web client.
type User struct {
	ID          string `json:"id"`
	EmailID     string `json:"emailId"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

// UnmarshalJSON accepts the legacy "rrr" id field when "id" is absent.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		Legacy string `json:"rrr"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.Legacy
	}
	return nil
}

// Valid reports whether the record can back a session.
func (u User) Valid() bool {
	return u.ID != ""
}

// EpochMillis converts t to the integer epoch-ms form used in stored records.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}
