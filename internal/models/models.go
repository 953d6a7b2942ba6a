package models

import (
	"encoding/json"
	"time"
)

// Role is the backend-assigned user role
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the identity asserted by the backend's "who am I" endpoint.
// It is never owned locally, only cached for the lifetime of a page session.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UnmarshalJSON accepts the backend's "_id" and "phonenumber" spellings and
// only overwrites fields present in the payload, so decoding a partial
// profile onto an existing User merges it.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          *string `json:"id"`
		MongoID     *string `json:"_id"`
		Name        *string `json:"name"`
		Email       *string `json:"email"`
		Role        *Role   `json:"role"`
		PhoneNumber *string `json:"phoneNumber"`
		PhoneLower  *string `json:"phonenumber"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.MongoID != nil {
		u.ID = *raw.MongoID
	}
	if raw.ID != nil {
		u.ID = *raw.ID
	}
	if raw.Name != nil {
		u.Name = *raw.Name
	}
	if raw.Email != nil {
		u.Email = *raw.Email
	}
	if raw.Role != nil {
		u.Role = *raw.Role
	}
	if raw.PhoneLower != nil {
		u.PhoneNumber = *raw.PhoneLower
	}
	if raw.PhoneNumber != nil {
		u.PhoneNumber = *raw.PhoneNumber
	}
	return nil
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RegisterRequest represents the registration form
type RegisterRequest struct {
	Name        string `json:"name" form:"name" binding:"required"`
	Email       string `json:"email" form:"email" binding:"required,email"`
	Password    string `json:"password" form:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phoneNumber" form:"phoneNumber" binding:"required,phone"`
	Role        Role   `json:"role,omitempty" form:"role" binding:"omitempty,oneof=user admin"`
}

// MarshalJSON adds the lowercase "phonenumber" key the backend expects next to
// the camelCase one.
func (r RegisterRequest) MarshalJSON() ([]byte, error) {
	type plain RegisterRequest
	return json.Marshal(struct {
		plain
		PhoneLower string `json:"phonenumber"`
	}{plain: plain(r), PhoneLower: r.PhoneNumber})
}

// FederatedRequest is sent to register or login after a federated sign-in
type FederatedRequest struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name        *string `json:"name,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

// Space is a co-working location
type Space struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
	OpenTime    string `json:"openTime"`
	CloseTime   string `json:"closeTime"`
}

// Room is a bookable room inside a space
type Room struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// Reservation is a booking made by the current user
type Reservation struct {
	ID        string    `json:"_id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Capacity  int       `json:"capacity"`
	Room      Room      `json:"room"`
}

// ReservationRequest is posted to create a reservation for a room
type ReservationRequest struct {
	RoomID    string    `json:"roomId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Capacity  int       `json:"capacity"`
}

// ReservationUpdate moves an existing reservation to new times
type ReservationUpdate struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// ReservationQR is the check-in code for a reservation. QRCode is an image
// URL, usually a data: URL.
type ReservationQR struct {
	QRCode string `json:"qrCode"`
}
