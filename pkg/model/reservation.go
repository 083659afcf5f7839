package model

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Reservation struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,max=64"`
	ResourceID   string    `json:"resource_id" bson:"resource_id" validate:"required,min=1,max=64"`
	PickupAt     time.Time `json:"pickup_at" bson:"pickup_at" validate:"required"`
	ReturnAt     time.Time `json:"return_at" bson:"return_at" validate:"required,gtfield=PickupAt"`
	Status       string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	DisplayName  string    `json:"display_name,omitempty" bson:"display_name,omitempty" validate:"omitempty,max=100"`
	ContactEmail string    `json:"contact_email,omitempty" bson:"contact_email,omitempty" validate:"omitempty,email,max=254"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (r Reservation) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

func (r Reservation) IsCancelled() bool {
	return r.Status == StatusCancelled
}

type ReservationUpdate struct {
	PickupAt     *time.Time `json:"pickup_at,omitempty" validate:"omitempty"`
	ReturnAt     *time.Time `json:"return_at,omitempty" validate:"omitempty"`
	DisplayName  string     `json:"display_name,omitempty" validate:"omitempty,max=100"`
	ContactEmail string     `json:"contact_email,omitempty" validate:"omitempty,email,max=254"`
}

// EditRequest carries the values a user is typing while editing a reservation.
// Dates default to the stored pickup/return dates when empty.
type EditRequest struct {
	Day        string `json:"day" validate:"required,datetime=2006-01-02"`
	PickupDate string `json:"pickup_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ReturnDate string `json:"return_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PickupTime string `json:"pickup_time" validate:"required,clock"`
	ReturnTime string `json:"return_time" validate:"required,clock"`
}

// ReservationLock is an advisory lock serializing confirmations on one resource.
type ReservationLock struct {
	ID        string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}
