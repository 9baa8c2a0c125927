package model

import "time"

// Checkout records a guest registration for a stay.  Email and phone
// number are each unique across all checkouts.  Passport optionally
// references an uploaded image.
//
// Fields:
//
//	ID            – primary key identifier.
//	Name, Surname – guest names; surname is optional.
//	Country       – guest country.
//	Email         – unique contact address, receives the QR code.
//	PhoneNumber   – unique contact number.
//	Accomodation  – optional accommodation description.
//	HasPaid       – payment status, false until updated.
//	NoOfGuests    – number of guests, at least one.
//	Passport      – nullable reference into the images table.
//	PassportImage – joined image row, populated on reads.
type Checkout struct {
	ID            uint64    `json:"id"`                       // checkouts.id
	Name          string    `json:"name"`                     // checkouts.name
	Surname       *string   `json:"surname"`                  // checkouts.surname (nullable)
	Country       string    `json:"country"`                  // checkouts.country
	Email         string    `json:"email"`                    // checkouts.email
	PhoneNumber   string    `json:"phone_number"`             // checkouts.phone_number
	Accomodation  *string   `json:"accomodation"`             // checkouts.accomodation (nullable)
	HasPaid       bool      `json:"has_paid"`                 // checkouts.has_paid
	NoOfGuests    int       `json:"no_of_guests"`             // checkouts.no_of_guests
	Passport      *uint64   `json:"passport"`                 // checkouts.passport (nullable)
	PassportImage *Image    `json:"passport_image,omitempty"` // joined images row
	CreatedAt     time.Time `json:"created_at"`               // checkouts.created_at
	UpdatedAt     time.Time `json:"updated_at"`               // checkouts.updated_at
}
