package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketStatus represents the lifecycle state of a ticket
type TicketStatus string

const (
	TicketStatusBooked    TicketStatus = "BOOKED"
	TicketStatusPaid      TicketStatus = "PAID"
	TicketStatusCancelled TicketStatus = "CANCELLED"
	TicketStatusRefunded  TicketStatus = "REFUNDED"
)

// HoldsSeat reports whether a ticket in this status occupies its seat number
func (s TicketStatus) HoldsSeat() bool {
	return s == TicketStatusBooked || s == TicketStatusPaid
}

// ActiveTicketStatuses lists the statuses that occupy a seat
var ActiveTicketStatuses = []TicketStatus{TicketStatusBooked, TicketStatusPaid}

// Booking channels recorded on a ticket
const (
	ChannelWeb        = "web"
	ChannelMobile     = "mobile"
	ChannelDesktopApp = "desktop_app"
	ChannelUnknown    = "unknown"
)

// Ticket is a seat sold to a user on one trip
type Ticket struct {
	ID         uuid.UUID           `json:"id" db:"id"`
	UserID     uuid.UUID           `json:"user_id" db:"user_id"`
	TripID     int64               `json:"trip_id" db:"trip_id"`
	SeatNumber int                 `json:"seat_number" db:"seat_number"`
	Status     TicketStatus        `json:"status" db:"status"`
	Price      Money               `json:"price" db:"price"`
	Channel    string              `json:"channel" db:"channel"`
	Passenger  *PassengerDetails   `json:"passenger,omitempty" db:"passenger"`
	Services   *AdditionalServices `json:"services,omitempty" db:"services"`
	BookedAt   time.Time           `json:"booked_at" db:"booked_at"`
	UpdatedAt  time.Time           `json:"updated_at" db:"updated_at"`
}

// Benefit categories with their display labels
var benefitLabels = map[string]string{
	"student":   "Student",
	"pensioner": "Pensioner",
	"military":  "Military",
}

// BenefitLabel resolves a benefit code to its display label; unknown codes are kept as entered.
func BenefitLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if label, ok := benefitLabels[strings.ToLower(raw)]; ok {
		return label
	}
	return raw
}

// PassengerDetails holds optional traveller information captured at booking
type PassengerDetails struct {
	FullName       string `json:"full_name,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	BenefitType    string `json:"benefit_type,omitempty"`
	ChildTicket    bool   `json:"child_ticket"`
	LoyaltyNumber  string `json:"loyalty_number,omitempty"`
}

// HasBenefit reports whether a benefit category was supplied
func (p *PassengerDetails) HasBenefit() bool {
	return p != nil && strings.TrimSpace(p.BenefitType) != ""
}

// Value implements the driver.Valuer interface
func (p *PassengerDetails) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return jsonValue(p)
}

// Scan implements the sql.Scanner interface
func (p *PassengerDetails) Scan(src interface{}) error {
	return jsonScan(src, p)
}

// AdditionalServices holds optional extras selected at booking
type AdditionalServices struct {
	MealOption        string `json:"meal_option,omitempty"`
	InsuranceIncluded bool   `json:"insurance_included"`
	TransferIncluded  bool   `json:"transfer_included"`
	BaggageSelected   bool   `json:"baggage_selected"`
	PetTravel         bool   `json:"pet_travel"`
}

// Value implements the driver.Valuer interface
func (a *AdditionalServices) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return jsonValue(a)
}

// Scan implements the sql.Scanner interface
func (a *AdditionalServices) Scan(src interface{}) error {
	return jsonScan(src, a)
}

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize jsonb column: %w", err)
	}
	return string(b), nil
}

func jsonScan(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into jsonb column", src)
	}
}
