package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Property is a building or compound owning flats
type Property struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Code         string    `gorm:"size:20;not null;uniqueIndex" json:"code"`
	PropertyType string    `gorm:"size:20;not null;default:apartment" json:"property_type"`
	Street       string    `json:"street"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	OwnerID      *uint     `gorm:"index" json:"owner_id"`
	ManagerID    *uint     `gorm:"index" json:"manager_id"`
	State        string    `gorm:"size:20;not null;default:draft;index" json:"state"`
	Notes        *string   `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Associations
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Manager *User  `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Flats   []Flat `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"flats,omitempty"`
}

// TableName specifies the table name for Property
func (Property) TableName() string {
	return "properties"
}

// Property type constants
const (
	PropertyTypeApartment  = "apartment"
	PropertyTypeVilla      = "villa"
	PropertyTypeOffice     = "office"
	PropertyTypeWarehouse  = "warehouse"
	PropertyTypeCommercial = "commercial"
)

// Property state constants
const (
	PropertyStateDraft       = "draft"
	PropertyStateActive      = "active"
	PropertyStateMaintenance = "maintenance"
	PropertyStateInactive    = "inactive"
)

// ValidPropertyType reports whether t is a known property type
func ValidPropertyType(t string) bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeVilla, PropertyTypeOffice, PropertyTypeWarehouse, PropertyTypeCommercial:
		return true
	}
	return false
}

// ValidPropertyState reports whether s is a known property state
func ValidPropertyState(s string) bool {
	switch s {
	case PropertyStateDraft, PropertyStateActive, PropertyStateMaintenance, PropertyStateInactive:
		return true
	}
	return false
}

// PropertyStats holds the roll-up figures of a property
type PropertyStats struct {
	TotalFlats        int             `json:"total_flats"`
	TotalRooms        int             `json:"total_rooms"`
	OccupiedRooms     int             `json:"occupied_rooms"`
	VacantRooms       int             `json:"vacant_rooms"`
	OccupancyRate     float64         `json:"occupancy_rate"`
	MonthlyRentIncome decimal.Decimal `json:"monthly_rent_income"`
	MonthlyExpenses   decimal.Decimal `json:"monthly_expenses"`
	MonthlyProfit     decimal.Decimal `json:"monthly_profit"`
}

// ComputePropertyStats derives the property roll-up from its rooms and the
// paid expenses of the trailing twelve months
func ComputePropertyStats(totalFlats int, rooms []Room, expensesLastYear decimal.Decimal) PropertyStats {
	stats := PropertyStats{
		TotalFlats:        totalFlats,
		TotalRooms:        len(rooms),
		MonthlyRentIncome: decimal.Zero,
	}
	for _, r := range rooms {
		switch r.Status {
		case RoomStatusOccupied:
			stats.OccupiedRooms++
			stats.MonthlyRentIncome = stats.MonthlyRentIncome.Add(r.RentAmount)
		case RoomStatusVacant:
			stats.VacantRooms++
		}
	}
	stats.OccupancyRate = OccupancyRate(stats.OccupiedRooms, stats.TotalRooms)
	stats.MonthlyExpenses = expensesLastYear.Div(decimal.NewFromInt(12)).Round(2)
	stats.MonthlyProfit = stats.MonthlyRentIncome.Sub(stats.MonthlyExpenses)
	return stats
}

// OccupancyRate returns occupied/total as a ratio in [0,1]
func OccupancyRate(occupied, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(occupied) / float64(total)
}

// PropertyResponse is the JSON response format for properties
type PropertyResponse struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Code         string  `json:"code"`
	PropertyType string  `json:"property_type"`
	Street       string  `json:"street"`
	City         string  `json:"city"`
	Country      string  `json:"country"`
	OwnerID      *uint   `json:"owner_id"`
	ManagerID    *uint   `json:"manager_id"`
	State        string  `json:"state"`
	Notes        *string `json:"notes"`
	PropertyStats
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts Property to PropertyResponse with the given stats
func (p *Property) ToResponse(stats PropertyStats) PropertyResponse {
	return PropertyResponse{
		ID:            p.ID,
		Name:          p.Name,
		Code:          p.Code,
		PropertyType:  p.PropertyType,
		Street:        p.Street,
		City:          p.City,
		Country:       p.Country,
		OwnerID:       p.OwnerID,
		ManagerID:     p.ManagerID,
		State:         p.State,
		Notes:         p.Notes,
		PropertyStats: stats,
		CreatedAt:     p.CreatedAt,
	}
}

// Flat is a unit inside a property holding rooms
type Flat struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	PropertyID       uint      `gorm:"not null;uniqueIndex:idx_flats_property_number" json:"property_id"`
	FlatNumber       string    `gorm:"size:20;not null;uniqueIndex:idx_flats_property_number" json:"flat_number"`
	Floor            int       `json:"floor"`
	FlatType         string    `gorm:"size:20;default:studio" json:"flat_type"`
	UnderMaintenance bool      `gorm:"default:false" json:"under_maintenance"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Associations
	Property Property `gorm:"foreignKey:PropertyID" json:"-"`
	Rooms    []Room   `gorm:"foreignKey:FlatID;constraint:OnDelete:CASCADE" json:"rooms,omitempty"`
}

// TableName specifies the table name for Flat
func (Flat) TableName() string {
	return "flats"
}

// Flat type constants
const (
	FlatTypeStudio    = "studio"
	FlatType1BHK      = "1bhk"
	FlatType2BHK      = "2bhk"
	FlatType3BHK      = "3bhk"
	FlatType4BHK      = "4bhk"
	FlatTypePenthouse = "penthouse"
)

// Flat state constants (derived, never stored)
const (
	FlatStateAvailable         = "available"
	FlatStatePartiallyOccupied = "partially_occupied"
	FlatStateFullyOccupied     = "fully_occupied"
	FlatStateMaintenance       = "maintenance"
)

// State derives the flat state from its rooms
func (f *Flat) State() string {
	if f.UnderMaintenance {
		return FlatStateMaintenance
	}
	occupied, vacant := 0, 0
	for _, r := range f.Rooms {
		switch r.Status {
		case RoomStatusOccupied:
			occupied++
		case RoomStatusVacant:
			vacant++
		}
	}
	switch {
	case len(f.Rooms) == 0 || vacant == len(f.Rooms):
		return FlatStateAvailable
	case occupied == len(f.Rooms):
		return FlatStateFullyOccupied
	default:
		return FlatStatePartiallyOccupied
	}
}

// TotalRent sums the rent of occupied rooms
func (f *Flat) TotalRent() decimal.Decimal {
	total := decimal.Zero
	for _, r := range f.Rooms {
		if r.Status == RoomStatusOccupied {
			total = total.Add(r.RentAmount)
		}
	}
	return total
}

// FlatResponse is the JSON response format for flats
type FlatResponse struct {
	ID               uint            `json:"id"`
	PropertyID       uint            `json:"property_id"`
	FlatNumber       string          `json:"flat_number"`
	Floor            int             `json:"floor"`
	FlatType         string          `json:"flat_type"`
	UnderMaintenance bool            `json:"under_maintenance"`
	State            string          `json:"state"`
	TotalRooms       int             `json:"total_rooms"`
	TotalRent        decimal.Decimal `json:"total_rent"`
}

// ToResponse converts Flat to FlatResponse
func (f *Flat) ToResponse() FlatResponse {
	return FlatResponse{
		ID:               f.ID,
		PropertyID:       f.PropertyID,
		FlatNumber:       f.FlatNumber,
		Floor:            f.Floor,
		FlatType:         f.FlatType,
		UnderMaintenance: f.UnderMaintenance,
		State:            f.State(),
		TotalRooms:       len(f.Rooms),
		TotalRent:        f.TotalRent(),
	}
}

// RoomType is a template of default rent and deposit for rooms
type RoomType struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"not null" json:"name"`
	Code           string          `gorm:"size:20;not null;uniqueIndex" json:"code"`
	DefaultRent    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"default_rent"`
	DefaultDeposit decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"default_deposit"`
	MaxOccupancy   int             `gorm:"default:1" json:"max_occupancy"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for RoomType
func (RoomType) TableName() string {
	return "room_types"
}

// Room is the rentable unit
type Room struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	PropertyID         uint            `gorm:"not null;index" json:"property_id"`
	FlatID             uint            `gorm:"not null;uniqueIndex:idx_rooms_flat_number" json:"flat_id"`
	RoomNumber         string          `gorm:"size:20;not null;uniqueIndex:idx_rooms_flat_number" json:"room_number"`
	Name               string          `gorm:"index" json:"name"`
	RoomTypeID         *uint           `gorm:"index" json:"room_type_id"`
	RentAmount         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"rent_amount"`
	DepositAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"deposit_amount"`
	Status             string          `gorm:"size:20;not null;default:vacant;index" json:"status"`
	CurrentTenantID    *uint           `gorm:"index" json:"current_tenant_id"`
	CurrentAgreementID *uint           `gorm:"index" json:"current_agreement_id"`
	Notes              *string         `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Associations
	Property Property  `gorm:"foreignKey:PropertyID" json:"-"`
	Flat     Flat      `gorm:"foreignKey:FlatID" json:"-"`
	RoomType *RoomType `gorm:"foreignKey:RoomTypeID" json:"room_type,omitempty"`
}

// TableName specifies the table name for Room
func (Room) TableName() string {
	return "rooms"
}

// Room status constants
const (
	RoomStatusVacant       = "vacant"
	RoomStatusOccupied     = "occupied"
	RoomStatusBooked       = "booked"
	RoomStatusMaintenance  = "maintenance"
	RoomStatusNotAvailable = "not_available"
)

// RoomDisplayName builds "{property_code}-{flat_number}-{room_number}"
func RoomDisplayName(propertyCode, flatNumber, roomNumber string) string {
	return fmt.Sprintf("%s-%s-%s", propertyCode, flatNumber, roomNumber)
}

// IsAvailable returns true if the room can take a new agreement
func (r *Room) IsAvailable() bool {
	return r.Status == RoomStatusVacant || r.Status == RoomStatusBooked
}

// ApplyRoomType fills zero rent and deposit from the room type defaults
func (r *Room) ApplyRoomType(rt *RoomType) {
	if rt == nil {
		return
	}
	if r.RentAmount.IsZero() {
		r.RentAmount = rt.DefaultRent
	}
	if r.DepositAmount.IsZero() {
		r.DepositAmount = rt.DefaultDeposit
	}
}

// Occupy marks the room occupied by the given tenant and agreement
func (r *Room) Occupy(tenantID, agreementID uint) {
	r.Status = RoomStatusOccupied
	r.CurrentTenantID = &tenantID
	r.CurrentAgreementID = &agreementID
}

// Vacate marks the room vacant and clears the occupancy pointers
func (r *Room) Vacate() {
	r.Status = RoomStatusVacant
	r.CurrentTenantID = nil
	r.CurrentAgreementID = nil
}

// OccupancyConsistent checks occupied ⇔ tenant set ⇔ agreement set,
// and vacant ⇒ both cleared
func (r *Room) OccupancyConsistent() bool {
	hasTenant := r.CurrentTenantID != nil
	hasAgreement := r.CurrentAgreementID != nil
	if r.Status == RoomStatusOccupied {
		return hasTenant && hasAgreement
	}
	return !hasTenant && !hasAgreement
}

// RoomResponse is the JSON response format for rooms
type RoomResponse struct {
	ID                 uint            `json:"id"`
	PropertyID         uint            `json:"property_id"`
	FlatID             uint            `json:"flat_id"`
	RoomNumber         string          `json:"room_number"`
	Name               string          `json:"name"`
	RoomTypeID         *uint           `json:"room_type_id"`
	RentAmount         decimal.Decimal `json:"rent_amount"`
	DepositAmount      decimal.Decimal `json:"deposit_amount"`
	Status             string          `json:"status"`
	IsAvailable        bool            `json:"is_available"`
	CurrentTenantID    *uint           `json:"current_tenant_id"`
	CurrentAgreementID *uint           `json:"current_agreement_id"`
	Notes              *string         `json:"notes"`
}

// ToResponse converts Room to RoomResponse
func (r *Room) ToResponse() RoomResponse {
	return RoomResponse{
		ID:                 r.ID,
		PropertyID:         r.PropertyID,
		FlatID:             r.FlatID,
		RoomNumber:         r.RoomNumber,
		Name:               r.Name,
		RoomTypeID:         r.RoomTypeID,
		RentAmount:         r.RentAmount,
		DepositAmount:      r.DepositAmount,
		Status:             r.Status,
		IsAvailable:        r.IsAvailable(),
		CurrentTenantID:    r.CurrentTenantID,
		CurrentAgreementID: r.CurrentAgreementID,
		Notes:              r.Notes,
	}
}
