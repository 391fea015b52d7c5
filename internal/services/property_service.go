package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/statemachine"
)

// PropertyService manages the property → flat → room hierarchy and room types
type PropertyService struct {
	repos *repository.Repositories
	audit *AuditService
	clock Clock
}

func NewPropertyService(repos *repository.Repositories, audit *AuditService, clock Clock) *PropertyService {
	return &PropertyService{repos: repos, audit: audit, clock: clock}
}

// PropertyWithStats pairs a property with its derived figures
type PropertyWithStats struct {
	Property *models.Property
	Stats    models.PropertyStats
}

func (s *PropertyService) FindProperty(ctx context.Context, id uint) (*models.Property, error) {
	property, err := s.repos.Property.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "property")
	}
	return property, nil
}

// Stats computes occupancy, rent income and the monthly expense average of the last twelve months
func (s *PropertyService) Stats(ctx context.Context, propertyID uint) (models.PropertyStats, error) {
	flats, err := s.repos.Property.CountFlats(ctx, propertyID)
	if err != nil {
		return models.PropertyStats{}, err
	}
	rooms, err := s.repos.Room.FindByProperty(ctx, propertyID)
	if err != nil {
		return models.PropertyStats{}, err
	}
	today := s.clock.Today()
	expenses, err := s.repos.Property.SumPaidExpenses(ctx, propertyID, today.AddDate(-1, 0, 1), today)
	if err != nil {
		return models.PropertyStats{}, err
	}
	return models.ComputePropertyStats(int(flats), rooms, expenses), nil
}

func (s *PropertyService) GetProperty(ctx context.Context, id uint) (*PropertyWithStats, error) {
	property, err := s.FindProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PropertyWithStats{Property: property, Stats: stats}, nil
}

func (s *PropertyService) ListProperties(ctx context.Context, query *repository.ListQuery) ([]PropertyWithStats, int64, error) {
	properties, total, err := s.repos.Property.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PropertyWithStats, 0, len(properties))
	for i := range properties {
		stats, err := s.Stats(ctx, properties[i].ID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, PropertyWithStats{Property: &properties[i], Stats: stats})
	}
	return out, total, nil
}

func (s *PropertyService) validateProperty(ctx context.Context, p *models.Property) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if p.Name == "" || p.Code == "" {
		return validationf("property name and code are required")
	}
	if p.PropertyType == "" {
		p.PropertyType = models.PropertyTypeApartment
	}
	if !models.ValidPropertyType(p.PropertyType) {
		return validationf("unknown property type %q", p.PropertyType)
	}
	if p.State == "" {
		p.State = models.PropertyStateDraft
	}
	if !models.ValidPropertyState(p.State) {
		return validationf("unknown property state %q", p.State)
	}
	exists, err := s.repos.Property.CodeExists(ctx, p.Code, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return validationf("property code %s is already used", p.Code)
	}
	return nil
}

func (s *PropertyService) CreateProperty(ctx context.Context, actor Actor, property *models.Property) error {
	property.ID = 0
	if err := s.validateProperty(ctx, property); err != nil {
		return err
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Property.Create(ctx, property); err != nil {
			return translate(err, "property")
		}
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityProperty, property.ID, fmt.Sprintf("Property %s created", property.Code))
	})
}

func (s *PropertyService) UpdateProperty(ctx context.Context, actor Actor, input *models.Property) (*models.Property, error) {
	property, err := s.FindProperty(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	changes := NewChangeSet(models.EntityProperty, property.ID).
		Track("name", property.Name, input.Name).
		Track("state", property.State, input.State).
		Track("manager_id", property.ManagerID, input.ManagerID)

	property.Name = input.Name
	property.Code = input.Code
	property.PropertyType = input.PropertyType
	property.Street = input.Street
	property.City = input.City
	property.Country = input.Country
	property.OwnerID = input.OwnerID
	property.ManagerID = input.ManagerID
	property.State = input.State
	property.Notes = input.Notes
	if err := s.validateProperty(ctx, property); err != nil {
		return nil, err
	}

	err = s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Property.Update(ctx, property); err != nil {
			return translate(err, "property")
		}
		return s.audit.RecordChanges(ctx, tx, actor, changes)
	})
	if err != nil {
		return nil, err
	}
	return property, nil
}

// DeleteProperty removes the property with its flats and rooms; refused while a room is occupied
func (s *PropertyService) DeleteProperty(ctx context.Context, actor Actor, id uint) error {
	property, err := s.FindProperty(ctx, id)
	if err != nil {
		return err
	}
	rooms, err := s.repos.Room.FindByProperty(ctx, id)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		if room.Status == models.RoomStatusOccupied {
			return preconditionf("room %s is occupied", room.Name)
		}
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Property.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityProperty, id, fmt.Sprintf("Property %s deleted", property.Code))
	})
}

// Flats

func (s *PropertyService) FindFlat(ctx context.Context, id uint) (*models.Flat, error) {
	flat, err := s.repos.Flat.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "flat")
	}
	return flat, nil
}

func (s *PropertyService) ListFlats(ctx context.Context, propertyID uint) ([]models.Flat, error) {
	if _, err := s.FindProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	return s.repos.Flat.FindByProperty(ctx, propertyID)
}

// CreateFlat adds a flat and, when roomCount > 0, numbered vacant rooms priced from roomType
func (s *PropertyService) CreateFlat(ctx context.Context, actor Actor, flat *models.Flat, roomCount int, roomTypeID *uint) error {
	property, err := s.FindProperty(ctx, flat.PropertyID)
	if err != nil {
		return err
	}
	flat.ID = 0
	flat.FlatNumber = strings.TrimSpace(flat.FlatNumber)
	if flat.FlatNumber == "" {
		return validationf("flat number is required")
	}
	if flat.FlatType == "" {
		flat.FlatType = models.FlatTypeStudio
	}
	exists, err := s.repos.Flat.NumberExists(ctx, flat.PropertyID, flat.FlatNumber, 0)
	if err != nil {
		return err
	}
	if exists {
		return validationf("flat %s already exists in property %s", flat.FlatNumber, property.Code)
	}

	var roomType *models.RoomType
	if roomTypeID != nil {
		if roomType, err = s.repos.RoomType.FindByID(ctx, *roomTypeID); err != nil {
			return translate(err, "room type")
		}
	}

	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Flat.Create(ctx, flat); err != nil {
			return translate(err, "flat")
		}
		for i := 1; i <= roomCount; i++ {
			room := models.Room{
				PropertyID: property.ID,
				FlatID:     flat.ID,
				RoomNumber: fmt.Sprintf("R%02d", i),
				RoomTypeID: roomTypeID,
				Status:     models.RoomStatusVacant,
			}
			room.Name = models.RoomDisplayName(property.Code, flat.FlatNumber, room.RoomNumber)
			room.ApplyRoomType(roomType)
			if err := tx.Room.Create(ctx, &room); err != nil {
				return translate(err, "room")
			}
			flat.Rooms = append(flat.Rooms, room)
		}
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityFlat, flat.ID,
			fmt.Sprintf("Flat %s created with %d rooms", flat.FlatNumber, roomCount))
	})
}

func (s *PropertyService) UpdateFlat(ctx context.Context, actor Actor, input *models.Flat) (*models.Flat, error) {
	flat, err := s.FindFlat(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	input.FlatNumber = strings.TrimSpace(input.FlatNumber)
	if input.FlatNumber == "" {
		return nil, validationf("flat number is required")
	}
	renumbered := input.FlatNumber != flat.FlatNumber
	if renumbered {
		exists, err := s.repos.Flat.NumberExists(ctx, flat.PropertyID, input.FlatNumber, flat.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, validationf("flat %s already exists in this property", input.FlatNumber)
		}
	}
	changes := NewChangeSet(models.EntityFlat, flat.ID).
		Track("flat_number", flat.FlatNumber, input.FlatNumber).
		Track("under_maintenance", flat.UnderMaintenance, input.UnderMaintenance)

	flat.FlatNumber = input.FlatNumber
	flat.Floor = input.Floor
	if input.FlatType != "" {
		flat.FlatType = input.FlatType
	}
	flat.UnderMaintenance = input.UnderMaintenance

	err = s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Flat.Update(ctx, flat); err != nil {
			return translate(err, "flat")
		}
		if renumbered {
			property, err := tx.Property.FindByID(ctx, flat.PropertyID)
			if err != nil {
				return err
			}
			for i := range flat.Rooms {
				flat.Rooms[i].Name = models.RoomDisplayName(property.Code, flat.FlatNumber, flat.Rooms[i].RoomNumber)
				if err := tx.Room.Update(ctx, &flat.Rooms[i]); err != nil {
					return err
				}
			}
		}
		return s.audit.RecordChanges(ctx, tx, actor, changes)
	})
	if err != nil {
		return nil, err
	}
	return flat, nil
}

func (s *PropertyService) DeleteFlat(ctx context.Context, actor Actor, id uint) error {
	flat, err := s.FindFlat(ctx, id)
	if err != nil {
		return err
	}
	for _, room := range flat.Rooms {
		if room.Status == models.RoomStatusOccupied {
			return preconditionf("room %s is occupied", room.Name)
		}
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Flat.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityFlat, id, fmt.Sprintf("Flat %s deleted", flat.FlatNumber))
	})
}

// Rooms

func (s *PropertyService) FindRoom(ctx context.Context, id uint) (*models.Room, error) {
	room, err := s.repos.Room.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "room")
	}
	return room, nil
}

func (s *PropertyService) ListRooms(ctx context.Context, query *repository.ListQuery) ([]models.Room, int64, error) {
	return s.repos.Room.List(ctx, query)
}

// CreateRoom adds a vacant room; zero rent or deposit fall back to the room type defaults
func (s *PropertyService) CreateRoom(ctx context.Context, actor Actor, room *models.Room) error {
	flat, err := s.FindFlat(ctx, room.FlatID)
	if err != nil {
		return err
	}
	property, err := s.FindProperty(ctx, flat.PropertyID)
	if err != nil {
		return err
	}
	room.ID = 0
	room.RoomNumber = strings.TrimSpace(room.RoomNumber)
	if room.RoomNumber == "" {
		return validationf("room number is required")
	}
	exists, err := s.repos.Room.NumberExists(ctx, flat.ID, room.RoomNumber, 0)
	if err != nil {
		return err
	}
	if exists {
		return validationf("room %s already exists in flat %s", room.RoomNumber, flat.FlatNumber)
	}
	if room.RoomTypeID != nil {
		roomType, err := s.repos.RoomType.FindByID(ctx, *room.RoomTypeID)
		if err != nil {
			return translate(err, "room type")
		}
		room.ApplyRoomType(roomType)
	}
	if room.RentAmount.IsNegative() || room.DepositAmount.IsNegative() {
		return validationf("rent and deposit cannot be negative")
	}

	room.PropertyID = property.ID
	room.Name = models.RoomDisplayName(property.Code, flat.FlatNumber, room.RoomNumber)
	room.Status = models.RoomStatusVacant
	room.CurrentTenantID = nil
	room.CurrentAgreementID = nil

	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Room.Create(ctx, room); err != nil {
			return translate(err, "room")
		}
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityRoom, room.ID, fmt.Sprintf("Room %s created", room.Name))
	})
}

// UpdateRoom edits the letting terms of a room; status changes go through the room actions
func (s *PropertyService) UpdateRoom(ctx context.Context, actor Actor, input *models.Room) (*models.Room, error) {
	room, err := s.FindRoom(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	input.RoomNumber = strings.TrimSpace(input.RoomNumber)
	if input.RoomNumber == "" {
		return nil, validationf("room number is required")
	}
	if input.RoomNumber != room.RoomNumber {
		exists, err := s.repos.Room.NumberExists(ctx, room.FlatID, input.RoomNumber, room.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, validationf("room %s already exists in this flat", input.RoomNumber)
		}
	}
	if input.RentAmount.IsNegative() || input.DepositAmount.IsNegative() {
		return nil, validationf("rent and deposit cannot be negative")
	}

	changes := NewChangeSet(models.EntityRoom, room.ID).
		Track("room_number", room.RoomNumber, input.RoomNumber).
		Track("rent_amount", room.RentAmount, input.RentAmount).
		Track("deposit_amount", room.DepositAmount, input.DepositAmount)

	room.RoomNumber = input.RoomNumber
	room.Name = models.RoomDisplayName(room.Property.Code, room.Flat.FlatNumber, room.RoomNumber)
	room.RoomTypeID = input.RoomTypeID
	room.RentAmount = input.RentAmount
	room.DepositAmount = input.DepositAmount
	room.Notes = input.Notes

	err = s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Room.Update(ctx, room); err != nil {
			return translate(err, "room")
		}
		return s.audit.RecordChanges(ctx, tx, actor, changes)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *PropertyService) DeleteRoom(ctx context.Context, actor Actor, id uint) error {
	room, err := s.FindRoom(ctx, id)
	if err != nil {
		return err
	}
	if room.Status == models.RoomStatusOccupied {
		return preconditionf("room %s is occupied", room.Name)
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Room.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityRoom, id, fmt.Sprintf("Room %s deleted", room.Name))
	})
}

// Room actions

const (
	RoomActionBook         = "book"
	RoomActionVacate       = "vacate"
	RoomActionMaintenance  = "maintenance"
	RoomActionNotAvailable = "not_available"
)

// RoomAction applies a manual status change. Occupation only happens through agreement activation,
// and a room held by an active agreement is released by terminating that agreement.
func (s *PropertyService) RoomAction(ctx context.Context, actor Actor, id uint, action string) (*models.Room, error) {
	room, err := s.FindRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := room.Status

	err = s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if room.CurrentAgreementID != nil && action != RoomActionBook {
			agreement, err := tx.Agreement.FindByID(ctx, *room.CurrentAgreementID)
			if err != nil && !repository.IsNotFound(err) {
				return err
			}
			if agreement != nil && agreement.State == models.AgreementStateActive {
				return preconditionf("room %s is held by active agreement %s", room.Name, agreement.Name)
			}
		}

		rfsm := statemachine.NewRoomFSM(room)
		var actionErr error
		switch action {
		case RoomActionBook:
			actionErr = rfsm.Book(ctx)
		case RoomActionVacate:
			if room.Status == models.RoomStatusVacant {
				room.Vacate()
			} else {
				actionErr = rfsm.Vacate(ctx)
			}
		case RoomActionMaintenance:
			actionErr = rfsm.SetMaintenance(ctx)
		case RoomActionNotAvailable:
			actionErr = rfsm.MarkNotAvailable(ctx)
		default:
			return validationf("unknown room action %q", action)
		}
		if actionErr != nil {
			return translate(actionErr, "room")
		}
		if room.Status != models.RoomStatusOccupied {
			room.CurrentTenantID = nil
			room.CurrentAgreementID = nil
		}
		if err := tx.Room.Update(ctx, room); err != nil {
			return err
		}
		return s.audit.RecordChanges(ctx, tx, actor,
			NewChangeSet(models.EntityRoom, room.ID).Track("status", previous, room.Status))
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// Room types

func (s *PropertyService) ListRoomTypes(ctx context.Context) ([]models.RoomType, error) {
	return s.repos.RoomType.FindAll(ctx)
}

func (s *PropertyService) validateRoomType(ctx context.Context, rt *models.RoomType) error {
	rt.Name = strings.TrimSpace(rt.Name)
	rt.Code = strings.ToUpper(strings.TrimSpace(rt.Code))
	if rt.Name == "" || rt.Code == "" {
		return validationf("room type name and code are required")
	}
	if rt.DefaultRent.IsNegative() || rt.DefaultDeposit.IsNegative() {
		return validationf("default rent and deposit cannot be negative")
	}
	if rt.MaxOccupancy <= 0 {
		rt.MaxOccupancy = 1
	}
	exists, err := s.repos.RoomType.CodeExists(ctx, rt.Code, rt.ID)
	if err != nil {
		return err
	}
	if exists {
		return validationf("room type code %s is already used", rt.Code)
	}
	return nil
}

func (s *PropertyService) CreateRoomType(ctx context.Context, actor Actor, rt *models.RoomType) error {
	rt.ID = 0
	if err := s.validateRoomType(ctx, rt); err != nil {
		return err
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.RoomType.Create(ctx, rt); err != nil {
			return translate(err, "room type")
		}
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityRoomType, rt.ID, fmt.Sprintf("Room type %s created", rt.Code))
	})
}

func (s *PropertyService) UpdateRoomType(ctx context.Context, actor Actor, input *models.RoomType) (*models.RoomType, error) {
	rt, err := s.repos.RoomType.FindByID(ctx, input.ID)
	if err != nil {
		return nil, translate(err, "room type")
	}
	rt.Name = input.Name
	rt.Code = input.Code
	rt.DefaultRent = input.DefaultRent
	rt.DefaultDeposit = input.DefaultDeposit
	rt.MaxOccupancy = input.MaxOccupancy
	if err := s.validateRoomType(ctx, rt); err != nil {
		return nil, err
	}
	if err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.RoomType.Update(ctx, rt); err != nil {
			return translate(err, "room type")
		}
		return s.audit.Log(ctx, tx, actor, "UPDATE", models.EntityRoomType, rt.ID, fmt.Sprintf("Room type %s updated", rt.Code))
	}); err != nil {
		return nil, err
	}
	return rt, nil
}

func (s *PropertyService) DeleteRoomType(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.repos.RoomType.FindByID(ctx, id); err != nil {
		return translate(err, "room type")
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.RoomType.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityRoomType, id, "Room type deleted")
	})
}

// roomRent returns the agreement amounts defaulted from the room when zero
func roomRent(room *models.Room, rent, deposit decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if rent.IsZero() {
		rent = room.RentAmount
	}
	if deposit.IsZero() {
		deposit = room.DepositAmount
	}
	return rent, deposit
}
