package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// PropertyRepository defines the interface for property data access
type PropertyRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Property, error)
	Create(ctx context.Context, property *models.Property) error
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Property, int64, error)
	CodeExists(ctx context.Context, code string, excludeID uint) (bool, error)
	CountFlats(ctx context.Context, propertyID uint) (int64, error)
	SumPaidExpenses(ctx context.Context, propertyID uint, from, to time.Time) (decimal.Decimal, error)
}

type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) FindByID(ctx context.Context, id uint) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *propertyRepository) Create(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

func (r *propertyRepository) Update(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Omit("Flats", "Owner", "Manager").Save(property).Error
}

// Delete removes the property with its flats and rooms
func (r *propertyRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("property_id = ?", id).Delete(&models.Room{}).Error; err != nil {
		return err
	}
	if err := db.Where("property_id = ?", id).Delete(&models.Flat{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Property{}, id).Error
}

func (r *propertyRepository) List(ctx context.Context, query *ListQuery) ([]models.Property, int64, error) {
	var properties []models.Property
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Property{})

	if query.Search != "" {
		search := likePattern(query.Search)
		db = db.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(city) LIKE ?", search, search, search)
	}
	if state := query.Filter("state"); state != "" {
		db = db.Where("state = ?", state)
	}
	if propertyType := query.Filter("property_type"); propertyType != "" {
		db = db.Where("property_type = ?", propertyType)
	}
	if managerID := query.Filter("manager_id"); managerID != "" {
		db = db.Where("manager_id = ?", managerID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"name":       "name",
		"code":       "code",
		"created_at": "created_at",
	}, "name ASC")

	err := applyPage(db, query).Find(&properties).Error
	return properties, total, err
}

func (r *propertyRepository) CodeExists(ctx context.Context, code string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("LOWER(code) = LOWER(?) AND id <> ?", code, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *propertyRepository) CountFlats(ctx context.Context, propertyID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Flat{}).
		Where("property_id = ?", propertyID).
		Count(&count).Error
	return count, err
}

// SumPaidExpenses totals paid expenses of a property dated within [from, to]
func (r *propertyRepository) SumPaidExpenses(ctx context.Context, propertyID uint, from, to time.Time) (decimal.Decimal, error) {
	return sumDecimal(r.db.WithContext(ctx).Model(&models.Expense{}).
		Where("property_id = ? AND state = ? AND date >= ? AND date <= ?",
			propertyID, models.ExpenseStatePaid, from, to), "amount")
}

// FlatRepository defines the interface for flat data access
type FlatRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Flat, error)
	FindByProperty(ctx context.Context, propertyID uint) ([]models.Flat, error)
	Create(ctx context.Context, flat *models.Flat) error
	Update(ctx context.Context, flat *models.Flat) error
	Delete(ctx context.Context, id uint) error
	NumberExists(ctx context.Context, propertyID uint, number string, excludeID uint) (bool, error)
}

type flatRepository struct {
	db *gorm.DB
}

// NewFlatRepository creates a new flat repository
func NewFlatRepository(db *gorm.DB) FlatRepository {
	return &flatRepository{db: db}
}

func (r *flatRepository) FindByID(ctx context.Context, id uint) (*models.Flat, error) {
	var flat models.Flat
	err := r.db.WithContext(ctx).
		Preload("Rooms", func(db *gorm.DB) *gorm.DB { return db.Order("room_number ASC") }).
		First(&flat, id).Error
	if err != nil {
		return nil, err
	}
	return &flat, nil
}

func (r *flatRepository) FindByProperty(ctx context.Context, propertyID uint) ([]models.Flat, error) {
	var flats []models.Flat
	err := r.db.WithContext(ctx).
		Preload("Rooms").
		Where("property_id = ?", propertyID).
		Order("flat_number ASC").
		Find(&flats).Error
	return flats, err
}

func (r *flatRepository) Create(ctx context.Context, flat *models.Flat) error {
	return r.db.WithContext(ctx).Omit("Rooms", "Property").Create(flat).Error
}

func (r *flatRepository) Update(ctx context.Context, flat *models.Flat) error {
	return r.db.WithContext(ctx).Omit("Rooms", "Property").Save(flat).Error
}

// Delete removes the flat and its rooms
func (r *flatRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("flat_id = ?", id).Delete(&models.Room{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Flat{}, id).Error
}

func (r *flatRepository) NumberExists(ctx context.Context, propertyID uint, number string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Flat{}).
		Where("property_id = ? AND flat_number = ? AND id <> ?", propertyID, number, excludeID).
		Count(&count).Error
	return count > 0, err
}

// RoomRepository defines the interface for room data access
type RoomRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Room, error)
	FindByProperty(ctx context.Context, propertyID uint) ([]models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Room, int64, error)
	NumberExists(ctx context.Context, flatID uint, number string, excludeID uint) (bool, error)
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Flat").
		Preload("RoomType").
		First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindByProperty(ctx context.Context, propertyID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("name ASC").
		Find(&rooms).Error
	return rooms, err
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Omit("Property", "Flat", "RoomType").Create(room).Error
}

func (r *roomRepository) Update(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Omit("Property", "Flat", "RoomType").Save(room).Error
}

func (r *roomRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Room{}, id).Error
}

func (r *roomRepository) List(ctx context.Context, query *ListQuery) ([]models.Room, int64, error) {
	var rooms []models.Room
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Room{})

	if query.Search != "" {
		db = db.Where("LOWER(name) LIKE ?", likePattern(query.Search))
	}
	if propertyID := query.Filter("property_id"); propertyID != "" {
		db = db.Where("property_id = ?", propertyID)
	}
	if flatID := query.Filter("flat_id"); flatID != "" {
		db = db.Where("flat_id = ?", flatID)
	}
	if status := query.Filter("status"); status != "" {
		db = db.Where("status = ?", status)
	}
	if query.Filter("available") == "true" {
		db = db.Where("status IN ?", []string{models.RoomStatusVacant, models.RoomStatusBooked})
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"name":        "name",
		"rent_amount": "rent_amount",
		"status":      "status",
	}, "name ASC")

	err := applyPage(db, query).Preload("RoomType").Find(&rooms).Error
	return rooms, total, err
}

func (r *roomRepository) NumberExists(ctx context.Context, flatID uint, number string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("flat_id = ? AND room_number = ? AND id <> ?", flatID, number, excludeID).
		Count(&count).Error
	return count > 0, err
}

// RoomTypeRepository defines the interface for room type data access
type RoomTypeRepository interface {
	FindByID(ctx context.Context, id uint) (*models.RoomType, error)
	FindAll(ctx context.Context) ([]models.RoomType, error)
	Create(ctx context.Context, roomType *models.RoomType) error
	Update(ctx context.Context, roomType *models.RoomType) error
	Delete(ctx context.Context, id uint) error
	CodeExists(ctx context.Context, code string, excludeID uint) (bool, error)
}

type roomTypeRepository struct {
	db *gorm.DB
}

// NewRoomTypeRepository creates a new room type repository
func NewRoomTypeRepository(db *gorm.DB) RoomTypeRepository {
	return &roomTypeRepository{db: db}
}

func (r *roomTypeRepository) FindByID(ctx context.Context, id uint) (*models.RoomType, error) {
	var roomType models.RoomType
	if err := r.db.WithContext(ctx).First(&roomType, id).Error; err != nil {
		return nil, err
	}
	return &roomType, nil
}

func (r *roomTypeRepository) FindAll(ctx context.Context) ([]models.RoomType, error) {
	var roomTypes []models.RoomType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&roomTypes).Error
	return roomTypes, err
}

func (r *roomTypeRepository) Create(ctx context.Context, roomType *models.RoomType) error {
	return r.db.WithContext(ctx).Create(roomType).Error
}

func (r *roomTypeRepository) Update(ctx context.Context, roomType *models.RoomType) error {
	return r.db.WithContext(ctx).Save(roomType).Error
}

// Delete removes the room type and detaches rooms using it
func (r *roomTypeRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Room{}).Where("room_type_id = ?", id).Update("room_type_id", nil).Error; err != nil {
		return err
	}
	return db.Delete(&models.RoomType{}, id).Error
}

func (r *roomTypeRepository) CodeExists(ctx context.Context, code string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoomType{}).
		Where("LOWER(code) = LOWER(?) AND id <> ?", code, excludeID).
		Count(&count).Error
	return count > 0, err
}

// sumDecimal returns COALESCE(SUM(column), 0) over db
func sumDecimal(db *gorm.DB, column string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.Select("COALESCE(SUM(" + column + "), 0)").Row().Scan(&total)
	return total, err
}
