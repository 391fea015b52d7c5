package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories holds all repository instances bound to one database handle
type Repositories struct {
	db *gorm.DB

	User         UserRepository
	Notification NotificationRepository
	RefreshToken RefreshTokenRepository
	Property     PropertyRepository
	Flat         FlatRepository
	Room         RoomRepository
	RoomType     RoomTypeRepository
	Contact      ContactRepository
	Tenant       TenantRepository
	Agreement    AgreementRepository
	Invoice      InvoiceRepository
	Payment      PaymentRepository
	Collection   CollectionRepository
	Expense      ExpenseRepository
	Due          DueRepository
	Exit         TenantExitRepository
	Deposit      DepositRepository
	Landlord     LandlordPaymentRepository
	Salary       StaffSalaryRepository
	Transfer     BankTransferRepository
	Activity     ActivityRepository
	ChangeLog    ChangeLogRepository
	Audit        AuditRepository
	Sequence     SequenceRepository
	Dashboard    DashboardRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		User:         NewUserRepository(db),
		Notification: NewNotificationRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Property:     NewPropertyRepository(db),
		Flat:         NewFlatRepository(db),
		Room:         NewRoomRepository(db),
		RoomType:     NewRoomTypeRepository(db),
		Contact:      NewContactRepository(db),
		Tenant:       NewTenantRepository(db),
		Agreement:    NewAgreementRepository(db),
		Invoice:      NewInvoiceRepository(db),
		Payment:      NewPaymentRepository(db),
		Collection:   NewCollectionRepository(db),
		Expense:      NewExpenseRepository(db),
		Due:          NewDueRepository(db),
		Exit:         NewTenantExitRepository(db),
		Deposit:      NewDepositRepository(db),
		Landlord:     NewLandlordPaymentRepository(db),
		Salary:       NewStaffSalaryRepository(db),
		Transfer:     NewBankTransferRepository(db),
		Activity:     NewActivityRepository(db),
		ChangeLog:    NewChangeLogRepository(db),
		Audit:        NewAuditRepository(db),
		Sequence:     NewSequenceRepository(db),
		Dashboard:    NewDashboardRepository(db),
	}
}

// WithinTransaction runs fn with every repository rebound to one transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (r *Repositories) WithinTransaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// DB returns the underlying handle
func (r *Repositories) DB() *gorm.DB {
	return r.db
}
