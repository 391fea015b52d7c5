package statemachine

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/sjperalta/rentdesk-api/internal/models"
)

// LandlordPaymentFSM wraps a landlord payment with its state machine
type LandlordPaymentFSM struct {
	payment *models.LandlordPayment
	fsm     *fsm.FSM
}

func NewLandlordPaymentFSM(payment *models.LandlordPayment) *LandlordPaymentFSM {
	return &LandlordPaymentFSM{
		payment: payment,
		fsm: fsm.NewFSM(
			payment.Status,
			fsm.Events{
				{Name: "pay", Src: []string{models.LandlordPaymentStatusDraft}, Dst: models.LandlordPaymentStatusPaid},
				{Name: "cancel", Src: []string{models.LandlordPaymentStatusDraft}, Dst: models.LandlordPaymentStatusCancelled},
			},
			fsm.Callbacks{},
		),
	}
}

func (l *LandlordPaymentFSM) setStatus(s string) { l.payment.Status = s }

func (l *LandlordPaymentFSM) Pay(ctx context.Context) error {
	return fire(ctx, l.fsm, l.payment.MayPay(), "landlord payment", "pay", l.setStatus)
}

func (l *LandlordPaymentFSM) Cancel(ctx context.Context) error {
	return fire(ctx, l.fsm, l.payment.MayCancel(), "landlord payment", "cancel", l.setStatus)
}

// StaffSalaryFSM wraps a salary with its draft → approved → paid machine
type StaffSalaryFSM struct {
	salary *models.StaffSalary
	fsm    *fsm.FSM
}

func NewStaffSalaryFSM(salary *models.StaffSalary) *StaffSalaryFSM {
	return &StaffSalaryFSM{
		salary: salary,
		fsm: fsm.NewFSM(
			salary.Status,
			fsm.Events{
				{Name: "approve", Src: []string{models.StaffSalaryStatusDraft}, Dst: models.StaffSalaryStatusApproved},
				{Name: "pay", Src: []string{models.StaffSalaryStatusApproved}, Dst: models.StaffSalaryStatusPaid},
			},
			fsm.Callbacks{},
		),
	}
}

func (s *StaffSalaryFSM) setStatus(status string) { s.salary.Status = status }

func (s *StaffSalaryFSM) Approve(ctx context.Context) error {
	return fire(ctx, s.fsm, s.salary.MayApprove(), "salary", "approve", s.setStatus)
}

func (s *StaffSalaryFSM) Pay(ctx context.Context) error {
	return fire(ctx, s.fsm, s.salary.MayPay(), "salary", "pay", s.setStatus)
}

// BankTransferFSM wraps a bank transfer with its pending → verified → reconciled machine
type BankTransferFSM struct {
	transfer *models.BankTransfer
	fsm      *fsm.FSM
}

func NewBankTransferFSM(transfer *models.BankTransfer) *BankTransferFSM {
	return &BankTransferFSM{
		transfer: transfer,
		fsm: fsm.NewFSM(
			transfer.Status,
			fsm.Events{
				{Name: "verify", Src: []string{models.BankTransferStatusPending}, Dst: models.BankTransferStatusVerified},
				{Name: "reconcile", Src: []string{models.BankTransferStatusVerified}, Dst: models.BankTransferStatusReconciled},
			},
			fsm.Callbacks{},
		),
	}
}

func (b *BankTransferFSM) setStatus(s string) { b.transfer.Status = s }

func (b *BankTransferFSM) Verify(ctx context.Context) error {
	return fire(ctx, b.fsm, b.transfer.MayVerify(), "bank transfer", "verify", b.setStatus)
}

func (b *BankTransferFSM) Reconcile(ctx context.Context) error {
	return fire(ctx, b.fsm, b.transfer.MayReconcile(), "bank transfer", "reconcile", b.setStatus)
}
