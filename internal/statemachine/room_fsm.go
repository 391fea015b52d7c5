package statemachine

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/sjperalta/rentdesk-api/internal/models"
)

// RoomFSM wraps a room with its occupancy state machine
type RoomFSM struct {
	room *models.Room
	fsm  *fsm.FSM
}

// NewRoomFSM creates a new room state machine
func NewRoomFSM(room *models.Room) *RoomFSM {
	rfsm := &RoomFSM{
		room: room,
	}

	rfsm.fsm = fsm.NewFSM(
		room.Status,
		fsm.Events{
			{Name: "book", Src: []string{models.RoomStatusVacant}, Dst: models.RoomStatusBooked},
			{Name: "occupy", Src: []string{models.RoomStatusVacant, models.RoomStatusBooked}, Dst: models.RoomStatusOccupied},
			{Name: "vacate", Src: []string{
				models.RoomStatusOccupied,
				models.RoomStatusBooked,
				models.RoomStatusMaintenance,
				models.RoomStatusNotAvailable,
			}, Dst: models.RoomStatusVacant},
			{Name: "maintenance", Src: []string{models.RoomStatusVacant, models.RoomStatusBooked, models.RoomStatusNotAvailable}, Dst: models.RoomStatusMaintenance},
			{Name: "withdraw", Src: []string{models.RoomStatusVacant, models.RoomStatusBooked, models.RoomStatusMaintenance}, Dst: models.RoomStatusNotAvailable},
		},
		fsm.Callbacks{},
	)

	return rfsm
}

func (r *RoomFSM) setStatus(s string) { r.room.Status = s }

// Book reserves a vacant room
func (r *RoomFSM) Book(ctx context.Context) error {
	return fire(ctx, r.fsm, r.fsm.Can("book"), "room", "book", r.setStatus)
}

// Occupy marks the room occupied by the agreement's tenant
func (r *RoomFSM) Occupy(ctx context.Context, tenantID, agreementID uint) error {
	if err := fire(ctx, r.fsm, r.room.IsAvailable(), "room", "occupy", r.setStatus); err != nil {
		return err
	}
	r.room.Occupy(tenantID, agreementID)
	return nil
}

// Vacate releases the room and clears its occupancy pointers
func (r *RoomFSM) Vacate(ctx context.Context) error {
	if err := fire(ctx, r.fsm, r.fsm.Can("vacate"), "room", "vacate", r.setStatus); err != nil {
		return err
	}
	r.room.Vacate()
	return nil
}

// SetMaintenance takes the room out for maintenance
func (r *RoomFSM) SetMaintenance(ctx context.Context) error {
	return fire(ctx, r.fsm, r.fsm.Can("maintenance"), "room", "maintenance", r.setStatus)
}

// MarkNotAvailable withdraws the room from letting
func (r *RoomFSM) MarkNotAvailable(ctx context.Context) error {
	return fire(ctx, r.fsm, r.fsm.Can("withdraw"), "room", "withdraw", r.setStatus)
}

// Current returns the current state
func (r *RoomFSM) Current() string {
	return r.fsm.Current()
}
