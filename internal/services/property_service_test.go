package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyService_CreateProperty_UniqueCode(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	property := &models.Property{Name: " Marina Heights ", Code: " mh1 "}
	require.NoError(t, env.svcs.Property.CreateProperty(env.ctx, SystemActor, property))
	assert.Equal(t, "MH1", property.Code)
	assert.Equal(t, "Marina Heights", property.Name)
	assert.Equal(t, models.PropertyTypeApartment, property.PropertyType)

	err := env.svcs.Property.CreateProperty(env.ctx, SystemActor, &models.Property{Name: "Copy", Code: "Mh1"})
	assert.ErrorIs(t, err, ErrValidation)

	err = env.svcs.Property.CreateProperty(env.ctx, SystemActor, &models.Property{Name: "Nameless"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, int64(1), env.count(&models.Property{}, "1 = 1"))
	assert.Equal(t, int64(1), env.count(&models.AuditLog{}, "entity = ? AND action = ?", models.EntityProperty, "CREATE"))
}

func TestPropertyService_CreateFlat_UniqueNumberPerProperty(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	first := &models.Property{Name: "First", Code: "F1"}
	second := &models.Property{Name: "Second", Code: "S1"}
	require.NoError(t, env.svcs.Property.CreateProperty(env.ctx, SystemActor, first))
	require.NoError(t, env.svcs.Property.CreateProperty(env.ctx, SystemActor, second))

	flat := &models.Flat{PropertyID: first.ID, FlatNumber: "204"}
	require.NoError(t, env.svcs.Property.CreateFlat(env.ctx, SystemActor, flat, 3, nil))
	require.Len(t, flat.Rooms, 3)
	assert.Equal(t, "F1-204-R01", flat.Rooms[0].Name)
	assert.Equal(t, "R03", flat.Rooms[2].RoomNumber)
	assert.Equal(t, models.RoomStatusVacant, flat.Rooms[1].Status)

	err := env.svcs.Property.CreateFlat(env.ctx, SystemActor, &models.Flat{PropertyID: first.ID, FlatNumber: " 204 "}, 0, nil)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.svcs.Property.CreateFlat(env.ctx, SystemActor, &models.Flat{PropertyID: second.ID, FlatNumber: "204"}, 0, nil))

	err = env.svcs.Property.CreateFlat(env.ctx, SystemActor, &models.Flat{PropertyID: 9999, FlatNumber: "1"}, 0, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	stats, err := env.svcs.Property.Stats(env.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFlats)
	assert.Equal(t, 3, stats.TotalRooms)
	assert.Equal(t, 3, stats.VacantRooms)
}

func TestPropertyService_CreateRoom_UniqueNumberPerFlat(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	existing := env.newRoom(1500, 3000)

	room := &models.Room{FlatID: existing.FlatID, RoomNumber: " R02 ", RentAmount: decimal.NewFromInt(1800)}
	require.NoError(t, env.svcs.Property.CreateRoom(env.ctx, SystemActor, room))
	assert.Equal(t, "R02", room.RoomNumber)
	assert.Equal(t, existing.PropertyID, room.PropertyID)
	assert.Equal(t, models.RoomStatusVacant, room.Status)

	err := env.svcs.Property.CreateRoom(env.ctx, SystemActor, &models.Room{FlatID: existing.FlatID, RoomNumber: existing.RoomNumber})
	assert.ErrorIs(t, err, ErrValidation)

	err = env.svcs.Property.CreateRoom(env.ctx, SystemActor, &models.Room{FlatID: existing.FlatID, RoomNumber: "R09",
		RentAmount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrValidation)

	input := *room
	input.RoomNumber = existing.RoomNumber
	_, err = env.svcs.Property.UpdateRoom(env.ctx, SystemActor, &input)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPropertyService_Delete_RefusedWhileOccupied(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	room, err := env.svcs.Property.FindRoom(env.ctx, agreement.RoomID)
	require.NoError(t, err)

	err = env.svcs.Property.DeleteRoom(env.ctx, SystemActor, room.ID)
	assert.ErrorIs(t, err, ErrPrecondition)
	err = env.svcs.Property.DeleteFlat(env.ctx, SystemActor, room.FlatID)
	assert.ErrorIs(t, err, ErrPrecondition)
	err = env.svcs.Property.DeleteProperty(env.ctx, SystemActor, room.PropertyID)
	assert.ErrorIs(t, err, ErrPrecondition)

	vacant := env.newRoom(900, 0)
	require.NoError(t, env.svcs.Property.DeleteRoom(env.ctx, SystemActor, vacant.ID))
	_, err = env.svcs.Property.FindRoom(env.ctx, vacant.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1), env.count(&models.AuditLog{}, "entity = ? AND entity_id = ? AND action = ?",
		models.EntityRoom, vacant.ID, "DELETE"))
}
