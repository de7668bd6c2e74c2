package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	seen := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, plate, owner_name, note, last_seen, created_at\s+FROM vehicles`).
		WithArgs("51A", "51A", 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "plate", "owner_name", "note", "last_seen", "created_at"}).
			AddRow(int64(2), "51A-123.45", "Lan", "", seen, seen).
			AddRow(int64(1), "51A-999.99", "", "visitor", nil, seen))

	list, err := NewVehicleRepo(db).List(context.Background(), "51A", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].LastSeen)
	assert.Equal(t, seen, *list[0].LastSeen)
	assert.Nil(t, list[1].LastSeen)
	assert.Equal(t, "visitor", list[1].Note)
	require.NoError(t, mock.ExpectationsWereMet())
}
