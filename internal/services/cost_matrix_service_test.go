package services

import (
	"context"
	"errors"
	"testing"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"
	"ridedesk/internal/events"
	"ridedesk/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCostMatrixService(t *testing.T) (CostMatrixService, sqlmock.Sqlmock, *recordingPublisher) {
	db, mock := newMock(t)
	pub := &recordingPublisher{}
	return CostMatrixService{
		Locations: repositories.LocationRepository{DB: db},
		Costs:     repositories.LocationCostRepository{DB: db},
		Events:    pub,
		RequestID: "req-test",
	}, mock, pub
}

func TestMatrixUsesFreshLocationsAndSavedCosts(t *testing.T) {
	svc, mock, _ := newCostMatrixService(t)

	mock.ExpectQuery("FROM locations WHERE city_id=\\?").WithArgs(int64(7)).
		WillReturnRows(locationRows().
			AddRow(1, "L001", "Anna Nagar", 7).
			AddRow(2, "L002", "T Nagar", 7).
			AddRow(3, "L003", "Velachery", 7))
	mock.ExpectQuery("FROM location_costs").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "city_id", "pickup_location_id", "drop_location_id", "cost"}).
			AddRow(1, 7, 1, 2, 150.0))

	matrix, err := svc.Matrix(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, matrix, 6)
	require.NotNil(t, matrix[0].Cost)
	assert.Equal(t, 150.0, *matrix[0].Cost)
	assert.Nil(t, matrix[1].Cost)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshInvalidatesCityBelowTwoLocations(t *testing.T) {
	svc, mock, pub := newCostMatrixService(t)

	mock.ExpectQuery("FROM locations WHERE city_id=\\?").WithArgs(int64(7)).
		WillReturnRows(locationRows().AddRow(1, "L001", "Anna Nagar", 7))
	mock.ExpectExec("DELETE FROM location_costs WHERE city_id=\\?").WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	matrix, err := svc.Refresh(context.Background(), 7)
	assert.Nil(t, matrix)
	assert.True(t, errors.Is(err, domain.ErrInsufficientLocations))
	assert.Equal(t, []string{events.CostMatrixCleared}, pub.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMatrixRejectsForeignLocationWithoutWriting(t *testing.T) {
	svc, mock, pub := newCostMatrixService(t)

	mock.ExpectQuery("FROM locations WHERE city_id=\\?").WithArgs(int64(7)).
		WillReturnRows(locationRows().
			AddRow(1, "L001", "Anna Nagar", 7).
			AddRow(2, "L002", "T Nagar", 7))

	_, err := svc.SaveMatrix(context.Background(), 7, []models.CostMatrixEntry{
		{PickupLocationID: 1, DropLocationID: 99, Cost: fptr(10)},
	})
	fe, ok := domain.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "location does not belong to this city", fe["entries[0]"])
	assert.Empty(t, pub.envs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMatrixPersistsAndRebuilds(t *testing.T) {
	svc, mock, pub := newCostMatrixService(t)

	mock.ExpectQuery("FROM locations WHERE city_id=\\?").WithArgs(int64(7)).
		WillReturnRows(locationRows().
			AddRow(1, "L001", "Anna Nagar", 7).
			AddRow(2, "L002", "T Nagar", 7))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO location_costs").WithArgs(int64(7), int64(1), int64(2), 80.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM location_costs").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "city_id", "pickup_location_id", "drop_location_id", "cost"}).
			AddRow(1, 7, 1, 2, 80.0))

	res, err := svc.SaveMatrix(context.Background(), 7, []models.CostMatrixEntry{
		{PickupLocationID: 1, DropLocationID: 2, Cost: fptr(80)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)
	require.Len(t, res.Matrix, 2)
	assert.Equal(t, 80.0, *res.Matrix[0].Cost)
	assert.Nil(t, res.Matrix[1].Cost)
	assert.Equal(t, []string{events.CostMatrixSaved}, pub.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationMovedSameCityIsNoop(t *testing.T) {
	svc, mock, _ := newCostMatrixService(t)
	require.NoError(t, svc.LocationMoved(context.Background(), 1, 7, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
