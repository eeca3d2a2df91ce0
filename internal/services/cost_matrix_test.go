package services

import (
	"errors"
	"testing"

	"ridedesk/internal/domain"
	"ridedesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func chennai() []models.Location {
	return []models.Location{
		{ID: 1, LocationID: "L001", LocationName: "Anna Nagar", CityID: 7},
		{ID: 2, LocationID: "L002", LocationName: "T Nagar", CityID: 7},
		{ID: 3, LocationID: "L003", LocationName: "Velachery", CityID: 7},
		{ID: 4, LocationID: "L004", LocationName: "Adyar", CityID: 7},
	}
}

func TestBuildCostMatrixCompleteness(t *testing.T) {
	for n := 2; n <= 4; n++ {
		locs := chennai()[:n]
		matrix, err := BuildCostMatrix(locs, nil)
		require.NoError(t, err)
		require.Len(t, matrix, n*(n-1))

		seen := map[models.PairKey]int{}
		for _, e := range matrix {
			assert.NotEqual(t, e.PickupLocationID, e.DropLocationID)
			seen[models.PairKey{Pickup: e.PickupLocationID, Drop: e.DropLocationID}]++
		}
		for i := range locs {
			for j := range locs {
				if i == j {
					continue
				}
				assert.Equal(t, 1, seen[models.PairKey{Pickup: locs[i].ID, Drop: locs[j].ID}])
			}
		}
	}
}

func TestBuildCostMatrixRowMajorOrder(t *testing.T) {
	matrix, err := BuildCostMatrix(chennai()[:3], nil)
	require.NoError(t, err)

	got := make([][2]int64, 0, len(matrix))
	for _, e := range matrix {
		got = append(got, [2]int64{e.PickupLocationID, e.DropLocationID})
	}
	assert.Equal(t, [][2]int64{{1, 2}, {1, 3}, {2, 1}, {2, 3}, {3, 1}, {3, 2}}, got)
	assert.Equal(t, "Anna Nagar", matrix[0].PickupLocationName)
	assert.Equal(t, "T Nagar", matrix[0].DropLocationName)
}

func TestBuildCostMatrixPreservesSavedCosts(t *testing.T) {
	existing := []models.LocationCost{
		{PickupLocationID: 1, DropLocationID: 2, Cost: fptr(120)},
		{PickupLocationID: 2, DropLocationID: 1, Cost: fptr(0)},
		{PickupLocationID: 3, DropLocationID: 9, Cost: fptr(55)},
	}
	matrix, err := BuildCostMatrix(chennai()[:3], existing)
	require.NoError(t, err)

	byPair := map[models.PairKey]*float64{}
	for _, e := range matrix {
		byPair[models.PairKey{Pickup: e.PickupLocationID, Drop: e.DropLocationID}] = e.Cost
	}
	require.NotNil(t, byPair[models.PairKey{Pickup: 1, Drop: 2}])
	assert.Equal(t, 120.0, *byPair[models.PairKey{Pickup: 1, Drop: 2}])
	require.NotNil(t, byPair[models.PairKey{Pickup: 2, Drop: 1}], "zero is a price, not a blank")
	assert.Equal(t, 0.0, *byPair[models.PairKey{Pickup: 2, Drop: 1}])
	assert.Nil(t, byPair[models.PairKey{Pickup: 1, Drop: 3}])
	assert.Nil(t, byPair[models.PairKey{Pickup: 3, Drop: 2}])

	existing[0].Cost = fptr(999)
	assert.Equal(t, 120.0, *byPair[models.PairKey{Pickup: 1, Drop: 2}], "output must not alias input")
}

func TestBuildCostMatrixDeterministic(t *testing.T) {
	existing := []models.LocationCost{{PickupLocationID: 4, DropLocationID: 1, Cost: fptr(80)}}
	a, err := BuildCostMatrix(chennai(), existing)
	require.NoError(t, err)
	b, err := BuildCostMatrix(chennai(), existing)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildCostMatrixInsufficientLocations(t *testing.T) {
	for _, locs := range [][]models.Location{nil, {}, chennai()[:1]} {
		matrix, err := BuildCostMatrix(locs, nil)
		assert.Nil(t, matrix)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInsufficientLocations))
		assert.True(t, domain.IsValidation(err))
	}
}

func TestComputeDropOptions(t *testing.T) {
	all := chennai()
	assert.Len(t, ComputeDropOptions(all, 0), 4)

	opts := ComputeDropOptions(all, 2)
	require.Len(t, opts, 3)
	for _, o := range opts {
		assert.NotEqual(t, int64(2), o.ID)
	}
	assert.Equal(t, int64(1), opts[0].ID)
	assert.Equal(t, int64(3), opts[1].ID)
}

func TestValidateCostEntries(t *testing.T) {
	locs := chennai()[:3]
	ok := []models.CostMatrixEntry{
		{PickupLocationID: 1, DropLocationID: 2, Cost: fptr(10)},
		{PickupLocationID: 2, DropLocationID: 1},
	}
	assert.NoError(t, ValidateCostEntries(locs, ok))

	bad := []models.CostMatrixEntry{
		{PickupLocationID: 1, DropLocationID: 1, Cost: fptr(10)},
		{PickupLocationID: 1, DropLocationID: 99, Cost: fptr(10)},
		{PickupLocationID: 1, DropLocationID: 2, Cost: fptr(10)},
		{PickupLocationID: 1, DropLocationID: 2, Cost: fptr(12)},
		{PickupLocationID: 3, DropLocationID: 2, Cost: fptr(-1)},
	}
	err := ValidateCostEntries(locs, bad)
	fields, isFields := domain.AsFieldErrors(err)
	require.True(t, isFields)
	assert.Equal(t, "pickup and drop location must differ", fields["entries[0]"])
	assert.Equal(t, "location does not belong to this city", fields["entries[1]"])
	assert.NotContains(t, fields, "entries[2]")
	assert.Equal(t, "duplicate pickup/drop pair", fields["entries[3]"])
	assert.Equal(t, "cost must not be negative", fields["entries[4]"])

	assert.ErrorIs(t, ValidateCostEntries(locs[:1], ok), domain.ErrInsufficientLocations)
}
