package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	intconfig "ridedesk/internal/config"
	"ridedesk/internal/domain"
	h "ridedesk/internal/http/handlers"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T) (*gin.Engine, *h.API, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a := &h.API{
		DB:  db,
		Env: intconfig.Env{JWTSecret: "test-secret", TokenTTL: time.Hour},
	}
	return NewRouter(a), a, mock
}

func tokenFor(t *testing.T, a *h.API, role domain.Role) string {
	t.Helper()
	tok, _, err := a.Auth().IssueToken(domain.RequestContext{UserID: 1, Name: "Tester", Email: "t@corp.test", Role: role})
	require.NoError(t, err)
	return tok
}

func send(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCreateCityFieldErrors(t *testing.T) {
	r, a, _ := newTestRouter(t)
	rec := send(r, http.MethodPost, "/api/cities", tokenFor(t, a, domain.RoleAdmin), `{"cityId":" "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation failed", body["message"])
	errs := body["errors"].(map[string]any)
	assert.Equal(t, "City ID is required", errs["cityId"])
	assert.Equal(t, "City name is required", errs["cityName"])
}

func TestMastersNeedAdmin(t *testing.T) {
	r, a, _ := newTestRouter(t)
	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodPost, "/api/cities", "", `{}`).Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodPost, "/api/cities", tokenFor(t, a, domain.RoleRA), `{}`).Code)
}

func TestMatrixNeedsTwoLocations(t *testing.T) {
	r, a, mock := newTestRouter(t)
	mock.ExpectQuery("FROM locations WHERE city_id=\\?").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "location_code", "location_name", "city_id"}).AddRow(1, "L001", "Anna Nagar", 7))

	rec := send(r, http.MethodGet, "/api/cities/7/location-costs/matrix", tokenFor(t, a, domain.RolePlant), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrInsufficientLocations.Error(), decode(t, rec)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLocationReportsMissingMatrix(t *testing.T) {
	r, a, mock := newTestRouter(t)
	mock.ExpectExec("INSERT INTO locations").WithArgs("L001", "Anna Nagar", int64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM locations WHERE city_id=\\?").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "location_code", "location_name", "city_id"}).AddRow(1, "L001", "Anna Nagar", 7))
	mock.ExpectExec("DELETE FROM location_costs WHERE city_id=\\?").WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := send(r, http.MethodPost, "/api/locations", tokenFor(t, a, domain.RoleAdmin),
		`{"locationId":"L001","locationName":"Anna Nagar","cityId":7}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, domain.ErrInsufficientLocations.Error(), body["costMatrixError"])
	assert.Nil(t, body["costMatrix"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginSetsSessionCookies(t *testing.T) {
	r, _, mock := newTestRouter(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery("FROM users").WithArgs("ra@corp.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "status"}).
			AddRow(2, "Ravi", "ra@corp.test", string(hash), "ra", "active"))

	rec := send(r, http.MethodPost, "/api/auth/login", "", `{"email":"ra@corp.test","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	names := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		names[c.Name] = c.Value
	}
	assert.NotEmpty(t, names["token"])
	assert.Equal(t, "ra", names["role"])
	assert.Len(t, decode(t, rec)["nav"], 2)
}

func TestNavFromRoleCookie(t *testing.T) {
	r, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/nav", nil)
	req.AddCookie(&http.Cookie{Name: "role", Value: "plant"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	links := decode(t, rec)["links"].([]any)
	require.Len(t, links, 3)
	assert.Equal(t, "Upload Invoice", links[1].(map[string]any)["label"])
}

func TestInvoiceDownload(t *testing.T) {
	r, a, mock := newTestRouter(t)
	pickup := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	cols := []string{
		"id", "user_code", "user_name", "mobile_no", "city_id", "city_code", "city_name",
		"pickup_location_id", "pickup_code", "pickup_name", "drop_location_id", "drop_code", "drop_name",
		"transport_id", "transport_code", "vehicle_no", "type", "vendor_id", "vendor_name",
		"pickup_date", "ride_start_time", "ride_end_time", "cost", "status", "remarks", "created_by_role", "created_by_user_id", "confirmed", "created_at",
	}
	mock.ExpectQuery("FROM ride_tickets t").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "U1", "Ravi", "98400", 7, "CHN", "Chennai", 1, "L001", "Anna Nagar", 2, "L002", "T Nagar",
				nil, "", "", "", 3, "Fast Cabs", pickup, pickup, pickup, 150.0, "completed", "", "admin", 1, true, pickup).
			AddRow(2, "U2", "Mala", "98401", 7, "CHN", "Chennai", 1, "L001", "Anna Nagar", 2, "L002", "T Nagar",
				nil, "", "", "", 4, "Other Cabs", pickup, nil, nil, 90.0, "pending", "", "admin", 1, false, pickup))
	mock.ExpectQuery("FROM vendors").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vendor_name", "city_id", "city_code", "city_name"}).
			AddRow(3, "Fast Cabs", 7, "CHN", "Chennai"))

	rec := send(r, http.MethodGet, "/api/ride-tickets/invoice?vendor=3&from=2024-03-01&to=2024-03-31&fileName=march", tokenFor(t, a, domain.RolePlant), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="march.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}

func TestInvoiceRejectsHalfDateRange(t *testing.T) {
	r, a, _ := newTestRouter(t)
	rec := send(r, http.MethodGet, "/api/ride-tickets/invoice?from=2024-03-01", tokenFor(t, a, domain.RolePlant), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["errors"], "dateRange")
}

func ticketCols() []string {
	return []string{
		"id", "user_code", "user_name", "mobile_no", "city_id", "city_code", "city_name",
		"pickup_location_id", "pickup_code", "pickup_name", "drop_location_id", "drop_code", "drop_name",
		"transport_id", "transport_code", "vehicle_no", "type", "vendor_id", "vendor_name",
		"pickup_date", "ride_start_time", "ride_end_time", "cost", "status", "remarks", "created_by_role", "created_by_user_id", "confirmed", "created_at",
	}
}

func TestUpdateRemarksOnAnotherUsersTicket(t *testing.T) {
	r, a, mock := newTestRouter(t)
	pickup := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	victimTicket := func() *sqlmock.Rows {
		return sqlmock.NewRows(ticketCols()).
			AddRow(9, "victim@corp.test", "Victim", "98400", 7, "CHN", "Chennai", 1, "L001", "Anna Nagar", nil, "", "",
				nil, "", "", "", nil, "", pickup, pickup, nil, nil, "ride started", "", "admin", 2, false, pickup)
	}
	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(9)).WillReturnRows(victimTicket())

	rec := send(r, http.MethodPut, "/api/ride-tickets/update-remarks/9?remarks=hijacked", tokenFor(t, a, domain.RolePlant), "")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	mock.ExpectQuery("FROM ride_tickets t").WithArgs(int64(9)).WillReturnRows(victimTicket())
	rec = send(r, http.MethodGet, "/api/ride-tickets/9", tokenFor(t, a, domain.RoleRA), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// No UPDATE may reach the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersMasterRequiresAdmin(t *testing.T) {
	r, a, _ := newTestRouter(t)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodGet, "/api/users", tokenFor(t, a, domain.RolePlant), "").Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodPost, "/api/users", tokenFor(t, a, domain.RoleRA), `{}`).Code)
}

func TestCreateUserThroughAPI(t *testing.T) {
	r, a, mock := newTestRouter(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("U7", "Mala", "mala@corp.test", sqlmock.AnyArg(), "ra", "", "98401", nil, nil, nil, 1).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("FROM users u").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_code", "name", "email", "role", "status", "address", "mobile_no",
			"city_id", "city_name", "pickup_location_id", "location_name", "transport_id", "vehicle_no", "persons"}).
			AddRow(7, "U7", "Mala", "mala@corp.test", "ra", "active", "", "98401", nil, "", nil, "", nil, "", 1))

	rec := send(r, http.MethodPost, "/api/users", tokenFor(t, a, domain.RoleAdmin),
		`{"userId":"U7","username":"Mala","mobileNo":"98401","noOfPerson":1,"email":"mala@corp.test","role":"ra","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "U7", body["userId"])
	assert.NotContains(t, body, "PasswordHash")
	assert.NotContains(t, rec.Body.String(), "secret1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserFieldErrors(t *testing.T) {
	r, a, _ := newTestRouter(t)
	rec := send(r, http.MethodPost, "/api/users", tokenFor(t, a, domain.RoleAdmin), `{"role":"pilot"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decode(t, rec)["errors"].(map[string]any)
	assert.Contains(t, errs, "role")
	assert.Contains(t, errs, "password")
}
