package services

import (
	"context"
	"fmt"
	"strings"

	"ridedesk/internal/domain"
	"ridedesk/internal/repositories"
	"ridedesk/internal/utils"
)

const minPasswordLen = 6

// UserService manages the user master: staff and rider accounts together
// with the rider's default city, pickup location and transport.
type UserService struct {
	Users     repositories.UserRepository
	Locations repositories.LocationRepository
	RequestID string
}

// UserInput is the body of POST and PUT /api/users.
type UserInput struct {
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	Address        string `json:"address"`
	MobileNo       string `json:"mobileNo"`
	CityID         *int64 `json:"cityId"`
	PickupLocation *int64 `json:"pickupLocation"`
	Transport      *int64 `json:"transport"`
	NoOfPerson     int    `json:"noOfPerson"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Password       string `json:"password"`
}

func knownRole(r domain.Role) bool {
	switch r {
	case domain.RoleSuperAdmin, domain.RoleAdmin, domain.RolePlant, domain.RoleRA, domain.RoleUser:
		return true
	}
	return false
}

func (in UserInput) validate(creating bool) error {
	errs := domain.FieldErrors{}
	if creating && strings.TrimSpace(in.UserID) == "" {
		errs.Add("userId", "User ID is required")
	}
	if strings.TrimSpace(in.Username) == "" {
		errs.Add("username", "Username is required")
	}
	if email := strings.TrimSpace(in.Email); email == "" {
		errs.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Email is not valid")
	}
	if !knownRole(domain.NormalizeRole(in.Role)) {
		errs.Add("role", "Role must be one of superadmin, admin, plant, ra, user")
	}
	if in.NoOfPerson < 0 {
		errs.Add("noOfPerson", "Number of persons must not be negative")
	}
	if in.PickupLocation != nil && in.CityID == nil {
		errs.Add("cityId", "City is required when a pickup location is set")
	}
	if (creating || in.Password != "") && len(in.Password) < minPasswordLen {
		errs.Add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	}
	return errs.OrNil()
}

// checkRole keeps superadmin accounts in the hands of superadmins.
func checkRole(actor domain.RequestContext, role domain.Role) error {
	if role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
		return domain.ValidationError{Field: "role", Msg: "only a superadmin may manage superadmin accounts"}
	}
	return nil
}

func (s UserService) requirePickupInCity(ctx context.Context, in UserInput) error {
	if in.PickupLocation == nil {
		return nil
	}
	loc, err := s.Locations.GetByID(ctx, *in.PickupLocation)
	if domain.IsNotFound(err) {
		return domain.ValidationError{Field: "pickupLocation", Msg: "location not found", Err: err}
	}
	if err != nil {
		return err
	}
	if loc.CityID != *in.CityID {
		return domain.ValidationError{Field: "pickupLocation", Msg: "location does not belong to this city"}
	}
	return nil
}

func (in UserInput) model(id int64) repositories.User {
	return repositories.User{
		ID:               id,
		UserCode:         strings.TrimSpace(in.UserID),
		Name:             utils.NormalizeSpace(in.Username),
		Email:            in.Email,
		Role:             domain.NormalizeRole(in.Role),
		Address:          in.Address,
		MobileNo:         in.MobileNo,
		CityID:           in.CityID,
		PickupLocationID: in.PickupLocation,
		TransportID:      in.Transport,
		Persons:          in.NoOfPerson,
	}
}

func (s UserService) Create(ctx context.Context, actor domain.RequestContext, in UserInput) (repositories.User, error) {
	if err := in.validate(true); err != nil {
		return repositories.User{}, err
	}
	u := in.model(0)
	if err := checkRole(actor, u.Role); err != nil {
		return repositories.User{}, err
	}
	if err := s.requirePickupInCity(ctx, in); err != nil {
		return repositories.User{}, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return repositories.User{}, domain.InternalError{Msg: "could not hash password", Err: err}
	}
	u.PasswordHash = hash

	created, err := s.Users.Create(ctx, u)
	if err != nil {
		return created, err
	}
	utils.LogEvent(s.RequestID, "masters", "create_user", fmt.Sprintf("id=%d role=%s", created.ID, created.Role))
	return s.Users.GetByID(ctx, created.ID)
}

// Update edits a user. A blank password keeps the current one; the user id
// (login code) is fixed once created.
func (s UserService) Update(ctx context.Context, actor domain.RequestContext, id int64, in UserInput) (repositories.User, error) {
	if err := in.validate(false); err != nil {
		return repositories.User{}, err
	}
	current, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return current, err
	}
	u := in.model(id)
	if err := checkRole(actor, u.Role); err != nil {
		return current, err
	}
	if err := checkRole(actor, current.Role); err != nil {
		return current, err
	}
	if err := s.requirePickupInCity(ctx, in); err != nil {
		return current, err
	}
	if in.Password != "" {
		if u.PasswordHash, err = HashPassword(in.Password); err != nil {
			return current, domain.InternalError{Msg: "could not hash password", Err: err}
		}
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return current, err
	}
	utils.LogEvent(s.RequestID, "masters", "update_user", fmt.Sprintf("id=%d password_changed=%t", id, in.Password != ""))
	return s.Users.GetByID(ctx, id)
}

// Delete removes a user. Nobody deletes their own account, and only a
// superadmin removes a superadmin.
func (s UserService) Delete(ctx context.Context, actor domain.RequestContext, id int64) error {
	if id == actor.UserID {
		return domain.ConflictError{Resource: "user", Msg: "you cannot delete your own account"}
	}
	current, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkRole(actor, current.Role); err != nil {
		return err
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "masters", "delete_user", fmt.Sprintf("id=%d", id))
	return nil
}
