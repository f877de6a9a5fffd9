package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/internal/sqlerr"
)

// OrgAdminRole is the Clerk organization role that grants dashboard access.
const OrgAdminRole = "org:admin"

// Identity is what the auth provider knows about the caller.
type Identity struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	OrgRole   string
}

type UserService interface {
	// Sync upserts the local user row from the caller's identity.
	Sync(ctx context.Context, id Identity) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	List(ctx context.Context, limit, offset int) (*ListResult[model.User], error)
}

type userService struct {
	users       repository.UserRepository
	adminEmails []string
}

// NewUserService grants the admin role on sync to any email in adminEmails.
func NewUserService(users repository.UserRepository, adminEmails []string) UserService {
	return &userService{users: users, adminEmails: adminEmails}
}

func (s *userService) Sync(ctx context.Context, id Identity) (*model.User, error) {
	if id.UserID == "" {
		return nil, ErrIDRequired
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))
	role := model.RoleCustomer
	if id.OrgRole == OrgAdminRole || (email != "" && slices.Contains(s.adminEmails, email)) {
		role = model.RoleAdmin
	}
	return s.users.Upsert(ctx, &model.User{
		ID:        id.UserID,
		Email:     email,
		FirstName: strings.TrimSpace(id.FirstName),
		LastName:  strings.TrimSpace(id.LastName),
		Phone:     strings.TrimSpace(id.Phone),
		Role:      role,
	})
}

func (s *userService) Get(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, limit, offset int) (*ListResult[model.User], error) {
	pq := pageQuery(limit, offset)
	res, err := s.users.List(ctx, pq)
	if err != nil {
		return nil, err
	}
	return listResult(res, pq), nil
}

// AddressInput is a shipping address as submitted by the customer.
type AddressInput struct {
	FullName   string
	Phone      string
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
	IsDefault  bool
}

func (in AddressInput) toModel(userID string) *model.Address {
	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" {
		country = "TZ"
	}
	return &model.Address{
		UserID:     userID,
		FullName:   strings.TrimSpace(in.FullName),
		Phone:      strings.TrimSpace(in.Phone),
		Line1:      strings.TrimSpace(in.Line1),
		Line2:      strings.TrimSpace(in.Line2),
		City:       strings.TrimSpace(in.City),
		Region:     strings.TrimSpace(in.Region),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    country,
		IsDefault:  in.IsDefault,
	}
}

type AddressService interface {
	List(ctx context.Context, userID string) ([]model.Address, error)
	Create(ctx context.Context, userID string, in AddressInput) (*model.Address, error)
	Update(ctx context.Context, userID, id string, in AddressInput) (*model.Address, error)
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) error
}

type addressService struct {
	addresses repository.AddressRepository
}

func NewAddressService(addresses repository.AddressRepository) AddressService {
	return &addressService{addresses: addresses}
}

func (s *addressService) List(ctx context.Context, userID string) ([]model.Address, error) {
	return s.addresses.ListByUser(ctx, userID)
}

func (s *addressService) Create(ctx context.Context, userID string, in AddressInput) (*model.Address, error) {
	return s.addresses.Create(ctx, in.toModel(userID))
}

func (s *addressService) Update(ctx context.Context, userID, id string, in AddressInput) (*model.Address, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAddressNotFound
	}
	a := in.toModel(userID)
	a.ID = id
	out, err := s.addresses.Update(ctx, a)
	if err != nil {
		return nil, addressErr(err)
	}
	return out, nil
}

func (s *addressService) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrAddressNotFound
	}
	return addressErr(s.addresses.Delete(ctx, userID, id))
}

func (s *addressService) SetDefault(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrAddressNotFound
	}
	return addressErr(s.addresses.SetDefault(ctx, userID, id))
}

func addressErr(err error) error {
	if sqlerr.IsNoRows(err) {
		return ErrAddressNotFound
	}
	return err
}
