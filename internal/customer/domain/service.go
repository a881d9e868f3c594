package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

// Identity is the contact information a checkout carries.
type Identity struct {
	Name  string
	Phone string
	Email string
}

type ListCustomerRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Phone     string
	Email     string
}

type ListCustomerFilter struct {
	Name  string
	Phone string
	Email string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	// ResolveOrRegister finds the customer by phone, then email, registering a new one
	// when neither matches. It joins the transaction carried by ctx.
	ResolveOrRegister(context.Context, Identity) (*Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidPhone = errors.New("invalid_phone")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
