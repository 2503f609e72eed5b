package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/umalmyha/customers-kyc/internal/service"
	"github.com/umalmyha/customers-kyc/internal/validation"
)

// CustomerHTTPHandler is http handler for customers endpoint
type CustomerHTTPHandler struct {
	customerSvc service.CustomerService
}

// NewCustomerHTTPHandler builds new CustomerHTTPHandler
func NewCustomerHTTPHandler(customerSvc service.CustomerService) *CustomerHTTPHandler {
	return &CustomerHTTPHandler{customerSvc: customerSvc}
}

// Create registers new customer
// @Summary     Register customer
// @Description Registers customer and schedules compliance check
// @Tags        customers
// @Accept      json
// @Produce     json
// @Param       customer body     validation.CreateCustomer true "New customer"
// @Success     201      {object} response{data=model.Customer}
// @Failure     400      {object} errorResponse
// @Failure     409      {object} errorResponse
// @Failure     429      {object} errorResponse
// @Failure     500      {object} errorResponse
// @Router      /api/customers [post]
func (h *CustomerHTTPHandler) Create(c echo.Context) error {
	var req validation.CreateCustomer
	if err := c.Bind(&req); err != nil {
		return badPayload(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	nc, err := req.NewCustomer()
	if err != nil {
		return err
	}

	customer, err := h.customerSvc.Register(c.Request().Context(), nc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok("Customer created successfully", customer))
}

// Get returns customer by id
// @Summary     Get customer
// @Tags        customers
// @Produce     json
// @Param       id  path     string true "Customer id"
// @Success     200 {object} response{data=model.Customer}
// @Failure     400 {object} errorResponse
// @Failure     404 {object} errorResponse
// @Failure     500 {object} errorResponse
// @Router      /api/customers/{id} [get]
func (h *CustomerHTTPHandler) Get(c echo.Context) error {
	var req validation.Identifier
	if err := c.Bind(&req); err != nil {
		return badPayload(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	customer, err := h.customerSvc.FindByID(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Customer retrieved successfully", customer))
}

// GetByNationalID returns customer by national id
// @Summary     Get customer by national id
// @Tags        customers
// @Produce     json
// @Param       nationalId path     string true "National id"
// @Success     200        {object} response{data=model.Customer}
// @Failure     400        {object} errorResponse
// @Failure     404        {object} errorResponse
// @Failure     500        {object} errorResponse
// @Router      /api/customers/by-national-id/{nationalId} [get]
func (h *CustomerHTTPHandler) GetByNationalID(c echo.Context) error {
	var req validation.NationalIdentifier
	if err := c.Bind(&req); err != nil {
		return badPayload(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	customer, err := h.customerSvc.FindByNationalID(c.Request().Context(), req.NationalID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Customer retrieved successfully", customer))
}

// Search returns page of customers matching filter
// @Summary     Search customers
// @Tags        customers
// @Produce     json
// @Param       q                query    string false "Text matched against names, email and national id"
// @Param       status           query    string false "Customer status"
// @Param       complianceStatus query    string false "Compliance status"
// @Param       country          query    string false "Country substring"
// @Param       page             query    int    false "Page number" default(1)
// @Param       limit            query    int    false "Page size"   default(10)
// @Success     200              {object} response{data=[]model.CustomerListItem}
// @Failure     400              {object} errorResponse
// @Failure     500              {object} errorResponse
// @Router      /api/customers [get]
func (h *CustomerHTTPHandler) Search(c echo.Context) error {
	req := validation.NewSearchQuery()
	if err := c.Bind(req); err != nil {
		return badPayload(err)
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	page, err := h.customerSvc.Search(c.Request().Context(), req.Filter())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paginated("Customers retrieved successfully", page))
}

// Update changes customer profile
// @Summary     Update customer
// @Description Updates profile fields, identity anchors, documents and statuses can't be changed
// @Tags        customers
// @Accept      json
// @Produce     json
// @Param       id       path     string                    true "Customer id"
// @Param       customer body     validation.UpdateCustomer true "Profile changes"
// @Success     200      {object} response{data=model.Customer}
// @Failure     400      {object} errorResponse
// @Failure     404      {object} errorResponse
// @Failure     409      {object} errorResponse
// @Failure     500      {object} errorResponse
// @Router      /api/customers/{id} [put]
func (h *CustomerHTTPHandler) Update(c echo.Context) error {
	var req validation.UpdateCustomer
	if err := c.Bind(&req); err != nil {
		return badPayload(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	customer, err := h.customerSvc.Update(c.Request().Context(), req.ID, req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Customer updated successfully", customer))
}

// Deactivate soft deletes customer
// @Summary     Deactivate customer
// @Tags        customers
// @Produce     json
// @Param       id  path     string true "Customer id"
// @Success     200 {object} response
// @Failure     400 {object} errorResponse
// @Failure     404 {object} errorResponse
// @Failure     500 {object} errorResponse
// @Router      /api/customers/{id} [delete]
func (h *CustomerHTTPHandler) Deactivate(c echo.Context) error {
	var req validation.Identifier
	if err := c.Bind(&req); err != nil {
		return badPayload(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.customerSvc.Deactivate(c.Request().Context(), req.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Customer deactivated successfully", nil))
}

// Accounts returns customer accounts
// @Summary     Get customer accounts
// @Tags        customers
// @Produce     json
// @Param       id  path     string true "Customer id"
// @Success     200 {object} response{data=model.CustomerAccounts}
// @Failure     400 {object} errorResponse
// @Failure     404 {object} errorResponse
// @Failure     503 {object} errorResponse
// @Failure     500 {object} errorResponse
// @Router      /api/customers/{id}/accounts [get]
func (h *CustomerHTTPHandler) Accounts(c echo.Context) error {
	var req validation.Identifier
	if err := c.Bind(&req); err != nil {
		return badPayload(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	accounts, err := h.customerSvc.FindAccounts(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Customer accounts retrieved successfully", accounts))
}

// AddDocument attaches KYC document to customer
// @Summary     Add document
// @Description Appends unverified document, identity documents trigger compliance check
// @Tags        customers
// @Accept      json
// @Produce     json
// @Param       id       path     string                 true "Customer id"
// @Param       document body     validation.AddDocument true "Document"
// @Success     200      {object} response{data=model.Customer}
// @Failure     400      {object} errorResponse
// @Failure     404      {object} errorResponse
// @Failure     500      {object} errorResponse
// @Router      /api/customers/{id}/documents [post]
func (h *CustomerHTTPHandler) AddDocument(c echo.Context) error {
	var req validation.AddDocument
	if err := c.Bind(&req); err != nil {
		return badPayload(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	customer, err := h.customerSvc.AddDocument(c.Request().Context(), req.ID, req.Document())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Document added successfully", customer))
}
