package rest

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/api/middleware"
	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/history"
	"github.com/openlease/lease-ledger/internal/lease"
	"github.com/openlease/lease-ledger/internal/ledger"
	"github.com/openlease/lease-ledger/internal/session"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// ListLocations returns every location with its computed days-left value
	// GET /api/v1/locations
	ListLocations(c *gin.Context)

	// GetLocation returns a single location with its computed days-left value
	// GET /api/v1/locations/:id
	GetLocation(c *gin.Context)

	// MyLease returns the active lease assigned to the authenticated tenant
	// GET /api/v1/locations/my
	MyLease(c *gin.Context)

	// CreateLocation appends a new location (owner role)
	// POST /api/v1/locations
	CreateLocation(c *gin.Context)

	// AssignTenant sets the tenant of a location (owner role)
	// POST /api/v1/locations/:id/tenant
	AssignTenant(c *gin.Context)

	// TenantSign signs the lease as tenant (tenant role)
	// POST /api/v1/locations/:id/sign
	TenantSign(c *gin.Context)

	// PayRent pays rent for a location (tenant role)
	// POST /api/v1/locations/:id/pay
	PayRent(c *gin.Context)

	// TerminateLocation deactivates a location (owner role)
	// DELETE /api/v1/locations/:id
	TerminateLocation(c *gin.Context)

	// LocationPayments returns the payment history of a single location
	// GET /api/v1/locations/:id/payments
	LocationPayments(c *gin.Context)

	// ListPayments returns the full payment history
	// GET /api/v1/payments
	ListPayments(c *gin.Context)

	// LastPayment returns the most recent payment, with an explicit marker
	// when no payment has ever been made
	// GET /api/v1/payments/last
	LastPayment(c *gin.Context)

	// Navigation returns the sections visible to the caller's role
	// GET /api/v1/navigation
	Navigation(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	service    *lease.Service
	history    *history.Reconstructor
	startBlock uint64
}

// NewHandler creates a new REST API handler
func NewHandler(service *lease.Service, reconstructor *history.Reconstructor, startBlock uint64) Handler {
	return &handler{
		service:    service,
		history:    reconstructor,
		startBlock: startBlock,
	}
}

// createLocationRequest is the body for CreateLocation
type createLocationRequest struct {
	Name        string `json:"name" binding:"required"`
	MonthlyRent string `json:"monthly_rent" binding:"required"` // in wei
}

// assignTenantRequest is the body for AssignTenant
type assignTenantRequest struct {
	Tenant string `json:"tenant" binding:"required"`
}

// payRentRequest is the body for PayRent
type payRentRequest struct {
	Amount string `json:"amount" binding:"required"` // in wei
}

// transitionResponse reports a submitted lease transition. Confirmation is
// null while the transaction is still pending.
type transitionResponse struct {
	TxRef        string               `json:"tx_ref"`
	Status       string               `json:"status"` // "confirmed" or "pending"
	Confirmation *ledger.Confirmation `json:"confirmation,omitempty"`
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListLocations returns every location with its computed days-left value
func (h *handler) ListLocations(c *gin.Context) {
	views, err := h.service.Overview(c.Request.Context())
	if err != nil {
		respondLedgerUnavailable(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": views})
}

// GetLocation returns a single location with its computed days-left value
func (h *handler) GetLocation(c *gin.Context) {
	id, ok := parseLocationID(c)
	if !ok {
		return
	}

	view, err := h.service.Location(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrLocationNotFound) {
			respondNotFound(c, "Location not found")
			return
		}
		respondLedgerUnavailable(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// MyLease returns the active lease assigned to the authenticated tenant
func (h *handler) MyLease(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	if sess.Account == "" {
		respondBadRequest(c, "No account identity in session")
		return
	}

	view, err := h.service.TenantLease(c.Request.Context(), sess.Account)
	if err != nil {
		if errors.Is(err, domain.ErrNoLeaseForTenant) {
			respondNotFound(c, "No active lease for this account")
			return
		}
		respondLedgerUnavailable(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CreateLocation appends a new location
func (h *handler) CreateLocation(c *gin.Context) {
	var req createLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	rent, ok := new(big.Int).SetString(req.MonthlyRent, 10)
	if !ok {
		respondValidationError(c, "monthly_rent must be a decimal wei amount")
		return
	}

	ref, conf, err := h.service.Create(c.Request.Context(), req.Name, rent)
	h.respondTransition(c, ref, conf, err)
}

// AssignTenant sets the tenant of a location
func (h *handler) AssignTenant(c *gin.Context) {
	id, ok := parseLocationID(c)
	if !ok {
		return
	}

	var req assignTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	ref, conf, err := h.service.AssignTenant(c.Request.Context(), id, req.Tenant)
	h.respondTransition(c, ref, conf, err)
}

// TenantSign signs the lease as tenant
func (h *handler) TenantSign(c *gin.Context) {
	id, ok := parseLocationID(c)
	if !ok {
		return
	}

	ref, conf, err := h.service.TenantSign(c.Request.Context(), id)
	h.respondTransition(c, ref, conf, err)
}

// PayRent pays rent for a location on behalf of the authenticated tenant
func (h *handler) PayRent(c *gin.Context) {
	id, ok := parseLocationID(c)
	if !ok {
		return
	}

	var req payRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		respondValidationError(c, "amount must be a decimal wei amount")
		return
	}

	sess := middleware.SessionFromContext(c)
	ref, conf, err := h.service.PayRent(c.Request.Context(), sess.Account, id, amount)
	h.respondTransition(c, ref, conf, err)
}

// TerminateLocation deactivates a location
func (h *handler) TerminateLocation(c *gin.Context) {
	id, ok := parseLocationID(c)
	if !ok {
		return
	}

	ref, conf, err := h.service.Terminate(c.Request.Context(), id)
	h.respondTransition(c, ref, conf, err)
}

// LocationPayments returns the payment history of a single location
func (h *handler) LocationPayments(c *gin.Context) {
	id, ok := parseLocationID(c)
	if !ok {
		return
	}

	records, err := h.history.RebuildForLocation(c.Request.Context(), id, h.startBlock)
	if err != nil {
		respondLedgerUnavailable(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": records})
}

// ListPayments returns the full payment history
func (h *handler) ListPayments(c *gin.Context) {
	records, err := h.history.Rebuild(c.Request.Context(), h.startBlock)
	if err != nil {
		respondLedgerUnavailable(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": records})
}

// LastPayment returns the most recent payment. A ledger with no payments is
// a normal state reported as exists=false, not an error.
func (h *handler) LastPayment(c *gin.Context) {
	record, found, err := h.history.LastPayment(c.Request.Context(), h.startBlock)
	if err != nil {
		respondLedgerUnavailable(c, err)
		return
	}

	if !found {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": true, "payment": record})
}

// Navigation returns the sections visible to the caller's role
func (h *handler) Navigation(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"role":     sess.Role,
		"sections": session.Navigation(sess.Role),
	})
}

// respondTransition maps a transition outcome onto an HTTP response
func (h *handler) respondTransition(c *gin.Context, ref ledger.TxRef, conf *ledger.Confirmation, err error) {
	if err == nil {
		c.JSON(http.StatusOK, transitionResponse{
			TxRef:        string(ref),
			Status:       "confirmed",
			Confirmation: conf,
		})
		return
	}

	var precondition *domain.PreconditionError
	if errors.As(err, &precondition) {
		respondPreconditionFailed(c, precondition.Reason)
		return
	}

	if errors.Is(err, domain.ErrConfirmationTimeout) {
		// The transaction was submitted; the caller can poll with the ref
		c.JSON(http.StatusAccepted, transitionResponse{
			TxRef:  string(ref),
			Status: "pending",
		})
		return
	}

	var submission *domain.SubmissionError
	if errors.As(err, &submission) {
		respondWithError(c, http.StatusBadGateway, errCodeSubmissionFailed, "Ledger rejected the submission", submission.Error())
		return
	}

	if errors.Is(err, domain.ErrGatewayUnavailable) {
		respondLedgerUnavailable(c, err)
		return
	}

	respondInternalError(c, err, "Operation failed", zap.String("tx_ref", string(ref)))
}

// parseLocationID parses the :id path parameter
func parseLocationID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid location id")
		return 0, false
	}
	return id, true
}
