package rest

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	apierrors "github.com/anantaryaaa/health-record-dapps-sub000/internal/api/shared/errors"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/ledger"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/ratelimit"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/relay"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// HealthCheck reports service status and sponsor balances
	// GET /health
	HealthCheck(c *gin.Context)

	// GetNonce returns the next expected nonce for an address
	// GET /nonce/:address
	GetNonce(c *gin.Context)

	// GetDomain returns the signing-domain parameters and the envelope field
	// layout, so a caller can construct a conforming signature off-line
	// GET /domain
	GetDomain(c *gin.Context)

	// Relay validates and executes one signed envelope
	// POST /relay
	Relay(c *gin.Context)

	// Encode builds the calldata for a ledger function without the caller
	// needing the full interface definition
	// POST /encode
	Encode(c *gin.Context)

	// GetIdentity retrieves the registration fact for an address
	// GET /api/v1/identities/:address
	GetIdentity(c *gin.Context)

	// GetInstitution retrieves the authorization fact for an address
	// GET /api/v1/institutions/:address
	GetInstitution(c *gin.Context)

	// AuthorizeInstitution whitelists an institution (requires authentication)
	// POST /api/v1/admin/institutions
	AuthorizeInstitution(c *gin.Context)

	// RevokeInstitution removes an institution's authorization (requires authentication)
	// DELETE /api/v1/admin/institutions/:address
	RevokeInstitution(c *gin.Context)

	// VerifyRecord flips a record reference to verified (requires authentication)
	// POST /api/v1/admin/records/verify
	VerifyRecord(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	debug bool
	// operatorAddress is the administrator identity the authenticated
	// operator routes act as
	operatorAddress string
	ledger          *ledger.Ledger
	relayer         *relay.Relayer
	// throttle is nil when submission throttling is not configured
	throttle ratelimit.Throttle
}

// NewHandler creates a new REST API handler
func NewHandler(debug bool, operatorAddress string, l *ledger.Ledger, r *relay.Relayer, t ratelimit.Throttle) Handler {
	return &handler{
		debug:           debug,
		operatorAddress: operatorAddress,
		ledger:          l,
		relayer:         r,
		throttle:        t,
	}
}

// HealthCheck reports service status and sponsor balances
func (h *handler) HealthCheck(c *gin.Context) {
	relayerBalance, poolBalance := h.relayer.Balances()
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		RelayerBalance: relayerBalance.String(),
		PoolBalance:    poolBalance.String(),
		ChainID:        h.relayer.Domain().ChainID,
	})
}

// GetNonce returns the next expected nonce for an address
func (h *handler) GetNonce(c *gin.Context) {
	address := c.Param("address")
	if !domain.IsValidAddress(address) {
		respondBadRequest(c, "Invalid address")
		return
	}

	nonce, err := h.relayer.Nonce(c.Request.Context(), common.HexToAddress(address))
	if err != nil {
		respondInternalError(c, err, "Failed to get nonce")
		return
	}

	c.JSON(http.StatusOK, NonceResponse{Nonce: strconv.FormatUint(nonce, 10)})
}

// GetDomain returns the signing-domain parameters and the envelope layout
func (h *handler) GetDomain(c *gin.Context) {
	d := h.relayer.Domain()

	fields := relay.ForwardRequestFields()
	types := make([]DomainField, 0, len(fields))
	for _, f := range fields {
		types = append(types, DomainField{Name: f.Name, Type: f.Type})
	}

	c.JSON(http.StatusOK, DomainResponse{
		Name:              d.Name,
		Version:           d.Version,
		ChainID:           d.ChainID,
		VerifyingContract: d.VerifyingContract,
		PrimaryType:       "ForwardRequest",
		Types:             types,
	})
}

// Relay validates and executes one signed envelope
func (h *handler) Relay(c *gin.Context) {
	var req RelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	env, err := req.Envelope.ToEnvelope()
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	signature, err := hexutil.Decode(req.Signature)
	if err != nil {
		respondValidationError(c, "invalid signature encoding")
		return
	}

	// Every relayed call spends sponsor funds, so signers are throttled
	// before any validation work happens
	if h.throttle != nil {
		if err := h.throttle.Acquire(c.Request.Context(), env.From.String()); err != nil {
			status, code := apierrors.Classify(err)
			if status == http.StatusInternalServerError {
				respondInternalError(c, err, "Failed to throttle envelope")
				return
			}
			c.JSON(status, RelayFailureResponse{
				Error:  string(code),
				Reason: err.Error(),
			})
			return
		}
	}

	receipt, err := h.relayer.Execute(c.Request.Context(), env, signature)
	if err != nil {
		status, code := apierrors.Classify(err)
		if status == http.StatusInternalServerError {
			respondInternalError(c, err, "Failed to relay envelope")
			return
		}
		c.JSON(status, RelayFailureResponse{
			Error:  string(code),
			Reason: err.Error(),
		})
		return
	}

	// A revert consumed the nonce; the target's failure travels back verbatim.
	if !receipt.Success {
		status, code := apierrors.Classify(receipt.RevertErr)
		c.JSON(status, RelayFailureResponse{
			Error:  string(code),
			Reason: receipt.RevertReason,
		})
		return
	}

	c.JSON(http.StatusOK, RelaySuccessResponse{
		Success:       true,
		TransactionID: receipt.TransactionID,
		ResourceUsed:  strconv.FormatUint(receipt.GasUsed, 10),
		Result:        receipt.Result,
	})
}

// Encode builds the calldata for a ledger function
func (h *handler) Encode(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	if req.FunctionName == "" {
		respondValidationError(c, "functionName is required")
		return
	}
	if req.Target != "" && !domain.IsValidAddress(req.Target) {
		respondValidationError(c, "invalid target address")
		return
	}

	data, err := relay.EncodeCall(req.FunctionName, req.Args)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, EncodeResponse{Data: hexutil.Encode(data)})
}

// GetIdentity retrieves the registration fact for an address
func (h *handler) GetIdentity(c *gin.Context) {
	address := c.Param("address")
	if !domain.IsValidAddress(address) {
		respondBadRequest(c, "Invalid address")
		return
	}

	identity, err := h.ledger.GetIdentity(c.Request.Context(), address)
	if err != nil {
		respondInternalError(c, err, "Failed to get identity")
		return
	}
	if identity == nil {
		respondNotFound(c, "Identity not found")
		return
	}

	c.JSON(http.StatusOK, identity)
}

// GetInstitution retrieves the authorization fact for an address
func (h *handler) GetInstitution(c *gin.Context) {
	address := c.Param("address")
	if !domain.IsValidAddress(address) {
		respondBadRequest(c, "Invalid address")
		return
	}

	institution, err := h.ledger.GetInstitution(c.Request.Context(), address)
	if err != nil {
		respondInternalError(c, err, "Failed to get institution")
		return
	}
	if institution == nil {
		respondNotFound(c, "Institution not found")
		return
	}

	c.JSON(http.StatusOK, institution)
}

// authorizeInstitutionRequest is the body of POST /api/v1/admin/institutions
type authorizeInstitutionRequest struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name"`
}

// AuthorizeInstitution whitelists an institution as the configured operator
func (h *handler) AuthorizeInstitution(c *gin.Context) {
	var req authorizeInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	if !domain.IsValidAddress(req.Address) {
		respondValidationError(c, "invalid institution address")
		return
	}

	err := h.ledger.AuthorizeInstitution(c.Request.Context(), h.operatorAddress, req.Address, req.DisplayName)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RevokeInstitution removes an institution's authorization
func (h *handler) RevokeInstitution(c *gin.Context) {
	address := c.Param("address")
	if !domain.IsValidAddress(address) {
		respondBadRequest(c, "Invalid address")
		return
	}

	err := h.ledger.RevokeInstitutionAuthorization(c.Request.Context(), h.operatorAddress, address)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// verifyRecordRequest is the body of POST /api/v1/admin/records/verify
type verifyRecordRequest struct {
	PatientAddress string `json:"patient_address"`
	RecordIndex    uint64 `json:"record_index"`
}

// VerifyRecord flips a record reference to verified as the configured operator
func (h *handler) VerifyRecord(c *gin.Context) {
	var req verifyRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	if !domain.IsValidAddress(req.PatientAddress) {
		respondValidationError(c, "invalid patient address")
		return
	}

	err := h.ledger.MarkVerified(c.Request.Context(), h.operatorAddress, req.PatientAddress, req.RecordIndex)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
