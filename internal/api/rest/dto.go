package rest

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/relay"
)

// EnvelopeDTO is the wire form of a signed envelope. Numeric fields travel as
// decimal strings because JavaScript callers lose precision past 2^53; data
// travels as 0x-prefixed hex.
type EnvelopeDTO struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
	Gas      string `json:"gas"`
	Nonce    string `json:"nonce"`
	Deadline string `json:"deadline"`
	Data     string `json:"data"`
}

// RelayRequest is the body of POST /relay
type RelayRequest struct {
	Envelope  EnvelopeDTO `json:"envelope"`
	Signature string      `json:"signature"`
}

// RelaySuccessResponse is returned when the relayed call executed cleanly
type RelaySuccessResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	ResourceUsed  string `json:"resourceUsed"`
	Result        any    `json:"result,omitempty"`
}

// RelayFailureResponse carries a stable machine-readable code plus the
// failure reason verbatim
type RelayFailureResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status         string `json:"status"`
	RelayerBalance string `json:"relayerBalance"`
	PoolBalance    string `json:"poolBalance"`
	ChainID        uint64 `json:"chainId"`
}

// NonceResponse is the body of GET /nonce/:address
type NonceResponse struct {
	Nonce string `json:"nonce"`
}

// DomainField describes one typed field of the signing envelope
type DomainField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DomainResponse is the body of GET /domain: everything a caller needs to
// construct a conforming signature off-line
type DomainResponse struct {
	Name              string        `json:"name"`
	Version           string        `json:"version"`
	ChainID           uint64        `json:"chainId"`
	VerifyingContract string        `json:"verifyingContract"`
	PrimaryType       string        `json:"primaryType"`
	Types             []DomainField `json:"types"`
}

// EncodeRequest is the body of POST /encode
type EncodeRequest struct {
	Target       string `json:"target"`
	FunctionName string `json:"functionName"`
	Args         []any  `json:"args"`
}

// EncodeResponse is the body of POST /encode
type EncodeResponse struct {
	Data string `json:"data"`
}

// ToEnvelope validates the wire form and converts it to the typed envelope
func (d *EnvelopeDTO) ToEnvelope() (*relay.Envelope, error) {
	if !domain.IsValidAddress(d.From) {
		return nil, errors.New("invalid from address")
	}
	if !domain.IsValidAddress(d.To) {
		return nil, errors.New("invalid to address")
	}

	value := new(big.Int)
	if d.Value != "" {
		if _, ok := value.SetString(d.Value, 10); !ok {
			return nil, fmt.Errorf("invalid value: %s", d.Value)
		}
	}

	gas, err := parseUintField("gas", d.Gas)
	if err != nil {
		return nil, err
	}
	nonce, err := parseUintField("nonce", d.Nonce)
	if err != nil {
		return nil, err
	}
	deadline, err := parseUintField("deadline", d.Deadline)
	if err != nil {
		return nil, err
	}

	data, err := hexutil.Decode(d.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}

	return &relay.Envelope{
		From:     common.HexToAddress(d.From),
		To:       common.HexToAddress(d.To),
		Value:    value,
		Gas:      gas,
		Nonce:    nonce,
		Deadline: deadline,
		Data:     data,
	}, nil
}

func parseUintField(name, raw string) (uint64, error) {
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return v, nil
}
