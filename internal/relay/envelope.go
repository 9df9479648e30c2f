package relay

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
)

// Envelope is the structured instruction a user signs off-line. It is a
// transient value: nothing of it persists except the consumed nonce.
type Envelope struct {
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	Value    *big.Int       `json:"value"`
	Gas      uint64         `json:"gas"`
	Nonce    uint64         `json:"nonce"`
	Deadline uint64         `json:"deadline"`
	Data     []byte         `json:"data"`
}

// forwardRequestType is the typed field layout of the signed envelope.
// Signing is domain-separated so a signature can never be replayed in another
// context.
var forwardRequestType = []apitypes.Type{
	{Name: "from", Type: "address"},
	{Name: "to", Type: "address"},
	{Name: "value", Type: "uint256"},
	{Name: "gas", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "deadline", Type: "uint256"},
	{Name: "data", Type: "bytes"},
}

// ForwardRequestFields returns the typed field layout of the envelope so a
// caller can reproduce the signing structure
func ForwardRequestFields() []apitypes.Type {
	fields := make([]apitypes.Type, len(forwardRequestType))
	copy(fields, forwardRequestType)
	return fields
}

// SigningDomain describes the EIP-712 domain the relay verifies against
type SigningDomain struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	ChainID           uint64 `json:"chainId"`
	VerifyingContract string `json:"verifyingContract"`
}

// TypedData builds the full EIP-712 structure for an envelope under a domain
func TypedData(d SigningDomain, env *Envelope) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"ForwardRequest": forwardRequestType,
		},
		PrimaryType: "ForwardRequest",
		Domain: apitypes.TypedDataDomain{
			Name:              d.Name,
			Version:           d.Version,
			ChainId:           math.NewHexOrDecimal256(int64(d.ChainID)),
			VerifyingContract: d.VerifyingContract,
		},
		Message: apitypes.TypedDataMessage{
			"from":     env.From.Hex(),
			"to":       env.To.Hex(),
			"value":    (*math.HexOrDecimal256)(valueOrZero(env.Value)),
			"gas":      (*math.HexOrDecimal256)(new(big.Int).SetUint64(env.Gas)),
			"nonce":    (*math.HexOrDecimal256)(new(big.Int).SetUint64(env.Nonce)),
			"deadline": (*math.HexOrDecimal256)(new(big.Int).SetUint64(env.Deadline)),
			"data":     hexutil.Encode(env.Data),
		},
	}
}

// EnvelopeHash computes the EIP-712 digest a conforming signer produces
func EnvelopeHash(d SigningDomain, env *Envelope) (common.Hash, error) {
	hash, _, err := apitypes.TypedDataAndHash(TypedData(d, env))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return common.BytesToHash(hash), nil
}

// RecoverSigner verifies a 65-byte signature over the envelope and returns
// the recovered address. Both the legacy 27/28 and the raw 0/1 recovery id
// forms are accepted.
func RecoverSigner(d SigningDomain, env *Envelope, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, domain.ErrInvalidSignature
	}

	hash, err := EnvelopeHash(d, env)
	if err != nil {
		return common.Address{}, err
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, domain.ErrInvalidSignature
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
