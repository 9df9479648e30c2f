package relay

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ledgerABIJSON is the contract-equivalent interface the frontend encodes
// against. Function names and argument order are the external contract and
// must not change.
const ledgerABIJSON = `[
	{"name":"register","type":"function","inputs":[{"name":"owner","type":"address"}],"outputs":[]},
	{"name":"authorizeInstitution","type":"function","inputs":[{"name":"institution","type":"address"},{"name":"displayName","type":"string"}],"outputs":[]},
	{"name":"revokeInstitutionAuthorization","type":"function","inputs":[{"name":"institution","type":"address"}],"outputs":[]},
	{"name":"isRegistered","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"isAuthorizedInstitution","type":"function","stateMutability":"view","inputs":[{"name":"institution","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"grantAccess","type":"function","inputs":[{"name":"accessor","type":"address"},{"name":"accessClass","type":"uint8"},{"name":"expiresAt","type":"uint256"}],"outputs":[]},
	{"name":"revokeAccess","type":"function","inputs":[{"name":"accessor","type":"address"}],"outputs":[]},
	{"name":"requestAccess","type":"function","inputs":[{"name":"patient","type":"address"},{"name":"displayName","type":"string"},{"name":"durationSeconds","type":"uint256"},{"name":"message","type":"string"}],"outputs":[]},
	{"name":"approveAccessRequest","type":"function","inputs":[{"name":"requestIndex","type":"uint256"}],"outputs":[]},
	{"name":"rejectAccessRequest","type":"function","inputs":[{"name":"requestIndex","type":"uint256"}],"outputs":[]},
	{"name":"checkAccess","type":"function","stateMutability":"view","inputs":[{"name":"patient","type":"address"},{"name":"accessor","type":"address"}],"outputs":[{"name":"hasAccess","type":"bool"}]},
	{"name":"addRecord","type":"function","inputs":[{"name":"patient","type":"address"},{"name":"contentAddress","type":"string"},{"name":"integrityHash","type":"string"},{"name":"classificationCode","type":"string"},{"name":"recordKind","type":"string"}],"outputs":[]},
	{"name":"getRecords","type":"function","stateMutability":"view","inputs":[{"name":"patient","type":"address"}],"outputs":[]},
	{"name":"markVerified","type":"function","inputs":[{"name":"patient","type":"address"},{"name":"recordIndex","type":"uint256"}],"outputs":[]}
]`

var (
	ledgerABI     abi.ABI
	ledgerABIOnce sync.Once
	ledgerABIErr  error
)

// LedgerABI returns the parsed contract-equivalent ABI
func LedgerABI() (abi.ABI, error) {
	ledgerABIOnce.Do(func() {
		ledgerABI, ledgerABIErr = abi.JSON(strings.NewReader(ledgerABIJSON))
	})
	return ledgerABI, ledgerABIErr
}

// EncodeCall packs functionName with JSON-decoded args into calldata. Args are
// coerced by the method's input types: addresses from hex strings, integers
// from decimal strings or JSON numbers, uint8 enums from numbers.
func EncodeCall(functionName string, args []any) ([]byte, error) {
	parsed, err := LedgerABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	method, ok := parsed.Methods[functionName]
	if !ok {
		return nil, fmt.Errorf("unknown function: %s", functionName)
	}
	if len(args) != len(method.Inputs) {
		return nil, fmt.Errorf("function %s expects %d args, got %d", functionName, len(method.Inputs), len(args))
	}

	coerced := make([]any, len(args))
	for i, input := range method.Inputs {
		value, err := coerceArg(input.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("arg %d (%s): %w", i, input.Name, err)
		}
		coerced[i] = value
	}

	data, err := parsed.Pack(functionName, coerced...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack call: %w", err)
	}
	return data, nil
}

// DecodeCall returns the method and unpacked args for a calldata blob
func DecodeCall(data []byte) (*abi.Method, []any, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("calldata too short")
	}

	parsed, err := LedgerABI()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, nil, fmt.Errorf("unknown method selector: %w", err)
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to unpack args: %w", err)
	}
	return method, args, nil
}

// coerceArg converts a JSON-decoded value into the Go type the ABI packer
// expects for the given solidity type
func coerceArg(t abi.Type, raw any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		s, ok := raw.(string)
		if !ok || !common.IsHexAddress(s) {
			return nil, fmt.Errorf("expected hex address, got %v", raw)
		}
		return common.HexToAddress(s), nil

	case abi.StringTy:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %v", raw)
		}
		return s, nil

	case abi.UintTy:
		value, err := coerceBig(raw)
		if err != nil {
			return nil, err
		}
		if t.Size == 8 {
			if !value.IsUint64() || value.Uint64() > 255 {
				return nil, fmt.Errorf("value out of uint8 range: %v", raw)
			}
			return uint8(value.Uint64()), nil
		}
		return value, nil

	case abi.BoolTy:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %v", raw)
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unsupported arg type: %s", t.String())
	}
}

// coerceBig accepts decimal strings (the safe form for uint256) and JSON numbers
func coerceBig(raw any) (*big.Int, error) {
	switch v := raw.(type) {
	case string:
		value, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, fmt.Errorf("invalid decimal integer: %q", v)
		}
		return value, nil
	case float64:
		if v < 0 || v != float64(uint64(v)) {
			return nil, fmt.Errorf("invalid integer: %v", v)
		}
		return new(big.Int).SetUint64(uint64(v)), nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", raw)
	}
}
