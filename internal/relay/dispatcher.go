package relay

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/ledger"
)

// intrinsicGas is charged for every relayed call before dispatch
const intrinsicGas = 21000

// methodGas approximates the execution cost of each ledger operation. The
// numbers track the relative weight of the storage writes each op performs.
var methodGas = map[string]uint64{
	"register":                       51000,
	"authorizeInstitution":           46000,
	"revokeInstitutionAuthorization": 24000,
	"isRegistered":                   5000,
	"isAuthorizedInstitution":        5000,
	"grantAccess":                    49000,
	"revokeAccess":                   26000,
	"requestAccess":                  68000,
	"approveAccessRequest":           74000,
	"rejectAccessRequest":            29000,
	"checkAccess":                    7000,
	"addRecord":                      92000,
	"getRecords":                     9000,
	"markVerified":                   27000,
}

// Dispatcher executes decoded calldata against the ledger as the proven
// signer. Impersonation is legitimate here: the signature already proved the
// caller authorized this exact call.
type Dispatcher struct {
	ledger *ledger.Ledger
}

// NewDispatcher creates a dispatcher over a ledger
func NewDispatcher(l *ledger.Ledger) *Dispatcher {
	return &Dispatcher{ledger: l}
}

// Dispatch decodes and runs a call, returning the operation result and the
// gas consumed. Ledger failures come back verbatim as the error; gas is
// consumed either way.
func (d *Dispatcher) Dispatch(ctx context.Context, from common.Address, data []byte) (any, uint64, error) {
	method, args, err := DecodeCall(data)
	if err != nil {
		return nil, intrinsicGas, err
	}

	gasUsed := intrinsicGas + methodGas[method.Name]
	caller := from.Hex()

	result, err := d.invoke(ctx, method.Name, caller, args)
	return result, gasUsed, err
}

// GasForCall returns the worst-case gas a calldata blob can consume, used for
// the pre-execution funding check
func GasForCall(data []byte) uint64 {
	method, _, err := DecodeCall(data)
	if err != nil {
		return intrinsicGas
	}
	return intrinsicGas + methodGas[method.Name]
}

func (d *Dispatcher) invoke(ctx context.Context, name, caller string, args []any) (any, error) {
	switch name {
	case "register":
		identity, err := d.ledger.Register(ctx, caller, addrArg(args, 0))
		if err != nil {
			return nil, err
		}
		return identity, nil

	case "authorizeInstitution":
		return nil, d.ledger.AuthorizeInstitution(ctx, caller, addrArg(args, 0), stringArg(args, 1))

	case "revokeInstitutionAuthorization":
		return nil, d.ledger.RevokeInstitutionAuthorization(ctx, caller, addrArg(args, 0))

	case "isRegistered":
		registered, err := d.ledger.IsRegistered(ctx, addrArg(args, 0))
		if err != nil {
			return nil, err
		}
		return registered, nil

	case "isAuthorizedInstitution":
		authorized, err := d.ledger.IsAuthorizedInstitution(ctx, addrArg(args, 0))
		if err != nil {
			return nil, err
		}
		return authorized, nil

	case "grantAccess":
		class, err := accessClassArg(args, 1)
		if err != nil {
			return nil, err
		}
		return nil, d.ledger.GrantAccess(ctx, caller, addrArg(args, 0), class, expiryArg(args, 2))

	case "revokeAccess":
		return nil, d.ledger.RevokeAccess(ctx, caller, addrArg(args, 0))

	case "requestAccess":
		request, err := d.ledger.RequestAccess(ctx, caller, addrArg(args, 0), stringArg(args, 1), uintArg(args, 2), stringArg(args, 3))
		if err != nil {
			return nil, err
		}
		return request, nil

	case "approveAccessRequest":
		return nil, d.ledger.ApproveAccessRequest(ctx, caller, uintArg(args, 0))

	case "rejectAccessRequest":
		return nil, d.ledger.RejectAccessRequest(ctx, caller, uintArg(args, 0))

	case "checkAccess":
		hasAccess, permission, err := d.ledger.CheckAccess(ctx, addrArg(args, 0), addrArg(args, 1))
		if err != nil {
			return nil, err
		}
		return map[string]any{"has_access": hasAccess, "permission": permission}, nil

	case "addRecord":
		record, err := d.ledger.AddRecord(ctx, caller, addrArg(args, 0), stringArg(args, 1), stringArg(args, 2), stringArg(args, 3), stringArg(args, 4))
		if err != nil {
			return nil, err
		}
		return record, nil

	case "getRecords":
		records, err := d.ledger.GetRecords(ctx, caller, addrArg(args, 0))
		if err != nil {
			return nil, err
		}
		return records, nil

	case "markVerified":
		return nil, d.ledger.MarkVerified(ctx, caller, addrArg(args, 0), uintArg(args, 1))

	default:
		return nil, fmt.Errorf("unknown function: %s", name)
	}
}

func addrArg(args []any, i int) string {
	if addr, ok := args[i].(common.Address); ok {
		return addr.Hex()
	}
	return ""
}

func stringArg(args []any, i int) string {
	s, _ := args[i].(string)
	return s
}

func uintArg(args []any, i int) uint64 {
	if v, ok := args[i].(*big.Int); ok {
		return v.Uint64()
	}
	return 0
}

// accessClassArg maps the on-wire uint8 enum to the closed domain type,
// rejecting anything else at the boundary
func accessClassArg(args []any, i int) (domain.AccessClass, error) {
	v, ok := args[i].(uint8)
	if !ok {
		return "", fmt.Errorf("invalid access class argument")
	}
	switch v {
	case 0:
		return domain.AccessClassReadOnly, nil
	case 1:
		return domain.AccessClassFullAccess, nil
	default:
		return "", fmt.Errorf("invalid access class: %d", v)
	}
}

// expiryArg maps the on-wire uint256 unix timestamp; zero means no expiry
func expiryArg(args []any, i int) *time.Time {
	v, ok := args[i].(*big.Int)
	if !ok || v.Sign() == 0 {
		return nil
	}
	t := time.Unix(int64(v.Uint64()), 0).UTC()
	return &t
}
