package relay

import (
	"context"
	"math/big"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/adapter"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/logger"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/store"
)

// Config holds the relayer configuration
type Config struct {
	Domain        SigningDomain
	MaxGasPerCall uint64
	// GasPriceWei prices one unit of gas when debiting the sponsor pool
	GasPriceWei *big.Int
	// RelayerBalanceWei is the operator hot-wallet balance reported on /health
	RelayerBalanceWei *big.Int
	// PoolBalanceWei is the sponsor pool that subsidizes all executions
	PoolBalanceWei *big.Int
	Workers        int
	QueueSize      int
}

// outcome pairs a receipt with the validation error that prevented one
type outcome struct {
	receipt *Receipt
	err     error
}

// Receipt is the outcome of one relayed envelope
type Receipt struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	GasUsed       uint64 `json:"gas_used"`
	Result        any    `json:"result,omitempty"`
	// RevertReason carries the target's failure verbatim when Success is false
	RevertReason string `json:"revert_reason,omitempty"`
	// RevertErr is the typed failure behind RevertReason, kept for classification
	RevertErr error `json:"-"`
}

// Relayer validates signed envelopes and executes them against the ledger,
// paying the execution cost from the sponsor pool. Envelopes from different
// signers run in parallel on a bounded worker pool; envelopes from the same
// signer are serialized so a nonce is never admitted on a stale read.
type Relayer struct {
	config     Config
	store      store.Store
	dispatcher *Dispatcher
	clock      adapter.Clock
	pool       pond.ResultPool[*outcome]

	// signerMu serializes execution per signer
	signerMuGuard sync.Mutex
	signerMu      map[common.Address]*sync.Mutex

	// fundsMu guards the pool balance; admission reserves the worst-case
	// cost under it and execution settles the difference afterwards
	fundsMu        sync.Mutex
	relayerBalance *big.Int
	poolBalance    *big.Int
}

// NewRelayer creates a new relayer service
func NewRelayer(cfg Config, st store.Store, dispatcher *Dispatcher, clock adapter.Clock) *Relayer {
	workers := cfg.Workers
	if workers == 0 {
		workers = 16
	}
	queueSize := cfg.QueueSize
	if queueSize == 0 {
		queueSize = 256
	}

	return &Relayer{
		config:         cfg,
		store:          st,
		dispatcher:     dispatcher,
		clock:          clock,
		pool:           pond.NewResultPool[*outcome](workers, pond.WithQueueSize(queueSize)),
		signerMu:       make(map[common.Address]*sync.Mutex),
		relayerBalance: new(big.Int).Set(valueOrZero(cfg.RelayerBalanceWei)),
		poolBalance:    new(big.Int).Set(valueOrZero(cfg.PoolBalanceWei)),
	}
}

// Domain returns the signing domain callers must construct signatures under
func (r *Relayer) Domain() SigningDomain {
	return r.config.Domain
}

// Nonce returns the next expected nonce for a signer
func (r *Relayer) Nonce(ctx context.Context, signer common.Address) (uint64, error) {
	return r.store.GetNonce(ctx, signer.Hex())
}

// Balances reports the relayer and sponsor pool balances
func (r *Relayer) Balances() (relayer *big.Int, pool *big.Int) {
	r.fundsMu.Lock()
	defer r.fundsMu.Unlock()
	return new(big.Int).Set(r.relayerBalance), new(big.Int).Set(r.poolBalance)
}

// Execute validates and runs one signed envelope. Validation short-circuits
// in a fixed order: deadline, gas budget, signature and nonce, funds. On a
// target revert the nonce is still consumed and the failure comes back in the
// receipt verbatim; the relayer never retries on the caller's behalf.
func (r *Relayer) Execute(ctx context.Context, env *Envelope, signature []byte) (*Receipt, error) {
	task := r.pool.Submit(func() *outcome {
		receipt, err := r.execute(ctx, env, signature)
		return &outcome{receipt: receipt, err: err}
	})

	result, err := task.Wait()
	if err != nil {
		return nil, err
	}
	if result.err != nil {
		return nil, result.err
	}
	return result.receipt, nil
}

func (r *Relayer) execute(ctx context.Context, env *Envelope, signature []byte) (*Receipt, error) {
	// (a) deadline
	if env.Deadline <= uint64(r.clock.Now().Unix()) {
		return nil, domain.ErrDeadlineExpired
	}

	// (b) gas budget
	if env.Gas > r.config.MaxGasPerCall {
		return nil, domain.ErrGasLimitExceeded
	}

	// (c) signature over the typed envelope recovers to the claimed signer
	recovered, err := RecoverSigner(r.config.Domain, env, signature)
	if err != nil {
		return nil, err
	}
	if recovered != env.From {
		return nil, domain.ErrInvalidSignature
	}

	// Same-signer submissions are serialized from here on: the nonce check,
	// the funding check and the execution form one critical section.
	mu := r.lockFor(env.From)
	mu.Lock()
	defer mu.Unlock()

	currentNonce, err := r.store.GetNonce(ctx, env.From.Hex())
	if err != nil {
		return nil, err
	}
	if currentNonce != env.Nonce {
		return nil, domain.ErrNonceMismatch
	}

	// (d) reserve the worst-case cost from the sponsor pool. Check and debit
	// happen under one lock, so concurrent admissions can never jointly pass
	// against the same stale balance and overdraw the pool.
	reserved := new(big.Int).Mul(r.config.GasPriceWei, new(big.Int).SetUint64(GasForCall(env.Data)))
	r.fundsMu.Lock()
	if r.poolBalance.Cmp(reserved) < 0 {
		r.fundsMu.Unlock()
		return nil, domain.ErrInsufficientRelayerFunds
	}
	r.poolBalance.Sub(r.poolBalance, reserved)
	r.fundsMu.Unlock()

	// Execute as the proven signer. The nonce is consumed exactly once below
	// whether or not the target reverted.
	result, gasUsed, execErr := r.dispatcher.Dispatch(ctx, env.From, env.Data)

	// Settle the reservation: the pool keeps the actual cost, the unused
	// remainder goes back before any error return below.
	cost := new(big.Int).Mul(r.config.GasPriceWei, new(big.Int).SetUint64(gasUsed))
	if refund := new(big.Int).Sub(reserved, cost); refund.Sign() > 0 {
		r.fundsMu.Lock()
		r.poolBalance.Add(r.poolBalance, refund)
		r.fundsMu.Unlock()
	}

	if err := r.store.ConsumeNonce(ctx, env.From.Hex(), env.Nonce); err != nil {
		return nil, err
	}

	receipt := &Receipt{
		TransactionID: uuid.NewString(),
		GasUsed:       gasUsed,
	}

	if execErr != nil {
		receipt.RevertReason = execErr.Error()
		receipt.RevertErr = execErr
		logger.WarnCtx(ctx, "Relayed call reverted",
			zap.String("from", env.From.Hex()),
			zap.Uint64("nonce", env.Nonce),
			zap.String("reason", execErr.Error()),
		)
		return receipt, nil
	}

	receipt.Success = true
	receipt.Result = result

	logger.InfoCtx(ctx, "Relayed call executed",
		zap.String("from", env.From.Hex()),
		zap.String("tx_id", receipt.TransactionID),
		zap.Uint64("gas_used", gasUsed),
	)
	return receipt, nil
}

// lockFor returns the mutex serializing a signer's submissions
func (r *Relayer) lockFor(signer common.Address) *sync.Mutex {
	r.signerMuGuard.Lock()
	defer r.signerMuGuard.Unlock()

	mu, ok := r.signerMu[signer]
	if !ok {
		mu = &sync.Mutex{}
		r.signerMu[signer] = mu
	}
	return mu
}

// Stop drains the worker pool
func (r *Relayer) Stop() {
	r.pool.StopAndWait()
}
