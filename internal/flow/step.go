package flow

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// SignatureTimeout bounds how long a flow waits for the signer to
// produce a signature. A timeout leaves the flow retryable: the step was
// never submitted and its order number was never consumed. A variable so
// tests can shorten it.
var SignatureTimeout = 120 * time.Second

// StepState tracks one logical step through its lifecycle.
type StepState int

const (
	StepIdle StepState = iota
	StepAwaitingSignature
	StepPendingConfirmation
	StepDone
	StepFailed
)

func (s StepState) String() string {
	switch s {
	case StepAwaitingSignature:
		return "awaiting-signature"
	case StepPendingConfirmation:
		return "pending-confirmation"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	default:
		return "idle"
	}
}

// TxRequest describes one transaction to sign and submit. A nil To is a
// contract deployment with Data as init code.
type TxRequest struct {
	To       *common.Address
	Data     []byte
	Value    *big.Int
	GasLimit uint64
}

// Submitter signs and submits one transaction under an explicit order
// number, returning its opaque identifier.
type Submitter interface {
	SignAndSend(ctx context.Context, req TxRequest, nonce uint64) (common.Hash, error)
}

// Confirmer blocks until a submitted transaction is mined.
type Confirmer interface {
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Step records the progress of one transaction within a flow.
type Step struct {
	Label  string
	State  StepState
	Nonce  uint64
	TxHash common.Hash
	Err    error
}

// Flow executes a strictly ordered sequence of transaction steps. Steps
// never run concurrently: later steps read state mutated by earlier ones.
type Flow struct {
	Name    string
	seq     *Sequencer
	steps   []*Step
	submit  Submitter
	confirm Confirmer
	journal *Journal
	logger  *zap.Logger
}

// New builds a flow starting at the wallet's current pending order number.
func New(name string, startNonce uint64, submit Submitter, confirm Confirmer, journal *Journal, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		Name:    name,
		seq:     NewSequencer(startNonce),
		submit:  submit,
		confirm: confirm,
		journal: journal,
		logger:  logger,
	}
}

// Sequencer exposes the flow's order-number counter.
func (f *Flow) Sequencer() *Sequencer {
	return f.seq
}

// Steps returns the steps executed so far, in order.
func (f *Flow) Steps() []*Step {
	return f.steps
}

// Run executes one step end to end: request a signature under the
// timeout, submit under the next order number, then wait for
// confirmation. The order number is consumed only once the transaction
// has been handed to the network.
func (f *Flow) Run(ctx context.Context, label string, req TxRequest) (*types.Receipt, *Error) {
	step := &Step{Label: label, State: StepAwaitingSignature, Nonce: f.seq.Peek()}
	f.steps = append(f.steps, step)

	signCtx, cancel := context.WithTimeout(ctx, SignatureTimeout)
	txHash, err := f.submit.SignAndSend(signCtx, req, step.Nonce)
	cancel()
	if err != nil {
		if errors.Is(signCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			step.State = StepIdle
			step.Err = err
			return nil, TimeoutError(label)
		}
		step.State = StepFailed
		step.Err = err
		return nil, UnknownError(label, err)
	}

	f.seq.Advance()
	step.TxHash = txHash
	step.State = StepPendingConfirmation
	f.logger.Info("transaction submitted",
		zap.String("flow", f.Name),
		zap.String("step", label),
		zap.Uint64("nonce", step.Nonce),
		zap.String("tx", txHash.Hex()),
	)
	f.record(step, "submitted")

	// Submission is the point of no return: from here the flow only
	// observes confirmation or revert.
	receipt, err := f.confirm.WaitMined(ctx, txHash)
	if err != nil {
		step.State = StepFailed
		step.Err = err
		f.record(step, "confirmation-lost")
		ferr := UnknownError(label, err)
		ferr.TxHash = txHash
		return nil, ferr
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		step.State = StepFailed
		f.record(step, "reverted")
		return receipt, SubmitRevertedError(label, txHash)
	}

	step.State = StepDone
	f.record(step, "confirmed")
	return receipt, nil
}

func (f *Flow) record(step *Step, status string) {
	if f.journal == nil {
		return
	}
	if err := f.journal.Append(Record{
		Flow:   f.Name,
		Step:   step.Label,
		Nonce:  step.Nonce,
		TxHash: step.TxHash.Hex(),
		Status: status,
	}); err != nil {
		f.logger.Warn("journal append failed", zap.Error(err))
	}
}
