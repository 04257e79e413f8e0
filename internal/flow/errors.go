package flow

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"fyDesk/internal/revert"
)

// ErrorKind partitions every way a flow can fail. All orchestrator
// failures are reported as exactly one of these, so call sites switch on
// the kind instead of sniffing message strings.
type ErrorKind int

const (
	// KindLocalValidation failed before any chain interaction: missing
	// wallet, bad amount, insufficient balance, stale pool data.
	KindLocalValidation ErrorKind = iota
	// KindPoolDirty means the pool has an unsettled pending delta and
	// the operation was blocked by the guard.
	KindPoolDirty
	// KindSimulateReverted means the dry run failed before any
	// signature was requested.
	KindSimulateReverted
	// KindSubmitReverted means a submitted transaction reverted
	// on-chain; the transaction hash is preserved for inspection.
	KindSubmitReverted
	// KindSignTimeout means the signer did not produce a signature
	// within the timeout. Recoverable: no order number was consumed.
	KindSignTimeout
	// KindUnknown is any failure the classifier could not place,
	// annotated with the extracted selector when one exists.
	KindUnknown
)

// Error is the single failure type flows return.
type Error struct {
	Kind   ErrorKind
	Step   string
	Hint   *revert.Hint
	TxHash common.Hash
	cause  error
	msg    string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindLocalValidation:
		return fmt.Sprintf("validation: %s", e.msg)
	case KindPoolDirty:
		return fmt.Sprintf("pool not mintable: %v", e.cause)
	case KindSimulateReverted:
		if e.Hint != nil {
			return fmt.Sprintf("%s simulation reverted: %s", e.Step, e.Hint.Message())
		}
		return fmt.Sprintf("%s simulation reverted: %v", e.Step, e.cause)
	case KindSubmitReverted:
		return fmt.Sprintf("%s reverted on-chain (tx %s)", e.Step, e.TxHash.Hex())
	case KindSignTimeout:
		return fmt.Sprintf("%s signature not produced within %s", e.Step, SignatureTimeout)
	default:
		if e.Hint != nil {
			return fmt.Sprintf("%s failed: %v (%s)", e.Step, e.cause, e.Hint.Message())
		}
		return fmt.Sprintf("%s failed: %v", e.Step, e.cause)
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Recoverable reports whether the user can retry the flow without an
// explicit recovery action.
func (e *Error) Recoverable() bool {
	return e.Kind == KindLocalValidation || e.Kind == KindSignTimeout
}

// ValidationError reports a local pre-flight failure.
func ValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindLocalValidation, msg: fmt.Sprintf(format, args...)}
}

// PoolDirtyError wraps a guard rejection.
func PoolDirtyError(cause error) *Error {
	return &Error{Kind: KindPoolDirty, cause: cause}
}

// SimulateError classifies a dry-run failure into a hinted flow error.
func SimulateError(step string, cause error) *Error {
	return &Error{
		Kind:  KindSimulateReverted,
		Step:  step,
		Hint:  revert.Classify(cause),
		cause: cause,
	}
}

// SubmitRevertedError reports an on-chain revert after submission.
func SubmitRevertedError(step string, txHash common.Hash) *Error {
	return &Error{Kind: KindSubmitReverted, Step: step, TxHash: txHash}
}

// TimeoutError reports a signature that never arrived.
func TimeoutError(step string) *Error {
	return &Error{Kind: KindSignTimeout, Step: step}
}

// UnknownError wraps anything else, annotating a selector when the
// classifier finds one, so the signal is never silently dropped.
func UnknownError(step string, cause error) *Error {
	return &Error{
		Kind:  KindUnknown,
		Step:  step,
		Hint:  revert.Classify(cause),
		cause: cause,
	}
}
