package revert

import (
	"encoding/hex"
	"errors"
	"math/big"
	"regexp"
	"strings"

	"fyDesk/internal/contracts"
)

// dataError matches go-ethereum's rpc.DataError, which carries the raw
// revert payload alongside the human-readable message.
type dataError interface {
	Error() string
	ErrorData() interface{}
}

var selectorPattern = regexp.MustCompile(`0x[0-9a-fA-F]{8,}`)

// Classify extracts a revert selector from an arbitrary failure value and
// decodes it into a Hint. Returns nil when no selector can be found.
// Never panics and never returns an error: an undecodable payload with a
// selector still yields a HintUnknownSelector hint.
func Classify(err error) *Hint {
	if err == nil {
		return nil
	}
	payload := extractPayload(err)
	if len(payload) < 4 {
		return nil
	}

	var sel [4]byte
	copy(sel[:], payload[:4])
	operands := payload[4:]

	spec, ok := contracts.ErrorSpecs()[sel]
	if !ok {
		return &Hint{
			Kind:     HintUnknownSelector,
			Selector: "0x" + hex.EncodeToString(sel[:]),
		}
	}

	values, unpackErr := spec.Arguments.Unpack(operands)
	if unpackErr != nil {
		return &Hint{
			Kind:     HintUnknownSelector,
			Selector: "0x" + hex.EncodeToString(sel[:]),
		}
	}

	hint := &Hint{Selector: "0x" + hex.EncodeToString(sel[:])}
	switch spec.Signature {
	case contracts.ErrSigSlippageDuringMint:
		hint.Kind = HintRatioOutOfBounds
		hint.NewRatio = asBig(values, 0)
		hint.MinRatio = asBig(values, 1)
		hint.MaxRatio = asBig(values, 2)
	case contracts.ErrSigNotEnoughBaseIn:
		hint.Kind = HintInsufficientBaseIn
		hint.BaseNeeded = asBig(values, 0)
		hint.BaseAvailable = asBig(values, 1)
	case contracts.ErrSigNegativeRate:
		hint.Kind = HintNegativeRate
		hint.BaseOut = asBig(values, 0)
		hint.FYTokenIn = asBig(values, 1)
	case contracts.ErrSigUndercollateralized:
		hint.Kind = HintUndercollateralized
		if raw, ok := values[0].([12]byte); ok {
			hint.VaultID = raw
		}
		hint.Art = asBig(values, 1)
		hint.Ink = asBig(values, 2)
	default:
		hint.Kind = HintUnknownSelector
	}
	return hint
}

// extractPayload walks the failure value in fixed order: an explicit data
// field on the error, then data fields on nested causes, then a hex scan
// of the message text.
func extractPayload(err error) []byte {
	for cause := err; cause != nil; cause = errors.Unwrap(cause) {
		if de, ok := cause.(dataError); ok {
			if payload := decodeDataField(de.ErrorData()); payload != nil {
				return payload
			}
		}
	}
	match := selectorPattern.FindString(err.Error())
	if match == "" {
		return nil
	}
	payload, decodeErr := hex.DecodeString(strings.TrimPrefix(match, "0x"))
	if decodeErr != nil {
		return nil
	}
	return payload
}

func decodeDataField(data interface{}) []byte {
	switch typed := data.(type) {
	case []byte:
		if len(typed) >= 4 {
			return typed
		}
	case string:
		trimmed := strings.TrimPrefix(typed, "0x")
		if len(trimmed)%2 != 0 {
			return nil
		}
		payload, err := hex.DecodeString(trimmed)
		if err != nil || len(payload) < 4 {
			return nil
		}
		return payload
	}
	return nil
}

func asBig(values []interface{}, i int) *big.Int {
	if i >= len(values) {
		return nil
	}
	if v, ok := values[i].(*big.Int); ok {
		return v
	}
	return nil
}
