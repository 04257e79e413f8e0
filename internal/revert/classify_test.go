package revert

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"fyDesk/internal/contracts"
)

// rpcError mimics go-ethereum's rpc.DataError shape.
type rpcError struct {
	msg  string
	data interface{}
}

func (e *rpcError) Error() string          { return e.msg }
func (e *rpcError) ErrorData() interface{} { return e.data }

func payload(t *testing.T, signature string, operands ...interface{}) []byte {
	t.Helper()
	spec, ok := contracts.ErrorSpecs()[contracts.Selector(signature)]
	if !ok {
		t.Fatalf("no spec for %s", signature)
	}
	packed, err := spec.Arguments.Pack(operands...)
	if err != nil {
		t.Fatalf("pack operands: %v", err)
	}
	sel := contracts.Selector(signature)
	return append(sel[:], packed...)
}

func TestClassifyNil(t *testing.T) {
	if hint := Classify(nil); hint != nil {
		t.Fatalf("got %+v, want nil", hint)
	}
}

func TestClassifyNoSelector(t *testing.T) {
	if hint := Classify(errors.New("connection refused")); hint != nil {
		t.Fatalf("got %+v, want nil", hint)
	}
}

func TestClassifyDataFieldBytes(t *testing.T) {
	raw := payload(t, contracts.ErrSigSlippageDuringMint,
		big.NewInt(1_050_000), big.NewInt(990_000), big.NewInt(1_010_000))
	err := &rpcError{msg: "execution reverted", data: raw}

	hint := Classify(err)
	if hint == nil {
		t.Fatal("expected a hint")
	}
	if hint.Kind != HintRatioOutOfBounds {
		t.Fatalf("kind = %d, want ratio out of bounds", hint.Kind)
	}
	if hint.NewRatio.Cmp(big.NewInt(1_050_000)) != 0 {
		t.Fatalf("newRatio = %s", hint.NewRatio)
	}
	if hint.MinRatio.Cmp(big.NewInt(990_000)) != 0 || hint.MaxRatio.Cmp(big.NewInt(1_010_000)) != 0 {
		t.Fatalf("bounds = [%s, %s]", hint.MinRatio, hint.MaxRatio)
	}
}

func TestClassifyDataFieldHexString(t *testing.T) {
	raw := payload(t, contracts.ErrSigNotEnoughBaseIn, big.NewInt(1000), big.NewInt(750))
	err := &rpcError{msg: "execution reverted", data: "0x" + hex.EncodeToString(raw)}

	hint := Classify(err)
	if hint == nil || hint.Kind != HintInsufficientBaseIn {
		t.Fatalf("hint = %+v, want insufficient base in", hint)
	}
	if hint.BaseNeeded.Cmp(big.NewInt(1000)) != 0 || hint.BaseAvailable.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("operands = %s/%s", hint.BaseNeeded, hint.BaseAvailable)
	}
}

func TestClassifyNestedCause(t *testing.T) {
	raw := payload(t, contracts.ErrSigNegativeRate, big.NewInt(0), big.NewInt(1))
	inner := &rpcError{msg: "execution reverted", data: raw}
	wrapped := fmt.Errorf("simulate mint: %w", inner)

	hint := Classify(wrapped)
	if hint == nil || hint.Kind != HintNegativeRate {
		t.Fatalf("hint = %+v, want negative rate", hint)
	}
}

func TestClassifyFromMessageText(t *testing.T) {
	raw := payload(t, contracts.ErrSigUndercollateralized,
		[12]byte{0xaa, 0xbb}, big.NewInt(5000), big.NewInt(3000))
	err := fmt.Errorf("rpc failed: execution reverted: 0x%s", hex.EncodeToString(raw))

	hint := Classify(err)
	if hint == nil || hint.Kind != HintUndercollateralized {
		t.Fatalf("hint = %+v, want undercollateralized", hint)
	}
	if hint.VaultID[0] != 0xaa || hint.VaultID[1] != 0xbb {
		t.Fatalf("vaultID = %x", hint.VaultID)
	}
	if hint.Art.Cmp(big.NewInt(5000)) != 0 || hint.Ink.Cmp(big.NewInt(3000)) != 0 {
		t.Fatalf("operands = %s/%s", hint.Art, hint.Ink)
	}
}

func TestClassifyUnknownSelector(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef, 0x00}
	err := &rpcError{msg: "execution reverted", data: raw}

	hint := Classify(err)
	if hint == nil || hint.Kind != HintUnknownSelector {
		t.Fatalf("hint = %+v, want unknown selector", hint)
	}
	if hint.Selector != "0xdeadbeef" {
		t.Fatalf("selector = %s", hint.Selector)
	}
	if !strings.Contains(hint.Message(), "0xdeadbeef") {
		t.Fatalf("message %q must preserve the selector", hint.Message())
	}
}

func TestClassifyDataFieldWinsOverMessage(t *testing.T) {
	// The structured data field has a known selector; the message text
	// carries a different one. The data field is used.
	raw := payload(t, contracts.ErrSigNotEnoughBaseIn, big.NewInt(10), big.NewInt(5))
	err := &rpcError{msg: "execution reverted: 0xdeadbeef00", data: raw}

	hint := Classify(err)
	if hint == nil || hint.Kind != HintInsufficientBaseIn {
		t.Fatalf("hint = %+v, want insufficient base in", hint)
	}
}

func TestHintMessages(t *testing.T) {
	raw := payload(t, contracts.ErrSigNotEnoughBaseIn, big.NewInt(1000), big.NewInt(750))
	hint := Classify(&rpcError{msg: "execution reverted", data: raw})
	if hint == nil {
		t.Fatal("expected a hint")
	}
	msg := hint.Message()
	if !strings.Contains(msg, "1000") || !strings.Contains(msg, "750") {
		t.Fatalf("message %q must carry both operands", msg)
	}
	if !strings.Contains(msg, "increase the base amount") {
		t.Fatalf("message %q must suggest remediation", msg)
	}
}
