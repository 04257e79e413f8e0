package flow

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type fakeSubmitter struct {
	nonces []uint64
	err    error
	block  bool
}

func (s *fakeSubmitter) SignAndSend(ctx context.Context, _ TxRequest, nonce uint64) (common.Hash, error) {
	if s.block {
		<-ctx.Done()
		return common.Hash{}, ctx.Err()
	}
	if s.err != nil {
		return common.Hash{}, s.err
	}
	s.nonces = append(s.nonces, nonce)
	return common.BigToHash(big.NewInt(int64(nonce) + 1)), nil
}

type fakeConfirmer struct {
	status uint64
	err    error
}

func (c *fakeConfirmer) WaitMined(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &types.Receipt{Status: c.status, TxHash: txHash}, nil
}

func request() TxRequest {
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")
	return TxRequest{To: &to, Data: []byte{0x01}}
}

func TestSequencerHandsOutConsecutiveNumbers(t *testing.T) {
	seq := NewSequencer(7)
	if seq.Peek() != 7 {
		t.Fatalf("peek = %d, want 7", seq.Peek())
	}
	// Peeking never consumes.
	if seq.Peek() != 7 {
		t.Fatal("peek must be idempotent")
	}
	if got := seq.Next(); got != 7 {
		t.Fatalf("next = %d, want 7", got)
	}
	if got := seq.Next(); got != 8 {
		t.Fatalf("next = %d, want 8", got)
	}
	seq.Advance()
	if seq.Peek() != 10 {
		t.Fatalf("peek = %d, want 10", seq.Peek())
	}
	if seq.Issued() != 3 {
		t.Fatalf("issued = %d, want 3", seq.Issued())
	}
}

func TestFlowRunConsumesNoncesInOrder(t *testing.T) {
	submit := &fakeSubmitter{}
	confirm := &fakeConfirmer{status: types.ReceiptStatusSuccessful}
	fl := New("mint", 42, submit, confirm, nil, nil)

	for _, label := range []string{"approve-base", "deploy-helper", "mint"} {
		receipt, ferr := fl.Run(context.Background(), label, request())
		if ferr != nil {
			t.Fatalf("%s: %v", label, ferr)
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			t.Fatalf("%s: receipt status %d", label, receipt.Status)
		}
	}

	want := []uint64{42, 43, 44}
	if len(submit.nonces) != len(want) {
		t.Fatalf("submitted %d transactions, want %d", len(submit.nonces), len(want))
	}
	for i, nonce := range want {
		if submit.nonces[i] != nonce {
			t.Fatalf("submission %d used nonce %d, want %d", i, submit.nonces[i], nonce)
		}
	}
	for _, step := range fl.Steps() {
		if step.State != StepDone {
			t.Fatalf("step %s state = %s, want done", step.Label, step.State)
		}
	}
}

func TestFlowSignTimeoutDoesNotConsumeNonce(t *testing.T) {
	old := SignatureTimeout
	SignatureTimeout = 20 * time.Millisecond
	defer func() { SignatureTimeout = old }()

	submit := &fakeSubmitter{block: true}
	confirm := &fakeConfirmer{status: types.ReceiptStatusSuccessful}
	fl := New("mint", 42, submit, confirm, nil, nil)

	_, ferr := fl.Run(context.Background(), "approve-base", request())
	if ferr == nil {
		t.Fatal("expected a timeout error")
	}
	if ferr.Kind != KindSignTimeout {
		t.Fatalf("kind = %d, want sign timeout", ferr.Kind)
	}
	if !ferr.Recoverable() {
		t.Fatal("sign timeout must be recoverable")
	}
	if fl.Sequencer().Peek() != 42 {
		t.Fatalf("nonce advanced to %d after timeout", fl.Sequencer().Peek())
	}

	// The retry reuses the same order number.
	submit.block = false
	if _, ferr := fl.Run(context.Background(), "approve-base", request()); ferr != nil {
		t.Fatalf("retry failed: %v", ferr)
	}
	if submit.nonces[0] != 42 {
		t.Fatalf("retry used nonce %d, want 42", submit.nonces[0])
	}
}

func TestFlowCanceledParentIsNotATimeout(t *testing.T) {
	submit := &fakeSubmitter{block: true}
	fl := New("mint", 1, submit, &fakeConfirmer{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, ferr := fl.Run(ctx, "mint", request())
	if ferr == nil {
		t.Fatal("expected an error")
	}
	if ferr.Kind == KindSignTimeout {
		t.Fatal("parent cancellation must not be reported as a signature timeout")
	}
}

func TestFlowSubmitReverted(t *testing.T) {
	submit := &fakeSubmitter{}
	confirm := &fakeConfirmer{status: types.ReceiptStatusFailed}
	fl := New("mint", 5, submit, confirm, nil, nil)

	receipt, ferr := fl.Run(context.Background(), "mint", request())
	if ferr == nil {
		t.Fatal("expected a revert error")
	}
	if ferr.Kind != KindSubmitReverted {
		t.Fatalf("kind = %d, want submit reverted", ferr.Kind)
	}
	if ferr.Recoverable() {
		t.Fatal("on-chain revert must not be marked recoverable")
	}
	if receipt == nil {
		t.Fatal("revert must still return the receipt")
	}
	if (ferr.TxHash == common.Hash{}) {
		t.Fatal("revert error must carry the transaction hash")
	}
	// The nonce was consumed: the transaction did land on-chain.
	if fl.Sequencer().Peek() != 6 {
		t.Fatalf("nonce = %d, want 6", fl.Sequencer().Peek())
	}
}

func TestFlowConfirmationLostKeepsHash(t *testing.T) {
	submit := &fakeSubmitter{}
	confirm := &fakeConfirmer{err: fmt.Errorf("rpc gone")}
	fl := New("mint", 5, submit, confirm, nil, nil)

	_, ferr := fl.Run(context.Background(), "mint", request())
	if ferr == nil || ferr.Kind != KindUnknown {
		t.Fatalf("error = %v, want unknown kind", ferr)
	}
	if (ferr.TxHash == common.Hash{}) {
		t.Fatal("lost confirmation must preserve the transaction hash")
	}
}

func TestJournalRecordsEachStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows", "journal.jsonl")
	journal := NewJournal(path)

	submit := &fakeSubmitter{}
	confirm := &fakeConfirmer{status: types.ReceiptStatusSuccessful}
	fl := New("mint", 9, submit, confirm, journal, nil)
	if _, ferr := fl.Run(context.Background(), "mint", request()); ferr != nil {
		t.Fatalf("run: %v", ferr)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("bad journal line: %v", err)
		}
		records = append(records, record)
	}
	if len(records) != 2 {
		t.Fatalf("journal has %d records, want 2", len(records))
	}
	if records[0].Status != "submitted" || records[1].Status != "confirmed" {
		t.Fatalf("statuses = %s/%s", records[0].Status, records[1].Status)
	}
	if records[0].Nonce != 9 || records[0].Flow != "mint" {
		t.Fatalf("record = %+v", records[0])
	}
	if records[0].Timestamp == "" {
		t.Fatal("record must carry a timestamp")
	}
	if records[0].TxHash != records[1].TxHash {
		t.Fatal("both records must reference the same transaction")
	}
}
