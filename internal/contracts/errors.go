package contracts

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Custom error signatures the pool and router revert with. Selectors are
// the first four bytes of the keccak-256 of the signature string.
const (
	ErrSigSlippageDuringMint  = "SlippageDuringMint(uint256,uint256,uint256)"
	ErrSigNotEnoughBaseIn     = "NotEnoughBaseIn(uint256,uint256)"
	ErrSigNegativeRate        = "NegativeInterestRate(uint128,uint128)"
	ErrSigUndercollateralized = "Undercollateralized(bytes12,uint128,uint128)"
)

// ErrorSpec describes a decodable custom error.
type ErrorSpec struct {
	Signature string
	Arguments abi.Arguments
}

// Selector returns the 4-byte selector of an error or function signature.
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

func uintArg(name string, bits uint16) abi.Argument {
	typ, err := abi.NewType("uint"+sizeSuffix(bits), "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Argument{Name: name, Type: typ}
}

func bytesNArg(name string, size int) abi.Argument {
	typ, err := abi.NewType("bytes"+sizeSuffix(uint16(size)), "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Argument{Name: name, Type: typ}
}

func sizeSuffix(n uint16) string {
	digits := [5]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

// ErrorSpecs returns the decode table for known revert selectors.
func ErrorSpecs() map[[4]byte]ErrorSpec {
	return map[[4]byte]ErrorSpec{
		Selector(ErrSigSlippageDuringMint): {
			Signature: ErrSigSlippageDuringMint,
			Arguments: abi.Arguments{
				uintArg("newRatio", 256),
				uintArg("minRatio", 256),
				uintArg("maxRatio", 256),
			},
		},
		Selector(ErrSigNotEnoughBaseIn): {
			Signature: ErrSigNotEnoughBaseIn,
			Arguments: abi.Arguments{
				uintArg("baseNeeded", 256),
				uintArg("baseAvailable", 256),
			},
		},
		Selector(ErrSigNegativeRate): {
			Signature: ErrSigNegativeRate,
			Arguments: abi.Arguments{
				uintArg("baseOut", 128),
				uintArg("fyTokenIn", 128),
			},
		},
		Selector(ErrSigUndercollateralized): {
			Signature: ErrSigUndercollateralized,
			Arguments: abi.Arguments{
				bytesNArg("vaultId", 12),
				uintArg("art", 128),
				uintArg("ink", 128),
			},
		},
	}
}

// TransferTopic returns the topic0 of the ERC-20 Transfer event.
func TransferTopic() [32]byte {
	var topic [32]byte
	copy(topic[:], crypto.Keccak256([]byte("Transfer(address,address,uint256)")))
	return topic
}
