// Package contracts holds the ABI surface of the market contracts:
// the base/fyToken pool, ERC-20 tokens, the vault router, and the
// per-wallet deposit helper.
package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const poolABIJSON = `[
  {
    "inputs": [],
    "name": "getCache",
    "outputs": [
      {"internalType": "uint112", "name": "baseCached", "type": "uint112"},
      {"internalType": "uint112", "name": "fyTokenCached", "type": "uint112"},
      {"internalType": "uint32", "name": "blockTimestampLast", "type": "uint32"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getBaseBalance",
    "outputs": [{"internalType": "uint112", "name": "", "type": "uint112"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "getFYTokenBalance",
    "outputs": [{"internalType": "uint112", "name": "", "type": "uint112"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "totalSupply",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "maturity",
    "outputs": [{"internalType": "uint32", "name": "", "type": "uint32"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint128", "name": "baseIn", "type": "uint128"}],
    "name": "sellBasePreview",
    "outputs": [{"internalType": "uint128", "name": "fyTokenOut", "type": "uint128"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint128", "name": "fyTokenIn", "type": "uint128"}],
    "name": "sellFYTokenPreview",
    "outputs": [{"internalType": "uint128", "name": "baseOut", "type": "uint128"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint128", "name": "baseOut", "type": "uint128"}],
    "name": "buyBasePreview",
    "outputs": [{"internalType": "uint128", "name": "fyTokenIn", "type": "uint128"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "address", "name": "remainder", "type": "address"},
      {"internalType": "uint256", "name": "minRatio", "type": "uint256"},
      {"internalType": "uint256", "name": "maxRatio", "type": "uint256"}
    ],
    "name": "mint",
    "outputs": [
      {"internalType": "uint256", "name": "baseIn", "type": "uint256"},
      {"internalType": "uint256", "name": "fyTokenIn", "type": "uint256"},
      {"internalType": "uint256", "name": "lpTokensMinted", "type": "uint256"}
    ],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "to", "type": "address"}],
    "name": "retrieveBase",
    "outputs": [{"internalType": "uint128", "name": "retrieved", "type": "uint128"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "to", "type": "address"}],
    "name": "retrieveFYToken",
    "outputs": [{"internalType": "uint128", "name": "retrieved", "type": "uint128"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "uint128", "name": "min", "type": "uint128"}
    ],
    "name": "sellFYToken",
    "outputs": [{"internalType": "uint128", "name": "baseOut", "type": "uint128"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "uint128", "name": "min", "type": "uint128"}
    ],
    "name": "sellBase",
    "outputs": [{"internalType": "uint128", "name": "fyTokenOut", "type": "uint128"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint32", "name": "maturity", "type": "uint32"},
      {"indexed": true, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": false, "internalType": "int256", "name": "bases", "type": "int256"},
      {"indexed": false, "internalType": "int256", "name": "fyTokens", "type": "int256"},
      {"indexed": false, "internalType": "int256", "name": "poolTokens", "type": "int256"}
    ],
    "name": "Liquidity",
    "type": "event"
  }
]`

const erc20ABIJSON = `[
  {
    "inputs": [{"internalType": "address", "name": "account", "type": "address"}],
    "name": "balanceOf",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "owner", "type": "address"},
      {"internalType": "address", "name": "spender", "type": "address"}
    ],
    "name": "allowance",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "spender", "type": "address"},
      {"internalType": "uint256", "name": "amount", "type": "uint256"}
    ],
    "name": "approve",
    "outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "uint256", "name": "amount", "type": "uint256"}
    ],
    "name": "transfer",
    "outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "decimals",
    "outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "symbol",
    "outputs": [{"internalType": "string", "name": "", "type": "string"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "value", "type": "uint256"}
    ],
    "name": "Transfer",
    "type": "event"
  }
]`

const routerABIJSON = `[
  {
    "inputs": [
      {"internalType": "bytes6", "name": "seriesId", "type": "bytes6"},
      {"internalType": "bytes6", "name": "ilkId", "type": "bytes6"}
    ],
    "name": "build",
    "outputs": [{"internalType": "bytes12", "name": "vaultId", "type": "bytes12"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "bytes12", "name": "vaultId", "type": "bytes12"},
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "int128", "name": "ink", "type": "int128"},
      {"internalType": "int128", "name": "art", "type": "int128"}
    ],
    "name": "pour",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "bytes12", "name": "vaultId", "type": "bytes12"},
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "uint128", "name": "ink", "type": "uint128"},
      {"internalType": "uint128", "name": "base", "type": "uint128"},
      {"internalType": "uint128", "name": "max", "type": "uint128"}
    ],
    "name": "serve",
    "outputs": [{"internalType": "uint128", "name": "art", "type": "uint128"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes12", "name": "vaultId", "type": "bytes12"}],
    "name": "vaults",
    "outputs": [
      {"internalType": "address", "name": "owner", "type": "address"},
      {"internalType": "bytes6", "name": "seriesId", "type": "bytes6"},
      {"internalType": "bytes6", "name": "ilkId", "type": "bytes6"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "bytes12", "name": "vaultId", "type": "bytes12"},
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": true, "internalType": "bytes6", "name": "seriesId", "type": "bytes6"},
      {"indexed": false, "internalType": "bytes6", "name": "ilkId", "type": "bytes6"}
    ],
    "name": "VaultBuilt",
    "type": "event"
  }
]`

const helperABIJSON = `[
  {
    "inputs": [
      {"internalType": "address", "name": "pool", "type": "address"},
      {"internalType": "uint256", "name": "baseIn", "type": "uint256"},
      {"internalType": "uint256", "name": "fyTokenIn", "type": "uint256"},
      {"internalType": "uint256", "name": "minRatio", "type": "uint256"},
      {"internalType": "uint256", "name": "maxRatio", "type": "uint256"}
    ],
    "name": "addLiquidity",
    "outputs": [{"internalType": "uint256", "name": "lpTokens", "type": "uint256"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "owner", "type": "address"}
    ],
    "stateMutability": "nonpayable",
    "type": "constructor"
  }
]`

var (
	poolABI    abi.ABI
	poolOnce   sync.Once
	poolABIErr error

	erc20ABI    abi.ABI
	erc20Once   sync.Once
	erc20ABIErr error

	routerABI    abi.ABI
	routerOnce   sync.Once
	routerABIErr error

	helperABI    abi.ABI
	helperOnce   sync.Once
	helperABIErr error
)

// PoolABI returns the parsed base/fyToken pool ABI.
func PoolABI() (abi.ABI, error) {
	poolOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}

// ERC20ABI returns the parsed ERC-20 ABI.
func ERC20ABI() (abi.ABI, error) {
	erc20Once.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

// RouterABI returns the parsed vault router ABI.
func RouterABI() (abi.ABI, error) {
	routerOnce.Do(func() {
		routerABI, routerABIErr = abi.JSON(strings.NewReader(routerABIJSON))
	})
	return routerABI, routerABIErr
}

// HelperABI returns the parsed deposit helper ABI.
func HelperABI() (abi.ABI, error) {
	helperOnce.Do(func() {
		helperABI, helperABIErr = abi.JSON(strings.NewReader(helperABIJSON))
	})
	return helperABI, helperABIErr
}
