package vault

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultAddress is the Balancer V2 Vault, deployed at the same address on every chain.
var DefaultAddress = common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8")

const vaultABIJSON = `[
  {
    "inputs": [
      {"internalType": "enum IVault.SwapKind", "name": "kind", "type": "uint8"},
      {
        "components": [
          {"internalType": "bytes32", "name": "poolId", "type": "bytes32"},
          {"internalType": "uint256", "name": "assetInIndex", "type": "uint256"},
          {"internalType": "uint256", "name": "assetOutIndex", "type": "uint256"},
          {"internalType": "uint256", "name": "amount", "type": "uint256"},
          {"internalType": "bytes", "name": "userData", "type": "bytes"}
        ],
        "internalType": "struct IVault.BatchSwapStep[]",
        "name": "swaps",
        "type": "tuple[]"
      },
      {"internalType": "contract IAsset[]", "name": "assets", "type": "address[]"},
      {
        "components": [
          {"internalType": "address", "name": "sender", "type": "address"},
          {"internalType": "bool", "name": "fromInternalBalance", "type": "bool"},
          {"internalType": "address payable", "name": "recipient", "type": "address"},
          {"internalType": "bool", "name": "toInternalBalance", "type": "bool"}
        ],
        "internalType": "struct IVault.FundManagement",
        "name": "funds",
        "type": "tuple"
      }
    ],
    "name": "queryBatchSwap",
    "outputs": [{"internalType": "int256[]", "name": "", "type": "int256[]"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes32", "name": "poolId", "type": "bytes32"}],
    "name": "getPoolTokens",
    "outputs": [
      {"internalType": "contract IERC20[]", "name": "tokens", "type": "address[]"},
      {"internalType": "uint256[]", "name": "balances", "type": "uint256[]"},
      {"internalType": "uint256", "name": "lastChangeBlock", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	vaultABI     abi.ABI
	vaultABIOnce sync.Once
	vaultABIErr  error
)

// ABI returns the parsed Vault ABI subset.
func ABI() (abi.ABI, error) {
	vaultABIOnce.Do(func() {
		vaultABI, vaultABIErr = abi.JSON(strings.NewReader(vaultABIJSON))
	})
	return vaultABI, vaultABIErr
}
