package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/cfledger/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

const etherDecimals = 18

// ParseEther 将十进制 ether 字符串转换为 wei，例如 "0.025"
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty ether amount")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > etherDecimals {
		return nil, fmt.Errorf("ether amount %q has more than %d decimals", s, etherDecimals)
	}
	if whole == "" {
		whole = "0"
	}
	frac += strings.Repeat("0", etherDecimals-len(frac))

	wei, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok || wei.Sign() < 0 || strings.ContainsAny(whole+frac, "+-") {
		return nil, fmt.Errorf("invalid ether amount %q", s)
	}
	return wei, nil
}

// FormatEther 将 wei 格式化为 ether 字符串，去掉末尾的0
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	unit := big.NewInt(params.Ether)
	whole, frac := new(big.Int).QuoRem(new(big.Int).Abs(wei), unit, new(big.Int))

	sign := ""
	if wei.Sign() < 0 {
		sign = "-"
	}
	if frac.Sign() == 0 {
		return sign + whole.String()
	}
	fracStr := frac.String()
	fracStr = strings.Repeat("0", etherDecimals-len(fracStr)) + fracStr
	return sign + whole.String() + "." + strings.TrimRight(fracStr, "0")
}

// ParseAddress 解析十六进制地址
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, ledger.ErrInvalidAddress
	}
	return common.HexToAddress(s), nil
}

// TxHash 计算调用的交易哈希
func TxHash(sender common.Address, nonce uint64, operation string) common.Hash {
	return crypto.Keccak256Hash(sender.Bytes(), new(big.Int).SetUint64(nonce).Bytes(), []byte(operation))
}
