package blockchain

import (
	"regexp"
	"strings"

	"misttrack-mcp-server/internal/domain/entity"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
)

const (
	tronAddressVersion = 0x41
	tronPayloadLength  = 20
	solanaKeyLength    = 32
	unrecognizedFormat = "Unable to recognize this address format. Please try to specify the coin type manually for querying."
)

var (
	tronPattern   = regexp.MustCompile(`^T[a-zA-Z0-9]{33}$`)
	xrpPattern    = regexp.MustCompile(`^r[a-zA-Z0-9]{24,34}$`)
	solanaPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{43,44}$`)
)

// chainRule is one address family: a format check and the result it yields
type chainRule struct {
	match            func(address string) bool
	chains           []string
	description      string
	recommendedCoins []string
}

// AddressDetector guesses the chain of an address from its format
type AddressDetector struct {
	rules []chainRule
}

// NewAddressDetector creates a detector with the built-in chain rules
func NewAddressDetector() *AddressDetector {
	return &AddressDetector{
		rules: []chainRule{
			{
				match:       isEVMAddress,
				chains:      []string{"ETH", "BSC", "AVAX", "MATIC", "ARBITRUM", "OPTIMISM"},
				description: "This is an Ethereum format address, which may apply to multiple EVM-compatible chains, including Ethereum, Binance Smart Chain, Avalanche C-Chain, Polygon, etc.",
				recommendedCoins: []string{"ETH", "BSC", "MATIC", "AVAX", "USDT-ERC20", "USDC-ERC20",
					"WETH-ERC20", "BNB-ERC20", "UNI-ERC20", "BUSD-ERC20", "DAI-ERC20"},
			},
			{
				match:            isBitcoinAddress,
				chains:           []string{"BTC"},
				description:      "This is a Bitcoin format address.",
				recommendedCoins: []string{"BTC"},
			},
			{
				match:            isTronAddress,
				chains:           []string{"TRX"},
				description:      "This is a TRON format address.",
				recommendedCoins: []string{"TRX", "USDT-TRC20"},
			},
			{
				match:            xrpPattern.MatchString,
				chains:           []string{"XRP"},
				description:      "This is a Ripple format address.",
				recommendedCoins: []string{"XRP"},
			},
			{
				match:            isSolanaAddress,
				chains:           []string{"SOL"},
				description:      "This may be a Solana format address.",
				recommendedCoins: []string{"SOL"},
			},
		},
	}
}

// Detect returns the first matching chain family, or an unsuccessful result
func (d *AddressDetector) Detect(address string) *entity.ChainDetection {
	address = strings.TrimSpace(address)

	for _, rule := range d.rules {
		if rule.match(address) {
			return &entity.ChainDetection{
				Success:          true,
				Address:          address,
				DetectedChains:   rule.chains,
				Description:      rule.description,
				RecommendedCoins: rule.recommendedCoins,
			}
		}
	}

	return &entity.ChainDetection{
		Success:          false,
		Address:          address,
		DetectedChains:   []string{},
		Description:      unrecognizedFormat,
		RecommendedCoins: []string{},
	}
}

func isEVMAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// isBitcoinAddress accepts mainnet legacy, script and segwit addresses with a valid checksum
func isBitcoinAddress(address string) bool {
	switch {
	case strings.HasPrefix(address, "bc1"):
		if len(address) < 14 || len(address) > 74 {
			return false
		}
	case strings.HasPrefix(address, "1"), strings.HasPrefix(address, "3"):
		if len(address) < 26 || len(address) > 35 {
			return false
		}
	default:
		return false
	}

	_, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
	return err == nil
}

// isTronAddress checks the base58check payload: version 0x41 followed by a 20 byte account id
func isTronAddress(address string) bool {
	if !tronPattern.MatchString(address) {
		return false
	}
	payload, version, err := base58.CheckDecode(address)
	return err == nil && version == tronAddressVersion && len(payload) == tronPayloadLength
}

// isSolanaAddress checks that the address decodes to a 32 byte public key
func isSolanaAddress(address string) bool {
	if !solanaPattern.MatchString(address) {
		return false
	}
	// Decode returns an empty slice on invalid characters
	return len(base58.Decode(address)) == solanaKeyLength
}
