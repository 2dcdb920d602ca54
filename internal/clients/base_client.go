package clients

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/dcagent/pkg/retrier"
)

const (
	erc20ABIJSON = `[
		{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
		{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
	]`

	pythABIJSON = `[
		{"inputs":[{"internalType":"bytes32","name":"id","type":"bytes32"}],"name":"getPriceUnsafe","outputs":[{"components":[{"internalType":"int64","name":"price","type":"int64"},{"internalType":"uint64","name":"conf","type":"uint64"},{"internalType":"int32","name":"expo","type":"int32"},{"internalType":"uint256","name":"publishTime","type":"uint256"}],"internalType":"struct PythStructs.Price","name":"price","type":"tuple"}],"stateMutability":"view","type":"function"}
	]`

	routerABIJSON = `[
		{"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint256","name":"amountOutMin","type":"uint256"},{"components":[{"internalType":"address","name":"from","type":"address"},{"internalType":"address","name":"to","type":"address"},{"internalType":"bool","name":"stable","type":"bool"},{"internalType":"address","name":"factory","type":"address"}],"internalType":"struct IRouter.Route[]","name":"routes","type":"tuple[]"},{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"}
	]`

	gaugeABIJSON = `[
		{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"getReward","outputs":[],"stateMutability":"nonpayable","type":"function"},
		{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"earned","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"inputs":[{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"deposit","outputs":[],"stateMutability":"nonpayable","type":"function"}
	]`
)

// Aerodrome default pool factory on Base mainnet.
const aerodromePoolFactory = "0x420DD381b31aEf6683db6B902084cB0FFECe40Da"

const (
	swapDeadline       = 10 * time.Minute
	receiptPollEvery   = 2 * time.Second
	receiptWaitTimeout = 3 * time.Minute
	fallbackGasLimit   = 400_000

	// AERO reward token uses 18 decimals.
	rewardTokenDecimals = 18
)

var (
	erc20ABI  abi.ABI
	pythABI   abi.ABI
	routerABI abi.ABI
	gaugeABI  abi.ABI
)

func init() {
	for _, v := range []struct {
		raw string
		dst *abi.ABI
	}{
		{erc20ABIJSON, &erc20ABI},
		{pythABIJSON, &pythABI},
		{routerABIJSON, &routerABI},
		{gaugeABIJSON, &gaugeABI},
	} {
		parsed, err := abi.JSON(strings.NewReader(v.raw))
		if err != nil {
			panic("failed to parse ABI: " + err.Error())
		}
		*v.dst = parsed
	}
}

// pythPriceData mirrors PythStructs.Price.
type pythPriceData struct {
	Price       int64
	Conf        uint64
	Expo        int32
	PublishTime *big.Int
}

// swapRoute mirrors IRouter.Route.
type swapRoute struct {
	From    common.Address
	To      common.Address
	Stable  bool
	Factory common.Address
}

// BaseClientConfig describes how to construct a Base L2 client.
type BaseClientConfig struct {
	RPCURL        string
	ChainID       int64
	PrivateKey    string
	CbBTCAddress  string
	USDCAddress   string
	RouterAddress string
	GaugeAddress  string
	PythAddress   string
	PythBTCFeedID string
}

// BaseClient wraps an ethclient connection to Base and exposes the narrow
// surface the agent needs: token balances, the Pyth price feed, router swaps
// and gauge interactions.
type BaseClient struct {
	eth     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	address common.Address

	cbBTC   common.Address
	usdc    common.Address
	router  common.Address
	gauge   common.Address
	pyth    common.Address
	factory common.Address
	feedID  [32]byte

	retrier *retrier.Retrier

	mu       sync.Mutex
	decimals map[common.Address]int32
}

// NewBaseClient dials the RPC endpoint, verifies the chain ID and derives the
// wallet address from the configured private key.
func NewBaseClient(ctx context.Context, cfg BaseClientConfig) (*BaseClient, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to Base at %s", cfg.RPCURL)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, errors.Wrap(err, "failed to fetch chain ID")
	}
	if cfg.ChainID != 0 && chainID.Int64() != cfg.ChainID {
		eth.Close()
		return nil, errors.Errorf("chain ID mismatch: node reports %d, config wants %d", chainID.Int64(), cfg.ChainID)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		eth.Close()
		return nil, errors.Wrap(err, "invalid private key")
	}

	feed := common.HexToHash(cfg.PythBTCFeedID)

	return &BaseClient{
		eth:      eth,
		chainID:  chainID,
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		cbBTC:    common.HexToAddress(cfg.CbBTCAddress),
		usdc:     common.HexToAddress(cfg.USDCAddress),
		router:   common.HexToAddress(cfg.RouterAddress),
		gauge:    common.HexToAddress(cfg.GaugeAddress),
		pyth:     common.HexToAddress(cfg.PythAddress),
		factory:  common.HexToAddress(aerodromePoolFactory),
		feedID:   feed,
		retrier:  retrier.New(),
		decimals: make(map[common.Address]int32),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *BaseClient) Close() {
	c.eth.Close()
}

// Address returns the wallet address controlled by the client.
func (c *BaseClient) Address() common.Address {
	return c.address
}

// BTCPrice reads the BTC/USD price from the on-chain Pyth feed.
func (c *BaseClient) BTCPrice(ctx context.Context) (decimal.Decimal, error) {
	payload, err := pythABI.Pack("getPriceUnsafe", c.feedID)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "pack getPriceUnsafe")
	}

	res, err := retrier.DoWithData(ctx, c.retrier, func(ctx context.Context) ([]byte, error) {
		return c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.pyth, Data: payload}, nil)
	})
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "pyth getPriceUnsafe call failed")
	}

	outputs, err := pythABI.Unpack("getPriceUnsafe", res)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "unpack getPriceUnsafe")
	}
	if len(outputs) != 1 {
		return decimal.Decimal{}, errors.New("unexpected getPriceUnsafe response")
	}

	data := *abi.ConvertType(outputs[0], new(pythPriceData)).(*pythPriceData)
	if data.Price <= 0 {
		return decimal.Decimal{}, errors.Errorf("pyth returned non-positive price %d", data.Price)
	}

	// Pyth prices are fixed-point numbers adjusted by the exponent field
	// (typically -8 for BTC/USD).
	return decimal.New(data.Price, data.Expo), nil
}

// TokenBalance returns the wallet balance of the given token in whole units.
func (c *BaseClient) TokenBalance(ctx context.Context, token common.Address) (decimal.Decimal, error) {
	raw, err := c.callUint256(ctx, token, erc20ABI, "balanceOf", c.address)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "balanceOf call failed")
	}

	dec, err := c.tokenDecimals(ctx, token)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return decimal.NewFromBigInt(raw, -dec), nil
}

// USDCBalance returns the wallet's USDC balance.
func (c *BaseClient) USDCBalance(ctx context.Context) (decimal.Decimal, error) {
	return c.TokenBalance(ctx, c.usdc)
}

// CbBTCBalance returns the wallet's cbBTC balance.
func (c *BaseClient) CbBTCBalance(ctx context.Context) (decimal.Decimal, error) {
	return c.TokenBalance(ctx, c.cbBTC)
}

// EarnedRewards returns the AERO rewards accrued in the gauge.
func (c *BaseClient) EarnedRewards(ctx context.Context) (decimal.Decimal, error) {
	raw, err := c.callUint256(ctx, c.gauge, gaugeABI, "earned", c.address)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "earned call failed")
	}
	return decimal.NewFromBigInt(raw, -rewardTokenDecimals), nil
}

// GasPrice returns the node's suggested gas price.
func (c *BaseClient) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.eth.SuggestGasPrice(ctx)
}

// SwapUSDCForCbBTC approves the router for usdcAmount and submits the swap.
// Amounts are in whole token units. Returns the swap transaction hash.
func (c *BaseClient) SwapUSDCForCbBTC(ctx context.Context, usdcAmount, minCbBTCOut decimal.Decimal, gasPrice *big.Int) (string, error) {
	amountIn, err := c.toUnits(ctx, c.usdc, usdcAmount)
	if err != nil {
		return "", err
	}
	amountOutMin, err := c.toUnits(ctx, c.cbBTC, minCbBTCOut)
	if err != nil {
		return "", err
	}

	if err := c.ensureAllowance(ctx, c.usdc, c.router, amountIn, gasPrice); err != nil {
		return "", errors.Wrap(err, "approve USDC for router")
	}

	routes := []swapRoute{{From: c.usdc, To: c.cbBTC, Stable: false, Factory: c.factory}}
	deadline := big.NewInt(time.Now().Add(swapDeadline).Unix())

	payload, err := routerABI.Pack("swapExactTokensForTokens", amountIn, amountOutMin, routes, c.address, deadline)
	if err != nil {
		return "", errors.Wrap(err, "pack swap")
	}

	tx, err := c.submitTx(ctx, c.router, payload, gasPrice)
	if err != nil {
		return "", errors.Wrap(err, "submit swap")
	}

	if err := c.waitMined(ctx, tx); err != nil {
		return tx.Hash().Hex(), err
	}

	return tx.Hash().Hex(), nil
}

// ClaimRewards claims accrued rewards from the gauge.
func (c *BaseClient) ClaimRewards(ctx context.Context, gasPrice *big.Int) (string, error) {
	payload, err := gaugeABI.Pack("getReward", c.address)
	if err != nil {
		return "", errors.Wrap(err, "pack getReward")
	}

	tx, err := c.submitTx(ctx, c.gauge, payload, gasPrice)
	if err != nil {
		return "", errors.Wrap(err, "submit claim")
	}

	if err := c.waitMined(ctx, tx); err != nil {
		return tx.Hash().Hex(), err
	}

	return tx.Hash().Hex(), nil
}

// StakeInGauge deposits cbBTC-pool LP tokens into the gauge.
func (c *BaseClient) StakeInGauge(ctx context.Context, amount decimal.Decimal, gasPrice *big.Int) (string, error) {
	units, err := c.toUnits(ctx, c.cbBTC, amount)
	if err != nil {
		return "", err
	}

	if err := c.ensureAllowance(ctx, c.cbBTC, c.gauge, units, gasPrice); err != nil {
		return "", errors.Wrap(err, "approve cbBTC for gauge")
	}

	payload, err := gaugeABI.Pack("deposit", units)
	if err != nil {
		return "", errors.Wrap(err, "pack deposit")
	}

	tx, err := c.submitTx(ctx, c.gauge, payload, gasPrice)
	if err != nil {
		return "", errors.Wrap(err, "submit stake")
	}

	if err := c.waitMined(ctx, tx); err != nil {
		return tx.Hash().Hex(), err
	}

	return tx.Hash().Hex(), nil
}

func (c *BaseClient) ensureAllowance(ctx context.Context, token, spender common.Address, amount *big.Int, gasPrice *big.Int) error {
	current, err := c.callUint256(ctx, token, erc20ABI, "allowance", c.address, spender)
	if err != nil {
		return errors.Wrap(err, "allowance call failed")
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}

	payload, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return errors.Wrap(err, "pack approve")
	}

	tx, err := c.submitTx(ctx, token, payload, gasPrice)
	if err != nil {
		return err
	}

	return c.waitMined(ctx, tx)
}

func (c *BaseClient) submitTx(ctx context.Context, to common.Address, payload []byte, gasPrice *big.Int) (*types.Transaction, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, errors.Wrap(err, "fetch nonce")
	}

	if gasPrice == nil {
		gasPrice, err = c.eth.SuggestGasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "suggest gas price")
		}
	}

	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: c.address,
		To:   &to,
		Data: payload,
	})
	if err != nil {
		gasLimit = fallbackGasLimit
	}

	tx, err := types.SignNewTx(c.key, types.LatestSignerForChainID(c.chainID), &types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     payload,
	})
	if err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}

	if err := c.eth.SendTransaction(ctx, tx); err != nil {
		return nil, errors.Wrap(err, "send transaction")
	}

	return tx, nil
}

func (c *BaseClient) waitMined(ctx context.Context, tx *types.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, receiptWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollEvery)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, tx.Hash())
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return errors.Errorf("transaction %s reverted", tx.Hash().Hex())
			}
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return errors.Wrap(err, "fetch receipt")
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "waiting for transaction %s", tx.Hash().Hex())
		case <-ticker.C:
		}
	}
}

func (c *BaseClient) callUint256(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	payload, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}

	res, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: payload}, nil)
	if err != nil {
		return nil, err
	}

	outputs, err := contractABI.Unpack(method, res)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	if len(outputs) != 1 {
		return nil, errors.Errorf("unexpected %s response", method)
	}

	value, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected %s output type %T", method, outputs[0])
	}
	return value, nil
}

func (c *BaseClient) tokenDecimals(ctx context.Context, token common.Address) (int32, error) {
	c.mu.Lock()
	if dec, ok := c.decimals[token]; ok {
		c.mu.Unlock()
		return dec, nil
	}
	c.mu.Unlock()

	payload, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, errors.Wrap(err, "pack decimals")
	}

	res, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: payload}, nil)
	if err != nil {
		return 0, errors.Wrap(err, "decimals call failed")
	}

	outputs, err := erc20ABI.Unpack("decimals", res)
	if err != nil {
		return 0, errors.Wrap(err, "unpack decimals")
	}
	if len(outputs) != 1 {
		return 0, errors.New("unexpected decimals response")
	}

	dec, ok := outputs[0].(uint8)
	if !ok {
		return 0, errors.Errorf("unexpected decimals output type %T", outputs[0])
	}

	c.mu.Lock()
	c.decimals[token] = int32(dec)
	c.mu.Unlock()

	return int32(dec), nil
}

func (c *BaseClient) toUnits(ctx context.Context, token common.Address, amount decimal.Decimal) (*big.Int, error) {
	dec, err := c.tokenDecimals(ctx, token)
	if err != nil {
		return nil, err
	}
	return amount.Shift(dec).Truncate(0).BigInt(), nil
}
