package agent

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/riverrfinance/riverr-go/pkg/logger"
)

const erc20ABIJSON = `[
  {"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// LedgerClient implements ports.Ledger against one ERC20 token contract.
type LedgerClient struct {
	client  *ethclient.Client
	wallet  *Wallet
	chainID *big.Int

	token    common.Address
	erc20ABI abi.ABI
}

// NewLedgerClient dials the RPC node and binds one token ledger to the
// given signing capability.
func NewLedgerClient(rpcURL, tokenAddress string, chainID int64, wallet *Wallet) (*LedgerClient, error) {
	c, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "agent: dial rpc")
	}
	a, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, errors.Wrap(err, "agent: parse erc20 abi")
	}
	return &LedgerClient{
		client:   c,
		wallet:   wallet,
		chainID:  big.NewInt(chainID),
		token:    common.HexToAddress(tokenAddress),
		erc20ABI: a,
	}, nil
}

func (l *LedgerClient) call(ctx context.Context, method string, out interface{}, args ...interface{}) error {
	data, err := l.erc20ABI.Pack(method, args...)
	if err != nil {
		return err
	}
	raw, err := l.client.CallContract(ctx, ethereum.CallMsg{To: &l.token, Data: data}, nil)
	if err != nil {
		return errors.Wrapf(err, "agent: call %s", method)
	}
	return l.erc20ABI.UnpackIntoInterface(out, method, raw)
}

func (l *LedgerClient) Decimals(ctx context.Context) (uint8, error) {
	var d uint8
	if err := l.call(ctx, "decimals", &d); err != nil {
		return 0, err
	}
	return d, nil
}

func (l *LedgerClient) Name(ctx context.Context) (string, error) {
	var n string
	if err := l.call(ctx, "name", &n); err != nil {
		return "", err
	}
	return n, nil
}

func (l *LedgerClient) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	var v *big.Int
	err := l.call(ctx, "allowance", &v, common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (l *LedgerClient) Balance(ctx context.Context, owner string) (*big.Int, error) {
	var v *big.Int
	if err := l.call(ctx, "balanceOf", &v, common.HexToAddress(owner)); err != nil {
		return nil, err
	}
	return v, nil
}

// ApproveSpending raises the spender's allowance by delta. ERC20 approve
// replaces the allowance rather than adding to it, so the new value is
// current+delta. Returns false when the transaction reverted.
func (l *LedgerClient) ApproveSpending(ctx context.Context, spender string, delta *big.Int) (bool, error) {
	current, err := l.Allowance(ctx, l.wallet.Owner(), spender)
	if err != nil {
		return false, err
	}
	data, err := l.erc20ABI.Pack("approve", common.HexToAddress(spender), new(big.Int).Add(current, delta))
	if err != nil {
		return false, err
	}
	tx, err := l.buildSignedTx(ctx, l.token, data)
	if err != nil {
		return false, err
	}
	if err := l.client.SendTransaction(ctx, tx); err != nil {
		return false, errors.Wrap(err, "agent: send approve")
	}
	rcpt, err := l.waitMined(ctx, tx.Hash())
	if err != nil {
		return false, err
	}
	ok := rcpt.Status == ethtypes.ReceiptStatusSuccessful
	logger.WithField("tx", tx.Hash().Hex()).Debugf("approve mined, status=%d", rcpt.Status)
	return ok, nil
}

func (l *LedgerClient) waitMined(ctx context.Context, h common.Hash) (*ethtypes.Receipt, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		rcpt, err := l.client.TransactionReceipt(ctx, h)
		if err == nil {
			return rcpt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *LedgerClient) buildSignedTx(ctx context.Context, to common.Address, data []byte) (*ethtypes.Transaction, error) {
	from := l.wallet.Address()
	nonce, err := l.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "agent: nonce")
	}
	gasPrice, err := l.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "agent: gas price")
	}
	gasLimit, err := l.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		// EstimateGas for approve is flaky on some nodes; conservative fallback.
		gasLimit = 120000
	}
	tx := ethtypes.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(l.chainID), l.wallet.PrivateKey())
	if err != nil {
		return nil, errors.Wrap(err, "agent: sign tx")
	}
	return signed, nil
}
