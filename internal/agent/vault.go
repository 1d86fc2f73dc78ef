package agent

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/riverrfinance/riverr-go/internal/ports"
)

// VaultClient implements ports.Vault against the vault gateway's JSON API.
// Amounts travel as decimal-integer strings; the gateway wraps every
// mutation outcome as {"ok": ...} or {"err": "..."}.
type VaultClient struct {
	http    *resty.Client
	vaultID string
}

func NewVaultClient(baseURL, vaultID string) *VaultClient {
	return &VaultClient{http: newRestyClient(baseURL), vaultID: vaultID}
}

type vaultResult struct {
	Ok  string `json:"ok"`
	Err string `json:"err"`
}

func (r *vaultResult) value() (string, error) {
	if r.Err != "" {
		return "", errors.New(r.Err)
	}
	return r.Ok, nil
}

func (v *VaultClient) post(ctx context.Context, path string, body any) (*vaultResult, error) {
	var out vaultResult
	resp, err := v.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(fmt.Sprintf("/vaults/%s%s", v.vaultID, path))
	if err != nil {
		return nil, errors.Wrapf(err, "vault: POST %s", path)
	}
	if resp.IsError() {
		return nil, errors.Errorf("vault: POST %s: http %d: %s", path, resp.StatusCode(), resp.String())
	}
	return &out, nil
}

func (v *VaultClient) UserMarginBalance(ctx context.Context, owner string) (*big.Int, error) {
	var out struct {
		Balance string `json:"balance"`
	}
	resp, err := v.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/vaults/%s/margin/%s", v.vaultID, owner))
	if err != nil {
		return nil, errors.Wrap(err, "vault: margin balance")
	}
	if resp.IsError() {
		return nil, errors.Errorf("vault: margin balance: http %d", resp.StatusCode())
	}
	return parseScaled(out.Balance)
}

func (v *VaultClient) FundAccount(ctx context.Context, amount *big.Int, subaccount, owner string) (string, error) {
	res, err := v.post(ctx, "/fund", map[string]any{
		"amount":     amount.String(),
		"subaccount": subaccount,
		"owner":      owner,
	})
	if err != nil {
		return "", err
	}
	return res.value()
}

func (v *VaultClient) WithdrawFromAccount(ctx context.Context, amount *big.Int, account string) (string, error) {
	res, err := v.post(ctx, "/withdraw", map[string]any{
		"amount":  amount.String(),
		"account": account,
	})
	if err != nil {
		return "", err
	}
	return res.value()
}

func (v *VaultClient) ProvideLeverage(ctx context.Context, amount *big.Int) error {
	res, err := v.post(ctx, "/leverage/provide", map[string]any{"amount": amount.String()})
	if err != nil {
		return err
	}
	_, err = res.value()
	return err
}

func (v *VaultClient) RemoveLeverage(ctx context.Context, amount *big.Int, subaccount string) error {
	res, err := v.post(ctx, "/leverage/remove", map[string]any{
		"amount":     amount.String(),
		"subaccount": subaccount,
	})
	if err != nil {
		return err
	}
	// remove returns "" on success, an error message otherwise
	if res.Err != "" {
		return errors.New(res.Err)
	}
	return nil
}

func (v *VaultClient) StakeVirtualTokens(ctx context.Context, amount *big.Int, spanSeconds int64, subaccount string) (uint64, error) {
	var out struct {
		StakeID uint64 `json:"stake_id"`
		Err     string `json:"err"`
	}
	resp, err := v.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"amount":     amount.String(),
			"span":       spanSeconds,
			"subaccount": subaccount,
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/vaults/%s/stakes", v.vaultID))
	if err != nil {
		return 0, errors.Wrap(err, "vault: stake")
	}
	if resp.IsError() {
		return 0, errors.Errorf("vault: stake: http %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Err != "" {
		return 0, errors.New(out.Err)
	}
	return out.StakeID, nil
}

func (v *VaultClient) UnstakeVirtualTokens(ctx context.Context, stakeID uint64) error {
	res, err := v.post(ctx, fmt.Sprintf("/stakes/%d/unstake", stakeID), nil)
	if err != nil {
		return err
	}
	_, err = res.value()
	return err
}

func (v *VaultClient) GetUserStakes(ctx context.Context, owner string) ([]ports.Stake, error) {
	var out []struct {
		ID          uint64 `json:"id"`
		Amount      string `json:"amount"`
		Span        int64  `json:"span"`
		CreatedAt   int64  `json:"created_at"`
		AccruedFees string `json:"accrued_fees"`
	}
	resp, err := v.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/vaults/%s/stakes/%s", v.vaultID, owner))
	if err != nil {
		return nil, errors.Wrap(err, "vault: user stakes")
	}
	if resp.IsError() {
		return nil, errors.Errorf("vault: user stakes: http %d", resp.StatusCode())
	}
	stakes := make([]ports.Stake, 0, len(out))
	for _, s := range out {
		amt, err := parseScaled(s.Amount)
		if err != nil {
			return nil, err
		}
		fees, err := parseScaled(s.AccruedFees)
		if err != nil {
			return nil, err
		}
		stakes = append(stakes, ports.Stake{
			ID:          s.ID,
			Amount:      amt,
			SpanSeconds: s.Span,
			CreatedAt:   time.Unix(s.CreatedAt, 0),
			AccruedFees: fees,
		})
	}
	return stakes, nil
}

func parseScaled(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("agent: bad integer amount %q", s)
	}
	return v, nil
}
