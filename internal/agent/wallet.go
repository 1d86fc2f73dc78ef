package agent

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/pkg/errors"

	"github.com/riverrfinance/riverr-go/pkg/secretstore"
)

// DefaultDerivationPath is the standard first external account.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// Wallet is the signing capability handed to clients at construction.
// Callers receive it explicitly; there is no package-level wallet.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewWalletFromMnemonic derives a signing key from a BIP-39 mnemonic.
func NewWalletFromMnemonic(mnemonic, derivationPath string) (*Wallet, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, errors.New("agent: mnemonic is required")
	}
	if derivationPath == "" {
		derivationPath = DefaultDerivationPath
	}

	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, errors.Wrap(err, "agent: invalid mnemonic")
	}
	path, err := hdwallet.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, errors.Wrap(err, "agent: invalid derivation path")
	}
	acct, err := w.Derive(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "agent: derive failed")
	}
	pkHex, err := w.PrivateKeyHex(acct)
	if err != nil {
		return nil, errors.Wrap(err, "agent: private key failed")
	}
	pk, err := crypto.HexToECDSA(pkHex)
	if err != nil {
		return nil, errors.Wrap(err, "agent: parse private key")
	}
	return &Wallet{privateKey: pk, address: acct.Address}, nil
}

// LoadWallet reads the mnemonic from the secret store and derives the key.
func LoadWallet(store *secretstore.Store, derivationPath string) (*Wallet, error) {
	mn, err := store.Get(secretstore.KeyMnemonic)
	if err != nil {
		return nil, errors.Wrap(err, "agent: load mnemonic")
	}
	return NewWalletFromMnemonic(mn, derivationPath)
}

// Owner returns the lowercase hex address identifying the signer.
func (w *Wallet) Owner() string { return strings.ToLower(w.address.Hex()) }

func (w *Wallet) Address() common.Address { return w.address }

func (w *Wallet) PrivateKey() *ecdsa.PrivateKey { return w.privateKey }
