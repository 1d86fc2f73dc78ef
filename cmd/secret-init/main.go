// secret-init seeds the encrypted secret store with the signing mnemonic.
// Run once per machine before starting the dashboard.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/riverrfinance/riverr-go/internal/agent"
	"github.com/riverrfinance/riverr-go/pkg/config"
	"github.com/riverrfinance/riverr-go/pkg/secretstore"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		force      = flag.Bool("force", false, "overwrite an existing mnemonic")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	encKey, err := secretstore.ParseKey(os.Getenv("RIVERR_SECRET_KEY"))
	if err != nil {
		fatal(err)
	}
	if encKey == nil {
		fatal(errors.New("RIVERR_SECRET_KEY is required (32-byte hex)"))
	}

	store, err := secretstore.Open(secretstore.OpenOptions{
		Path:          cfg.SecretStorePath,
		EncryptionKey: encKey,
	})
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	if _, err := store.Get(secretstore.KeyMnemonic); err == nil && !*force {
		fatal(errors.New("mnemonic already stored (use -force to overwrite)"))
	}

	fmt.Fprintln(os.Stderr, "enter mnemonic (12/15/18/21/24 words), then press enter:")
	mnemonic := strings.TrimSpace(readLine())
	if mnemonic == "" {
		fatal(errors.New("mnemonic is empty"))
	}

	// derive once up front so a typo fails here, not at dashboard startup
	wallet, err := agent.NewWalletFromMnemonic(mnemonic, "")
	if err != nil {
		fatal(err)
	}

	if err := store.Set(secretstore.KeyMnemonic, mnemonic); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "stored mnemonic for %s in %s\n", wallet.Owner(), cfg.SecretStorePath)
}

func readLine() string {
	br := bufio.NewReader(os.Stdin)
	s, _ := br.ReadString('\n')
	return strings.TrimSpace(s)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
