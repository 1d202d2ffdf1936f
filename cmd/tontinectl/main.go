// Command tontinectl administers a tontine server's database and issues
// development tokens.
//
// Usage:
//
//	tontinectl token -user alice [-ttl 24h]
//	tontinectl wallet open -id wallet-alice -currency XOF -balance 100000
//	tontinectl wallet show -id wallet-alice
//
// Amounts are minor units.
//
// It reads DB_PATH and JWT_SECRET like the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mmynk/tontine/internal/auth"
	"github.com/mmynk/tontine/internal/config"
	"github.com/mmynk/tontine/internal/storage/sqlite"
	"github.com/mmynk/tontine/internal/wallet"
	"github.com/mmynk/tontine/pkg/logging"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "tontinectl:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: tontinectl token|wallet ...")

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	switch args[0] {
	case "token":
		return issueToken(cfg, args[1:], out)
	case "wallet":
		if len(args) < 2 {
			return errUsage
		}
		return walletCommand(ctx, cfg, args[1], args[2:], out)
	default:
		return errUsage
	}
}

func issueToken(cfg config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	user := fs.String("user", "", "user ID to issue the token for")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	token, err := auth.NewJWTManager(cfg.JWTSecret, *ttl).Generate(*user)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func walletCommand(ctx context.Context, cfg config.Config, sub string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("wallet "+sub, flag.ContinueOnError)
	id := fs.String("id", "", "wallet ID")
	currency := fs.String("currency", "XOF", "wallet currency")
	opening := fs.Int64("balance", 0, "opening balance in minor units")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	ledger, err := wallet.NewLedger(ctx, store.DB())
	if err != nil {
		return err
	}

	switch sub {
	case "open":
		if err := ledger.OpenWallet(ctx, *id, *currency, *opening); err != nil {
			return err
		}
		fmt.Fprintf(out, "opened %s\n", *id)
		return nil
	case "show":
		balance, err := ledger.Balance(ctx, *id)
		if err != nil {
			return err
		}
		entries, err := ledger.Entries(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s balance %d\n", *id, balance)
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %-6s %12d  %s  %s\n",
				time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339), e.Direction, e.Amount, e.Key, e.Memo)
		}
		return nil
	default:
		return errUsage
	}
}
