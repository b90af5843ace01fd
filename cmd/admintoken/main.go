// admintoken mints a bearer token carrying the admin role for the
// certificates API. The signing secret comes from --secret or, failing
// that, JWT_SECRET in the environment or a local .env file.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"eventcertificates/internal/adapters/auth"
	"eventcertificates/internal/domain"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		subject string
		secret  string
		expiry  time.Duration
	)
	flagSet := pflag.NewFlagSet("admintoken", pflag.ContinueOnError)
	flagSet.StringVarP(&subject, "subject", "s", "", "token subject, usually the operator's email (required)")
	flagSet.StringVar(&secret, "secret", "", "HS256 signing secret (default: $JWT_SECRET)")
	flagSet.DurationVarP(&expiry, "expiry", "e", 24*time.Hour, "token lifetime")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if subject == "" {
		return errors.New("--subject is required")
	}
	if expiry <= 0 {
		return errors.New("--expiry must be positive")
	}
	if secret == "" {
		_ = godotenv.Load()
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		return errors.New("no signing secret: pass --secret or set JWT_SECRET")
	}

	token, err := auth.NewJWTIssuer(secret).Issue(subject, []string{domain.RoleAdmin}, expiry)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Println(token)
	return nil
}
