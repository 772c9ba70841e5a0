// cardctl registers cards and mints or checks QR tokens from the shell,
// against the same database and secret as the card service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	config "github.com/avvvet/idcard-services/configs"
	"github.com/avvvet/idcard-services/internal/cardsvc/db"
	"github.com/avvvet/idcard-services/internal/cardsvc/service"
	"github.com/avvvet/idcard-services/internal/cardsvc/store"
	"github.com/avvvet/idcard-services/internal/cardsvc/token"
)

const usage = `usage: cardctl <command> [flags]

commands:
  register --name NAME          register a card (or return the existing one)
  lookup   --id CARD_ID         show a card
  token    --id CARD_ID [--ttl] mint a QR token for a card
  verify   --token TOKEN        verify a token and print its claims
  feed-token --operator EMAIL [--ttl]
                                mint a live feed access token
`

// deps is what a command needs. Store-backed fields are nil for verify.
type deps struct {
	cards  *service.CardService
	issuer *service.TokenIssuer
	tokens *token.Service
}

// opener builds deps. withStore is false when only the signing secret is
// needed.
type opener func(ctx context.Context, withStore bool) (*deps, func(), error)

func main() {
	config.LoadEnv("cardctl")
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)

	if err := run(context.Background(), os.Args[1:], os.Stdout, openFromEnv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, open opener) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(out, usage)
		return nil
	}

	cmd, rest := args[0], args[1:]
	flagSet := pflag.NewFlagSet("cardctl "+cmd, pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var name, id, raw, operator string
	var ttl time.Duration

	switch cmd {
	case "register":
		flagSet.StringVar(&name, "name", "", "display name to register")
	case "lookup":
		flagSet.StringVar(&id, "id", "", "card id")
	case "token":
		flagSet.StringVar(&id, "id", "", "card id")
		flagSet.DurationVar(&ttl, "ttl", 0, "token lifetime (default from TOKEN_TTL_SECONDS)")
	case "verify":
		flagSet.StringVar(&raw, "token", "", "token to verify")
	case "feed-token":
		flagSet.StringVar(&operator, "operator", "", "operator identity")
		flagSet.DurationVar(&ttl, "ttl", 0, "token lifetime (default 12h)")
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	if err := flagSet.Parse(rest); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("%s: unexpected argument %q", cmd, extra[0])
	}

	d, cleanup, err := open(ctx, cmd != "verify" && cmd != "feed-token")
	if err != nil {
		return err
	}
	defer cleanup()

	switch cmd {
	case "register":
		card, existed, err := d.cards.Register(ctx, name)
		if err != nil {
			return err
		}
		return printJSON(out, struct {
			CardID      string    `json:"card_id"`
			DisplayName string    `json:"display_name"`
			CreatedAt   time.Time `json:"created_at"`
			Existed     bool      `json:"existed"`
		}{card.CardID, card.DisplayName, card.CreatedAt, existed})

	case "lookup":
		card, err := d.cards.Lookup(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, card)

	case "token":
		issued, err := d.issuer.Issue(ctx, id, ttl)
		if err != nil {
			return err
		}
		return printJSON(out, issued)

	case "feed-token":
		raw, exp, err := d.tokens.MintFeedAccess(operator, ttl)
		if err != nil {
			return err
		}
		return printJSON(out, struct {
			Token     string    `json:"token"`
			Operator  string    `json:"operator"`
			ExpiresAt time.Time `json:"expires_at"`
		}{raw, operator, exp})

	default: // verify
		claims, err := d.tokens.Verify(raw)
		if err != nil {
			return err
		}
		return printJSON(out, claims)
	}
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openFromEnv(ctx context.Context, withStore bool) (*deps, func(), error) {
	var settings config.Settings
	var err error
	if withStore {
		settings, err = config.Load()
	} else {
		settings, err = config.LoadFeed()
	}
	if err != nil {
		return nil, nil, err
	}

	tokens, err := token.New(settings.JWTSecret,
		token.WithTTL(settings.TokenTTL),
		token.WithLeeway(settings.TokenLeeway))
	if err != nil {
		return nil, nil, err
	}

	d := &deps{tokens: tokens}
	if !withStore {
		return d, func() {}, nil
	}

	pool, err := db.Connect(ctx, settings.DatabaseURL, 1)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	d.cards = service.NewCardService(store.NewCardStore(pool), nil)
	d.issuer = service.NewTokenIssuer(d.cards, tokens, nil)
	return d, pool.Close, nil
}
