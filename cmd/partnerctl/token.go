package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/pkg/jwtx"
)

// SecretEnv is consulted when --secret is not given.
const SecretEnv = "PARTNER_SECRET"

type mintOptions struct {
	flow     string
	issuer   string
	subject  string
	audience string
	secret   string
	kid      string
	nonce    string
	scopes   []string
	meta     []string
	ttl      time.Duration
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint or inspect partner tokens",
	}
	cmd.AddCommand(newTokenMintCmd(), newTokenInspectCmd())
	return cmd
}

func newTokenMintCmd() *cobra.Command {
	var opts mintOptions

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Sign a new HS256 token with a partner secret",
		Example: `  partnerctl token mint --iss acme --sub user-42 --meta plan=pro
  partnerctl token mint --flow api --iss acme --sub svc --scope experiences:read`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := mintToken(opts, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.flow, "flow", "embed", "token flow: embed or api")
	f.StringVar(&opts.issuer, "iss", "", "partner id (iss claim)")
	f.StringVar(&opts.subject, "sub", "", "end user or service id (sub claim)")
	f.StringVar(&opts.audience, "aud", "", "audience override (defaults to the flow's audience)")
	f.StringVar(&opts.secret, "secret", "", "partner shared secret (default $"+SecretEnv+")")
	f.StringVar(&opts.kid, "kid", "", "optional kid header")
	f.StringVar(&opts.nonce, "nonce", "", "embed nonce (default: random uuid)")
	f.StringSliceVar(&opts.scopes, "scope", nil, "API scope, repeatable or comma separated")
	f.StringArrayVar(&opts.meta, "meta", nil, "embed meta entry key=value, repeatable; JSON values are kept as JSON")
	f.DurationVar(&opts.ttl, "ttl", 5*time.Minute, "token lifetime")
	_ = cmd.MarkFlagRequired("iss")
	_ = cmd.MarkFlagRequired("sub")

	return cmd
}

func mintToken(opts mintOptions, now time.Time) (string, error) {
	secret := opts.secret
	if secret == "" {
		secret = os.Getenv(SecretEnv)
	}
	if secret == "" {
		return "", fmt.Errorf("a secret is required (--secret or $%s)", SecretEnv)
	}
	if opts.ttl <= 0 {
		return "", errors.New("--ttl must be positive")
	}

	signer, err := jwtx.NewSignerHS256(opts.kid, []byte(secret))
	if err != nil {
		return "", err
	}

	flow, err := domain.ParseFlow(opts.flow)
	if err != nil {
		return "", err
	}

	var claims jwtx.Claims
	switch flow {
	case domain.FlowEmbed:
		aud := opts.audience
		if aud == "" {
			aud = domain.AudienceEmbed
		}
		nonce := opts.nonce
		if nonce == "" {
			nonce = uuid.NewString()
		}
		meta, err := parseMeta(opts.meta)
		if err != nil {
			return "", err
		}
		claims = jwtx.NewEmbedClaims(opts.issuer, opts.subject, aud, nonce, meta, opts.ttl, now)

	case domain.FlowAPI:
		aud := opts.audience
		if aud == "" {
			aud = domain.AudienceAPI
		}
		claims = jwtx.NewAPIClaims(opts.issuer, opts.subject, aud, opts.scopes, opts.ttl, now)
	}

	return signer.Sign(claims)
}

func parseMeta(entries []string) (*jwtx.Meta, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	meta := jwtx.NewMeta()
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q (want key=value)", entry)
		}

		var v any = value
		if json.Valid([]byte(value)) {
			v = json.RawMessage(value)
		}
		if err := meta.Set(key, v); err != nil {
			return nil, fmt.Errorf("meta %q: %w", key, err)
		}
	}
	return meta, nil
}

type inspectOutput struct {
	Header    map[string]string `json:"header"`
	Claims    jwtx.Claims       `json:"claims"`
	Signature string            `json:"signature"`
}

func newTokenInspectCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Decode a token and optionally check its signature",
		Long: "Decodes a compact token without trusting it. With --secret the HS256 signature\n" +
			"is checked too. Time claims, audience and nonce are not evaluated.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := jwtx.Decode(args[0])
			if err != nil {
				return err
			}

			out := inspectOutput{
				Header: map[string]string{
					"alg": tok.Header.Alg,
					"typ": tok.Header.Typ,
					"kid": tok.Header.Kid,
				},
				Claims:    tok.Claims,
				Signature: "unchecked",
			}
			if secret != "" {
				if err := jwtx.VerifyToken(tok, []byte(secret)); err != nil {
					out.Signature = "invalid: " + err.Error()
				} else {
					out.Signature = "valid"
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "partner shared secret to verify the signature")
	return cmd
}
