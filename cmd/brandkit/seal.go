package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/brandkit/internal/security/secretbox"
)

// newSealCmd cifra un token con la clave configurada y lo imprime en el
// formato que se guarda en metadata.oauth.page_token.
func newSealCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "seal",
		Short: "Cifra un token leído de stdin (una línea)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			box, err := secretbox.New(cfg.Secrets.TokenEncryptionKey)
			if err != nil {
				return fmt.Errorf("INSTAGRAM_TOKEN_ENCRYPTION_KEY: %w", err)
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			token := strings.TrimSpace(line)
			if token == "" {
				if err != nil {
					return fmt.Errorf("leer token: %w", err)
				}
				return errors.New("token vacío")
			}

			sealed, err := box.Encrypt(token)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(sealed, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
