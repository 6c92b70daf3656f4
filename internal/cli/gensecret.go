package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wichananm65/diabetapp-backend/internal/token"
)

func NewGenSecretCommand() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Print a random hex secret suitable for JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size < token.MinSecretLength {
				return fmt.Errorf("--bytes must be at least %d", token.MinSecretLength)
			}
			secret, err := generateSecret(size)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), secret)
			return err
		},
	}
	cmd.Flags().IntVar(&size, "bytes", token.MinSecretLength, "bytes of entropy")
	return cmd
}

func generateSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
