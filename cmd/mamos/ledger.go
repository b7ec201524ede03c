package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mamos/internal/ledger"
	"mamos/internal/security"
)

func newLedgerCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and verify the report ledger",
	}

	var path string
	cmd.PersistentFlags().StringVar(&path, "path", "", "ledger file (default $MAMOS_LEDGER_PATH)")

	open := func(cmd *cobra.Command) (*ledger.Ledger, error) {
		if path == "" {
			s, err := g.settings(cmd.Context())
			if err != nil {
				return nil, err
			}
			path = s.Ledger.Path
		}
		if path == "" {
			return nil, errors.New("no ledger configured: set MAMOS_LEDGER_PATH or --path")
		}
		return ledger.Open(path)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "inspect",
			Short: "List ledger entries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				l, err := open(cmd)
				if err != nil {
					return err
				}
				for _, e := range l.Entries() {
					fmt.Fprintf(cmd.OutOrStdout(), "Index=%d Run=%s Kind=%s Project=%s Report=%s Hash=%.16s\n",
						e.Index, e.RunID, e.Kind, e.Project, e.ReportPath, e.Hash)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Verify the hash chain, signatures and report contents",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				l, err := open(cmd)
				if err != nil {
					return err
				}
				if err := l.VerifyChain(); err != nil {
					return fmt.Errorf("ledger verification failed: %w", err)
				}
				if err := l.VerifyReports(); err != nil {
					return fmt.Errorf("report verification failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ledger verification OK (%d entries)\n", len(l.Entries()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "keygen <dir>",
			Short: "Create the ledger signing keys if they do not exist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pub, _, created, err := security.EnsureKeyPair(args[0])
				if err != nil {
					return err
				}
				state := "existing"
				if created {
					state = "generated"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Using %s key pair in %s (public key %s)\n", state, args[0], security.EncodePublicKey(pub))
				return nil
			},
		},
	)
	return cmd
}
