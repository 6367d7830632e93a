// Command regledger manages a verifiable registration ledger: append
// chained attestations, verify the chain, register members, and submit
// gated governance proposals. `regledger signerd` runs the external
// signing backend as a small daemon.
package main

import (
	"fmt"
	"os"

	"github.com/mit-pdos/regledger/canonical"
	"github.com/mit-pdos/regledger/registrar"
	"github.com/mit-pdos/regledger/signsvc"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagDataDir      string
	flagVerbose      bool
	flagSignerAddr   string
	flagSignerKeyset string
)

func main() {
	root := &cobra.Command{
		Use:           "regledger",
		Short:         "append-only, cryptographically verifiable registration ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagDataDir, "data-dir", "./public_reg", "ledger data directory")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&flagSignerAddr, "signer-addr", "", "address of a remote signing backend")
	root.PersistentFlags().StringVar(&flagSignerKeyset, "signer-keyset", "", "path to a local signing keyset")

	root.AddCommand(
		keygenCmd(),
		signerdCmd(),
		appendCmd(),
		verifyChainCmd(),
		registerMemberCmd(),
		verifyIdentityCmd(),
		listMembersCmd(),
		submitProposalCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// newBackend picks the signing backend from flags: remote daemon,
// local keyset file, or verify-only.
func newBackend() (signsvc.Backend, error) {
	if flagSignerAddr != "" {
		return signsvc.DialRemote(flagSignerAddr, signsvc.DefaultTimeout)
	}
	if flagSignerKeyset != "" {
		return signsvc.LoadLocal(flagSignerKeyset)
	}
	return signsvc.Offline{}, nil
}

func newRegistrar(log zerolog.Logger) (*registrar.Registrar, error) {
	backend, err := newBackend()
	if err != nil {
		return nil, err
	}
	return registrar.NewRegistrar(flagDataDir, backend, log)
}

func readRecord(path string) (canonical.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return canonical.Decode(b)
}

func keygenCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "generate a fresh signing identity keyset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := signsvc.WriteKeyset(out); err != nil {
				return err
			}
			backend, err := signsvc.LoadLocal(out)
			if err != nil {
				return err
			}
			fmt.Println(backend.Fingerprint())
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "identity.keyset", "keyset output path")
	return cmd
}

func signerdCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "signerd",
		Short: "run the signing backend daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagSignerKeyset == "" {
				return fmt.Errorf("signerd needs --signer-keyset")
			}
			log := newLogger()
			backend, err := signsvc.LoadLocal(flagSignerKeyset)
			if err != nil {
				return err
			}
			if _, err := signsvc.NewServer(backend, log).Serve(addr); err != nil {
				return err
			}
			select {}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7340", "listen address")
	return cmd
}

func appendCmd() *cobra.Command {
	var proofName, payloadFile string
	var attach bool
	cmd := &cobra.Command{
		Use:   "append",
		Short: "append a proof payload to the chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			reg, err := newRegistrar(log)
			if err != nil {
				return err
			}
			payload, err := readRecord(payloadFile)
			if err != nil {
				return err
			}
			entry, err := reg.Ledger().Append(payload, proofName)
			if err != nil {
				return err
			}
			if attach {
				backend, err := newBackend()
				if err != nil {
					return err
				}
				if entry, err = reg.Ledger().AttachIdentitySignature(entry, backend); err != nil {
					return err
				}
			}
			fmt.Println(entry.ChainHash)
			return nil
		},
	}
	cmd.Flags().StringVar(&proofName, "proof-name", "", "human label for the entry")
	cmd.Flags().StringVar(&payloadFile, "payload", "", "JSON payload file")
	cmd.Flags().BoolVar(&attach, "attach-identity", false, "also attach the identity signature")
	cmd.MarkFlagRequired("payload")
	return cmd
}

func verifyChainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-chain",
		Short: "replay the chain and re-derive every link",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			reg, err := newRegistrar(log)
			if err != nil {
				return err
			}
			if err := reg.Ledger().VerifyChain(); err != nil {
				return err
			}
			entries, err := reg.Ledger().Load()
			if err != nil {
				return err
			}
			fmt.Printf("chain intact: %d entries\n", len(entries))
			return nil
		},
	}
}

func registerMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register-member <entry.json>",
		Short: "register a member from a signed registration entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			reg, err := newRegistrar(log)
			if err != nil {
				return err
			}
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			entry, err := registrar.DecodeEntry(b)
			if err != nil {
				return err
			}
			if entry.IdentityFingerprint == "" {
				return fmt.Errorf("entry has no identity fingerprint")
			}
			if err := reg.RegisterMember(entry, entry.IdentityFingerprint); err != nil {
				return err
			}
			fmt.Println("registered", entry.IdentityFingerprint)
			return nil
		},
	}
}

func verifyIdentityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-identity <fingerprint>",
		Short: "verify a registered identity by fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			reg, err := newRegistrar(log)
			if err != nil {
				return err
			}
			if !reg.VerifyIdentity(args[0]) {
				return fmt.Errorf("identity %s not verified", args[0])
			}
			fmt.Println("verified")
			return nil
		},
	}
}

func listMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-members",
		Short: "list registered members and their verification status",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			reg, err := newRegistrar(log)
			if err != nil {
				return err
			}
			members, err := reg.ListMembers()
			if err != nil {
				return err
			}
			verified := 0
			for _, m := range members {
				mark := "x"
				if m.Verified {
					mark = "ok"
					verified++
				}
				fmt.Printf("[%s] %s %s\n", mark, m.ProofName, m.Fingerprint)
			}
			fmt.Printf("%d verified of %d\n", verified, len(members))
			return nil
		},
	}
}

func submitProposalCmd() *cobra.Command {
	var file, fp string
	cmd := &cobra.Command{
		Use:   "submit-proposal",
		Short: "submit a governance proposal (requires verified identity)",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			reg, err := newRegistrar(log)
			if err != nil {
				return err
			}
			content, err := readRecord(file)
			if err != nil {
				return err
			}
			p, err := reg.SubmitProposal(content, fp)
			if err != nil {
				return err
			}
			fmt.Println(p.ProposalID)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON proposal file")
	cmd.Flags().StringVar(&fp, "fingerprint", "", "submitter fingerprint")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("fingerprint")
	return cmd
}
