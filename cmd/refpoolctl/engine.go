package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"refpool/config"
	"refpool/crypto"
	"refpool/native/referral"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func printYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func delegateCmd() *cobra.Command {
	var (
		program string
		seed    string
	)
	cmd := &cobra.Command{
		Use:   "delegate",
		Short: "Derive the custody delegate for the engine program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var programID solana.PublicKey
			if program != "" {
				key, err := crypto.ParseAddress(program)
				if err != nil {
					return err
				}
				programID = key
			} else {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				engineCfg, err := cfg.Referral()
				if err != nil {
					return err
				}
				programID = engineCfg.ProgramID
				if seed == "" {
					seed = engineCfg.DelegateSeed
				}
			}
			if seed == "" {
				seed = referral.DefaultDelegateSeed
			}
			delegate, err := referral.DeriveDelegate(programID, seed)
			if err != nil {
				return err
			}
			return printYAML(cmd, map[string]any{
				"program": programID.String(),
				"seed":    seed,
				"address": delegate.Address.String(),
				"bump":    delegate.Bump,
			})
		},
	}
	cmd.Flags().StringVar(&program, "program", "", "Engine program id (defaults to the configured one)")
	cmd.Flags().StringVar(&seed, "seed", "", "Delegate seed (defaults to the configured one)")
	return cmd
}

func encodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode engine instruction data as hex",
	}
	emit := func(cmd *cobra.Command, c referral.Command) {
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(c.Pack()))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "initialize",
		Short: "Encode an Initialize instruction",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			emit(cmd, referral.Initialize{})
		},
	})

	var referrer string
	register := &cobra.Command{
		Use:   "register",
		Short: "Encode a Register instruction",
		Long: "Encode a Register instruction. Without --referrer the referrer is inferred from the " +
			"accounts passed with the instruction; --referrer none encodes an explicit absent referrer.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("referrer") {
				emit(cmd, referral.Register{})
				return nil
			}
			if strings.EqualFold(referrer, "none") {
				emit(cmd, referral.Register{Referrer: referral.NoReferrer(), Explicit: true})
				return nil
			}
			key, err := crypto.ParseAddress(referrer)
			if err != nil {
				return err
			}
			emit(cmd, referral.Register{Referrer: referral.ReferrerOf(key), Explicit: true})
			return nil
		},
	}
	register.Flags().StringVar(&referrer, "referrer", "", "Referrer participant address, or none")
	cmd.AddCommand(register)

	cmd.AddCommand(&cobra.Command{
		Use:   "distribute <amount>",
		Short: "Encode a DistributeReward instruction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			emit(cmd, referral.DistributeReward{Amount: amount})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "claim",
		Short: "Encode a Claim instruction",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			emit(cmd, referral.Claim{})
		},
	})
	return cmd
}

func decodeCmd() *cobra.Command {
	var record string
	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode engine instruction data or a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
			if err != nil {
				return fmt.Errorf("invalid hex: %w", err)
			}
			switch strings.ToLower(record) {
			case "":
				out, err := describeCommand(data)
				if err != nil {
					return err
				}
				return printYAML(cmd, out)
			case "pool":
				pool, err := referral.UnpackPool(data)
				if err != nil {
					return err
				}
				return printYAML(cmd, map[string]any{
					"initialized":   pool.Initialized,
					"administrator": pool.Administrator.String(),
					"custody":       pool.CustodyAccount.String(),
				})
			case "participant":
				participant, err := referral.UnpackParticipant(data)
				if err != nil {
					return err
				}
				return printYAML(cmd, map[string]any{
					"initialized":   participant.Initialized,
					"owner":         participant.Owner.String(),
					"rewardBalance": participant.RewardBalance,
					"referrer":      participant.Referrer.String(),
				})
			default:
				return fmt.Errorf("unknown record kind %q (want pool or participant)", record)
			}
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "Decode a stored record instead: pool or participant")
	return cmd
}

func describeCommand(data []byte) (map[string]any, error) {
	command, err := referral.DecodeCommand(data)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"command": command.Tag().String()}
	switch c := command.(type) {
	case referral.Register:
		if c.Explicit {
			out["referrer"] = c.Referrer.String()
		} else {
			out["referrer"] = "inferred"
		}
	case referral.DistributeReward:
		out["amount"] = c.Amount
	}
	return out, nil
}
