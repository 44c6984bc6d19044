package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uhyunpark/ridematcher/pkg/contracts"
)

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Show the addresses, matcher key and events registered in the factory",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := contracts.LoadFactory(cmd.Context(), newClient(), cfg.FactoryAddress)
		if err != nil {
			return err
		}
		return printJSON(f)
	},
}

var balancesCmd = &cobra.Command{
	Use:   "balances <address>",
	Short: "Show a user's treasury balances and loans",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		f, err := contracts.LoadFactory(cmd.Context(), client, cfg.FactoryAddress)
		if err != nil {
			return err
		}
		if f.TreasuryAddress == "" {
			return fmt.Errorf("factory %s has no treasury", f.Address)
		}
		account, err := contracts.LoadTreasuryAccount(cmd.Context(), client, f.TreasuryAddress, args[0])
		if err != nil {
			return err
		}
		return printJSON(account)
	},
}

var poolCmd = &cobra.Command{
	Use:   "pool <address>",
	Short: "Show a user's liquidity pool shares",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		f, err := contracts.LoadFactory(cmd.Context(), client, cfg.FactoryAddress)
		if err != nil {
			return err
		}
		if f.PoolAddress == "" {
			return fmt.Errorf("factory %s has no pool", f.Address)
		}
		shares, err := contracts.LoadPoolShares(cmd.Context(), client, f.PoolAddress, args[0])
		if err != nil {
			return err
		}
		return printJSON(shares)
	},
}
