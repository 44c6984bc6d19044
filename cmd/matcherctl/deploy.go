package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uhyunpark/ridematcher/params"
	"github.com/uhyunpark/ridematcher/pkg/deploy"
)

var (
	deployOnly     []string
	deployUnsigned bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Compare compiled contract sources with the deployed scripts",
	Long: "Compile every contract source on the node and compare it with the script on its account. " +
		"With --unsigned, print the SetScript body of every outdated contract for the account wallet to sign; " +
		"the sender key is read from <NAME>_PUBLIC_KEY.",
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := selectContracts(cfg.Contracts, deployOnly)
		if err != nil {
			return err
		}
		planner := deploy.NewPlanner(newClient(), cfg.Node.ChainID, sugarLog.Named("deploy"))
		statuses := planner.Plan(cmd.Context(), targets)

		var unsigned []map[string]any
		failed := 0
		for _, st := range statuses {
			fmt.Println(st)
			switch st.State {
			case deploy.StateFailed:
				failed++
			case deploy.StateOutdated:
				if deployUnsigned {
					tx, err := planner.UnsignedSetScript(st)
					if err != nil {
						return err
					}
					unsigned = append(unsigned, tx)
				}
			}
		}
		if len(unsigned) > 0 {
			if err := printJSON(unsigned); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d contracts failed", failed, len(statuses))
		}
		return nil
	},
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast <file>",
	Short: "Broadcast pre-signed transactions from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planner := deploy.NewPlanner(newClient(), cfg.Node.ChainID, sugarLog.Named("deploy"))
		results, err := planner.BroadcastFile(cmd.Context(), args[0])
		for _, res := range results {
			fmt.Printf("Broadcast: %s (type %d)\n", res.ID, res.Type)
		}
		return err
	},
}

// selectContracts keeps the named targets, all of them when names is empty.
func selectContracts(all []params.Contract, names []string) ([]params.Contract, error) {
	if len(names) == 0 {
		return all, nil
	}
	out := make([]params.Contract, 0, len(names))
	for _, name := range names {
		found := false
		for _, c := range all {
			if c.Name == name {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown contract %q (known: %s)", name, strings.Join(params.ContractNames, ", "))
		}
	}
	return out, nil
}

func init() {
	deployCmd.Flags().StringSliceVar(&deployOnly, "only", nil, "check only these contracts")
	deployCmd.Flags().BoolVar(&deployUnsigned, "unsigned", false, "print unsigned SetScript transactions for outdated contracts")
}
