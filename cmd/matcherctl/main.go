// Command matcherctl is the operator tool of the matcher: it encodes orders
// and withdraw approvals offline, inspects contract state, runs evaluate
// test suites and checks deployed scripts.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uhyunpark/ridematcher/params"
	"github.com/uhyunpark/ridematcher/pkg/node"
	"github.com/uhyunpark/ridematcher/pkg/util"
)

var (
	envFile  string
	nodeURL  string
	chainID  string
	factory  string
	verbose  bool
	cfg      params.Config
	sugarLog *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:           "matcherctl",
	Short:         "Matcher operator tool",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = params.LoadFromEnv(envFile)
		if nodeURL != "" {
			cfg.Node.URL = nodeURL
		}
		if chainID != "" {
			if len(chainID) != 1 {
				return fmt.Errorf("--chain must be a single character, got %q", chainID)
			}
			cfg.Node.ChainID = chainID[0]
		}
		if factory != "" {
			cfg.FactoryAddress = factory
		}

		sugarLog = zap.NewNop().Sugar()
		if verbose {
			logger, err := util.NewLogger()
			if err != nil {
				return err
			}
			sugarLog = logger.Sugar()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file (default .env in the working directory)")
	rootCmd.PersistentFlags().StringVar(&nodeURL, "node", "", "node REST URL (overrides NODE_URL)")
	rootCmd.PersistentFlags().StringVar(&chainID, "chain", "", "chain id character (overrides CHAIN_ID)")
	rootCmd.PersistentFlags().StringVar(&factory, "factory", "", "factory dApp address (overrides FACTORY_ADDRESS)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log node requests and progress")

	rootCmd.AddCommand(encodeCmd, withdrawCmd, contractsCmd, balancesCmd, poolCmd, evaltestCmd, deployCmd, broadcastCmd)
}

func newClient() *node.Client {
	return node.New(cfg.Node.URL,
		node.WithTimeout(cfg.Node.Timeout),
		node.WithRetries(cfg.Node.Retries),
		node.WithLogger(sugarLog.Named("node")))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
