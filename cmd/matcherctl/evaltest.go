package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/uhyunpark/ridematcher/pkg/contracts"
	"github.com/uhyunpark/ridematcher/pkg/harness"
)

var (
	evalDApp string
	evalJSON bool
)

var errTestsFailed = errors.New("some tests failed")

var evaltestCmd = &cobra.Command{
	Use:   "evaltest <case-file|dir>...",
	Short: "Evaluate invoke cases against dApps without broadcasting",
	Long: "Render each YAML case file with the dApp's current state, evaluate every case on the node " +
		"and compare the state changes or error. Exits non-zero when any case fails.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := caseFiles(args)
		if err != nil {
			return err
		}
		client := newClient()

		data := harness.TemplateData{DApp: evalDApp}
		if evalDApp != "" {
			state, err := contracts.LoadState(cmd.Context(), client, evalDApp)
			if err != nil {
				return fmt.Errorf("load %s state: %w", evalDApp, err)
			}
			data.State = state.AsMap()
		}

		var cases []harness.Case
		for _, f := range files {
			suite, err := harness.LoadSuite(f, data)
			if err != nil {
				return err
			}
			cases = append(cases, suite.Cases...)
		}

		runner := harness.NewRunner(client, cfg.Harness.MaxConcurrent, cfg.Harness.MinInterval, sugarLog.Named("harness"))
		report, err := runner.Run(cmd.Context(), cases)
		if err != nil {
			return err
		}

		if evalJSON {
			if err := printJSON(report); err != nil {
				return err
			}
		} else {
			for _, r := range report.Results {
				if r.Passed {
					fmt.Printf("PASS %s: %s\n", r.Name, r.Description)
				} else {
					fmt.Printf("FAIL %s: %s\n     %s\n", r.Name, r.Description, r.Message)
				}
			}
			fmt.Println(report.Summary())
		}
		if !report.OK() {
			return errTestsFailed
		}
		return nil
	},
}

// caseFiles expands directories to their *.yaml and *.yml files.
func caseFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		matches, err := filepath.Glob(filepath.Join(arg, "*.y*ml"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			out = append(out, arg)
			continue
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

func init() {
	evaltestCmd.Flags().StringVar(&evalDApp, "dapp", "", "default dApp address; its state is available to templates")
	evaltestCmd.Flags().BoolVar(&evalJSON, "json", false, "print the report as JSON")
}
