package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dbsmoke/internal/app"
	errs "dbsmoke/internal/errors"
	"dbsmoke/internal/parser"
	"dbsmoke/internal/scenario"
)

// version is set at build time via ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "dbsmoke",
	Short:   "dbsmoke - Smoke-test harness for MySQL-compatible container images",
	Version: version,
	Long: `dbsmoke runs a suite of behavioral smoke tests against a MySQL-compatible
database container image: it starts fresh containers under different
initialization settings and asserts what the image actually does.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the smoke suite against the configured image",
	Long: `Run executes the smoke scenarios from the suite file: each scenario starts
a fresh container, waits for the database to come up, asserts its behavior,
and tears the container down again.

Without --file the suite is discovered as dbsmoke.yaml or dbsmoke.yml in the
current directory. Scenarios that passed in an interrupted run are skipped
when the run is repeated.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		only, _ := cmd.Flags().GetStringArray("scenario")
		retainState, _ := cmd.Flags().GetBool("retain-state")

		suitePath, err := parser.Resolve(file)
		if err != nil {
			errs.HandleError(errs.NewSuiteError(
				"Failed to locate suite file",
				err.Error(),
				"Create a dbsmoke.yaml file in the current directory or pass --file",
				err,
			))
			os.Exit(1)
		}

		// Execute the complete suite via the app orchestrator
		if err := app.Run(suitePath, only, retainState); err != nil {
			errs.HandleError(err)
			os.Exit(1)
		}
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in scenarios",
	Long: `List prints every built-in scenario with a short description of the
behavior it asserts, in the order the run command executes them.`,
	Run: func(cmd *cobra.Command, args []string) {
		for _, sc := range scenario.Builtins() {
			fmt.Printf("%-24s %s\n", sc.Name, sc.Description)
		}
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove leftovers of an interrupted run",
	Long: `Cleanup force-removes the suite's container if it is still around and
deletes the workspace directory and the run state file. It is safe to call
when there is nothing to clean up.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")

		suitePath, err := parser.Resolve(file)
		if err != nil {
			errs.HandleError(errs.NewSuiteError(
				"Failed to locate suite file",
				err.Error(),
				"Create a dbsmoke.yaml file in the current directory or pass --file",
				err,
			))
			os.Exit(1)
		}

		if err := app.Cleanup(suitePath); err != nil {
			errs.HandleError(err)
			os.Exit(1)
		}
	},
}

func init() {
	runCmd.Flags().StringP("file", "f", "", "Path to the suite YAML file (discovered in the current directory when omitted)")
	runCmd.Flags().StringArray("scenario", nil, "Run only the named scenario (repeatable); bypasses run state")
	runCmd.Flags().Bool("retain-state", false, "Keep the state file after successful completion for auditing purposes")
	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(listCmd)

	cleanupCmd.Flags().StringP("file", "f", "", "Path to the suite YAML file (discovered in the current directory when omitted)")
	rootCmd.AddCommand(cleanupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
