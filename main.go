// Command idxadvisor is the CLI entry point: advise recommends hypothetical
// indexes for a workload, load-workload and exec-workload are the
// supporting commands that stage a workload on and measure it against a
// live TiDB instance, mirroring the teacher's own main.go/cmd package.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqltune/idxadvisor/cmd"
)

var rootCmd = &cobra.Command{
	Use:   "idxadvisor",
	Short: "automatic index advisor",
	Long:  `automatic index advisor: recommends a bounded set of secondary indexes for a SQL workload`,
}

func init() {
	rootCmd.AddCommand(cmd.NewAdviseCmd())
	rootCmd.AddCommand(cmd.NewLoadWorkloadCmd())
	rootCmd.AddCommand(cmd.NewExecWorkloadCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
