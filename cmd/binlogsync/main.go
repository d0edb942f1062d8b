// Command binlogsync runs the incremental sync engine between the
// upstream binlog feed and its two downstream stores (MySQL-compatible
// OLTP + ClickHouse), plus the MSS HR-gateway push/reconcile path.
// Grounded on the teacher's cmd/hermodctl's cobra+viper CLI shape
// (persistent --config flag, viper.AutomaticEnv, one file per subcommand
// group), adapted from hermodctl's control-plane-client commands to this
// engine's own run/sync-once/push-once entrypoints.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "binlogsync",
	Short: "binlogsync replicates the upstream binlog feed into OLTP/ClickHouse and pushes MSS HR data",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to config.yaml")
	viper.BindPFlag("configPath", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncOnceCmd)
	rootCmd.AddCommand(pushOnceCmd)
}

func initConfig() {
	viper.SetEnvPrefix("BINLOGSYNC")
	viper.AutomaticEnv()
}
