package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"finsight/internal/cli"
	"finsight/internal/config"
	"finsight/internal/log"
)

var (
	cfgFile string
	version = "dev"
	v       = viper.New()
	rootCmd = &cobra.Command{
		Use:   "finsight",
		Short: "Receipt scanning and spending insights",
		Long: `finsight turns photos of grocery receipts into categorized line items,
tracks spending against a monthly budget and asks a language model for
savings advice.

Run "finsight serve" for the web dashboard or "finsight scan" for a single
receipt in the terminal.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./finsight.yaml or $HOME/.config/finsight/finsight.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	return cli.ReadConfigFile(v, cfgFile)
}

// bootstrap validates the configuration and installs the logger. Commands
// that talk to providers call it first.
func bootstrap(logOutput io.Writer) (*config.Config, *log.Logger, error) {
	cfg, err := cli.LoadAndValidateConfig(v)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.SetupLogger(cfg, logOutput)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "finsight "+version)
		},
	}
}
