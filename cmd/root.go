package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/maximthomas/gortas-session/pkg/config"
	"github.com/maximthomas/gortas-session/pkg/server"
	"github.com/maximthomas/gortas-session/pkg/session"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	storeHost   string
	storePort   int
	bootSession string

	rootCmd = &cobra.Command{
		Use:   "gortas",
		Short: "Gortas is a golang session service backed by a key-value store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitConfig(); err != nil {
				return err
			}
			return server.RunServer()
		},
	}

	bootstrapCmd = &cobra.Command{
		Use:   "bootstrap",
		Short: "Connect to the key-value store, configure the redis session handler and start a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := session.Target{Host: storeHost, Port: storePort}
			ss, sess, err := session.Bootstrap(context.Background(), target, bootSession)
			if err != nil {
				return err
			}
			defer session.Shutdown()
			fmt.Fprintf(cmd.OutOrStdout(), "save_handler=%s save_path=%s\n", ss.Handler(), ss.Config().SavePath)
			fmt.Fprintln(cmd.OutOrStdout(), sess.ID)
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Shown version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "0.1.0")
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		er(err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/session-config.yaml)")
	bootstrapCmd.Flags().StringVar(&storeHost, "host", session.DefaultTarget.Host, "key-value store host")
	bootstrapCmd.Flags().IntVar(&storePort, "port", session.DefaultTarget.Port, "key-value store port")
	bootstrapCmd.Flags().StringVar(&bootSession, "session", "", "id of the session to resume")
	rootCmd.AddCommand(versionCmd, bootstrapCmd)
}

func er(msg interface{}) {
	fmt.Println("Error:", msg)
	os.Exit(1)
}

// initConfig wires the config file and environment into viper, a missing
// config file is fine as every key has a default
func initConfig() error {
	config.SetDefaults(viper.GetViper())
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(home)
		viper.SetConfigName("session-config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return err
		}
	} else {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
	return nil
}
