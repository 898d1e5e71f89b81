package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/dialogue"
	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/hostbridge"
	"github.com/spf13/cobra"
)

var (
	configFlag string
	worldFlag  string
	colorFlag  bool
	widthFlag  int
	writeFlag  string

	cfg configs.Config
)

var rootCmd = &cobra.Command{
	Use:           "echoesd",
	Short:         "echoesd - conversation engine for villagers",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := configs.Load(configFlag, !cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		cfg = loaded
		echolog.Setup(cfg.Logging.Options())
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the websocket bridge a game host connects to",
	RunE:  runServe,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Talk to villagers in a terminal sandbox world",
	RunE:  runPlay,
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Load, validate and print the effective config",
	RunE:  runCheckConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", configs.DefaultConfigFile, "Config file (yaml)")

	playCmd.Flags().StringVarP(&worldFlag, "world", "w", "world.yaml", "Sandbox world file (yaml or json)")
	playCmd.Flags().BoolVar(&colorFlag, "color", true, "Colour output")
	playCmd.Flags().IntVar(&widthFlag, "width", 78, "Wrap width")

	checkConfigCmd.Flags().StringVar(&writeFlag, "write", "", "Also write the effective config to this directory")

	rootCmd.AddCommand(serveCmd, playCmd, checkConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	client := dialogue.NewClient(cfg.DialogueService, int(cfg.Conversations.MaxOptions))
	defer client.Wait()

	return hostbridge.NewServer(ctx, cfg, client).ListenAndServe()
}
