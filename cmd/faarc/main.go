package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"faarc/internal/app"
	"faarc/internal/archive"
	"faarc/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "faarc",
	Short: "Archive an artist's gallery for offline keeping",
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive ARTIST DIR",
	Short: "Download an artist's full archive into a directory",
	Long: "Download an artist's gallery, scraps and journals into DIR. " +
		"The run is resumable: interrupt it with Ctrl-C and a later run picks " +
		"up where it left off. Login cookies are read from " +
		app.EnvCookieA + " and " + app.EnvCookieB + " or prompted for.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp()
		if err != nil {
			return err
		}
		defer a.Close()

		cancel := archive.NewCancelFlag()
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			<-sigCh
			fmt.Fprintln(os.Stderr, "Cancelling at the next opportunity, this may take a request or two...")
			cancel.Set()
		}()

		outcome, err := a.Archive(args[0], args[1], cancel)
		if err != nil {
			return err
		}
		if outcome == archive.OutcomeStopped {
			fmt.Println("Stopped. The next run will pick up at this point again.")
			return nil
		}
		fmt.Println("Archive complete. Split it into chunks before importing it elsewhere.")
		return nil
	},
}

// chunk command
var chunkCmd = &cobra.Command{
	Use:   "chunk DIR SIZE",
	Short: "Split a completed archive into fixed-size import batches",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid chunk size %q, must be a whole number", args[1])
		}

		a, err := app.NewApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Chunk(args[0], size); err != nil {
			return err
		}
		fmt.Println("Done splitting the archive, you can start importing the chunks now.")
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status DIR",
	Short: "Show the archive state of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Status(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Artist:    %s\n", st.Artist)
		for _, c := range archive.Categories() {
			state := "pending"
			if st.Collected[c] {
				state = "collected"
			}
			fmt.Printf("%-10s %s\n", string(c)+":", state)
		}
		fmt.Printf("Elements:  %d total, %d left to download\n", st.Total, st.Open)
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["log_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.LoadOrDefault(defaults["config_path"], defaults["log_dir"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base URL:   %s\n", cfg.BaseURL)
		fmt.Printf("User Agent: %s\n", cfg.UserAgent)
		fmt.Printf("Min Delay:  %ds\n", cfg.MinDelaySeconds)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}
