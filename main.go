package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sepehrmoghiseh/musifyyy/bot/app"
	"github.com/spf13/cobra"
)

var (
	versionName = ""
	commitSHA   = ""
	buildTime   = ""
)

func buildInfo() app.BuildInfo {
	return app.BuildInfo{
		RuntimeVer: runtime.Version(),
		BinVersion: versionName,
		CommitSHA:  commitSHA,
		BuildTime:  buildTime,
		BuildArch:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "musifyyy",
		Short:         "Telegram bot that finds music on SoundCloud and YouTube",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "config.ini", "config file path")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildInfo().String())
		},
	})
	return root
}

func run(ctx context.Context, configPath string) error {
	application, err := app.New(ctx, configPath, buildInfo())
	if err != nil {
		return err
	}
	if err := application.Start(ctx); err != nil {
		_ = application.Shutdown(context.Background())
		return err
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return application.Shutdown(shutdownCtx)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "musifyyy:", err)
		os.Exit(1)
	}
}
