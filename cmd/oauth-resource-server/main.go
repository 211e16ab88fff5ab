package main

import (
	"context"
	"errors"
	goflag "flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"k8s.io/component-base/cli"
	utilflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/logs"

	"github.com/openshift/oauth-resource-server/pkg/cmd/resourceserver"
)

func main() {
	os.Exit(run())
}

// run keeps the deferred log flush and signal cleanup ahead of os.Exit.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pflag.CommandLine.SetNormalizeFunc(utilflag.WordSepNormalizeFunc)
	pflag.CommandLine.AddGoFlagSet(goflag.CommandLine)

	logs.InitLogs()
	defer logs.FlushLogs()

	command, err := NewResourceServerCommand(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	if err := cli.RunNoErrOutput(command); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return resourceserver.ExitCode(err)
	}
	return 0
}

func NewResourceServerCommand(ctx context.Context) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "oauth-resource-server",
		Short: "Authorize users of external OAuth providers by their project permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New("a subcommand is required")
		},
	}

	authURL, err := resourceserver.NewAuthURLCommand(os.Stdout)
	if err != nil {
		return nil, err
	}
	authorize, err := resourceserver.NewAuthorizeCommand(ctx, os.Stdout)
	if err != nil {
		return nil, err
	}

	cmd.AddCommand(authURL, authorize)

	return cmd, nil
}
