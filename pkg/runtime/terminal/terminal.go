package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/services/refresh"
	"github.com/spf13/cobra"
)

// Reader reads cached documents.
type Reader interface {
	GetDashboard(ctx context.Context, projectID string) (*domain.DashboardDocument, error)
}

// Runtime is what the commands operate on once the configuration is loaded.
type Runtime struct {
	Controller refresh.Controller
	Store      Reader
	Sources    []string
	Close      func() error
}

// Opener loads the configuration at configPath and builds a Runtime from it.
type Opener func(ctx context.Context, configPath string) (*Runtime, error)

// CLI represents the command-line interface
type CLI struct {
	open    Opener
	output  io.Writer
	rootCmd *cobra.Command

	configPath string
	asJSON     bool
}

// Options contain configuration for the CLI
type Options struct {
	Open   Opener
	Output io.Writer
}

func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		open:   opts.Open,
		output: opts.Output,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "posture",
		Short:         "Security posture dashboards for an organization's projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(cli.output)
	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "path to the configuration file")
	cmd.PersistentFlags().BoolVar(&cli.asJSON, "json", false, "print results as JSON")

	cmd.AddCommand(cli.newProjectsCmd())
	cmd.AddCommand(cli.newRefreshCmd())
	cmd.AddCommand(cli.newShowCmd())
	cmd.AddCommand(cli.newSourcesCmd())

	return cmd
}

// withRuntime opens the runtime for the duration of fn.
func (cli *CLI) withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *Runtime, reporter Reporter) error) error {
	if cli.open == nil {
		return fmt.Errorf("no runtime configured")
	}
	ctx := cmd.Context()
	rt, err := cli.open(ctx, cli.configPath)
	if err != nil {
		return err
	}
	if rt.Close != nil {
		defer rt.Close()
	}
	return fn(ctx, rt, newReporter(cli.output, cli.asJSON))
}

func (cli *CLI) newProjectsCmd() *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the organization's projects, walking the folder hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.withRuntime(cmd, func(ctx context.Context, rt *Runtime, reporter Reporter) error {
				projects, err := rt.Controller.ResolveProjects(ctx, domain.ProjectFilter{FolderName: folder})
				if err != nil {
					return err
				}
				return reporter.Projects(projects)
			})
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "only list projects under the folder with this display name")
	return cmd
}

func (cli *CLI) newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh cached dashboards",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "project <project-id>",
		Short: "Refresh the dashboard of one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withRuntime(cmd, func(ctx context.Context, rt *Runtime, reporter Reporter) error {
				doc, err := rt.Controller.RefreshProject(ctx, args[0])
				if err != nil {
					return err
				}
				return reporter.Dashboard(doc)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "org",
		Short: "Refresh the dashboards of every project in the organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.withRuntime(cmd, func(ctx context.Context, rt *Runtime, reporter Reporter) error {
				outcome, err := rt.Controller.RefreshOrganization(ctx)
				if err != nil {
					return err
				}
				if err := reporter.Outcome(outcome); err != nil {
					return err
				}
				if len(outcome.Failed) > 0 {
					return fmt.Errorf("%d of %d project(s) failed to refresh",
						len(outcome.Failed), len(outcome.Failed)+len(outcome.Succeeded))
				}
				return nil
			})
		},
	})
	return cmd
}

func (cli *CLI) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Print the cached dashboard of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withRuntime(cmd, func(ctx context.Context, rt *Runtime, reporter Reporter) error {
				doc, err := rt.Store.GetDashboard(ctx, args[0])
				if err != nil {
					return err
				}
				return reporter.Dashboard(doc)
			})
		},
	}
}

func (cli *CLI) newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured control sources in refresh order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.withRuntime(cmd, func(_ context.Context, rt *Runtime, reporter Reporter) error {
				return reporter.Sources(rt.Sources)
			})
		},
	}
}
