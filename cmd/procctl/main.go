package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/automation-dashboard/internal/bootstrap"
	"github.com/kirillkom/automation-dashboard/internal/config"
	"github.com/kirillkom/automation-dashboard/internal/core/domain"
	"github.com/kirillkom/automation-dashboard/internal/core/ports"
	"github.com/kirillkom/automation-dashboard/internal/core/usecase"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/queue/nats"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/resilience"
	"github.com/kirillkom/automation-dashboard/internal/infrastructure/seed"
	"github.com/kirillkom/automation-dashboard/internal/observability/logging"
)

const cliSession = "procctl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd, closeCLI := newRootCmd(config.Load(), os.Stdout)
	err := rootCmd.ExecuteContext(ctx)
	closeCLI()
	if err != nil {
		os.Exit(1)
	}
}

type cli struct {
	cfg config.Config
	out io.Writer

	catalog *usecase.ProcessCatalogUseCase
	view    *usecase.ViewService
	closeFn func()
}

// newRootCmd returns the command tree and a func releasing the backend it opened.
func newRootCmd(cfg config.Config, out io.Writer) (*cobra.Command, func()) {
	c := &cli{cfg: cfg, out: out}

	rootCmd := &cobra.Command{
		Use:          "procctl",
		Short:        "Manage the automation process inventory",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			slog.SetDefault(logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "procctl", c.cfg.LogLevel))
			return c.open(cmd.Context())
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&c.cfg.ProcessStore, "store", cfg.ProcessStore, "backend: postgres or local")
	rootCmd.PersistentFlags().StringVar(&c.cfg.LocalStorePath, "local-path", cfg.LocalStorePath, "local store file")
	rootCmd.PersistentFlags().StringVar(&c.cfg.PostgresDSN, "dsn", cfg.PostgresDSN, "postgres DSN")
	rootCmd.PersistentFlags().BoolVar(&c.cfg.EventsEnabled, "notify", cfg.EventsEnabled, "publish change events so running dashboards reload")

	rootCmd.AddCommand(c.listCmd())
	rootCmd.AddCommand(c.addCmd())
	rootCmd.AddCommand(c.deleteCmd())
	rootCmd.AddCommand(c.clearCmd())
	rootCmd.AddCommand(c.departmentsCmd())
	rootCmd.AddCommand(c.exportCmd())
	rootCmd.AddCommand(c.seedCmd())
	return rootCmd, c.close
}

func (c *cli) open(ctx context.Context) error {
	executor := resilience.NewExecutor(c.cfg.Resilience())
	repo, closeRepo, err := bootstrap.OpenRepository(ctx, c.cfg, executor)
	if err != nil {
		return err
	}

	var notifier ports.ChangeNotifier
	closeEvents := func() {}
	if c.cfg.EventsEnabled {
		retry := false
		queue, err := nats.NewWithOptions(c.cfg.NATSURL, c.cfg.NATSSubject, nats.Options{
			ClientName:           "automation-dashboard-procctl",
			RetryOnFailedConnect: &retry,
			ResilienceExecutor:   executor,
		})
		if err != nil {
			closeRepo()
			return fmt.Errorf("init change events: %w", err)
		}
		notifier = queue
		closeEvents = queue.Close
	}

	store := usecase.NewProcessStore()
	c.catalog = usecase.NewProcessCatalogUseCase(repo, store, notifier, nil, "")
	c.view = usecase.NewViewService(store, nil, usecase.ViewConfig{
		DefaultItemsPerPage: c.cfg.DefaultItemsPerPage,
		ReadyTimeout:        c.cfg.ViewReadyTimeout,
	})
	c.closeFn = func() {
		closeEvents()
		closeRepo()
	}

	if err := c.catalog.Load(ctx); err != nil {
		c.close()
		return err
	}
	return nil
}

func (c *cli) close() {
	if c.closeFn != nil {
		c.closeFn()
		c.closeFn = nil
	}
}

type filterFlags struct {
	search         string
	department     string
	minImpact      float64
	minFeasibility float64
	minAutomation  float64
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "case-insensitive name substring")
	cmd.Flags().StringVar(&f.department, "department", "", "exact department")
	cmd.Flags().Float64Var(&f.minImpact, "min-impact", 0, "minimum impact")
	cmd.Flags().Float64Var(&f.minFeasibility, "min-feasibility", 0, "minimum feasibility")
	cmd.Flags().Float64Var(&f.minAutomation, "min-automation", 0, "minimum automation score")
}

func (f *filterFlags) update() domain.FilterUpdate {
	return domain.FilterUpdate{
		SearchTerm:     &f.search,
		Department:     &f.department,
		MinImpact:      &f.minImpact,
		MinFeasibility: &f.minFeasibility,
		MinAutomation:  &f.minAutomation,
	}
}

func (c *cli) listCmd() *cobra.Command {
	var filters filterFlags
	var page int
	var perPage string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processes through the dashboard filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			size, err := domain.ParsePageSize(perPage)
			if err != nil {
				return err
			}
			if _, err := c.view.SetItemsPerPage(ctx, cliSession, size); err != nil {
				return err
			}
			if _, err := c.view.OnFilterChanged(ctx, cliSession, filters.update()); err != nil {
				return err
			}
			view, err := c.view.SetPage(ctx, cliSession, page)
			if err != nil {
				return err
			}
			return c.printView(view)
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&perPage, "per-page", "50", "items per page or \"all\"")
	return cmd
}

func (c *cli) printView(view *domain.View) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT\tIMPACT\tFEASIBILITY\tSCORE\tHOURS/WEEK")
	for _, p := range view.Page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%g\n", p.ID, p.Name, p.Department, p.Impact, p.Feasibility, p.AutomationScore, p.TimeSpent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	footer := view.Showing
	if view.Page.ShowControls {
		footer += fmt.Sprintf(" (page %d of %d)", view.Page.CurrentPage, view.Page.TotalPages)
	}
	if view.EmptyReason != domain.EmptyReasonNone {
		footer += fmt.Sprintf(" [%s]", view.EmptyReason)
	}
	_, err := fmt.Fprintln(c.out, footer)
	return err
}

func (c *cli) addCmd() *cobra.Command {
	var input domain.NewProcessInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			process, err := c.catalog.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Added %s: %s (%s), score %d\n", process.ID, process.Name, process.Department, process.AutomationScore)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "process name")
	cmd.Flags().StringVar(&input.Department, "department", "", "department, stored verbatim")
	cmd.Flags().IntVar(&input.Impact, "impact", 0, "impact 1-10")
	cmd.Flags().IntVar(&input.Feasibility, "feasibility", 0, "feasibility 1-10")
	cmd.Flags().Float64Var(&input.TimeSpent, "time-spent", 0, "hours per week")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("department")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.catalog.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the inventory without --yes")
			}
			if err := c.catalog.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Cleared all processes")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}

func (c *cli) departmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "departments",
		Short: "Show per-department analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := c.catalog.Departments(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DEPARTMENT\tPROCESSES\tAVG IMPACT\tAVG FEASIBILITY\tAVG SCORE\tHOURS/WEEK")
			for _, s := range stats {
				fmt.Fprintf(tw, "%q\t%d\t%.1f\t%.1f\t%.1f\t%g\n", s.Department, s.Processes, s.AvgImpact, s.AvgFeasibility, s.AvgAutomationScore, s.TotalTimeSpent)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var filters filterFlags
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered processes as XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := c.view.OnFilterChanged(ctx, cliSession, filters.update()); err != nil {
				return err
			}
			processes, err := c.view.Filtered(ctx, cliSession)
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			if err := xlsx.NewExporter().Export(f, processes); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", outPath, err)
			}
			fmt.Fprintf(c.out, "Exported %d processes to %s\n", len(processes), outPath)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "processes.xlsx", "output file")
	return cmd
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file.yaml]",
		Short: "Import processes from a YAML file when the inventory is empty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			created, err := c.catalog.Seed(cmd.Context(), inputs)
			if err != nil {
				return err
			}
			if created == 0 {
				fmt.Fprintln(c.out, "Inventory not empty, nothing seeded")
				return nil
			}
			fmt.Fprintf(c.out, "Seeded %d processes\n", created)
			return nil
		},
	}
}
