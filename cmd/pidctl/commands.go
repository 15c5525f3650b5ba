package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pidstore/internal/app"
	"pidstore/internal/pid/provider"
	"pidstore/internal/pid/service"
	"pidstore/internal/platform/config"
	"pidstore/internal/platform/logger"
	"pidstore/pkg/domain"
	"pidstore/pkg/platform/secrets"
)

// cli carries the state shared by every subcommand.
type cli struct {
	v          *viper.Viper
	out        io.Writer
	configPath string
	format     string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{v: config.NewViper(), out: out}

	root := &cobra.Command{
		Use:           "pidctl",
		Short:         "Manage Crossref DOIs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVarP(&c.format, "output", "o", "yaml", "output format (yaml or json)")
	flags.String("crossref-url", "", "override the registration service URL")
	flags.Bool("test-mode", false, "use the registration service sandbox")
	flags.String("log-level", "warn", "log level")
	mustBind(c.v, "crossref.url", root, "crossref-url")
	mustBind(c.v, "crossref.test_mode", root, "test-mode")
	mustBind(c.v, "log.level", root, "log-level")

	root.AddCommand(
		c.statusCmd(),
		c.getCmd(),
		c.createCmd(),
		c.depositCmd("register", "Deposit metadata and mint a DOI"),
		c.depositCmd("update", "Redeposit metadata; reactivates a deleted DOI"),
		c.deleteCmd(),
		c.syncCmd(),
		c.adminTokenCmd(),
	)
	return root
}

func mustBind(v *viper.Viper, key string, cmd *cobra.Command, flag string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

func (c *cli) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.v, c.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.NewWithWriter(os.Stderr, cfg.Log.Level, "text"), nil
}

// withService assembles the service for one command and releases it after.
func (c *cli) withService(ctx context.Context, fn func(*service.Service) (any, error)) error {
	cfg, log, err := c.load()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, log, app.WithRegisterer(prometheus.NewRegistry()), app.WithInlineAudit())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	v, err := fn(a.Service)
	if err != nil {
		return err
	}
	return render(c.out, c.format, v)
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <doi>",
		Short: "Probe the registration service and print the inferred status",
		Long: `Probe the registration service for a DOI without touching the local
store. The DOI endpoint is asked first, then the metadata endpoint.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doi, err := domain.ParseDOI(args[0])
			if err != nil {
				return err
			}
			cfg, log, err := c.load()
			if err != nil {
				return err
			}
			pid, err := provider.NewPID(doi.String(), time.Now())
			if err != nil {
				return err
			}
			p, err := provider.New(pid, app.CrossrefConfig(cfg.Crossref), provider.WithLogger(log))
			if err != nil {
				return err
			}
			if _, err := p.SyncStatus(cmd.Context()); err != nil {
				return err
			}
			return render(c.out, c.format, pidView{DOI: pid.Value, Status: string(pid.Status)})
		},
	}
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <doi>",
		Short: "Print the stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(s *service.Service) (any, error) {
				pid, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return nil, err
				}
				return viewOf(pid), nil
			})
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	var objectType, objectUUID string
	cmd := &cobra.Command{
		Use:   "create <doi>",
		Short: "Store a new DOI without announcing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(s *service.Service) (any, error) {
				pid, err := s.Create(cmd.Context(), service.CreateRequest{
					Value:      args[0],
					ObjectType: objectType,
					ObjectID:   objectUUID,
				})
				if err != nil {
					return nil, err
				}
				return viewOf(pid), nil
			})
		},
	}
	cmd.Flags().StringVar(&objectType, "object-type", "", "type of the identified object")
	cmd.Flags().StringVar(&objectUUID, "object-uuid", "", "UUID of the identified object")
	return cmd
}

func (c *cli) depositCmd(use, short string) *cobra.Command {
	var target, file string
	cmd := &cobra.Command{
		Use:   use + " <doi>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read metadata: %w", err)
			}
			req := service.DepositRequest{Value: args[0], URL: target, Metadata: doc}
			return c.withService(cmd.Context(), func(s *service.Service) (any, error) {
				run := s.Register
				if use == "update" {
					run = s.Update
				}
				pid, err := run(cmd.Context(), req)
				if err != nil {
					return nil, err
				}
				return viewOf(pid), nil
			})
		},
	}
	cmd.Flags().StringVar(&target, "url", "", "landing page the DOI resolves to")
	cmd.Flags().StringVarP(&file, "file", "f", "", "deposit XML file")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <doi>",
		Short: "Delete a DOI; never-announced DOIs are removed locally only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(s *service.Service) (any, error) {
				res, err := s.Delete(cmd.Context(), args[0])
				if err != nil {
					return nil, err
				}
				view := viewOf(res.PID)
				view.Purged = res.Purged
				return view, nil
			})
		},
	}
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <doi>",
		Short: "Refresh the stored status from the registration service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(s *service.Service) (any, error) {
				if _, err := s.SyncStatus(cmd.Context(), args[0]); err != nil {
					return nil, err
				}
				rec, err := s.LastSync(cmd.Context(), args[0])
				if err != nil {
					return nil, err
				}
				return syncViewOf(rec), nil
			})
		},
	}
}

func (c *cli) adminTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "admin-token",
		Short: "Generate an audit trail token and its bcrypt hash",
		Long: `Generate a random operator token for the audit trail endpoint. Give the
token to operators and set the hash as server.admin_token_hash.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := secrets.Generate()
			if err != nil {
				return err
			}
			hash, err := secrets.Hash(token)
			if err != nil {
				return err
			}
			return render(c.out, c.format, tokenView{Token: token, Hash: hash})
		},
	}
}
