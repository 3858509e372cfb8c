// Package cli implements the adlens command line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"adlens/internal/config"
	"adlens/internal/directory"
	internaldb "adlens/internal/db"
	"adlens/internal/db/repository"
	"adlens/internal/domain"
	"adlens/internal/service"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI. Exit codes: 0 on success, 2 when the root identity
// was not found in the directory, 1 for everything else.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps a command error to the process exit code. A missing audit
// root gets its own code so scripts can tell "not in the directory" apart
// from connection and usage failures.
func exitCode(err error) int {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return 2
	}
	return 1
}

// connFlags holds the directory connection settings shared by all commands.
type connFlags struct {
	url          string
	baseDN       string
	bindDN       string
	askPassword  bool
	dbPath       string
	logLevel     string
	output       string
	bindPassword string // resolved in PersistentPreRunE, never a flag
}

func newRootCmd() *cobra.Command {
	conn := &connFlags{}

	rootCmd := &cobra.Command{
		Use:           "adlens",
		Short:         "Directory membership audit tool",
		Long:          "adlens resolves transitive group memberships in an LDAP/AD directory, in both directions: the groups a principal belongs to, and the objects a group contains.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Precedence: flag > environment.
			if !cmd.Flags().Changed("url") {
				if v := os.Getenv("LDAP_URL"); v != "" {
					conn.url = v
				}
			}
			if !cmd.Flags().Changed("base-dn") {
				if v := os.Getenv("LDAP_BASE_DN"); v != "" {
					conn.baseDN = v
				}
			}
			if !cmd.Flags().Changed("bind-dn") {
				if v := os.Getenv("LDAP_BIND_DN"); v != "" {
					conn.bindDN = v
				}
			}
			if !cmd.Flags().Changed("db") {
				if v := os.Getenv("ADLENS_DB_PATH"); v != "" {
					conn.dbPath = v
				}
			}

			conn.bindPassword = os.Getenv("LDAP_BIND_PASSWORD")
			if conn.askPassword {
				fmt.Fprint(os.Stderr, "Bind password: ")
				pw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				conn.bindPassword = string(pw)
			}

			switch conn.output {
			case "table", "tree", "csv", "json":
				return nil
			default:
				return fmt.Errorf("unsupported output format %q: use table, tree, csv or json", conn.output)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&conn.url, "url", "", "LDAP server URL (ldap:// or ldaps://)")
	rootCmd.PersistentFlags().StringVar(&conn.baseDN, "base-dn", "", "search base DN")
	rootCmd.PersistentFlags().StringVar(&conn.bindDN, "bind-dn", "", "bind DN (empty for anonymous bind)")
	rootCmd.PersistentFlags().BoolVarP(&conn.askPassword, "ask-password", "W", false, "prompt for the bind password")
	rootCmd.PersistentFlags().StringVar(&conn.dbPath, "db", "", "audit history SQLite file (empty disables recording)")
	rootCmd.PersistentFlags().StringVar(&conn.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&conn.output, "output", "o", "table", "output format (table, tree, csv, json)")

	rootCmd.AddCommand(newMemberOfCmd(conn))
	rootCmd.AddCommand(newMembersCmd(conn))
	rootCmd.AddCommand(newRunsCmd(conn))
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd(conn))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// logger builds a text logger at the requested level for CLI runs.
func (c *connFlags) logger() *slog.Logger {
	cfg := config.Config{LogLevel: c.logLevel}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// auditService connects to the directory and, when a history path is set,
// opens the run store. The returned closer releases both.
func (c *connFlags) auditService() (*service.AuditService, func(), error) {
	ldapCfg := config.LDAPConfig{
		URL:          c.url,
		BaseDN:       c.baseDN,
		BindDN:       c.bindDN,
		BindPassword: c.bindPassword,
		Timeout:      30 * time.Second,
	}
	if err := ldapCfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := c.logger()
	dir, err := directory.Connect(directory.Config{
		URL:          ldapCfg.URL,
		BaseDN:       ldapCfg.BaseDN,
		BindDN:       ldapCfg.BindDN,
		BindPassword: ldapCfg.BindPassword,
		Timeout:      ldapCfg.Timeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	var runs domain.AuditRepository
	closers := []func(){dir.Close}
	if c.dbPath != "" {
		writeDB, readDB, err := internaldb.OpenSQLitePair(c.dbPath, 4)
		if err != nil {
			dir.Close()
			return nil, nil, err
		}
		if err := internaldb.RunMigrations(writeDB); err != nil {
			dir.Close()
			_ = writeDB.Close()
			_ = readDB.Close()
			return nil, nil, err
		}
		runs = repository.NewAuditRepo(writeDB)
		closers = append(closers, func() { _ = writeDB.Close(); _ = readDB.Close() })
	}

	closer := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return service.NewAuditService(dir, runs, logger), closer, nil
}

// historyService opens only the run store, for commands that never touch the
// directory.
func (c *connFlags) historyService() (*service.AuditService, func(), error) {
	if c.dbPath == "" {
		return nil, nil, fmt.Errorf("no audit history database: set --db or ADLENS_DB_PATH")
	}
	writeDB, readDB, err := internaldb.OpenSQLitePair(c.dbPath, 4)
	if err != nil {
		return nil, nil, err
	}
	if err := internaldb.RunMigrations(writeDB); err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, nil, err
	}
	closer := func() { _ = writeDB.Close(); _ = readDB.Close() }
	return service.NewAuditService(nil, repository.NewAuditRepo(readDB), c.logger()), closer, nil
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
