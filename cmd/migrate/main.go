package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/erp/reportdispatch/internal/infrastructure/config"
	"github.com/erp/reportdispatch/internal/infrastructure/logger"
	"github.com/erp/reportdispatch/internal/infrastructure/migration"
	"github.com/erp/reportdispatch/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

var errUsage = errors.New("invalid arguments")

// env carries what a subcommand may need. migrator is nil for offline commands.
type env struct {
	log      *zap.Logger
	dir      string
	migrator *migration.Migrator
}

type command struct {
	args     string
	help     string
	offline  bool
	minArity int
	run      func(e *env, args []string) error
}

var commands = map[string]command{
	"up": {
		help: "Apply all pending migrations",
		run:  func(e *env, _ []string) error { return e.migrator.Up() },
	},
	"down": {
		help: "Roll back every applied migration",
		run:  func(e *env, _ []string) error { return e.migrator.Down() },
	},
	"step": {
		args: "<n>", help: "Apply n migrations, negative n rolls back", minArity: 1,
		run: func(e *env, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: step count %q", errUsage, args[0])
			}
			return e.migrator.Steps(n)
		},
	},
	"goto": {
		args: "<version>", help: "Migrate up or down to version", minArity: 1,
		run: func(e *env, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("%w: version %q", errUsage, args[0])
			}
			return e.migrator.GoTo(uint(v))
		},
	},
	"force": {
		args: "<version>", help: "Set the version without running SQL, clears the dirty flag", minArity: 1,
		run: func(e *env, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: version %q", errUsage, args[0])
			}
			return e.migrator.Force(v)
		},
	},
	"version": {
		help: "Print the applied schema version",
		run: func(e *env, _ []string) error {
			status, err := e.migrator.Status()
			if err != nil {
				return err
			}
			if !status.Applied {
				e.log.Info("Schema is empty, no migration applied")
				return nil
			}
			e.log.Info("Schema version",
				zap.Uint("version", status.Version),
				zap.Bool("dirty", status.Dirty),
			)
			return nil
		},
	},
	"create": {
		args: "<name> [description]", help: "Write the next numbered up/down pair", offline: true, minArity: 1,
		run: func(e *env, args []string) error {
			var description string
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(e.dir, args[0], description)
			if err != nil {
				return err
			}
			e.log.Info("Created migration pair",
				zap.String("version", mf.Version),
				zap.String("up", mf.UpPath),
				zap.String("down", mf.DownPath),
			)
			return nil
		},
	},
	"list": {
		help: "List migration files on disk", offline: true,
		run: func(e *env, _ []string) error {
			list, err := migration.ListMigrations(e.dir)
			if err != nil {
				return err
			}
			for _, m := range list {
				fmt.Println(m)
			}
			e.log.Debug("Listed migrations", zap.Int("count", len(list)), zap.String("dir", e.dir))
			return nil
		},
	},
}

func main() {
	dir := flag.String("path", "", "Migrations directory (embedded set when empty; ./migrations for create and list)")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok || len(args)-1 < cmd.minArity {
		usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      *level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	if err := execute(cmd, *dir, args[1:], log); err != nil {
		_ = logger.Sync(log)
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			usage()
			os.Exit(2)
		}
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
	_ = logger.Sync(log)
}

func execute(cmd command, dir string, args []string, log *zap.Logger) error {
	e := &env{log: log}
	if cmd.offline || dir != "" {
		if dir == "" {
			dir = defaultMigrationsDir
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		e.dir = abs
	}
	if cmd.offline {
		return cmd.run(e, args)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("reach database %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	// the migrator owns db from here on and closes it
	if e.dir != "" {
		e.migrator, err = migration.New(db, e.dir, log)
	} else {
		e.migrator, err = migration.NewEmbedded(db, migrations.FS, log)
	}
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		_ = e.migrator.Close()
	}()
	return cmd.run(e, args)
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "usage: migrate [-path dir] [-log-level level] <command> [args]")
	fmt.Fprintln(out, "\ncommands:")
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(out, "  %-24s %s\n", name+" "+c.args, c.help)
	}
	fmt.Fprintln(out, "\nflags:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nThe database is read from config.toml and ERP_DATABASE_* variables.")
}
