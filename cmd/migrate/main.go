package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/logiccrafts/connect-backend/pkg/config"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|to|create|validate")
	dir := flag.String("dir", "", "migrations directory (default: migrations embedded in the binary)")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=to")
	flag.Parse()

	_ = godotenv.Load()

	// create and validate work on files only
	switch *cmd {
	case "create":
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, *name)
		exitOn(err, "create migration")
		fmt.Println("created", path)
		return
	case "validate":
		fsys, err := migrate.Source(*dir)
		exitOn(err, "open migrations")
		exitOn(migrate.ValidateFS(fsys), "validate migrations")
		fmt.Println("migrations valid")
		return
	}

	cfg, err := config.Load()
	exitOn(err, "load config")

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	fsys, err := migrate.Source(*dir)
	exitOn(err, "open migrations")

	sqlDB, err := migrate.OpenAndPing(ctx, cfg.DB)
	exitOn(err, "connect database")
	defer sqlDB.Close()

	var results []migrate.Result
	switch *cmd {
	case "up":
		results, err = migrate.Up(ctx, sqlDB, fsys)
	case "down":
		results, err = migrate.Down(ctx, sqlDB, fsys)
	case "to":
		target, parseErr := strconv.ParseInt(*version, 10, 64)
		exitOn(parseErr, "parse -version")
		results, err = migrate.MigrateTo(ctx, sqlDB, fsys, target)
	case "status":
		statuses, statusErr := migrate.ListStatus(ctx, sqlDB, fsys)
		exitOn(statusErr, "read status")
		printStatus(statuses)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown -cmd %q\n", *cmd)
		os.Exit(2)
	}

	for _, r := range results {
		fmt.Printf("%-4s %d %s (%s)\n", r.Direction, r.Version, r.Path, r.Duration)
	}
	if err != nil {
		logg.Error(logg.WithFields(ctx, pkgerrors.LogFields(err)), "migrate failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "migrations", len(results)), "migrate finished")
}

func printStatus(statuses []migrate.Status) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, s := range statuses {
		state, at := "pending", "-"
		if s.Applied {
			state, at = "applied", s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Version, state, at, s.Path)
	}
	_ = w.Flush()
}

func exitOn(err error, action string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
	os.Exit(1)
}
