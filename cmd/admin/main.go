package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"resolvenow/backend/internal/audit"
	"resolvenow/backend/internal/auth"
	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/logger"
	"resolvenow/backend/internal/report"
	"resolvenow/backend/internal/storage"
	"resolvenow/backend/internal/users"

	"go.uber.org/zap"
)

const usage = `Usage: admin <command> [args]

Commands:
  create-admin <name> <email> <password>   create an Admin account
  delete-user <user_id>                    delete an account
  audit                                    report assignment invariant violations
  reconcile                                move assigned but Pending complaints to Assigned
  export-feedback <file.xlsx>              write the feedback report`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("config:", err)
		os.Exit(1)
	}
	log, err := logger.NewLogger(cfg.Log.Level, "console", "resolvenow-admin")
	if err != nil {
		fmt.Println("logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), cfg, log, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, command string, args []string) error {
	switch command {
	case "create-admin":
		if len(args) != 3 {
			return fmt.Errorf("usage: admin create-admin <name> <email> <password>")
		}
		store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		svc := auth.NewService(store, auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL), log)
		u, err := svc.CreateAdmin(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("Admin %s created with id %s.\n", u.Email, u.ID)

	case "delete-user":
		if len(args) != 1 {
			return fmt.Errorf("usage: admin delete-user <user_id>")
		}
		store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		if err := users.NewService(store, log).Delete(ctx, "", args[0]); err != nil {
			return err
		}
		fmt.Printf("User %s has been deleted.\n", args[0])

	case "audit":
		auditor, closeDB, err := openAuditor(cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()
		findings, err := auditor.Run(ctx)
		if err != nil {
			return err
		}
		if len(findings) == 0 {
			fmt.Println("No violations found.")
			return nil
		}
		for _, f := range findings {
			fmt.Printf("%-30s %-45s %s\n", f.Check, f.Subject, f.Detail)
		}
		return fmt.Errorf("%d violations found", len(findings))

	case "reconcile":
		auditor, closeDB, err := openAuditor(cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()
		n, err := auditor.Reconcile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d complaints moved to Assigned.\n", n)

	case "export-feedback":
		if len(args) != 1 {
			return fmt.Errorf("usage: admin export-feedback <file.xlsx>")
		}
		store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := report.Export(ctx, store, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Feedback report written to %s.\n", args[0])

	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// openStore connects without Redis; none of the commands publish events or check tokens.
func openStore(cfg *config.Config, log *zap.Logger) (*storage.Service, error) {
	db, err := storage.OpenDB(cfg.Database, logger.NewGormLogger(log))
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		return nil, err
	}
	return storage.NewStorageService(db, nil), nil
}

// openAuditor uses lib/pq for PostgreSQL and the GORM connection for SQLite.
func openAuditor(cfg *config.Config, log *zap.Logger) (*audit.Auditor, func(), error) {
	var (
		db  *sql.DB
		err error
	)
	if cfg.Database.Driver == "postgres" {
		db, err = audit.Open(cfg.Database.GetDSN())
	} else {
		var store *storage.Service
		if store, err = openStore(cfg, log); err == nil {
			db, err = store.DB.DB()
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return audit.NewAuditor(db, log), func() { db.Close() }, nil
}
