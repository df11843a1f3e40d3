package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"smfdb/internal/analyzer"
	"smfdb/internal/ast"
	"smfdb/internal/catalog"
	"smfdb/internal/config"
	"smfdb/internal/engine"
	"smfdb/internal/mysqlbridge"
	"smfdb/internal/sqlgrammar"
	"smfdb/internal/wal"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "smfdb",
		Short: "A single-node relational database engine",
	}

	var cfgPath string
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a TOML config file")

	var dbName string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive SQL session reading statements from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			e, err := openEngine(dbName, cfg)
			if err != nil {
				return err
			}
			return runRepl(e)
		},
	}
	runCmd.Flags().StringVar(&dbName, "db", "smfdb", "database name")
	rootCmd.AddCommand(runCmd)

	var benchN int
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a fixed batch of INSERT statements and report elapsed time",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			e, err := openEngine(dbName, cfg)
			if err != nil {
				return err
			}
			return runBench(e, benchN)
		},
	}
	benchCmd.Flags().StringVar(&dbName, "db", "smfdb", "database name")
	benchCmd.Flags().IntVar(&benchN, "n", 1000, "number of rows to insert")
	rootCmd.AddCommand(benchCmd)

	var exportDSN, exportTable string
	exportCmd := &cobra.Command{
		Use:   "export-mysql",
		Short: "Validate and replay a table's rows against a live MySQL server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			e, err := openEngine(dbName, cfg)
			if err != nil {
				return err
			}
			tab, err := e.DB.Table(exportTable)
			if err != nil {
				return err
			}
			b := mysqlbridge.New(mysqlbridge.Options{DSN: exportDSN})
			defer b.Close()
			if err := b.Connect(cmd.Context()); err != nil {
				return err
			}
			stmts, err := b.BuildCreateAndInserts(tab, e.Tables.Heaps[exportTable])
			if err != nil {
				return err
			}
			fmt.Printf("Replaying %d statement(s) against %s\n", len(stmts), exportDSN)
			return b.Replay(cmd.Context(), stmts)
		},
	}
	exportCmd.Flags().StringVar(&dbName, "db", "smfdb", "database name")
	exportCmd.Flags().StringVar(&exportDSN, "dsn", "", "MySQL connection string (required)")
	exportCmd.Flags().StringVar(&exportTable, "table", "", "table to export (required)")
	rootCmd.AddCommand(exportCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Parse and analyze a SQL file without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("check: read %q: %w", args[0], err)
			}
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			e, err := openEngine(dbName, cfg)
			if err != nil {
				return err
			}
			for _, src := range splitStatements(string(data)) {
				if strings.TrimSpace(src) == "" {
					continue
				}
				stmt, err := sqlgrammar.Parse(src)
				if err != nil {
					return fmt.Errorf("check: %q: %w", src, err)
				}
				switch stmt.(type) {
				case *ast.Begin, *ast.Commit, *ast.Abort:
					continue
				}
				if _, err := analyzer.New(e.DB).Analyze(stmt); err != nil {
					return fmt.Errorf("check: %q: %w", src, err)
				}
			}
			fmt.Println("ok")
			return nil
		},
	}
	checkCmd.Flags().StringVar(&dbName, "db", "smfdb", "database name")
	rootCmd.AddCommand(checkCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openEngine(dbName string, cfg config.Config) (*engine.Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("openEngine: %w", err)
	}

	db := catalog.NewDatabase(dbName)
	catPath := filepath.Join(cfg.DataDir, dbName+".catalog")
	if f, err := os.Open(catPath); err == nil {
		defer f.Close()
		if loaded, err := catalog.Load(f); err == nil {
			db = loaded
		}
	}
	logPath := filepath.Join(cfg.DataDir, dbName+".log")
	logMgr, err := wal.NewManager(logPath, cfg.LogFlushInterval)
	if err != nil {
		return nil, err
	}
	return engine.Open(db, logMgr, cfg, catPath)
}

func runRepl(e *engine.Engine) error {
	sess := e.NewSession()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res, err := e.Execute(sess, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Print(res.Render())
	}
	return scanner.Err()
}

func runBench(e *engine.Engine, n int) error {
	sess := e.NewSession()
	start := time.Now()
	for i := 0; i < n; i++ {
		stmt := fmt.Sprintf("INSERT INTO bench VALUES (%d, %d.0, 'row')", i, i)
		if _, err := e.Execute(sess, stmt); err != nil {
			return err
		}
	}
	fmt.Printf("inserted %d rows in %s\n", n, time.Since(start))
	return nil
}

func splitStatements(src string) []string {
	return strings.Split(src, ";")
}
