// Command accountkeeper is a thin shell over the encrypted credential store.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/nkoryagin/accountkeeper/internal/cipher"
	"github.com/nkoryagin/accountkeeper/internal/config"
	"github.com/nkoryagin/accountkeeper/internal/launcher"
	"github.com/nkoryagin/accountkeeper/internal/migrate"
	"github.com/nkoryagin/accountkeeper/internal/model"
	"github.com/nkoryagin/accountkeeper/internal/repository/sqlite"
	"github.com/nkoryagin/accountkeeper/internal/service"
	"github.com/nkoryagin/accountkeeper/internal/transfer"
	"github.com/nkoryagin/accountkeeper/internal/view"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `accountkeeper %s
Usage:
  accountkeeper [-data-dir DIR] [-v] <cmd> [args]

Commands:
  list       [-search s] [-status all|active|banned] [-remark all|has|none] [-show]
  add        -u <username> -p <secret>
  show       -u <username>
  rm         -u <username>[,<username>...]
  remark     -u <usernames> -text <remark>
  ban        -u <usernames> -days <n>
  unban      -u <usernames>
  avail      -u <usernames> -minutes <n>     (0 clears the window)
  login      -u <username>
  import     -file <path>
  export     -u <usernames> -file <path>
  logs       [-limit n | -from YYYY-MM-DD -to YYYY-MM-DD]
  clear-logs
  version
`, version)
	os.Exit(2)
}

// main wires the store and dispatches subcommands.
func main() {
	dataDir := flag.String("data-dir", "", "application data directory (default: per-user config dir)")
	verbose := flag.Bool("v", false, "verbose diagnostics")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, "logger:", err)
			os.Exit(1)
		}
	}
	defer func() { _ = logger.Sync() }()

	if cmd == "version" {
		fmt.Printf("accountkeeper %s (%s)\n", version, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*dataDir)
	if err != nil {
		fatal(logger, "load config", err)
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		fatal(logger, "open database", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrate.Up(ctx, db.Writer); err != nil {
		fatal(logger, "migrate", err)
	}

	key, err := cipher.LoadOrCreateKey(cfg.DataDir)
	if err != nil {
		fatal(logger, "load key", err)
	}
	sc, err := cipher.New(key)
	if err != nil {
		fatal(logger, "init cipher", err)
	}

	audit := service.NewAuditService(sqlite.NewLogRepo(db), logger)
	launch := launcher.New(cfg.ClientPath, cfg.ClientProcs, logger)
	accounts := service.NewAccountService(sqlite.NewCredentialRepo(db), sc, audit, launch)

	if err := dispatch(ctx, cmd, args, accounts, audit); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func fatal(logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func dispatch(ctx context.Context, cmd string, args []string, accounts service.AccountService, audit service.AuditService) error {
	switch cmd {
	case "list":
		return cmdList(ctx, args, accounts)
	case "add":
		return cmdAdd(ctx, args, accounts)
	case "show":
		return cmdShow(ctx, args, accounts)
	case "rm":
		return cmdDelete(ctx, args, accounts)
	case "remark":
		return cmdRemark(ctx, args, accounts)
	case "ban":
		return cmdBan(ctx, args, accounts)
	case "unban":
		return cmdUnban(ctx, args, accounts)
	case "avail":
		return cmdAvail(ctx, args, accounts)
	case "login":
		return cmdLogin(ctx, args, accounts)
	case "import":
		return cmdImport(ctx, args, accounts)
	case "export":
		return cmdExport(ctx, args, accounts)
	case "logs":
		return cmdLogs(ctx, args, audit)
	case "clear-logs":
		return audit.ClearAll(ctx)
	default:
		usage()
		return nil
	}
}

func cmdList(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	search := fs.String("search", "", "substring of username or remark")
	status := fs.String("status", "all", "all|active|banned")
	remark := fs.String("remark", "all", "all|has|none")
	show := fs.Bool("show", false, "print decrypted secrets")
	_ = fs.Parse(args)

	statusFilter, err := parseStatusFilter(*status)
	if err != nil {
		return err
	}
	remarkFilter, err := parseRemarkFilter(*remark)
	if err != nil {
		return err
	}

	snapshot, err := accounts.List(ctx)
	if err != nil {
		return err
	}
	rows := view.Compute(snapshot, *search, statusFilter, remarkFilter)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tSTATUS\tBAN UNTIL\tAVAILABLE UNTIL\tLAST LOGIN\tREMARK\tSECRET")
	for _, c := range rows {
		secret := "***"
		if *show {
			var err error
			secret, err = accounts.Reveal(ctx, c.ID)
			if err != nil {
				secret = "decryption failed"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Username, c.Status, fmtTime(c.BanTime), fmtTime(c.AvailableUntil),
			fmtTime(c.LastLoginTime), c.Remark, secret)
	}
	return w.Flush()
}

func cmdAdd(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	u := fs.String("u", "", "username")
	p := fs.String("p", "", "secret")
	_ = fs.Parse(args)

	c, err := accounts.Add(ctx, *u, *p)
	if err != nil {
		return err
	}
	fmt.Printf("added %s (%s)\n", c.Username, c.ID)
	return nil
}

func cmdShow(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	u := fs.String("u", "", "username")
	_ = fs.Parse(args)

	ids, err := resolveIDs(ctx, accounts, *u)
	if err != nil {
		return err
	}
	secret, err := accounts.Reveal(ctx, ids[0])
	if err != nil {
		return err
	}
	fmt.Println(secret)
	return nil
}

func cmdDelete(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	u := fs.String("u", "", "comma-separated usernames")
	_ = fs.Parse(args)

	ids, err := resolveIDs(ctx, accounts, *u)
	if err != nil {
		return err
	}
	if err := accounts.Delete(ctx, ids); err != nil {
		return err
	}
	fmt.Printf("deleted %d accounts\n", len(ids))
	return nil
}

func cmdRemark(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("remark", flag.ExitOnError)
	u := fs.String("u", "", "comma-separated usernames")
	text := fs.String("text", "", "remark text")
	_ = fs.Parse(args)

	ids, err := resolveIDs(ctx, accounts, *u)
	if err != nil {
		return err
	}
	return accounts.SetRemark(ctx, ids, *text)
}

func cmdBan(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("ban", flag.ExitOnError)
	u := fs.String("u", "", "comma-separated usernames")
	days := fs.Int("days", 0, "ban duration in days")
	_ = fs.Parse(args)

	if *days <= 0 {
		return fmt.Errorf("ban: -days must be positive")
	}
	ids, err := resolveIDs(ctx, accounts, *u)
	if err != nil {
		return err
	}
	return accounts.SetBan(ctx, ids, time.Now().AddDate(0, 0, *days))
}

func cmdUnban(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("unban", flag.ExitOnError)
	u := fs.String("u", "", "comma-separated usernames")
	_ = fs.Parse(args)

	ids, err := resolveIDs(ctx, accounts, *u)
	if err != nil {
		return err
	}
	return accounts.ClearBan(ctx, ids)
}

func cmdAvail(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("avail", flag.ExitOnError)
	u := fs.String("u", "", "comma-separated usernames")
	minutes := fs.Int("minutes", 0, "availability window in minutes, 0 clears")
	_ = fs.Parse(args)

	ids, err := resolveIDs(ctx, accounts, *u)
	if err != nil {
		return err
	}
	var m *int
	if *minutes > 0 {
		m = minutes
	}
	return accounts.SetAvailability(ctx, ids, m)
}

func cmdLogin(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	u := fs.String("u", "", "username")
	_ = fs.Parse(args)

	ids, err := resolveIDs(ctx, accounts, *u)
	if err != nil {
		return err
	}
	if err := accounts.Login(ctx, ids[0]); err != nil {
		return err
	}
	fmt.Println("client starting")
	return nil
}

func cmdImport(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "file with username----secret lines")
	_ = fs.Parse(args)

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return err
	}

	succeeded, failed, err := accounts.BulkImport(ctx, transfer.ParseLines(lines))
	if err != nil {
		return err
	}
	fmt.Printf("imported: %d, failed or duplicate: %d\n", succeeded, failed)
	return nil
}

func cmdExport(ctx context.Context, args []string, accounts service.AccountService) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	u := fs.String("u", "", "comma-separated usernames (empty: all)")
	file := fs.String("file", "", "output path")
	_ = fs.Parse(args)

	var ids []uuid.UUID
	var err error
	if *u == "" {
		snapshot, err := accounts.List(ctx)
		if err != nil {
			return err
		}
		for _, c := range snapshot {
			ids = append(ids, c.ID)
		}
	} else {
		ids, err = resolveIDs(ctx, accounts, *u)
		if err != nil {
			return err
		}
	}

	lines, err := accounts.Export(ctx, ids)
	if err != nil {
		return err
	}
	out := strings.Join(lines, "\n") + "\n"
	if *file == "" {
		fmt.Print(out)
		return nil
	}
	return os.WriteFile(*file, []byte(out), 0o600)
}

func cmdLogs(ctx context.Context, args []string, audit service.AuditService) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	limit := fs.Int("limit", 100, "number of entries")
	from := fs.String("from", "", "start date YYYY-MM-DD")
	to := fs.String("to", "", "end date YYYY-MM-DD")
	_ = fs.Parse(args)

	var entries []model.LogEntry
	var err error
	if *from != "" || *to != "" {
		start, end, perr := parseDateRange(*from, *to)
		if perr != nil {
			return perr
		}
		entries, err = audit.ByTimeRange(ctx, start, end)
	} else {
		entries, err = audit.Recent(ctx, *limit)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOPERATION\tRESULT\tACCOUNT\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.OperationTime.Format(time.DateTime), e.OperationType, e.Result, e.RelatedUsername, e.Description)
	}
	return w.Flush()
}

// resolveIDs maps comma-separated usernames onto credential ids.
func resolveIDs(ctx context.Context, accounts service.AccountService, csv string) ([]uuid.UUID, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, fmt.Errorf("missing -u <username>")
	}
	snapshot, err := accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]uuid.UUID, len(snapshot))
	for _, c := range snapshot {
		byName[c.Username] = c.ID
	}

	var ids []uuid.UUID
	for _, name := range strings.Split(csv, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown account %q", name)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("missing -u <username>")
	}
	return ids, nil
}

func parseStatusFilter(s string) (view.StatusFilter, error) {
	switch s {
	case "all":
		return view.StatusAll, nil
	case "active":
		return view.StatusActive, nil
	case "banned":
		return view.StatusBanned, nil
	default:
		return view.StatusAll, fmt.Errorf("bad -status %q", s)
	}
}

func parseRemarkFilter(s string) (view.RemarkFilter, error) {
	switch s {
	case "all":
		return view.RemarkAll, nil
	case "has":
		return view.RemarkHas, nil
	case "none":
		return view.RemarkNone, nil
	default:
		return view.RemarkAll, fmt.Errorf("bad -remark %q", s)
	}
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	start := time.Time{}
	end := time.Now()
	var err error
	if from != "" {
		start, err = time.ParseInLocation(time.DateOnly, from, time.Local)
		if err != nil {
			return start, end, fmt.Errorf("bad -from: %w", err)
		}
	}
	if to != "" {
		end, err = time.ParseInLocation(time.DateOnly, to, time.Local)
		if err != nil {
			return start, end, fmt.Errorf("bad -to: %w", err)
		}
		// Inclusive end of day.
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
