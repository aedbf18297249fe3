package dataset

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/mimir-aip/bigmart-predictor/pkg/config"
)

// Dialect captures what differs between the supported SQL stores
type Dialect struct {
	Name       string
	DriverName string

	tableExistsQuery string
	quote            func(ident string) string
	placeholder      func(n int) string
}

var dialects = map[string]*Dialect{
	"mysql": {
		Name:             "mysql",
		DriverName:       "mysql",
		tableExistsQuery: "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
		quote:            func(ident string) string { return "`" + ident + "`" },
		placeholder:      func(int) string { return "?" },
	},
	"postgres": {
		Name:             "postgres",
		DriverName:       "pgx",
		tableExistsQuery: "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1",
		quote:            func(ident string) string { return `"` + ident + `"` },
		placeholder:      func(n int) string { return "$" + strconv.Itoa(n) },
	},
	"sqlite": {
		Name:             "sqlite",
		DriverName:       "sqlite",
		tableExistsQuery: "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		quote:            func(ident string) string { return `"` + ident + `"` },
		placeholder:      func(int) string { return "?" },
	},
}

// DialectFor returns the dialect registered for a configured driver
func DialectFor(driver string) (*Dialect, error) {
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return d, nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Quote validates and quotes a table or column identifier
func (d *Dialect) Quote(ident string) (string, error) {
	if !identPattern.MatchString(ident) {
		return "", fmt.Errorf("invalid identifier: %q", ident)
	}
	return d.quote(ident), nil
}

// Placeholder returns the bind marker for the n-th (1-based) argument
func (d *Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}

// TableExistsQuery counts tables with the bound name in the current schema
func (d *Dialect) TableExistsQuery() string {
	return d.tableExistsQuery
}

// DSN builds the driver connection string. When withDatabase is false the
// MySQL DSN omits the schema so it can be created first.
func (d *Dialect) DSN(cfg config.DatabaseConfig, withDatabase bool) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	switch d.Name {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(portOr(cfg.Port, 3306)))
		if withDatabase {
			mc.DBName = cfg.Name
		}
		return mc.FormatDSN()
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(portOr(cfg.Port, 5432))),
			Path:   "/" + cfg.Name,
		}
		return u.String()
	default:
		return cfg.Name
	}
}

func portOr(port, fallback int) int {
	if port == 0 {
		return fallback
	}
	return port
}
