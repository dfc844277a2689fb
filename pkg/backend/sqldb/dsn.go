package sqldb

import (
	"fmt"

	"github.com/vanderheijden86/warren/pkg/model"
)

// postgresDSN constructs a lib/pq connection string from a profile. The
// password is resolved by the caller and never lives on the profile.
func postgresDSN(p model.Profile, password string) string {
	port := p.Port
	if port == 0 {
		port = 5432
	}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, port, p.Username, password, p.Database, sslMode,
	)
}

// mysqlDSN constructs a go-sql-driver DSN from a profile.
// Format: user:password@tcp(host:port)/dbname?parseTime=true
func mysqlDSN(p model.Profile, password string) string {
	port := p.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		p.Username, password, p.Host, port, p.Database,
	)
	if p.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}
