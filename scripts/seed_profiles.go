//go:build ignore

// seed_profiles.go creates a sample profile database for local development.
// Usage: go run scripts/seed_profiles.go [path]
//
// Defaults to ./profiles.sqlite3 in the working directory. Point warren at
// it with --profile-db.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vanderheijden86/warren/internal/profilestore"
	"github.com/vanderheijden86/warren/pkg/model"
)

var samples = []model.Profile{
	{
		Name: "local postgres", Family: model.FamilySQL, Driver: "postgres",
		Host: "localhost", Port: 5432, Database: "postgres", Username: "postgres",
		SSLMode: "disable", PasswordEnv: "PGPASSWORD",
	},
	{
		Name: "local mysql", Family: model.FamilySQL, Driver: "mysql",
		Host: "localhost", Port: 3306, Database: "mysql", Username: "root",
		PasswordEnv: "MYSQL_PWD",
	},
	{
		Name: "local redis", Family: model.FamilyRedis, Driver: "redis",
		Host: "localhost", Port: 6379,
	},
}

func main() {
	path := "profiles.sqlite3"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	store, err := profilestore.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open profile store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	for _, p := range samples {
		id, err := store.Save(ctx, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save %q: %v\n", p.Name, err)
			os.Exit(1)
		}
		fmt.Printf("Saved %-16s %s\n", p.Name, id)
	}
	fmt.Printf("\nProfile database ready at %s\n", path)
}
