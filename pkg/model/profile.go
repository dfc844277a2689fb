package model

import "fmt"

// Profile is a saved connection profile. Passwords are never stored; they
// are resolved at connect time from the environment variable named by
// PasswordEnv.
type Profile struct {
	ID     string
	Name   string
	Family Family
	Driver string // "postgres" | "mysql" | "redis"

	Host     string
	Port     int
	Database string // default database (sql); containers are schemas
	Username string
	SSLMode  string // sql only

	RedisDBCount int // redis only; 0 means ask the server

	PasswordEnv string
}

// Validate checks the fields a connect would need.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile has no id")
	}
	if p.Name == "" {
		return fmt.Errorf("profile %s has no name", p.ID)
	}
	switch p.Family {
	case FamilySQL:
		if p.Driver != "postgres" && p.Driver != "mysql" {
			return fmt.Errorf("profile %s: unsupported sql driver %q", p.ID, p.Driver)
		}
	case FamilyRedis:
		if p.Driver != "redis" {
			return fmt.Errorf("profile %s: unsupported redis driver %q", p.ID, p.Driver)
		}
	default:
		return fmt.Errorf("profile %s: unknown family %q", p.ID, p.Family)
	}
	if p.Host == "" {
		return fmt.Errorf("profile %s has no host", p.ID)
	}
	return nil
}

// Descriptor converts the profile to the tree's connection descriptor.
func (p *Profile) Descriptor() ConnectionDescriptor {
	return ConnectionDescriptor{ID: p.ID, Name: p.Name, Family: p.Family, Driver: p.Driver}
}
