package rediskv

import (
	"context"
	"testing"

	"github.com/vanderheijden86/warren/pkg/model"
)

// TestParseKeyspaceInfo covers the INFO keyspace line format, including
// trailing carriage returns and non-db preamble lines.
func TestParseKeyspaceInfo(t *testing.T) {
	info := "# Keyspace\r\ndb0:keys=42,expires=3,avg_ttl=0\r\ndb3:keys=7,expires=0,avg_ttl=0\r\n"
	sizes := parseKeyspaceInfo(info)
	if len(sizes) != 2 {
		t.Fatalf("parsed %d dbs, want 2", len(sizes))
	}
	if sizes[0] != 42 {
		t.Errorf("db0 = %d, want 42", sizes[0])
	}
	if sizes[3] != 7 {
		t.Errorf("db3 = %d, want 7", sizes[3])
	}
}

func TestParseKeyspaceInfoEmpty(t *testing.T) {
	if got := parseKeyspaceInfo("# Keyspace\r\n"); len(got) != 0 {
		t.Fatalf("parsed %d dbs from empty keyspace, want 0", len(got))
	}
}

func TestParseCursor(t *testing.T) {
	cases := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1152", 1152, false},
		{"banana", 0, true},
		{"-3", 0, true},
	}
	for _, tc := range cases {
		got, err := parseCursor(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseCursor(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseCursor(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseCursor(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// TestUnknownConnection exercises the profile lookup path without a server.
func TestUnknownConnection(t *testing.T) {
	s := New([]model.Profile{{
		ID: "p1", Name: "cache", Family: model.FamilyRedis, Driver: "redis",
		Host: "localhost", Port: 6379,
	}})
	if err := s.Connect(context.Background(), "nope"); err == nil {
		t.Fatal("Connect with unknown id should fail")
	}
	if _, err := s.ListContainers(context.Background(), "nope"); err == nil {
		t.Fatal("ListContainers with unknown id should fail")
	}
}

// TestNonRedisProfilesIgnored verifies mixed profile sets are filtered.
func TestNonRedisProfilesIgnored(t *testing.T) {
	s := New([]model.Profile{
		{ID: "sql1", Family: model.FamilySQL, Driver: "postgres", Host: "h"},
		{ID: "r1", Family: model.FamilyRedis, Driver: "redis", Host: "h"},
	})
	if _, err := s.profile("r1"); err != nil {
		t.Fatalf("redis profile missing: %v", err)
	}
	if _, err := s.profile("sql1"); err == nil {
		t.Fatal("sql profile should not be registered")
	}
}

func TestListLeavesRejected(t *testing.T) {
	s := New(nil)
	if _, err := s.ListLeaves(context.Background(), "r1", "0"); err == nil {
		t.Fatal("ListLeaves should be rejected for redis")
	}
}
