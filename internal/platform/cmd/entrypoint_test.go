package cmd

import (
	"flag"
	"testing"
)

type testConfig struct {
	DBPath   string `env:"TIMECLOCK_CMD_TEST_DB" envDefault:"data/test.db"`
	Interval int    `env:"TIMECLOCK_CMD_TEST_INTERVAL" envDefault:"60"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("TIMECLOCK_CMD_TEST_DB", "env/clock.db")
	t.Setenv("TIMECLOCK_CMD_TEST_INTERVAL", "90")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "db path")
	fs.IntVar(&cfg.Interval, "interval", cfg.Interval, "interval")

	if err := ParseArgs(fs, []string{"-db", "flag/clock.db"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.DBPath != "flag/clock.db" {
		t.Fatalf("expected flag value for db path, got %q", cfg.DBPath)
	}
	if cfg.Interval != 90 {
		t.Fatalf("expected env interval 90, got %d", cfg.Interval)
	}
}

func TestParseConfigFromArgsReadsEnvAndFlags(t *testing.T) {
	t.Setenv("TIMECLOCK_CMD_TEST_DB", "env/other.db")

	cfg := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfg.DBPath, "db", "", "db path")
	if err := ParseConfigFromArgs(&cfg, fs, []string{"-db", "flag/other.db"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfg.DBPath != "flag/other.db" {
		t.Fatalf("expected parsed flag db path, got %q", cfg.DBPath)
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}
