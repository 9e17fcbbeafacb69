package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/reklamap/recommender/internal/config"
	"github.com/reklamap/recommender/internal/intake"
	"github.com/reklamap/recommender/internal/logging"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/signals"
)

// #region main

const usage = `usage: intake [--config recommender.yaml] <command> [flags]

commands:
  add   --signals answers.json [--profile name]   store answers as a complaint
  list  [--profile name] [--last N]               list stored complaints
  get   --id complaint-id                         print one complaint as JSON
  count                                           complaints per profile`

func main() {
	cfgPath := flag.String("config", "", "path to recommender.yaml")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	err := run(*cfgPath, flag.Arg(0), flag.Args()[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region dispatch

func run(cfgPath, cmd string, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := intake.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	switch cmd {
	case "add":
		return runAdd(store, log, cfg, args)
	case "list":
		return runList(store, args)
	case "get":
		return runGet(store, args)
	case "count":
		counts, err := store.Count()
		if err != nil {
			return err
		}
		return printJSON(counts)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		return flag.ErrHelp
	}
}

// #endregion dispatch

// #region commands

// runAdd resolves the profile before storing so that an undetectable
// answer set is rejected at intake rather than at replay.
func runAdd(store *intake.Store, log *zap.Logger, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	signalsPath := fs.String("signals", "", "signals file (.json or .yaml)")
	profileName := fs.String("profile", "", "profile name (default: config, then detect)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *signalsPath == "" {
		fs.Usage()
		return flag.ErrHelp
	}

	s, err := signals.LoadFile(*signalsPath)
	if err != nil {
		return err
	}
	rec := recommend.New(profile.MustRegistry(), cfg.Recommend.DefaultProfile)
	p, err := rec.Resolve(*profileName, s)
	if err != nil {
		return fmt.Errorf("resolve profile: %w", err)
	}

	c, err := store.Add(p.Name, s)
	if err != nil {
		return err
	}
	log.Info("complaint stored", zap.String("complaint_id", c.ID), zap.String("profile", c.Profile), zap.Int("signals", s.Len()))
	fmt.Println(c.ID)
	return nil
}

func runList(store *intake.Store, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	profileName := fs.String("profile", "", "only complaints of this profile")
	last := fs.Int("last", 20, "N most recent complaints (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	complaints, err := store.List(*profileName, *last)
	if err != nil {
		return err
	}
	for _, c := range complaints {
		fmt.Printf("%s  %-13s  %s\n", c.ID, c.Profile, c.ReceivedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

func runGet(store *intake.Store, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	id := fs.String("id", "", "complaint ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return flag.ErrHelp
	}
	c, err := store.Get(*id)
	if err != nil {
		return err
	}
	return printJSON(c)
}

// #endregion commands

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
