package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/reklamap/recommender/internal/config"
	"github.com/reklamap/recommender/internal/intake"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/signals"
	"github.com/reklamap/recommender/internal/transport"
)

// #region main

func main() {
	cfgPath := flag.String("config", "", "path to recommender.yaml")
	signalsPath := flag.String("signals", "", "signals file (.json or .yaml)")
	id := flag.String("id", "", "stored complaint ID (read from the intake DB)")
	profileName := flag.String("profile", "", "profile name (default: config, then detect)")
	addr := flag.String("addr", "", "ask a running recommendd at this address instead of computing locally")
	text := flag.Bool("text", false, "print only the narrative")
	flag.Parse()

	if (*signalsPath == "") == (*id == "") {
		fmt.Fprintln(os.Stderr, "usage: recommend --signals answers.json [--profile name] [--addr host:port] [--text]")
		fmt.Fprintln(os.Stderr, "       recommend --id complaint-id [--config recommender.yaml] [--text]")
		os.Exit(2)
	}

	if err := run(*cfgPath, *signalsPath, *id, *profileName, *addr, *text); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(cfgPath, signalsPath, id, profileName, addr string, text bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	var s signals.SignalSet
	if id != "" {
		c, err := loadComplaint(cfg.Store.Path, id)
		if err != nil {
			return err
		}
		s = c.Signals
		if profileName == "" {
			profileName = c.Profile
		}
	} else {
		if s, err = signals.LoadFile(signalsPath); err != nil {
			return err
		}
	}

	var b recommend.Bundle
	if addr != "" {
		b, err = remote(addr, profileName, s)
	} else {
		b, err = recommend.New(profile.MustRegistry(), cfg.Recommend.DefaultProfile).Recommend(profileName, s)
	}
	if err != nil {
		return err
	}

	if text {
		fmt.Println(b.Narrative)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

func loadComplaint(dbPath, id string) (intake.Complaint, error) {
	store, err := intake.NewStore(dbPath)
	if err != nil {
		return intake.Complaint{}, fmt.Errorf("open db: %w", err)
	}
	defer store.Close()
	return store.Get(id)
}

func remote(addr, profileName string, s signals.SignalSet) (recommend.Bundle, error) {
	c, err := transport.NewClient(addr)
	if err != nil {
		return recommend.Bundle{}, err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.Recommend(ctx, profileName, s)
}

// #endregion run
