package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/reklamap/recommender/internal/intake"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to intake.db")
	profileName := flag.String("profile", "", "only export complaints of this profile")
	last := flag.Int("last", 4, "number of most recent complaints to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	desc := flag.String("description", "", "fixture description")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/intake.db --out path/to/fixture.json [--profile name] [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *profileName, *last, *outPath, *desc); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, profileName string, last int, outPath, desc string) error {
	store, err := intake.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	complaints, err := store.List(profileName, last)
	if err != nil {
		return fmt.Errorf("list complaints: %w", err)
	}
	if len(complaints) == 0 {
		return fmt.Errorf("no complaints found")
	}
	fmt.Printf("Found %d complaints\n", len(complaints))

	f, skipped := buildFixture(recommend.New(profile.MustRegistry(), ""), complaints, profileName, desc)
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "skip %s\n", s)
	}
	if len(f.Cases) == 0 {
		return fmt.Errorf("no complaint could be recommended")
	}

	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Printf("Wrote %d cases to %s\n", len(f.Cases), outPath)
	return nil
}

// #endregion extract

// #region output

// buildFixture snapshots the current recommendation of every complaint,
// oldest first, so later engine changes show up as replay mismatches.
func buildFixture(rec *recommend.Recommender, complaints []intake.Complaint, profileName, desc string) (*replay.Fixture, []string) {
	if desc == "" {
		desc = fmt.Sprintf("snapshot of %d stored complaints", len(complaints))
	}
	f := &replay.Fixture{
		Description: desc,
		Profile:     profileName,
		Config:      replay.DefaultFixtureConfig(),
	}

	var skipped []string
	for i := len(complaints) - 1; i >= 0; i-- {
		c := complaints[i]
		b, err := rec.Recommend(c.Profile, c.Signals)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s: %v", c.ID, err))
			continue
		}
		fc := replay.FixtureCase{
			CaseID:   c.ID,
			Signals:  c.Signals,
			Expected: replay.Expect(b),
		}
		if c.Profile != profileName {
			fc.Profile = c.Profile
		}
		f.Cases = append(f.Cases, fc)
	}
	return f, skipped
}

// #endregion output
