package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reklamap/recommender/internal/action"
	"github.com/reklamap/recommender/internal/intake"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to intake.db (DB mode)")
	fixturePath := flag.String("fixture", "", "fixture JSON file or directory of fixtures (fixture mode)")
	profileName := flag.String("profile", "", "DB mode: only replay complaints of this profile")
	limit := flag.Int("last", 0, "DB mode: replay the N most recent complaints (0 = all)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/intake.db [--profile name] [--last N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json|dir")
		os.Exit(2)
	}

	rec := recommend.New(profile.MustRegistry(), "")

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(rec, *fixturePath)
	} else {
		exitCode = runDBMode(rec, *dbPath, *profileName, *limit)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

// runDBMode replays stored complaints. They carry no expectation, so only
// resolution errors and eval failures count against the run.
func runDBMode(rec *recommend.Recommender, dbPath, profileName string, limit int) int {
	store, err := intake.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	complaints, err := store.List(profileName, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list complaints: %v\n", err)
		return 2
	}
	if len(complaints) == 0 {
		fmt.Fprintln(os.Stderr, "no complaints found")
		return 2
	}

	cases := make([]replay.Case, len(complaints))
	for i, c := range complaints {
		cases[i] = replay.Case{CaseID: c.ID, Profile: c.Profile, Signals: c.Signals}
	}
	results := replay.Replay(rec, cases, replay.DefaultReplayConfig())

	fmt.Printf("%-36s | %-13s | %-18s | %-18s | %s\n", "Complaint", "Profile", "Primary", "Secondary", "Eval")
	fmt.Printf("%-36s-+-%-13s-+-%-18s-+-%-18s-+-%s\n", dashes(36), dashes(13), dashes(18), dashes(18), dashes(6))
	failed := 0
	for _, r := range results {
		if r.Bundle == nil {
			failed++
			fmt.Printf("%-36s | %-13s | %-18s | %-18s | ERROR %s\n", r.CaseID, "-", "-", "-", r.Reason)
			continue
		}
		verdict := "OK"
		if r.Outcome == replay.OutcomeEvalFail {
			failed++
			verdict = "FAIL " + r.Reason
		}
		rc := r.Bundle.Recommendation
		fmt.Printf("%-36s | %-13s | %-18s | %-18s | %s\n", r.CaseID, r.Bundle.Profile, rc.Primary, rc.Secondary, verdict)
	}

	printSummary(replay.Summarize(results))
	if failed > 0 {
		return 1
	}
	return 0
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(rec *recommend.Recommender, path string) int {
	paths, err := fixturePaths(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "find fixtures: %v\n", err)
		return 2
	}

	var all []replay.ReplayResult
	for _, p := range paths {
		f, err := replay.LoadFixture(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
			return 2
		}
		results := replay.Replay(rec, f.ToCases(), f.Config.ToReplayConfig())
		printComparison(filepath.Base(p), f.ToCases(), results)
		all = append(all, results...)
	}

	s := replay.Summarize(all)
	printSummary(s)
	if s.Matches != s.TotalCases {
		return 1
	}
	return 0
}

func fixturePaths(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return filepath.Glob(filepath.Join(path, "*.json"))
}

// #endregion fixture-mode

// #region output

func printComparison(name string, cases []replay.Case, results []replay.ReplayResult) {
	fmt.Printf("== %s\n", name)
	fmt.Printf("%-28s| %-18s| %-18s| %s\n", "Case", "Expected", "Replayed", "Match")
	fmt.Printf("%-28s+%-19s+%-19s+%s\n", dashes(28), dashes(19), dashes(19), dashes(6))
	for i, r := range results {
		got := "-"
		if r.Bundle != nil {
			got = string(r.Bundle.Recommendation.Primary)
		}
		match := "OK"
		if r.Outcome != replay.OutcomeMatch {
			match = "DIFF " + r.Reason
		}
		fmt.Printf("%-28s| %-18s| %-18s| %s\n", r.CaseID, cases[i].Expected.Primary, got, match)
	}
	fmt.Println()
}

func printSummary(s replay.ReplaySummary) {
	fmt.Printf("Summary: %d total, %d match, %d mismatch, %d eval fail, %d error\n",
		s.TotalCases, s.Matches, s.Mismatches, s.EvalFails, s.Errors)
	fmt.Printf("         %d overridden, %d demoted, %d degraded narratives\n", s.Overridden, s.Demotions, s.Degradation)
	for _, a := range action.All {
		if n := s.ByPrimary[string(a)]; n > 0 {
			fmt.Printf("         %-18s %d\n", a, n)
		}
	}
}

func dashes(n int) string { return strings.Repeat("-", n) }

// #endregion output
