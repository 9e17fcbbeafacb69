package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/reklamap/recommender/internal/intake"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to intake.db (complaint mode)")
	profiles := flag.Bool("profiles", false, "validate and describe profiles as YAML (profile mode)")
	profileName := flag.String("profile", "", "restrict to one profile")
	last := flag.Int("last", 20, "show N most recent complaints")
	id := flag.String("id", "", "show a single complaint with its recommendation")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *profiles == (*dbPath != "") {
		fmt.Fprintln(os.Stderr, "usage: inspect --profiles [--profile name]")
		fmt.Fprintln(os.Stderr, "       inspect --db path/to/intake.db [--last N] [--profile name] [--id complaint] [--json]")
		os.Exit(2)
	}

	var err error
	switch {
	case *profiles:
		err = runProfileMode(*profileName)
	case *id != "":
		err = withStore(*dbPath, func(s *intake.Store) error { return runDetailMode(s, *id, *jsonOut) })
	default:
		err = withStore(*dbPath, func(s *intake.Store) error { return runListMode(s, *profileName, *last, *jsonOut) })
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func withStore(path string, fn func(*intake.Store) error) error {
	store, err := intake.NewStore(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// #endregion main

// #region profile-mode

// runProfileMode builds the registry, which validates every profile, and
// prints what each one reads and weighs.
func runProfileMode(name string) error {
	reg, err := profile.Default()
	if err != nil {
		return fmt.Errorf("validate profiles: %w", err)
	}
	var ps []*profile.Profile
	if name != "" {
		p, err := reg.Get(name)
		if err != nil {
			return err
		}
		ps = append(ps, p)
	} else {
		for _, n := range reg.Names() {
			p, _ := reg.Get(n)
			ps = append(ps, p)
		}
	}
	return profile.WriteYAML(os.Stdout, ps...)
}

// #endregion profile-mode

// #region list-mode

type listRow struct {
	ComplaintID string `json:"complaint_id"`
	Profile     string `json:"profile"`
	Primary     string `json:"primary,omitempty"`
	Secondary   string `json:"secondary,omitempty"`
	Confidence  string `json:"confidence,omitempty"`
	Error       string `json:"error,omitempty"`
	ReceivedAt  string `json:"received_at"`
}

func runListMode(store *intake.Store, profileName string, last int, jsonOut bool) error {
	complaints, err := store.List(profileName, last)
	if err != nil {
		return err
	}
	if len(complaints) == 0 {
		fmt.Fprintln(os.Stderr, "no complaints found")
		return nil
	}

	rec := recommend.New(profile.MustRegistry(), "")
	rows := make([]listRow, len(complaints))
	for i, c := range complaints {
		row := listRow{
			ComplaintID: c.ID,
			Profile:     c.Profile,
			ReceivedAt:  c.ReceivedAt.Format("2006-01-02T15:04:05Z"),
		}
		if b, err := rec.Recommend(c.Profile, c.Signals); err != nil {
			row.Error = err.Error()
		} else {
			row.Profile = b.Profile
			row.Primary = string(b.Recommendation.Primary)
			row.Secondary = string(b.Recommendation.Secondary)
			row.Confidence = fmt.Sprintf("%.0f%% %s", b.PrimaryConfidence*100, b.ConfidenceLabel)
		}
		rows[i] = row
	}

	if jsonOut {
		return printJSON(rows)
	}
	printListTable(rows)
	return nil
}

func printListTable(rows []listRow) {
	fmt.Printf("%-36s  %-13s  %-18s  %-18s  %-15s  %s\n",
		"Complaint", "Profile", "Primary", "Secondary", "Confidence", "Received")
	fmt.Printf("%s\n", strings.Repeat("-", 36+13+18+18+15+20+10))
	for _, r := range rows {
		primary := r.Primary
		if r.Error != "" {
			primary = "ERROR"
		}
		fmt.Printf("%-36s  %-13s  %-18s  %-18s  %-15s  %s\n",
			r.ComplaintID, r.Profile, primary, r.Secondary, r.Confidence, r.ReceivedAt)
	}
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(store *intake.Store, id string, jsonOut bool) error {
	c, err := store.Get(id)
	if err != nil {
		return err
	}
	b, err := recommend.New(profile.MustRegistry(), "").Recommend(c.Profile, c.Signals)
	if err != nil {
		return fmt.Errorf("recommend %s: %w", id, err)
	}

	if jsonOut {
		return printJSON(struct {
			Complaint intake.Complaint `json:"complaint"`
			Bundle    recommend.Bundle `json:"bundle"`
		}{c, b})
	}

	fmt.Printf("Complaint:  %s\n", c.ID)
	fmt.Printf("Profile:    %s\n", b.Profile)
	fmt.Printf("Received:   %s\n\n", c.ReceivedAt.Format("2006-01-02T15:04:05Z"))

	fmt.Printf("%-18s  %8s  %10s\n", "Action", "Score", "Confidence")
	fmt.Printf("%-18s+-%8s+-%10s\n", "------------------", "--------", "----------")
	for _, r := range b.Recommendation.Ranked {
		fmt.Printf("%-18s  %8.4f  %10.4f\n", r.Action, r.Score, b.Confidence[r.Action])
	}
	fmt.Println()

	if len(b.Overrides) > 0 {
		fmt.Printf("Overrides:  %s\n", strings.Join(b.Overrides, ", "))
	}
	if b.Recommendation.Demoted {
		fmt.Printf("Demoted:    margin %.4f\n", b.Recommendation.Margin)
	}
	fmt.Printf("\n%s\n", b.Narrative)
	return nil
}

// #endregion detail-mode

// #region helpers

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
