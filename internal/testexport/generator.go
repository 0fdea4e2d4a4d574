package testexport

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ivasko/courtline/pkg/logger"
)

// Name pools for synthetic people. Mixed genders and a few diacritics
// so enrichment has something to chew on.
var (
	givenNames = []string{
		"Ana", "Marko", "Ivana", "Luka", "Petra", "Ivan", "Marija", "Josip",
		"Lucija", "Matej", "Sara", "Nikola", "Ema", "Karlo", "Vanja",
	}
	familyNames = []string{
		"Horvat", "Kovačević", "Babić", "Marić", "Jurić", "Novak",
		"Kovačić", "Knežević", "Šarić", "Perić",
	}
	localities = []string{
		"Split (HR)", "Solin (HR)", "Kaštela (HR)", "Trogir (HR)",
		"Omiš (HR)", "Sinj (HR)", "",
	}
	faculties = []string{
		"FESB Split", "Ekonomski fakultet Split", "Pravni fakultet Split",
		"PMF Split", "",
	}
	sports = []string{
		"futsal", "odbojka", "badminton", "joga", "stolni tenis", "košarka",
	}
)

type person struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
	Residence  string `json:"residence,omitempty"`
	Faculty    string `json:"faculty,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type event struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Location    string  `json:"location"`
	StartsAt    string  `json:"starts_at"`
	TotalUnits  int     `json:"total_units"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
}

type reservation struct {
	ID         string  `json:"id"`
	PersonID   string  `json:"person_id"`
	EventID    string  `json:"event_id"`
	Status     int     `json:"status"`
	AttendedAt *string `json:"attended_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// Generate writes a synthetic export into the configured directory.
func Generate(ctx context.Context, cfg *Config) error {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible test data
	log := logger.Named("testexport")

	people, duplicates := generatePeople(cfg, rng)
	events := generateEvents(cfg, rng)
	reservations := generateReservations(cfg, rng, people, events)

	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for name, data := range map[string]any{
		"people.json":       append(people, duplicates...),
		"events.json":       events,
		"reservations.json": reservations,
	} {
		raw, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(cfg.OutputDir, name), raw, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	log.Info(ctx, "synthetic export written",
		logger.String("dir", cfg.OutputDir),
		logger.Int("people", len(people)+len(duplicates)),
		logger.Int("events", len(events)),
		logger.Int("reservations", len(reservations)),
	)
	return nil
}

func generatePeople(cfg *Config, rng *rand.Rand) (people, duplicates []person) {
	people = make([]person, 0, cfg.NumPeople)
	for i := 0; i < cfg.NumPeople; i++ {
		enrolled := cfg.Start.Add(time.Duration(rng.Intn(cfg.SeasonWeeks*7*24)) * time.Hour)
		p := person{
			ID:         uuid.NewString(),
			FirstName:  pick(rng, givenNames),
			LastName:   pick(rng, familyNames),
			NationalID: fmt.Sprintf("%011d", rng.Int63n(99999999999)),
			BirthDate:  fmt.Sprintf("%d-%02d-%02d", 1995+rng.Intn(10), 1+rng.Intn(12), 1+rng.Intn(28)),
			Residence:  pick(rng, localities),
			Faculty:    pick(rng, faculties),
			CreatedAt:  enrolled.Format(time.RFC3339),
		}
		people = append(people, p)

		if rng.Float64() < cfg.DuplicateRate {
			dup := p
			dup.ID = uuid.NewString()
			dup.LastName = misspell(dup.LastName)
			dup.Residence = ""
			dup.CreatedAt = enrolled.Add(24 * time.Hour).Format(time.RFC3339)
			duplicates = append(duplicates, dup)
		}
	}
	return people, duplicates
}

func generateEvents(cfg *Config, rng *rand.Rand) []event {
	events := make([]event, 0, cfg.NumEvents)
	for i := 0; i < cfg.NumEvents; i++ {
		sport := pick(rng, sports)
		title := sport
		if rng.Float64() < 0.4 {
			title = fmt.Sprintf("%s group %d", sport, 1+rng.Intn(3))
		}
		starts := cfg.Start.
			Add(time.Duration(rng.Intn(cfg.SeasonWeeks*7)) * 24 * time.Hour).
			Add(time.Duration(8+rng.Intn(13)) * time.Hour)

		e := event{
			ID:         uuid.NewString(),
			Title:      title,
			Location:   "Spinut",
			StartsAt:   starts.Format(time.RFC3339),
			TotalUnits: 10 + rng.Intn(20),
		}
		if rng.Float64() < 0.05 {
			cancelled := starts.Add(-48 * time.Hour).Format(time.RFC3339)
			e.CancelledAt = &cancelled
		}
		events = append(events, e)
	}
	return events
}

func generateReservations(cfg *Config, rng *rand.Rand, people []person, events []event) []reservation {
	total := cfg.NumPeople * cfg.ReservationsPerPerson
	reservations := make([]reservation, 0, total)

	for i := 0; i < total; i++ {
		personID := people[rng.Intn(len(people))].ID
		if rng.Float64() < cfg.OrphanRate {
			personID = uuid.NewString()
		}
		e := events[rng.Intn(len(events))]
		starts, _ := time.Parse(time.RFC3339, e.StartsAt)
		created := starts.Add(-time.Duration(1+rng.Intn(7*24)) * time.Hour)

		r := reservation{
			ID:        uuid.NewString(),
			PersonID:  personID,
			EventID:   e.ID,
			CreatedAt: created.Format(time.RFC3339),
		}
		switch roll := rng.Float64(); {
		case roll < 0.55: // attended
			r.Status = 1
			attended := e.StartsAt
			r.AttendedAt = &attended
		case roll < 0.75: // confirmed, no attendance mark
			r.Status = 1
		case roll < 0.9:
			r.Status = 2 // cancelled
		default:
			r.Status = 3 // rejected
		}
		reservations = append(reservations, r)
	}
	return reservations
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

// misspell strips diacritics from the last rune-bearing characters so
// the duplicate still folds to the same dedupe key.
func misspell(name string) string {
	replacer := map[rune]rune{'č': 'c', 'ć': 'c', 'š': 's', 'ž': 'z', 'đ': 'd'}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if plain, ok := replacer[r]; ok {
			r = plain
		}
		out = append(out, r)
	}
	return string(out)
}
