// Package quote implements the quote commands: small CRUD over the
// team's quote partition.
package quote

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	log15 "github.com/inconshreveable/log15/v3"

	"easypoll/db"
)

const pageSize = 10

// Store is the slice of the record store the quote feature needs.
type Store interface {
	PutRecord(ctx context.Context, rec *db.Record) error
	QueryPartition(ctx context.Context, partition string) ([]db.Record, error)
}

type Service struct {
	store Store
	log   log15.Logger

	// Overridable in tests.
	Now    func() time.Time
	Jitter func() int64
}

func NewService(store Store) *Service {
	return &Service{
		store:  store,
		log:    log15.New("module", "quote"),
		Now:    time.Now,
		Jitter: func() int64 { return int64(rand.Intn(1000)) },
	}
}

// Add stores a quote. The text must start with the quoted user's @name
// and carry at least one word of quote after it.
func (s *Service) Add(ctx context.Context, team, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "A quote must have a text... Try again with '/add-quote @user: I am an idiot'", nil
	}
	parts := strings.Split(text, " ")
	if !strings.HasPrefix(parts[0], "@") {
		return "The quote must start with the slack name of a user (including @)", nil
	}
	if len(parts) < 2 {
		return "Very good, but now the person must say something, try '/add-quote @user: I am an idiot'", nil
	}

	rec := &db.Record{
		PartitionKey: team,
		SortTS:       s.Now().Unix()*1000 + s.Jitter(),
		Message:      text,
	}
	if err := s.store.PutRecord(ctx, rec); err != nil {
		return "", err
	}
	s.log.Info("quote added", "team", team)
	return "Thanks! Your quote was preserved for future generations.", nil
}

// Last lists the latest quotes: the top ten by default, everything for
// "all", or ten after skipping a given count.
func (s *Service) Last(ctx context.Context, team, text string) (string, error) {
	quotes, err := s.all(ctx, team)
	if err != nil {
		return "", err
	}
	if len(quotes) == 0 {
		return "No quotes were found", nil
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return joinQuotes("Here are the latest quotes:", firstN(quotes, pageSize)), nil
	case text == "all":
		return joinQuotes("Here are all quotes:", quotes), nil
	default:
		skip, err := strconv.Atoi(text)
		if err != nil {
			return "You can use /last-quotes with a number to skip a number of quotes. " +
				"Example: '/last-quotes 30' will skip the 30 latest quotes", nil
		}
		if skip < 0 {
			skip = 0
		}
		if skip > len(quotes) {
			skip = len(quotes)
		}
		return joinQuotes(
			fmt.Sprintf("Here are some quotes skipping the first %d:", skip),
			firstN(quotes[skip:], pageSize)), nil
	}
}

// Random returns one uniformly chosen quote.
func (s *Service) Random(ctx context.Context, team string) (string, error) {
	quotes, err := s.all(ctx, team)
	if err != nil {
		return "", err
	}
	if len(quotes) == 0 {
		return "No quotes were found", nil
	}
	return "Ok, here is your random quote:\n" + quotes[rand.Intn(len(quotes))], nil
}

// Search finds quotes by case-insensitive substring; a trailing
// " unlimited" lifts the ten-result cap.
func (s *Service) Search(ctx context.Context, team, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "We need some text to search for! Try '/search-quote hi'", nil
	}
	quotes, err := s.all(ctx, team)
	if err != nil {
		return "", err
	}

	unlimited := strings.HasSuffix(text, " unlimited")
	if unlimited {
		text = strings.TrimSuffix(text, " unlimited")
	}

	var matches []string
	for _, q := range quotes {
		if strings.Contains(strings.ToLower(q), strings.ToLower(text)) {
			matches = append(matches, q)
		}
	}

	if len(matches) == 0 {
		return "No quote found! Sorry. Just keep adding more of them.", nil
	}
	if unlimited {
		return joinQuotes("You found the unlimited function, you are 1337:", matches), nil
	}
	rand.Shuffle(len(matches), func(i, j int) { matches[i], matches[j] = matches[j], matches[i] })
	return joinQuotes("This is what I found (limited to 10): \n", firstN(matches, pageSize)), nil
}

func (s *Service) all(ctx context.Context, team string) ([]string, error) {
	recs, err := s.store.QueryPartition(ctx, team)
	if err != nil {
		return nil, err
	}
	quotes := make([]string, 0, len(recs))
	for _, rec := range recs {
		created := time.Unix(rec.SortTS/1000, 0).UTC().Format("2006-01-02 15:04:05")
		quotes = append(quotes, fmt.Sprintf("%s (UTC) - %s", created, rec.Message))
	}
	return quotes, nil
}

func firstN(quotes []string, n int) []string {
	if len(quotes) > n {
		return quotes[:n]
	}
	return quotes
}

func joinQuotes(heading string, quotes []string) string {
	return strings.Join(append([]string{heading}, quotes...), "\n - ")
}
