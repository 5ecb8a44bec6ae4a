package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"easypoll/api"
	"easypoll/poll"
	"easypoll/quote"
	"easypoll/slack"
)

// BuildRoutes wires every command, block action and view submission to
// its handler. This is the complete interaction surface of the bot.
func BuildRoutes(polls *poll.Service, quotes *quote.Service) *api.Routes {
	return api.NewRoutes(
		map[string]api.CommandHandler{
			"/poll": polls.HandleCreateCommand,
			"/add-quote": func(ctx context.Context, cmd slack.SlashCommand) (string, error) {
				return quotes.Add(ctx, cmd.TeamID, cmd.Text)
			},
			"/last-quotes": func(ctx context.Context, cmd slack.SlashCommand) (string, error) {
				return quotes.Last(ctx, cmd.TeamID, cmd.Text)
			},
			"/random-quote": func(ctx context.Context, cmd slack.SlashCommand) (string, error) {
				return quotes.Random(ctx, cmd.TeamID)
			},
			"/search-quotes": func(ctx context.Context, cmd slack.SlashCommand) (string, error) {
				return quotes.Search(ctx, cmd.TeamID, cmd.Text)
			},
		},
		map[string]api.ActionHandler{
			poll.ActionVote:            polls.HandleVote,
			poll.ActionRecurringChange: polls.HandleRecurringChange,
		},
		map[string]api.SubmissionHandler{
			poll.CallbackCreate: polls.HandleSubmission,
		},
	)
}

func SetupRouter(routes *api.Routes, signingSecret string) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", api.HandleHealthCheck)
	r.With(slack.VerifySignature(signingSecret)).
		Post("/slack/events", routes.HandleInteraction)

	return r
}
