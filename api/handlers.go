// Package api exposes the single webhook endpoint Slack calls after
// signature validation, and dispatches each interaction to its handler.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	log15 "github.com/inconshreveable/log15/v3"

	"easypoll/poll"
	"easypoll/slack"
)

const failureText = "Oops, I failed to execute properly. Please try again."

// Handler signatures for the three interaction kinds.
type (
	CommandHandler    func(ctx context.Context, cmd slack.SlashCommand) (string, error)
	ActionHandler     func(ctx context.Context, p *slack.InteractionPayload) error
	SubmissionHandler func(ctx context.Context, p *slack.InteractionPayload) (*poll.ValidationError, error)
)

// Routes maps interaction names to handlers. The maps are built once at
// startup and passed in by the caller; there is no global registry.
type Routes struct {
	Commands    map[string]CommandHandler
	Actions     map[string]ActionHandler
	Submissions map[string]SubmissionHandler

	log log15.Logger
}

func NewRoutes(commands map[string]CommandHandler, actions map[string]ActionHandler, submissions map[string]SubmissionHandler) *Routes {
	return &Routes{
		Commands:    commands,
		Actions:     actions,
		Submissions: submissions,
		log:         log15.New("module", "api"),
	}
}

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// HandleInteraction is the single entry point for Slack callbacks. The
// body is form-encoded and carries either slash command fields or a
// `payload` JSON describing a block action or view submission.
func (rt *Routes) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "unable to parse request body", http.StatusBadRequest)
		return
	}

	if command := r.PostForm.Get("command"); command != "" {
		rt.handleCommand(w, r, command)
		return
	}
	if payload := r.PostForm.Get("payload"); payload != "" {
		rt.handlePayload(w, r, payload)
		return
	}
	http.Error(w, "unsupported callback", http.StatusBadRequest)
}

func (rt *Routes) handleCommand(w http.ResponseWriter, r *http.Request, command string) {
	handler, ok := rt.Commands[command]
	if !ok {
		respondInChannel(w, fmt.Sprintf("No handler registered for command %s", command))
		return
	}

	cmd := slack.SlashCommand{
		Command:   command,
		Text:      r.PostForm.Get("text"),
		TeamID:    r.PostForm.Get("team_id"),
		ChannelID: r.PostForm.Get("channel_id"),
		UserID:    r.PostForm.Get("user_id"),
		TriggerID: r.PostForm.Get("trigger_id"),
	}

	text, err := handler(r.Context(), cmd)
	if err != nil {
		rt.log.Error("command handler failed", "command", command, "team", cmd.TeamID, "error", err)
		respondInChannel(w, failureText)
		return
	}
	respondInChannel(w, text)
}

func (rt *Routes) handlePayload(w http.ResponseWriter, r *http.Request, raw string) {
	var p slack.InteractionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		http.Error(w, "unable to parse payload", http.StatusBadRequest)
		return
	}

	switch p.Type {
	case slack.TypeBlockActions:
		rt.handleBlockAction(w, r, &p)
	case slack.TypeViewSubmission:
		rt.handleViewSubmission(w, r, &p)
	default:
		rt.log.Warn("ignoring unsupported payload type", "type", p.Type)
		w.WriteHeader(http.StatusOK)
	}
}

func (rt *Routes) handleBlockAction(w http.ResponseWriter, r *http.Request, p *slack.InteractionPayload) {
	if len(p.Actions) != 1 {
		rt.log.Warn("expected exactly one action per payload", "count", len(p.Actions))
		http.Error(w, "unsupported action payload", http.StatusBadRequest)
		return
	}

	actionID := p.Actions[0].ActionID
	handler, ok := rt.Actions[actionID]
	if !ok {
		rt.log.Warn("no handler for action", "action", actionID)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Slack discards the ack body for block actions, so a failure is
	// only logged; the ack stays a bare 200 either way.
	if err := handler(r.Context(), p); err != nil {
		rt.log.Error("action handler failed", "action", actionID, "team", p.Team.ID, "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	respondJSON(w, map[string]any{})
}

func (rt *Routes) handleViewSubmission(w http.ResponseWriter, r *http.Request, p *slack.InteractionPayload) {
	if p.View == nil {
		http.Error(w, "submission carried no view", http.StatusBadRequest)
		return
	}

	handler, ok := rt.Submissions[p.View.CallbackID]
	if !ok {
		rt.log.Warn("no handler for view submission", "callback", p.View.CallbackID)
		w.WriteHeader(http.StatusOK)
		return
	}

	// The submission ack body must be empty or a response_action
	// object; anything else is rejected, so failures are only logged.
	verr, err := handler(r.Context(), p)
	if err != nil {
		rt.log.Error("submission handler failed", "callback", p.View.CallbackID, "team", p.Team.ID, "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	if verr != nil {
		respondJSON(w, map[string]any{
			"response_action": "errors",
			"errors":          map[string]string{verr.BlockID: verr.Message},
		})
		return
	}
	respondJSON(w, map[string]any{})
}

func respondInChannel(w http.ResponseWriter, text string) {
	respondJSON(w, map[string]any{
		"response_type": "in_channel",
		"text":          text,
	})
}

func respondJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}
