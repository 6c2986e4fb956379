package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
	"github.com/viant/cmdrelay/schema"
)

const slackClient = "slack"

// handleSlack accepts a Slack slash command form post. Failures are answered
// as ephemeral messages since Slack shows only 200 responses to the user.
func (s *Server) handleSlack(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, r, errorBody("Invalid request", r), http.StatusBadRequest)
		return
	}
	if s.slackSigningSecret != "" {
		verifier, err := slack.NewSecretsVerifier(r.Header, s.slackSigningSecret)
		if err == nil {
			_, _ = verifier.Write(body)
			err = verifier.Ensure()
		}
		if err != nil {
			logger.Warn().Err(err).Msg("slack.invalid_signature")
			writeJSON(w, r, errorBody("Invalid Slack signature", r), http.StatusUnauthorized)
			return
		}
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	command, err := slack.SlashCommandParse(r)
	if err != nil {
		logger.Warn().Err(err).Msg("slack.invalid_command")
		writeJSON(w, r, errorBody("Invalid request", r), http.StatusBadRequest)
		return
	}
	envelope := &schema.Envelope{
		Params: schema.Params{
			Client: &schema.Client{UserID: command.UserID, ResponseURL: command.ResponseURL, Name: slackClient},
			Args:   ParseArgs(command.Text),
		},
		CommandText: strings.TrimSpace(command.Command + " " + command.Text),
	}
	response := s.service.Handle(r.Context(), envelope, r.PathValue("command"))
	if response.IsError() {
		text := "Unexpected error"
		if body, ok := response.Body.(*schema.ErrorBody); ok {
			text = body.Error
		}
		writeJSON(w, r, &slack.Msg{ResponseType: slack.ResponseTypeEphemeral, Text: text}, http.StatusOK)
		return
	}
	writeResponse(w, r, response)
}
