package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-browser/internal/apperror"
)

var ErrMissingPayload = errors.New("payload is required")

func (that *Server) handleConfigure(_ context.Context, client *client, msg *Message) error {
	var payload ConfigurePayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	if err := client.session.Engine.Configure(payload.Player1, payload.Player2, payload.Computer); err != nil {
		return fmt.Errorf("failed to configure game: %w", err)
	}

	// configuring raises no engine notification
	client.session.RequestSave()

	return client.sendState()
}

func (that *Server) handleStart(_ context.Context, client *client, _ *Message) error {
	if err := client.session.Engine.Start(); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}

	return nil
}

func (that *Server) handleTurn(_ context.Context, client *client, msg *Message) error {
	var payload TurnPayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	if payload.Cell == nil {
		return fmt.Errorf("%w: cell is missing", apperror.ErrInvalidIndex)
	}

	if _, err := client.session.Engine.SubmitMove(*payload.Cell); err != nil {
		return fmt.Errorf("failed to make turn: %w", err)
	}

	return nil
}

func (that *Server) handleRematch(_ context.Context, client *client, _ *Message) error {
	if err := client.session.Engine.Rematch(); err != nil {
		return fmt.Errorf("failed to start rematch: %w", err)
	}

	return nil
}

func (that *Server) handleReset(_ context.Context, client *client, _ *Message) error {
	client.session.Engine.ResetAll()

	return client.sendState()
}

func (that *Server) handleState(_ context.Context, client *client, _ *Message) error {
	return client.sendState()
}

func decodePayload(msg *Message, target any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingPayload, msg.Action)
	}

	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}
