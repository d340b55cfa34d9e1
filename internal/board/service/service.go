// Package service is the entry point the HTTP layer uses to read and mutate
// an owner's boards. It publishes a board.changed event for every commit.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/board/command"
	"github.com/kandev/kanban/internal/board/drag"
	"github.com/kandev/kanban/internal/board/models"
	"github.com/kandev/kanban/internal/board/search"
	"github.com/kandev/kanban/internal/board/store"
	apperrors "github.com/kandev/kanban/internal/common/errors"
	"github.com/kandev/kanban/internal/common/logger"
	"github.com/kandev/kanban/internal/events"
	"github.com/kandev/kanban/internal/events/bus"
	"github.com/kandev/kanban/internal/roster"
)

const eventSource = "board-service"

type Service struct {
	registry *store.Registry
	eventBus bus.EventBus
	roster   *roster.Roster
	logger   *logger.Logger
	now      func() time.Time
}

// NewService wires the registry's commits to eventBus. eventBus may be nil.
func NewService(registry *store.Registry, eventBus bus.EventBus, r *roster.Roster, log *logger.Logger) *Service {
	s := &Service{
		registry: registry,
		eventBus: eventBus,
		roster:   r,
		logger:   log.WithFields(zap.String("component", "board-service")),
		now:      time.Now,
	}
	registry.Subscribe(s.publishChange)
	return s
}

func (s *Service) publishChange(c store.Change) {
	if s.eventBus == nil {
		return
	}
	data := events.BoardChangedData{OwnerID: c.OwnerID, BoardID: c.BoardID, Command: c.Command}
	event := bus.NewEvent(events.BoardChanged, eventSource, data.Map())
	if err := s.eventBus.Publish(context.Background(), events.BuildBoardChangedSubject(c.OwnerID), event); err != nil {
		s.logger.Warn("failed to publish board change",
			zap.String("owner_id", c.OwnerID),
			zap.String("board_id", c.BoardID),
			zap.Error(err))
	}
}

func (s *Service) Roster() *roster.Roster { return s.roster }

func (s *Service) store(ctx context.Context, ownerID string) (*store.Store, error) {
	st, err := s.registry.Get(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load boards")
	}
	return st, nil
}

// State returns the owner's whole snapshot.
func (s *Service) State(ctx context.Context, ownerID string) (command.State, error) {
	st, err := s.store(ctx, ownerID)
	if err != nil {
		return command.State{}, err
	}
	return st.State(), nil
}

func (s *Service) GetBoard(ctx context.Context, ownerID, boardID string) (models.Board, error) {
	state, err := s.State(ctx, ownerID)
	if err != nil {
		return models.Board{}, err
	}
	b, ok := state.Board(boardID)
	if !ok {
		return models.Board{}, apperrors.NotFound("board", boardID)
	}
	return b, nil
}

// SearchBoard returns the board with only the cards matching f.
func (s *Service) SearchBoard(ctx context.Context, ownerID, boardID string, f search.Filter) (models.Board, error) {
	b, err := s.GetBoard(ctx, ownerID, boardID)
	if err != nil {
		return models.Board{}, err
	}
	return f.Apply(b, s.now()), nil
}

// Execute dispatches cmd for ownerID. A command that changes nothing because
// its target is gone yields a NotFound error; other no-ops return the
// unchanged state.
func (s *Service) Execute(ctx context.Context, ownerID string, cmd command.Command) (command.State, error) {
	st, err := s.store(ctx, ownerID)
	if err != nil {
		return command.State{}, err
	}
	state, changed, err := st.Apply(ctx, cmd)
	if err != nil {
		return state, apperrors.Wrap(err, "failed to save "+strings.ReplaceAll(cmd.Name(), "_", " "))
	}
	if !changed {
		if err := missingTarget(state, cmd); err != nil {
			return state, err
		}
	}
	return state, nil
}

// Drop runs a one-shot drag result against boardID. The returned command is
// nil when the drop was a no-op.
func (s *Service) Drop(ctx context.Context, ownerID, boardID string, r drag.Result) (command.Command, command.State, error) {
	st, err := s.store(ctx, ownerID)
	if err != nil {
		return nil, command.State{}, err
	}
	state := st.State()
	b, ok := state.Board(boardID)
	if !ok {
		return nil, state, apperrors.NotFound("board", boardID)
	}
	if drag.ParseKind(r.Type) == drag.KindList {
		if r.Source.ContainerID != boardID {
			return nil, state, apperrors.BadRequest("list drags must start on the board")
		}
	} else if b.ListIndex(r.Source.ContainerID) < 0 {
		return nil, state, apperrors.NotFound("list", r.Source.ContainerID)
	}

	cmd, err := drag.NewTranslator(st).FromResult(ctx, r)
	if err != nil {
		return cmd, st.State(), apperrors.Wrap(err, "failed to save drop")
	}
	return cmd, st.State(), nil
}

func (s *Service) Undo(ctx context.Context, ownerID string) (command.State, error) {
	st, err := s.store(ctx, ownerID)
	if err != nil {
		return command.State{}, err
	}
	state, err := st.Undo(ctx)
	if errors.Is(err, store.ErrNothingToUndo) {
		return state, apperrors.Conflict("nothing to undo")
	}
	if err != nil {
		return state, apperrors.Wrap(err, "failed to undo")
	}
	return state, nil
}

// ResolveLabel completes a label from the roster. Labels outside the roster
// are accepted when they carry their own name and color.
func (s *Service) ResolveLabel(l models.Label) (models.Label, error) {
	if l.ID == "" {
		return l, apperrors.ValidationError("id", "label id is required")
	}
	if known, ok := s.roster.Label(l.ID); ok {
		return known, nil
	}
	if l.Color == "" {
		return l, apperrors.NotFound("label", l.ID)
	}
	return l, nil
}

// ResolveMember looks a member up in the roster. Cards only carry roster
// members.
func (s *Service) ResolveMember(id string) (models.Member, error) {
	m, ok := s.roster.Member(id)
	if !ok {
		return models.Member{}, apperrors.NotFound("member", id)
	}
	return m, nil
}

func missingTarget(s command.State, cmd command.Command) error {
	switch c := cmd.(type) {
	case command.UpdateBoard:
		return needBoard(s, c.BoardID)
	case command.DeleteBoard:
		return needBoard(s, c.BoardID)
	case command.SelectBoard:
		if c.BoardID != "" {
			return needBoard(s, c.BoardID)
		}
	case command.CreateList:
		return needBoard(s, c.BoardID)
	case command.MoveList:
		return needBoard(s, c.BoardID)
	case command.UpdateList:
		return needList(s, c.ListID)
	case command.DeleteList:
		return needList(s, c.ListID)
	case command.CreateCard:
		return needList(s, c.ListID)
	case command.MoveCard:
		if err := needList(s, c.FromListID); err != nil {
			return err
		}
		if err := needList(s, c.ToListID); err != nil {
			return err
		}
		return needCard(s, c.CardID)
	case command.DeleteComment:
		card, ok := s.Card(c.CardID)
		if !ok {
			return apperrors.NotFound("card", c.CardID)
		}
		for _, cm := range card.Comments {
			if cm.ID == c.CommentID {
				return nil
			}
		}
		return apperrors.NotFound("comment", c.CommentID)
	case command.DeleteAttachment:
		card, ok := s.Card(c.CardID)
		if !ok {
			return apperrors.NotFound("card", c.CardID)
		}
		for _, a := range card.Attachments {
			if a.ID == c.AttachmentID {
				return nil
			}
		}
		return apperrors.NotFound("attachment", c.AttachmentID)
	case command.UpdateCard:
		return needCard(s, c.CardID)
	case command.DeleteCard:
		return needCard(s, c.CardID)
	case command.ToggleCardCompletion:
		return needCard(s, c.CardID)
	case command.AddLabelToCard:
		return needCard(s, c.CardID)
	case command.RemoveLabelFromCard:
		return needCard(s, c.CardID)
	case command.AddMemberToCard:
		return needCard(s, c.CardID)
	case command.RemoveMemberFromCard:
		return needCard(s, c.CardID)
	case command.SetCardDueDate:
		return needCard(s, c.CardID)
	case command.AddComment:
		return needCard(s, c.CardID)
	case command.AddAttachment:
		return needCard(s, c.CardID)
	case command.SetCardCover:
		return needCard(s, c.CardID)
	}
	return nil
}

func needBoard(s command.State, id string) error {
	if _, ok := s.Board(id); !ok {
		return apperrors.NotFound("board", id)
	}
	return nil
}

func needList(s command.State, id string) error {
	if _, ok := s.List(id); !ok {
		return apperrors.NotFound("list", id)
	}
	return nil
}

func needCard(s command.State, id string) error {
	if _, ok := s.Card(id); !ok {
		return apperrors.NotFound("card", id)
	}
	return nil
}
