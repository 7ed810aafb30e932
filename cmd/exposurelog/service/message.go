package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/registry"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/repository"
	"github.com/lsst-sqre/exposurelog/common/logger"
)

// AddMessageRequest holds the caller-supplied fields of a new message
type AddMessageRequest struct {
	ObsID        string               `json:"obs_id"`
	Instrument   string               `json:"instrument"`
	MessageText  string               `json:"message_text"`
	Level        *int                 `json:"level,omitempty"`
	Tags         []string             `json:"tags,omitempty"`
	URLs         []string             `json:"urls,omitempty"`
	UserID       string               `json:"user_id"`
	UserAgent    string               `json:"user_agent"`
	IsHuman      bool                 `json:"is_human"`
	IsNew        bool                 `json:"is_new"`
	ExposureFlag *models.ExposureFlag `json:"exposure_flag,omitempty"`
}

// EditMessageRequest holds the overrides of an edit. Nil fields are
// inherited from the parent. SiteID scopes the parent lookup.
type EditMessageRequest struct {
	SiteID       *string              `json:"site_id,omitempty"`
	MessageText  *string              `json:"message_text,omitempty"`
	Level        *int                 `json:"level,omitempty"`
	Tags         *[]string            `json:"tags,omitempty"`
	URLs         *[]string            `json:"urls,omitempty"`
	UserID       *string              `json:"user_id,omitempty"`
	UserAgent    *string              `json:"user_agent,omitempty"`
	IsHuman      *bool                `json:"is_human,omitempty"`
	ExposureFlag *models.ExposureFlag `json:"exposure_flag,omitempty"`
}

// overrides is the merge patch applied to the parent's fields.
// site_id is not part of it: that one selects the parent.
func (r EditMessageRequest) overrides() ([]byte, error) {
	r.SiteID = nil
	return json.Marshal(r)
}

// MessageService owns the message lifecycle: add, edit, delete and find.
type MessageService struct {
	store    repository.MessageStore
	resolver *registry.Resolver
	clock    models.Clock
	siteID   string
	events   Publisher
	log      *logger.Logger
}

// NewMessageService creates a new message service
func NewMessageService(store repository.MessageStore, resolver *registry.Resolver, clock models.Clock, siteID string, events Publisher, log *logger.Logger) *MessageService {
	if events == nil {
		events = NopPublisher{}
	}
	return &MessageService{
		store:    store,
		resolver: resolver,
		clock:    clock,
		siteID:   siteID,
		events:   events,
		log:      log,
	}
}

// AddMessage validates req, resolves its exposure and inserts a new row.
func (s *MessageService) AddMessage(ctx context.Context, req AddMessageRequest) (*models.Message, error) {
	tags, err := NormalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	currentDayObs := models.DayObs(now)

	fields := models.MessageFields{
		SiteID:       s.siteID,
		ObsID:        req.ObsID,
		Instrument:   req.Instrument,
		MessageText:  req.MessageText,
		Level:        req.Level,
		Tags:         tags,
		URLs:         req.URLs,
		UserID:       req.UserID,
		UserAgent:    req.UserAgent,
		IsHuman:      req.IsHuman,
		ExposureFlag: models.ExposureFlagNone,
		DateAdded:    now,
	}
	if fields.Level == nil {
		level := models.DefaultLevel
		fields.Level = &level
	}
	if req.ExposureFlag != nil {
		fields.ExposureFlag = *req.ExposureFlag
	}

	res, err := s.resolver.Resolve(ctx, req.Instrument, req.ObsID)
	switch {
	case err == nil:
		seqNum := res.Exposure.SeqNum
		fields.DayObs = res.Exposure.DayObs
		fields.SeqNum = &seqNum
	case errors.Is(err, registry.ErrExposureNotFound) && req.IsNew:
		seqNum, err := checkNewObsID(req.ObsID, currentDayObs)
		if err != nil {
			return nil, err
		}
		fields.DayObs = currentDayObs
		fields.SeqNum = &seqNum
	case errors.Is(err, registry.ErrExposureNotFound):
		return nil, notFoundf("exposure instrument=%s obs_id=%s not found and is_new is false",
			req.Instrument, req.ObsID)
	default:
		return nil, err
	}

	msg, err := s.store.Insert(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to add message: %w", err)
	}

	CounterMessageWrites.WithLabelValues(ActionAdded).Inc()
	s.log.WithMessageID(msg.ID.String()).Info("added message",
		"obs_id", msg.ObsID,
		"instrument", msg.Instrument,
		"day_obs", msg.DayObs,
	)
	s.publish(ctx, Event{Action: ActionAdded, ID: msg.ID, SiteID: msg.SiteID})

	return msg, nil
}

// EditMessage supersedes message id with a new row built from the parent
// and the overrides in req. The parent is invalidated at the new row's
// date_added.
func (s *MessageService) EditMessage(ctx context.Context, id uuid.UUID, req EditMessageRequest) (*models.Message, error) {
	if req.Tags != nil {
		tags, err := NormalizeTags(*req.Tags)
		if err != nil {
			return nil, err
		}
		req.Tags = &tags
	}

	patch, err := req.overrides()
	if err != nil {
		return nil, fmt.Errorf("failed to encode overrides: %w", err)
	}

	now := s.clock.Now()
	build := func(parent *models.Message) (models.MessageFields, error) {
		return s.editedFields(parent, patch, now)
	}

	msg, err := s.store.Edit(ctx, id, req.SiteID, build, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundf("message id=%s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to edit message %s: %w", id, err)
	}

	CounterMessageWrites.WithLabelValues(ActionEdited).Inc()
	s.log.WithMessageID(msg.ID.String()).Info("edited message", "parent_id", id)
	s.publish(ctx, Event{Action: ActionEdited, ID: msg.ID, SiteID: msg.SiteID, ParentID: &id})

	return msg, nil
}

// editedFields merge-patches the parent's fields with patch and assigns
// the fields the engine owns.
func (s *MessageService) editedFields(parent *models.Message, patch []byte, now time.Time) (models.MessageFields, error) {
	original, err := json.Marshal(parent.Fields())
	if err != nil {
		return models.MessageFields{}, fmt.Errorf("failed to encode parent: %w", err)
	}

	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return models.MessageFields{}, fmt.Errorf("failed to merge overrides: %w", err)
	}

	var fields models.MessageFields
	if err := json.Unmarshal(merged, &fields); err != nil {
		return models.MessageFields{}, badRequestf("invalid overrides: %v", err)
	}

	parentID := parent.ID
	fields.SiteID = s.siteID
	fields.DateAdded = now
	fields.ParentID = &parentID
	return fields, nil
}

// DeleteMessages invalidates the messages in ids and returns the rows it
// updated. Unknown ids are skipped.
func (s *MessageService) DeleteMessages(ctx context.Context, ids []uuid.UUID, siteID *string) ([]*models.Message, error) {
	msgs, err := s.store.Invalidate(ctx, ids, siteID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to delete messages: %w", err)
	}

	CounterMessageWrites.WithLabelValues(ActionInvalidated).Add(float64(len(msgs)))
	s.log.Info("deleted messages", "requested", len(ids), "invalidated", len(msgs))
	for _, msg := range msgs {
		s.publish(ctx, Event{Action: ActionInvalidated, ID: msg.ID, SiteID: msg.SiteID})
	}

	return msgs, nil
}

// FindMessages searches with the query.MessageTable filter keys.
// is_valid defaults to true.
func (s *MessageService) FindMessages(ctx context.Context, args map[string]any, orderBy []string, limit, offset int) ([]*models.Message, error) {
	q, err := query.Build(query.MessageTable, args, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	return msgs, nil
}

// GetMessage returns one message, valid or not
func (s *MessageService) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	msg, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundf("message id=%s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

func (s *MessageService) publish(ctx context.Context, event Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish message event",
			"action", event.Action,
			"message_id", event.ID,
			"error", err,
		)
	}
}
