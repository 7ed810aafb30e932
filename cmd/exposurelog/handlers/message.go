package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/service"
	"github.com/lsst-sqre/exposurelog/common/logger"
)

// MessageHandler handles message requests
type MessageHandler struct {
	messages *service.MessageService
	log      *logger.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		log:      log,
	}
}

// DeleteMessagesRequest is the body of a bulk delete
type DeleteMessagesRequest struct {
	IDs    []uuid.UUID `json:"ids"`
	SiteID *string     `json:"site_id,omitempty"`
}

// addMessageBody is the add request as sent. The pointer fields shadow the
// embedded ones so an omitted field can be told apart from a zero value.
type addMessageBody struct {
	service.AddMessageRequest
	MessageText *string `json:"message_text"`
	UserID      *string `json:"user_id"`
	UserAgent   *string `json:"user_agent"`
	IsHuman     *bool   `json:"is_human"`
	IsNew       *bool   `json:"is_new"`
}

// request returns the service request and the names of required fields
// the body left out.
func (b addMessageBody) request() (service.AddMessageRequest, []string) {
	req := b.AddMessageRequest
	var missing []string
	if req.ObsID == "" {
		missing = append(missing, "obs_id")
	}
	if req.Instrument == "" {
		missing = append(missing, "instrument")
	}
	if b.MessageText == nil {
		missing = append(missing, "message_text")
	} else {
		req.MessageText = *b.MessageText
	}
	if b.UserID == nil {
		missing = append(missing, "user_id")
	} else {
		req.UserID = *b.UserID
	}
	if b.UserAgent == nil {
		missing = append(missing, "user_agent")
	} else {
		req.UserAgent = *b.UserAgent
	}
	if b.IsHuman == nil {
		missing = append(missing, "is_human")
	} else {
		req.IsHuman = *b.IsHuman
	}
	if b.IsNew == nil {
		missing = append(missing, "is_new")
	} else {
		req.IsNew = *b.IsNew
	}
	return req, missing
}

// AddMessage adds a message
// POST /exposurelog/messages
func (h *MessageHandler) AddMessage(c echo.Context) error {
	var body addMessageBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req, missing := body.request()
	if len(missing) > 0 {
		return badRequest(c, "missing required fields: "+strings.Join(missing, ", "))
	}

	msg, err := h.messages.AddMessage(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, msg)
}

// FindMessages searches messages
// GET /exposurelog/messages?instruments=LSSTCam&order_by=-date_added&limit=10
func (h *MessageHandler) FindMessages(c echo.Context) error {
	params, err := parseFindParams(c.QueryParams(), query.MessageTable)
	if err != nil {
		return badRequest(c, err.Error())
	}

	msgs, err := h.messages.FindMessages(c.Request().Context(), params.args, params.orderBy, params.limit, params.offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// GetMessage returns one message
// GET /exposurelog/messages/:id
func (h *MessageHandler) GetMessage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "id must be a UUID")
	}

	msg, err := h.messages.GetMessage(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, msg)
}

// EditMessage supersedes a message with an edited copy
// PATCH /exposurelog/messages/:id
func (h *MessageHandler) EditMessage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "id must be a UUID")
	}

	var req service.EditMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	msg, err := h.messages.EditMessage(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, msg)
}

// DeleteMessages invalidates several messages and returns those updated
// POST /exposurelog/messages/delete
func (h *MessageHandler) DeleteMessages(c echo.Context) error {
	var req DeleteMessagesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	msgs, err := h.messages.DeleteMessages(c.Request().Context(), req.IDs, req.SiteID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// DeleteMessage invalidates one message
// DELETE /exposurelog/messages/:id
func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "id must be a UUID")
	}

	msgs, err := h.messages.DeleteMessages(c.Request().Context(), []uuid.UUID{id}, nil)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if len(msgs) == 0 {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: CodeNotFound, Message: "message " + id.String() + " not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
