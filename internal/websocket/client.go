package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/entity"
	"easylaw-be/internal/pkg/apperror"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/internal/pkg/serverutils"
	"easylaw-be/internal/service"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var errClientClosed = errors.New("websocket client closed")

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// UserID associated with this connection
	UserID   uuid.UUID
	identity entity.Identity

	// Buffered channel of outbound frames. Never closed; done signals
	// shutdown instead.
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// Closed when writePump returns. The conn must not be touched after.
	writerDone chan struct{}

	streams service.IStreamService
	logger  logger.ILogger
}

func newClient(hub *Hub, conn *websocket.Conn, identity entity.Identity, streams service.IStreamService, log logger.ILogger) *Client {
	return &Client{
		Hub:      hub,
		Conn:     conn,
		UserID:   identity.UserId,
		identity: identity,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		streams:  streams,
		logger:   log,

		writerDone: make(chan struct{}),
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// tryEnqueue never blocks; used for fan-out frames.
func (c *Client) tryEnqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// enqueue waits up to writeWait for buffer space; used for turn events,
// which must not be dropped silently.
func (c *Client) enqueue(data []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	timer := time.NewTimer(writeWait)
	defer timer.Stop()
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errClientClosed
	case <-timer.C:
		return errors.New("websocket client too slow")
	}
}

// Send implements service.EventSink for turns started on this connection.
func (c *Client) Send(message dto.StreamingMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

// DecodeClientFrame parses and validates one inbound frame.
func DecodeClientFrame(raw []byte) (*dto.SendMessageRequest, error) {
	var request dto.SendMessageRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		return nil, apperror.Validation("frame is not valid JSON", nil)
	}
	if request.Type != constant.FrameTypeMessage {
		return nil, apperror.Validation("unsupported frame type", map[string]interface{}{"type": request.Type})
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return nil, err
	}
	return &request, nil
}

// readPump reads client frames and starts one turn per message frame.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"user_id": c.UserID.String(),
					"error":   err.Error(),
				})
			}
			return
		}

		request, err := DecodeClientFrame(raw)
		if err != nil {
			c.rejectFrame(err)
			continue
		}

		go func() {
			// Errors were already delivered to the client as an error event.
			_ = c.streams.SendMessage(ctx, c.identity, request, c)
		}()
	}
}

func (c *Client) rejectFrame(err error) {
	appErr := apperror.From(err)
	metadata := map[string]interface{}{"code": appErr.Code}
	for k, v := range appErr.Details {
		metadata[k] = v
	}
	_ = c.Send(dto.StreamingMessage{
		Type:     constant.StreamEventError,
		Content:  appErr.Message,
		Metadata: metadata,
	})
}

// writePump pumps frames to the websocket connection, one websocket
// message per frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		close(c.writerDone)
	}()

	for {
		select {
		case message := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
