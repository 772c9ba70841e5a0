package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/idcard-services/internal/comm"
)

const writeWait = 10 * time.Second

// client serializes writes; a gorilla connection allows one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

type Ws struct {
	connMap sync.Map // socketId -> *client
}

func NewWs() *Ws {
	return &Ws{}
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case comm.MsgPing:
		s.Send(socketId, &comm.WSMessage{Type: comm.MsgPong, SocketId: socketId})
	default:
		log.Warnf("unknown event received: %s", message.Type)
		s.Send(socketId, comm.ErrorMessage("unknown message type"))
	}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, &client{conn: conn})
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return c.(*client).conn, true
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
}

// Count returns the number of open sockets.
func (s *Ws) Count() int {
	n := 0
	s.connMap.Range(func(key, value any) bool {
		n++
		return true
	})
	return n
}

// Send writes m to one socket.
func (s *Ws) Send(socketId string, m *comm.WSMessage) {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return
	}
	if err := c.(*client).writeJSON(m); err != nil {
		log.Warnf("write to socket %s failed: %v", socketId, err)
	}
}

// Broadcast writes m to every open socket. A socket that fails the write is
// closed and forgotten; its read loop finishes the cleanup.
func (s *Ws) Broadcast(m *comm.WSMessage) {
	s.connMap.Range(func(key, value any) bool {
		c := value.(*client)
		if err := c.writeJSON(m); err != nil {
			log.Warnf("dropping socket %s: %v", key, err)
			s.connMap.Delete(key)
			c.conn.Close()
		}
		return true
	})
}
