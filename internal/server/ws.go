package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Asdzzyandzzy/AStock-Analysis/infrastructure/logger"
	"github.com/Asdzzyandzzy/AStock-Analysis/market"
)

// wsMessage 推送给看板的一帧。
type wsMessage struct {
	// Type "live_window" 或 "large_trade"
	Type  string        `json:"type"`
	Ticks []market.Tick `json:"ticks,omitempty"`
	Tick  *market.Tick  `json:"tick,omitempty"`
}

// Broadcaster 把 Publisher 的事件推给所有 websocket 客户端。
// 写失败即断开该客户端，慢消费者不拖累其它连接。
type Broadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func NewBroadcaster(log *logger.Logger) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   log,
	}
}

// Run 消费订阅通道直到 ctx 取消。应在引擎启动后调用。
func (b *Broadcaster) Run(ctx context.Context, batches <-chan []market.Tick, larges <-chan market.Tick) {
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case batch := <-batches:
			b.send(wsMessage{Type: "live_window", Ticks: batch})
		case t := <-larges:
			b.send(wsMessage{Type: "large_trade", Tick: &t})
		}
	}
}

func (b *Broadcaster) send(msg wsMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = c.Close()
			delete(b.clients, c)
		}
	}
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		_ = c.Close()
		delete(b.clients, c)
	}
}

// ClientCount 当前连接数。
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Handler 接收 websocket 连接。
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			if b.logger != nil {
				b.logger.LogError(err, map[string]interface{}{"handler": "ws_upgrade"})
			}
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()

		// 读循环只为感知断连
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				_ = conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
