package handlers

import (
	"log"
	"net/http"
	"time"

	"facerec/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
)

type StreamClient struct {
	RemoteAddr  string
	ConnectedAt time.Time
	Frames      int
}

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 4 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	streams = cmap.New[*StreamClient]()
)

// RecognizeStream answers every image payload received on the socket with a recognition result
func RecognizeStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(int64(config.MAX_PAYLOAD_BYTES))

	id := uuid.NewString()
	client := &StreamClient{
		RemoteAddr:  c.ClientIP(),
		ConnectedAt: time.Now(),
	}
	streams.Set(id, client)
	defer streams.Remove(id)

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("read err:", err)
			}
			break
		}
		if string(message) == "ping" {
			conn.WriteMessage(mt, []byte("pong"))
			continue
		}
		if string(message) == "pong" {
			continue
		}
		client.Frames++
		_, result := recognizePayload(string(message))
		if err = conn.WriteJSON(result); err != nil {
			log.Println("write err:", err)
			break
		}
	}
	log.Printf("Stream %s from %s closed after %d frames", id, client.RemoteAddr, client.Frames)
}
