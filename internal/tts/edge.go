package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	edgeWSSURL         = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	edgeTrustedToken   = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	edgeOutputFormat   = "audio-24khz-48kbitrate-mono-mp3"
	edgeReceiveTimeout = 2 * time.Minute
)

// EdgeSynthesizer streams synthesis over the Edge read-aloud websocket
// endpoint and writes the received MP3 frames to disk.
type EdgeSynthesizer struct {
	dialer *websocket.Dialer
}

func NewEdgeSynthesizer() *EdgeSynthesizer {
	return &EdgeSynthesizer{
		dialer: &websocket.Dialer{HandshakeTimeout: 15 * time.Second},
	}
}

func (s *EdgeSynthesizer) Synthesize(ctx context.Context, text, voice, rate, outputPath string) error {
	connID := strings.ReplaceAll(uuid.NewString(), "-", "")
	url := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s", edgeWSSURL, edgeTrustedToken, connID)

	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial speech endpoint: %w", err)
	}
	defer conn.Close()

	timestamp := time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")

	speechConfig := fmt.Sprintf(
		"X-Timestamp:%s\r\nContent-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n"+
			`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"%s"}}}}`,
		timestamp, edgeOutputFormat,
	)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(speechConfig)); err != nil {
		return fmt.Errorf("send speech config: %w", err)
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")
	ssml := fmt.Sprintf(
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>"+
			"<voice name='%s'><prosody pitch='+0Hz' rate='%s' volume='+0%%'>%s</prosody></voice></speak>",
		voice, rate, escapeXML(text),
	)
	ssmlMessage := fmt.Sprintf(
		"X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nX-Timestamp:%s\r\nPath:ssml\r\n\r\n%s",
		requestID, timestamp, ssml,
	)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMessage)); err != nil {
		return fmt.Errorf("send ssml: %w", err)
	}

	var audio bytes.Buffer
	deadline := time.Now().Add(edgeReceiveTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetReadDeadline(deadline)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read synthesis stream: %w", err)
		}
		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				if audio.Len() == 0 {
					return fmt.Errorf("synthesis produced no audio")
				}
				return writeAudioFile(outputPath, audio.Bytes())
			}
		case websocket.BinaryMessage:
			if len(data) < 2 {
				continue
			}
			headerLen := int(binary.BigEndian.Uint16(data[:2]))
			if len(data) < 2+headerLen {
				continue
			}
			if strings.Contains(string(data[2:2+headerLen]), "Path:audio") {
				audio.Write(data[2+headerLen:])
			}
		}
	}
}

func writeAudioFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create audio directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("Audio file written")
	return nil
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"'", "&apos;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
