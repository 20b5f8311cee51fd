package notify

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"

	"jafar/internal/config"
	"jafar/internal/logger"
)

// Voice speaks short phrases through the Muxlisa TTS service: the text is
// synthesized remotely and the returned audio is handed to a local player.
type Voice struct {
	ttsURL     string
	player     string
	httpClient *http.Client
	log        *logger.Logger
}

func NewVoice(cfg config.VoiceConfig, log *logger.Logger) *Voice {
	player := cfg.Player
	if player == "" {
		player = "afplay"
	}
	return &Voice{
		ttsURL: cfg.TTSURL,
		player: player,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log: log,
	}
}

func (v *Voice) Speak(text string) {
	if v.ttsURL == "" {
		v.log.WithComponent("voice").Debug("TTS не настроен, озвучка пропущена.")
		return
	}

	payload, _ := json.Marshal(map[string]string{"text": text})

	resp, err := v.httpClient.Post(v.ttsURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		v.log.WithComponent("voice").WithError(err).Warn("Не удалось обратиться к TTS сервису.")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.log.WithComponent("voice").WithField("status", resp.Status).Warn("TTS сервис вернул ошибку.")
		return
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil || len(audio) == 0 {
		v.log.WithComponent("voice").WithError(err).Warn("Пустой ответ TTS сервиса.")
		return
	}

	v.play(audio)
}

func (v *Voice) play(audio []byte) {
	f, err := os.CreateTemp("", "jafar-voice-*.wav")
	if err != nil {
		v.log.WithComponent("voice").WithError(err).Warn("Не удалось сохранить аудио.")
		return
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(audio); err != nil {
		f.Close()
		v.log.WithComponent("voice").WithError(err).Warn("Не удалось записать аудио.")
		return
	}
	f.Close()

	if err := exec.Command(v.player, f.Name()).Run(); err != nil {
		v.log.WithComponent("voice").WithError(err).Warn("Не удалось воспроизвести аудио.")
	}
}
