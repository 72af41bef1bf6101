package stt

import (
	"encoding/json"
	"fmt"

	vosk "github.com/alphacep/vosk-api/go"
)

type voskEngine struct {
	model *vosk.VoskModel
}

// newVoskEngine loads the Kaldi model at modelPath. The returned engine is
// immutable; recognizer state lives in the per-call streams.
func newVoskEngine(modelPath string) (Engine, error) {
	vosk.SetLogLevel(-1)
	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load recognition model: %w", err)
	}
	return &voskEngine{model: model}, nil
}

func (e *voskEngine) NewStream(sampleRate int) (Stream, error) {
	rec, err := vosk.NewRecognizer(e.model, float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("create recognizer: %w", err)
	}
	return &voskStream{rec: rec}, nil
}

type voskStream struct {
	rec *vosk.VoskRecognizer
}

type voskResult struct {
	Text string `json:"text"`
}

func (s *voskStream) Feed(pcm []byte) (string, bool, error) {
	if s.rec.AcceptWaveform(pcm) == 0 {
		return "", false, nil
	}
	text, err := parseVoskText(s.rec.Result())
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (s *voskStream) Flush() (string, error) {
	return parseVoskText(s.rec.FinalResult())
}

func (s *voskStream) Close() {
	s.rec.Free()
}

func parseVoskText(raw string) (string, error) {
	var result voskResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", fmt.Errorf("parse recognizer result: %w", err)
	}
	return result.Text, nil
}
