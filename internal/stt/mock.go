package stt

type mockEngine struct {
	transcript string
}

// NewMockEngine returns an engine whose streams recognize nothing until
// flushed and then report the fixed transcript. Useful for development
// without model assets.
func NewMockEngine(transcript string) Engine {
	return &mockEngine{transcript: transcript}
}

func (e *mockEngine) NewStream(sampleRate int) (Stream, error) {
	return &mockStream{transcript: e.transcript}, nil
}

type mockStream struct {
	transcript string
}

func (s *mockStream) Feed(pcm []byte) (string, bool, error) {
	return "", false, nil
}

func (s *mockStream) Flush() (string, error) {
	return s.transcript, nil
}

func (s *mockStream) Close() {}
