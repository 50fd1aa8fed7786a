package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// sourceLanguage is the fixed hint passed to the transcription model.
const sourceLanguage = "ko"

// Failure causes reported for diagnostics; all collapse to a single rejected
// outcome for the caller.
const (
	FailureCauseFileHandling  = "file-handling"
	FailureCauseModelNotFound = "resource-not-found"
	FailureCauseConnectivity  = "connectivity"
)

// AudioTranscriber is the slice of the LLM client the transcription stage
// needs. The call takes a filesystem path, not a byte buffer.
type AudioTranscriber interface {
	TranscribeFile(ctx context.Context, path, language string) (string, error)
}

type TranscriptionService interface {
	// Transcribe converts audio bytes to text. The second return value is the
	// failure-cause label, empty on success.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, string, *ServiceError)
}

type transcriptionService struct {
	transcriber AudioTranscriber
	logger      *zap.SugaredLogger
}

func NewTranscriptionService(transcriber AudioTranscriber, logger *zap.SugaredLogger) TranscriptionService {
	return &transcriptionService{transcriber: transcriber, logger: logger}
}

// Transcribe implements TranscriptionService. The audio is staged in a
// scoped temporary file that is removed on every exit path.
func (t *transcriptionService) Transcribe(ctx context.Context, audio []byte, filename string) (string, string, *ServiceError) {
	t.logger.Infof("🎤 Transcription started: %s (%d bytes)", filename, len(audio))

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".wav"
	}

	tempFile, err := os.CreateTemp("", "interview_*"+ext)
	if err != nil {
		return "", FailureCauseFileHandling, transientError("임시 파일 생성 실패", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.Write(audio); err != nil {
		tempFile.Close()
		return "", FailureCauseFileHandling, transientError("임시 파일 쓰기 실패", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", FailureCauseFileHandling, transientError("임시 파일 닫기 실패", err)
	}

	text, err := t.transcriber.TranscribeFile(ctx, tempPath, sourceLanguage)
	if err != nil {
		cause := classifyTranscriptionFailure(err)
		t.logger.Errorf("❌ Transcription failed (%s): %v", cause, err)
		return "", cause, transientError("음성 변환 중 오류 발생", err)
	}

	t.logger.Infof("✅ Transcription finished: %d chars", len([]rune(text)))
	return text, "", nil
}

func classifyTranscriptionFailure(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found") || strings.Contains(msg, "404"):
		return FailureCauseModelNotFound
	case strings.Contains(msg, "no such file") || strings.Contains(msg, "permission denied") || strings.Contains(msg, "upload"):
		return FailureCauseFileHandling
	default:
		return FailureCauseConnectivity
	}
}
