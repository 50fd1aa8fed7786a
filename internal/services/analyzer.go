package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hrkit/interview-analyzer/internal/logger"
)

// minViableTextLength is the shortest trimmed input worth sending to the
// model; anything below is rejected before any external call.
const minViableTextLength = 50

// errorSentinels mark a text that is actually a lookup failure message, not
// document content.
var errorSentinels = []string{"오류", "찾을 수 없습니다"}

// TextGenerator is the slice of the LLM client the analyzer needs; tests
// mock it to assert the validation short-circuit.
type TextGenerator interface {
	GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error)
}

// StructuredAnalysis is the sectioned candidate evaluation produced by the
// persisted analysis endpoint.
type StructuredAnalysis struct {
	Summary    string
	Strengths  string
	Weaknesses string
}

type MatchAnalyzerService interface {
	// AnalyzeMatch produces the resume / job-posting matching report.
	AnalyzeMatch(ctx context.Context, resumeText, jobText string) (string, *ServiceError)
	// AnalyzeInterview evaluates an interview transcript, optionally against
	// a job description.
	AnalyzeInterview(ctx context.Context, transcription, jobDescription string) (string, *ServiceError)
	// AnalyzeStructured produces a summary/strengths/weaknesses evaluation.
	AnalyzeStructured(ctx context.Context, candidateName, position, resumeText, jobPostingText, interviewText string) (*StructuredAnalysis, *ServiceError)
	// CombineReports merges a match report and an interview report into one
	// final narrative.
	CombineReports(ctx context.Context, matchReport, interviewReport string) (string, *ServiceError)
}

type matchAnalyzerService struct {
	generator     TextGenerator
	promptBuilder *PromptBuilder
	maxRetries    int
	logger        *zap.SugaredLogger
}

func NewMatchAnalyzerService(generator TextGenerator, maxRetries int, logger *zap.SugaredLogger) MatchAnalyzerService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &matchAnalyzerService{
		generator:     generator,
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
		logger:        logger,
	}
}

// AnalyzeMatch implements MatchAnalyzerService.
func (m *matchAnalyzerService) AnalyzeMatch(ctx context.Context, resumeText, jobText string) (string, *ServiceError) {
	if serr := validateDocumentText("이력서", resumeText); serr != nil {
		return "", serr
	}
	if serr := validateDocumentText("채용공고", jobText); serr != nil {
		return "", serr
	}

	m.logger.Infof("📊 Match analysis started - resume: %d chars, job: %d chars", len(resumeText), len(jobText))

	prompt := m.promptBuilder.BuildMatchAnalysisPrompt(resumeText, jobText)

	// Deterministic sampling so repeated runs on the same inputs agree.
	report, err := m.generator.GenerateTextWithRetry(ctx, prompt, 0, m.maxRetries)
	if err != nil {
		m.logger.Errorf("❌ Match analysis failed: %v", err)
		return "", transientError("분석 중 오류 발생", err)
	}

	return report, nil
}

// AnalyzeInterview implements MatchAnalyzerService.
func (m *matchAnalyzerService) AnalyzeInterview(ctx context.Context, transcription, jobDescription string) (string, *ServiceError) {
	if strings.TrimSpace(transcription) == "" {
		return "", validationError("면접 내용이 비어있습니다")
	}

	m.logger.Infof("🎯 Interview analysis started: %d chars", len(transcription))

	prompt := m.promptBuilder.BuildInterviewAnalysisPrompt(transcription, jobDescription)

	report, err := m.generator.GenerateTextWithRetry(ctx, prompt, 0.3, m.maxRetries)
	if err != nil {
		m.logger.Errorf("❌ Interview analysis failed: %v", err)
		return "", transientError("면접 분석 중 오류 발생", err)
	}

	return report, nil
}

// AnalyzeStructured implements MatchAnalyzerService.
func (m *matchAnalyzerService) AnalyzeStructured(ctx context.Context, candidateName, position, resumeText, jobPostingText, interviewText string) (*StructuredAnalysis, *ServiceError) {
	if strings.TrimSpace(interviewText) == "" {
		return nil, validationError("면접 내용이 비어있습니다")
	}

	prompt := m.promptBuilder.BuildStructuredAnalysisPrompt(candidateName, position, resumeText, jobPostingText, interviewText)

	report, err := m.generator.GenerateTextWithRetry(ctx, prompt, 0, m.maxRetries)
	if err != nil {
		return nil, transientError("면접 분석 중 오류 발생", err)
	}

	return parseStructuredAnalysis(report), nil
}

// CombineReports implements MatchAnalyzerService.
func (m *matchAnalyzerService) CombineReports(ctx context.Context, matchReport, interviewReport string) (string, *ServiceError) {
	prompt := m.promptBuilder.BuildCombinedReportPrompt(matchReport, interviewReport)

	report, err := m.generator.GenerateTextWithRetry(ctx, prompt, 0, m.maxRetries)
	if err != nil {
		return "", transientError("종합 보고서 생성 중 오류 발생", err)
	}

	return report, nil
}

func validateDocumentText(label, text string) *ServiceError {
	for _, sentinel := range errorSentinels {
		if strings.Contains(text, sentinel) {
			return validationError(fmt.Sprintf("%s 파일 오류: %s", label, logger.Truncate(text, 200)))
		}
	}

	if len([]rune(strings.TrimSpace(text))) < minViableTextLength {
		return validationError(fmt.Sprintf("%s 내용이 너무 짧습니다: %d자", label, len([]rune(text))))
	}

	return nil
}

// parseStructuredAnalysis splits the model report into the [요약]/[강점]/[약점]
// sections; a report without markers lands whole in Summary.
func parseStructuredAnalysis(report string) *StructuredAnalysis {
	result := &StructuredAnalysis{}

	sections := map[string]*string{
		"[요약]": &result.Summary,
		"[강점]": &result.Strengths,
		"[약점]": &result.Weaknesses,
	}

	markers := []string{"[요약]", "[강점]", "[약점]"}
	for i, marker := range markers {
		start := strings.Index(report, marker)
		if start < 0 {
			continue
		}
		start += len(marker)

		end := len(report)
		for _, next := range markers[i+1:] {
			if pos := strings.Index(report[start:], next); pos >= 0 && start+pos < end {
				end = start + pos
			}
		}

		*sections[marker] = strings.TrimSpace(report[start:end])
	}

	if result.Summary == "" && result.Strengths == "" && result.Weaknesses == "" {
		result.Summary = strings.TrimSpace(report)
	}

	return result
}
