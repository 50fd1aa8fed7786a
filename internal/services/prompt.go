package services

import (
	"fmt"
	"strings"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildMatchAnalysisPrompt creates the resume / job-posting matching prompt.
func (pb *PromptBuilder) BuildMatchAnalysisPrompt(resumeText, jobText string) string {
	return fmt.Sprintf(`당신은 전문 채용 컨설턴트입니다. 다음 채용공고와 지원자 이력서를 분석하여 매칭도를 평가해주세요.

**채용공고:**
%s

**지원자 이력서:**
%s

아래 형식으로 정리해주세요:

## 📊 종합 평가
- 전반적 적합도: XX/100점 (한줄 요약)
- 기술 스택 매칭: XX/100점 (핵심 매칭/부족 기술)
- 경력 충족도: XX/100점 (요구사항 충족 여부)

## ✅ 주요 강점
1. [구체적 강점 1]
2. [구체적 강점 2]
3. [구체적 강점 3]

## ⚠️ 우려 사항
1. [구체적 우려점 1]
2. [구체적 우려점 2]
3. [구체적 우려점 3]

## 💬 추천 면접 질문 5가지
1. [기술 관련 질문]
2. [프로젝트 경험 질문]
3. [문제 해결 질문]
4. [협업/소통 질문]
5. [성장 가능성 질문]`,
		jobText, resumeText)
}

// BuildInterviewAnalysisPrompt creates the interview-transcript evaluation prompt.
func (pb *PromptBuilder) BuildInterviewAnalysisPrompt(transcription, jobDescription string) string {
	if strings.TrimSpace(jobDescription) == "" {
		jobDescription = "정보 없음"
	}

	return fmt.Sprintf(`당신은 전문 면접관이자 HR 컨설턴트입니다. 다음 면접 내용을 분석하여 지원자를 평가해주세요.

**면접 내용:**
%s

**채용공고 정보:**
%s

아래 형식으로 분석해주세요:

## 🎯 면접자 종합 평가

### 📊 평가 점수
- **의사소통 능력**: XX/100점 (명확성, 논리성, 표현력)
- **기술적 역량**: XX/100점 (전문 지식, 경험, 문제해결)
- **협업 및 팀워크**: XX/100점 (소통, 협력, 리더십)
- **성장 가능성**: XX/100점 (학습 의지, 적응력, 발전성)
- **직무 적합성**: XX/100점 (직무 이해도, 경험 매칭)

### ✅ 주요 강점
1. **[구체적 강점 1]**: 상세 설명
2. **[구체적 강점 2]**: 상세 설명
3. **[구체적 강점 3]**: 상세 설명

### ⚠️ 개선 필요 사항
1. **[개선점 1]**: 구체적 개선 방안
2. **[개선점 2]**: 구체적 개선 방안
3. **[개선점 3]**: 구체적 개선 방안

### 🎖️ 최종 채용 권고
- **채용 결정**: [강력 추천/조건부 추천/보류/불합격]
- **권고 이유**: 3-4줄 요약`,
		transcription, jobDescription)
}

// BuildStructuredAnalysisPrompt asks for the persisted candidate evaluation
// split into summary, strengths, and weaknesses sections.
func (pb *PromptBuilder) BuildStructuredAnalysisPrompt(candidateName, position, resumeText, jobPostingText, interviewText string) string {
	return fmt.Sprintf(`당신은 신입사원 면접 분석 및 평가 보조 전문가입니다. 아래 자료를 바탕으로 지원자를 평가해주세요.

**지원자 이름:** %s
**지원 직무:** %s

**이력서:**
%s

**채용공고:**
%s

**면접 내용:**
%s

아래 세 섹션으로만 답변해주세요. 각 섹션 제목을 정확히 사용하세요.

[요약]
지원자에 대한 종합 평가 요약 (3-5문장)

[강점]
지원자의 주요 강점 (구체적 근거 포함)

[약점]
지원자의 주요 약점 및 보완 필요 사항 (구체적 근거 포함)`,
		candidateName, position, resumeText, jobPostingText, interviewText)
}

// BuildCombinedReportPrompt merges a match-analysis report and an interview
// report into one final narrative.
func (pb *PromptBuilder) BuildCombinedReportPrompt(matchReport, interviewReport string) string {
	return fmt.Sprintf(`당신은 채용 의사결정을 돕는 수석 HR 컨설턴트입니다. 아래 두 보고서를 종합하여 최종 평가 보고서를 작성해주세요.

**이력서-채용공고 매칭 분석:**
%s

**면접 분석:**
%s

두 보고서의 내용을 종합하여 최종 채용 권고와 그 근거를 명확하게 제시해주세요.`,
		matchReport, interviewReport)
}
