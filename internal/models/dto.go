package models

// StatusResult is the common `{status, message}` shape collaborator-facing
// endpoints return; failures carry status "error" with HTTP 200, matching the
// structured-result propagation policy.
type StatusResult struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type AnalyzeFilesRequest struct {
	ResumeFilename string `json:"resume_filename"`
	JobFilename    string `json:"job_filename"`
}

type AnalyzeTextRequest struct {
	ResumeText     string `json:"resume_text"`
	JobPostingText string `json:"job_posting_text"`
}

type AnalysisResponse struct {
	Status    string   `json:"status"`
	Analysis  string   `json:"analysis,omitempty"`
	Message   string   `json:"message,omitempty"`
	ErrorKind string   `json:"error_kind,omitempty"`
	Available []string `json:"available_files,omitempty"`
}

// UploadAndAnalyzeResponse is the nested composite result of the
// upload → trigger → poll → analyze flow, with per-stage sub-results.
type UploadAndAnalyzeResponse struct {
	Status        string              `json:"status"`
	Message       string              `json:"message,omitempty"`
	UploadResults UploadPairResult    `json:"upload_results"`
	Indexing      *IndexingFlowResult `json:"indexing,omitempty"`
	Analysis      *AnalysisResponse   `json:"analysis_result,omitempty"`
}

type UploadPairResult struct {
	ResumeUpload StatusResult `json:"resume_upload"`
	JobUpload    StatusResult `json:"job_upload"`
}

type IndexingFlowResult struct {
	JobsTriggered  map[string]string `json:"jobs_triggered,omitempty"`
	ResumeIndexed  bool              `json:"resume_indexed"`
	JobIndexed     bool              `json:"job_indexed"`
	WaitedSeconds  float64           `json:"waited_seconds"`
	TimeoutSeconds float64           `json:"timeout_seconds"`
}

type BlobFileInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified,omitempty"`
}

type FilesListResponse struct {
	Status      string         `json:"status"`
	Message     string         `json:"message,omitempty"`
	ResumeFiles []BlobFileInfo `json:"resume_files,omitempty"`
	JobFiles    []BlobFileInfo `json:"job_files,omitempty"`
	TotalFiles  int            `json:"total_files"`
}

type AudioFilesResponse struct {
	Status         string         `json:"status"`
	Message        string         `json:"message,omitempty"`
	InterviewFiles []BlobFileInfo `json:"interview_files"`
	TotalFiles     int            `json:"total_files"`
}

type TranscriptionResponse struct {
	Status        string `json:"status"`
	Transcription string `json:"transcription,omitempty"`
	Filename      string `json:"filename,omitempty"`
	TextLength    int    `json:"text_length,omitempty"`
	Message       string `json:"message,omitempty"`
	FailureCause  string `json:"failure_cause,omitempty"`
}

type UploadAndTranscribeResponse struct {
	Status           string                 `json:"status"`
	UploadResult     StatusResult           `json:"upload_result"`
	TranscribeResult *TranscriptionResponse `json:"transcribe_result,omitempty"`
	Filename         string                 `json:"filename,omitempty"`
	Transcription    string                 `json:"transcription,omitempty"`
	Message          string                 `json:"message,omitempty"`
}

type InterviewAnalyzeRequest struct {
	Transcription  string `json:"transcription"`
	JobDescription string `json:"job_description"`
}

type QuickAnalysisRequest struct {
	STTResult         string `json:"stt_result"`
	JobPostingContent string `json:"job_posting_content"`
	ResumeContent     string `json:"resume_content"`
}

type FullInterviewAnalysisResponse struct {
	Status           string                       `json:"status"`
	UploadTranscribe *UploadAndTranscribeResponse `json:"upload_transcribe_result,omitempty"`
	Analysis         *AnalysisResponse            `json:"analysis_result,omitempty"`
	Filename         string                       `json:"filename,omitempty"`
	Transcription    string                       `json:"transcription,omitempty"`
	Message          string                       `json:"message,omitempty"`
}

// StructuredAnalyzeRequest drives the persisted candidate analysis endpoint.
type StructuredAnalyzeRequest struct {
	CandidateName  string `json:"candidate_name"`
	Position       string `json:"position"`
	ResumeText     string `json:"resume_text"`
	JobPostingText string `json:"job_posting_text"`
	InterviewText  string `json:"interview_text"`
}

type StructuredAnalyzeResponse struct {
	ID            string `json:"id"`
	CandidateName string `json:"candidate_name"`
	Position      string `json:"position"`
	Summary       string `json:"summary"`
	Strengths     string `json:"strengths"`
	Weaknesses    string `json:"weaknesses"`
}

type IndexerRunResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Results map[string]string `json:"results,omitempty"`
}

type SnapshotInfo struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified,omitempty"`
}
