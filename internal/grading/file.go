package grading

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/oracle"
)

type FileStrategy struct {
	oracle Oracle
	files  FileReader
	loc    Localizer
	logger *slog.Logger
}

func NewFileStrategy(o Oracle, files FileReader, loc Localizer, logger *slog.Logger) *FileStrategy {
	return &FileStrategy{oracle: o, files: files, loc: loc, logger: logger}
}

func (s *FileStrategy) Family() Family { return FamilyFile }

func (s *FileStrategy) Validate(_ *models.EffectiveQuestion, r *models.QuestionAnswer) error {
	if len(r.LearnerFileResponse) == 0 {
		return invalidResponse("at least one file is required")
	}
	for i, f := range r.LearnerFileResponse {
		if strings.TrimSpace(f.Filename) == "" {
			return invalidResponse("file %d has no filename", i+1)
		}
		if f.Content == "" && f.Key == "" {
			return invalidResponse("file %s has no content", f.Filename)
		}
	}
	return nil
}

func (s *FileStrategy) Grade(ctx context.Context, q *models.EffectiveQuestion, r *models.QuestionAnswer, gctx *Context) (*Result, error) {
	if s.oracle == nil {
		return nil, ErrOracleUnavailable
	}
	lang := language(q, gctx)

	files, unreadable := s.extract(ctx, r)

	verdict, err := s.oracle.GradeFileBased(ctx, &oracle.FileBasedModel{
		Question:                q.Question,
		LearnerFiles:            files,
		TotalPoints:             q.TotalPoints,
		Scoring:                 q.Scoring,
		ResponseType:            q.ResponseType,
		Instructions:            gctx.Instructions,
		PreviousQuestionAnswers: gctx.PreviousAnswers,
	}, gctx.AssignmentID, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to grade file response: %w", err)
	}

	types := make([]string, 0, len(r.LearnerFileResponse))
	for _, f := range r.LearnerFileResponse {
		types = append(types, fileType(f))
	}

	result := oracleResult(q, verdict, map[string]any{
		"fileCount":    len(r.LearnerFileResponse),
		"fileTypes":    types,
		"isFunctional": len(unreadable) < len(r.LearnerFileResponse),
	})
	if len(unreadable) > 0 {
		result.Metadata["unreadableFiles"] = unreadable
		for _, name := range unreadable {
			result.Feedback = append(result.Feedback, models.FeedbackItem{
				Feedback: s.loc.GetString("fileNotReadable", lang, map[string]any{"filename": name}),
			})
		}
	}
	return result, nil
}

// extract resolves each file's text, reading from the object store when the
// upload was not inlined. Files that cannot be read are returned by name.
func (s *FileStrategy) extract(ctx context.Context, r *models.QuestionAnswer) ([]oracle.FileContent, []string) {
	files := make([]oracle.FileContent, 0, len(r.LearnerFileResponse))
	var unreadable []string

	for _, f := range r.LearnerFileResponse {
		content := f.Content
		if content == "" && f.Key != "" {
			if s.files == nil {
				unreadable = append(unreadable, f.Filename)
				continue
			}
			data, err := s.files.Get(ctx, f.Key)
			if err != nil {
				s.logger.Warn("Failed to read learner file", "filename", f.Filename, "key", f.Key, "error", err)
				unreadable = append(unreadable, f.Filename)
				continue
			}
			content = string(data)
		}
		files = append(files, oracle.FileContent{Filename: f.Filename, Content: content})
	}
	return files, unreadable
}

func fileType(f models.LearnerFile) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Filename)), "."); ext != "" {
		return ext
	}
	return "unknown"
}
