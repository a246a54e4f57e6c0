// surveysim drives one full survey session end to end: catalog resolution
// (remote or bundled fallback), deterministic sample answers with debounced
// auto-save, and submission. It is a smoke tool for the session core, not a
// service.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ChrisDonovan01/dva-survey/internal/db"
	"github.com/ChrisDonovan01/dva-survey/internal/gateway"
	"github.com/ChrisDonovan01/dva-survey/internal/services"
	"github.com/ChrisDonovan01/dva-survey/internal/utils"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	surveyType := services.SurveyType(utils.SafeEnv("DVA_SURVEY_TYPE", string(services.SurveyStrategy)))
	clientID := utils.SafeEnv("DVA_CLIENT_ID", "demo-client")
	userID := utils.SafeEnv("DVA_USER_ID", "demo-user")
	saveWindow := utils.EnvDuration("DVA_SAVE_WINDOW", services.DefaultSaveWindow)

	var gw services.Gateway
	if base := os.Getenv("DVA_GATEWAY_URL"); base != "" {
		gw = gateway.NewClient(base, nil, logger)
	} else {
		// No backend configured: the resolver falls back to the bundled
		// catalog and saves land nowhere.
		gw = unavailableGateway{}
	}

	cfg := services.SessionConfig{
		SurveyType: surveyType,
		ClientID:   clientID,
		UserID:     userID,
		Gateway:    gw,
		Logger:     logger,
		SaveWindow: saveWindow,
	}
	if path := os.Getenv("DVA_DRAFT_DB"); path != "" {
		drafts, err := db.Open(path)
		if err != nil {
			logger.Fatal("open draft db", zap.Error(err))
		}
		defer func() { _ = drafts.Close() }()
		cfg.Drafts = drafts
	}

	session, err := services.NewSession(cfg)
	if err != nil {
		logger.Fatal("create session", zap.Error(err))
	}
	defer session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := session.Start(ctx); err != nil {
		logger.Fatal("start session", zap.Error(err))
	}

	for {
		q := session.CurrentQuestion()
		if q == nil {
			break
		}
		if err := session.Answer(q.ID, sampleAnswer(q)); err != nil {
			logger.Fatal("answer", zap.String("question_id", q.ID), zap.Error(err))
		}
		done, err := session.Next()
		if err != nil {
			logger.Fatal("advance", zap.String("question_id", q.ID), zap.Error(err))
		}
		if done {
			break
		}
	}

	if err := session.Submit(ctx); err != nil {
		logger.Fatal("submit", zap.Error(err))
	}

	progress := session.Progress()
	fmt.Printf("survey %s completed: %d/%d answered (%.0f%%)\n",
		surveyType, progress.Answered, progress.Total, progress.Percent)
	for _, sec := range progress.Sections {
		if sec.Score >= 0 {
			fmt.Printf("  %-28s %d/%d  score %.0f\n", sec.Title, sec.Answered, sec.Total, sec.Score)
		} else {
			fmt.Printf("  %-28s %d/%d\n", sec.Title, sec.Answered, sec.Total)
		}
	}

	if secret := os.Getenv("DVA_RESUME_SECRET"); secret != "" {
		tok, err := services.SignResumeToken([]byte(secret), clientID, userID, surveyType, 7*24*time.Hour)
		if err != nil {
			logger.Warn("sign resume token", zap.Error(err))
		} else {
			fmt.Printf("resume token: %s\n", tok)
		}
	}
}

// sampleAnswer returns a deterministic plausible answer for smoke runs.
func sampleAnswer(q *services.Question) services.Value {
	switch q.Type {
	case services.QuestionSingleSelect:
		return services.TextValue(q.Options[0])
	case services.QuestionMultiSelect:
		n := len(q.Options)
		if n > 2 {
			n = 2
		}
		return services.ListValue(q.Options[:n]...)
	case services.QuestionRankedList:
		return services.ListValue(q.Options...)
	case services.QuestionLinearScale:
		mid := (q.Scale.Min + q.Scale.Max) / 2
		return services.TextValue(strconv.Itoa(mid))
	default:
		return services.TextValue("sample answer")
	}
}

// unavailableGateway stands in when no backend URL is configured; every
// call reports unavailable so the degradation paths run.
type unavailableGateway struct{}

func (unavailableGateway) LoadQuestions(context.Context, services.SurveyType) (*services.Catalog, error) {
	return nil, services.NewUnavailableError("no gateway configured")
}

func (unavailableGateway) LoadResponses(context.Context, string, services.SurveyType) (map[string]services.Value, error) {
	return nil, services.NewUnavailableError("no gateway configured")
}

func (unavailableGateway) SaveResponse(context.Context, string, string, string, services.Value) error {
	return services.NewUnavailableError("no gateway configured")
}

func (unavailableGateway) RecordCompletion(context.Context, string, string, time.Time) error {
	return services.NewUnavailableError("no gateway configured")
}
