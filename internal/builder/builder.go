package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/analyzer"
	"github.com/shouni/go-storyboard-kit/pkg/gemini"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/video"

	"golang.org/x/time/rate"
)

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, cfg *config.Config) (*gemini.Client, error) {
	aiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:      cfg.GeminiAPIKey,
		TextModel:   cfg.GeminiTextModel,
		ImageModel:  cfg.GeminiImageModel,
		VideoModel:  cfg.GeminiVideoModel,
		HTTPTimeout: cfg.Options.HTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// BuildAnalyzer は台本の構造化分解を担当する Analyzer を構築します。
func BuildAnalyzer(appCtx *AppContext) (*analyzer.Analyzer, error) {
	if appCtx.aiClient == nil {
		return nil, fmt.Errorf("AIクライアントが初期化されていません")
	}
	return analyzer.New(appCtx.aiClient), nil
}

// BuildComposer はフレームとポートレートの生成を担当する FrameComposer を構築します。
// レートリミッターはセッション内のすべての画像生成呼び出しで共有されるのだ。
func BuildComposer(appCtx *AppContext) (*generator.FrameComposer, error) {
	if appCtx.aiClient == nil {
		return nil, fmt.Errorf("AIクライアントが初期化されていません")
	}

	limiter := rate.NewLimiter(rate.Every(config.DefaultRateLimit), 2)
	pb := prompts.NewFrameBuilder(appCtx.Session.Style())
	return generator.NewFrameComposer(appCtx.aiClient, appCtx.Session, pb, limiter), nil
}

// BuildVideoOrchestrator は動画ジョブの submit → poll → download を担当する
// Orchestrator を構築します。
func BuildVideoOrchestrator(appCtx *AppContext) (*video.Orchestrator, error) {
	if appCtx.aiClient == nil {
		return nil, fmt.Errorf("AIクライアントが初期化されていません")
	}

	opts := []video.Option{}
	if d := appCtx.Options.PollInterval; d > 0 {
		opts = append(opts, video.WithPollInterval(d))
	}
	if d := appCtx.Options.MaxWait; d > 0 {
		opts = append(opts, video.WithMaxWait(d))
	}
	return video.NewOrchestrator(appCtx.aiClient.VideoJobs(), opts...), nil
}
