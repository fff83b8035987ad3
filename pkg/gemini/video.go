package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
	"github.com/shouni/go-storyboard-kit/pkg/video"

	"google.golang.org/genai"
)

// VideoJobs は動画ジョブオーケストレーター向けのアダプターを返します。
func (c *Client) VideoJobs() video.JobClient {
	return &videoJobs{client: c}
}

// videoJobs は Veo の submit → poll → download を video.JobClient として公開するのだ。
type videoJobs struct {
	client *Client
}

// Submit は開始フレームをシード画像として動画生成ジョブを投入し、操作ハンドルを返します。
func (v *videoJobs) Submit(ctx context.Context, prompt string, seed domain.ConditioningImage) (video.JobHandle, error) {
	image := &genai.Image{
		ImageBytes: seed.Data,
		MIMEType:   seed.MimeType,
	}
	config := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
	}

	op, err := v.client.raw.Models.GenerateVideos(ctx, v.client.cfg.VideoModel, prompt, image, config)
	if err != nil {
		return nil, wrapRemoteErr(err)
	}
	return op, nil
}

// Poll はジョブの現在の状態を問い合わせます。
// 完了時にダウンロードURIが欠けている場合、それは不正な完了としてそのまま返し、
// 判定は呼び出し側（オーケストレーター）に委ねるのだ。
func (v *videoJobs) Poll(ctx context.Context, job video.JobHandle) (video.JobStatus, error) {
	op, ok := job.(*genai.GenerateVideosOperation)
	if !ok {
		return video.JobStatus{}, fmt.Errorf("不明なジョブハンドル型です: %T", job)
	}

	updated, err := v.client.raw.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return video.JobStatus{}, wrapRemoteErr(err)
	}
	// ハンドルを最新の操作状態へ差し替えつつ結果を組み立てる
	*op = *updated

	status := video.JobStatus{Done: updated.Done}
	if updated.Done && updated.Response != nil && len(updated.Response.GeneratedVideos) > 0 {
		if vid := updated.Response.GeneratedVideos[0].Video; vid != nil {
			status.DownloadURI = vid.URI
		}
	}
	return status, nil
}

// Fetch は生成済みアセットをHTTP GETで取得します。認可はAPIキーのクエリ付与で行います。
func (v *videoJobs) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+sep+"key="+v.client.cfg.APIKey, nil)
	if err != nil {
		return nil, "", fmt.Errorf("ダウンロードリクエストの作成に失敗しました: %w", err)
	}

	resp, err := v.client.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("アセットの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, "", &retry.RemoteError{Code: resp.StatusCode, Status: "RESOURCE_EXHAUSTED", Message: "asset download rate limited"}
		}
		return nil, "", fmt.Errorf("アセットの取得に失敗しました: ステータス %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("アセットの読み込みに失敗しました: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "video/mp4"
	}
	return data, mimeType, nil
}
