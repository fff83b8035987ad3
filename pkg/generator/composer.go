// Package generator は、スタイルとキャラクターの一貫性を保ちながら
// シーンごとの開始・終了フレームとキャラクターポートレートを生成するのだ。
package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
	"github.com/shouni/go-storyboard-kit/pkg/session"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// デフォルト値の定義なのだ
const (
	// FrameAspectRatio はシーンフレーム（開始・終了）のアスペクト比です。
	FrameAspectRatio = "16:9"
	// PortraitAspectRatio はキャラクターポートレートのアスペクト比です。
	PortraitAspectRatio = "1:1"

	// DefaultRateInterval は画像生成呼び出しの流量制限の間隔です。
	DefaultRateInterval = 30 * time.Second

	refCacheTTL     = 30 * time.Minute
	refCacheCleanup = time.Hour
)

// ErrStartFrameMissing は、開始フレームが未生成のまま終了フレームの生成が
// 要求された場合のエラーです。リモート呼び出しは一切発生しません。
var ErrStartFrameMissing = errors.New("開始フレームが未生成のため終了フレームを生成できません")

// ImageModel はマルチモーダル画像生成の契約です。pkg/gemini が実装を提供します。
type ImageModel interface {
	GenerateImage(ctx context.Context, prompt, aspectRatio string, refs []domain.ConditioningImage) (*domain.ImageResponse, error)
}

// FrameComposer は1セッション分のフレーム生成を担います。
// 同一キャラクターのポートレート生成は singleflight で重複排除され、
// 条件付け画像のデコード結果はTTLキャッシュで再利用されるのだ。
type FrameComposer struct {
	model         ImageModel
	session       *session.Session
	prompts       *prompts.FrameBuilder
	limiter       *rate.Limiter
	refCache      *cache.Cache
	portraitGroup singleflight.Group
	retryOpts     retry.Options
}

// NewFrameComposer は FrameComposer を初期化します。limiter が nil の場合は
// 既定の流量制限（30秒間隔・バースト2）が適用されます。
func NewFrameComposer(model ImageModel, sess *session.Session, pb *prompts.FrameBuilder, limiter *rate.Limiter) *FrameComposer {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(DefaultRateInterval), 2)
	}
	return &FrameComposer{
		model:     model,
		session:   sess,
		prompts:   pb,
		limiter:   limiter,
		refCache:  cache.New(refCacheTTL, refCacheCleanup),
		retryOpts: retry.DefaultOptions(),
	}
}

// SetRetryOptions はリトライ設定を差し替えます。
func (fc *FrameComposer) SetRetryOptions(opts retry.Options) {
	fc.retryOpts = opts
}

// PrepareScene はシーンの両フレームのプロンプトを導出して保存します。
// すでにプロンプトがある（ユーザーが編集済みの）スロットには触れないのだ。
func (fc *FrameComposer) PrepareScene(sceneID int) error {
	scene, ok := fc.session.Scene(sceneID)
	if !ok {
		return fmt.Errorf("シーン %d が見つかりません", sceneID)
	}
	chars := fc.session.Characters()

	if fc.session.FramePrompt(sceneID, domain.FrameStart) == "" {
		prompt, _ := fc.prompts.StartFramePrompt(scene, chars)
		fc.session.SetFramePrompt(sceneID, domain.FrameStart, prompt)
	}
	if fc.session.FramePrompt(sceneID, domain.FrameEnd) == "" {
		prompt, _ := fc.prompts.EndFramePrompt(scene, chars)
		fc.session.SetFramePrompt(sceneID, domain.FrameEnd, prompt)
	}
	return nil
}

// GenerateSceneFrames は開始フレーム、続けて終了フレームを生成します。
// 終了フレームは開始フレームの完成画像を条件付けに使うため、並行ではなく直列なのだ。
func (fc *FrameComposer) GenerateSceneFrames(ctx context.Context, sceneID int) error {
	if err := fc.PrepareScene(sceneID); err != nil {
		return err
	}
	if _, err := fc.GenerateFrame(ctx, sceneID, domain.FrameStart); err != nil {
		return fmt.Errorf("開始フレームの生成に失敗しました: %w", err)
	}
	if _, err := fc.GenerateFrame(ctx, sceneID, domain.FrameEnd); err != nil {
		return fmt.Errorf("終了フレームの生成に失敗しました: %w", err)
	}
	return nil
}

// GenerateFrame は1スロット分のフレーム画像を生成し、data URI を返します。
// プロンプトは保存済みの（ユーザー編集があればその）テキストを使い、
// 兄弟フレームの再生成を強制しない独立した操作なのだ。
func (fc *FrameComposer) GenerateFrame(ctx context.Context, sceneID int, slot domain.FrameSlot) (string, error) {
	scene, ok := fc.session.Scene(sceneID)
	if !ok {
		return "", fmt.Errorf("シーン %d が見つかりません", sceneID)
	}

	// 事前条件: 終了フレームは開始フレームの画像なしでは生成しない
	var startImage string
	if slot == domain.FrameEnd {
		startImage = fc.session.FrameImage(sceneID, domain.FrameStart)
		if startImage == "" {
			return "", ErrStartFrameMissing
		}
	}

	prompt := fc.session.FramePrompt(sceneID, slot)
	if prompt == "" {
		if err := fc.PrepareScene(sceneID); err != nil {
			return "", err
		}
		prompt = fc.session.FramePrompt(sceneID, slot)
	}

	refs, err := fc.conditioningRefs(scene, slot, startImage)
	if err != nil {
		return "", err
	}

	token := fc.session.BeginFrame(sceneID, slot)
	if err := fc.limiter.Wait(ctx); err != nil {
		return "", err
	}

	slog.Info("フレームを生成中なのだ...", "scene", sceneID, "slot", slot, "refs", len(refs))
	resp, err := retry.Do(ctx, fc.retryOpts, func(ctx context.Context) (*domain.ImageResponse, error) {
		return fc.model.GenerateImage(ctx, prompt, FrameAspectRatio, refs)
	})
	if err != nil {
		return "", err
	}

	uri := resp.DataURI()
	if !fc.session.CommitFrameImage(sceneID, slot, token, uri) {
		// 後から開始された呼び出しに追い越された場合は結果を破棄する
		slog.Warn("追い越されたフレーム生成の結果を破棄したのだ", "scene", sceneID, "slot", slot)
	}
	return uri, nil
}

// GeneratePortrait はキャラクターの参照ポートレートを生成してカタログに添付します。
// 同名キャラクターへの同時要求は1回のリモート呼び出しにまとめられるのだ。
func (fc *FrameComposer) GeneratePortrait(ctx context.Context, name string) (string, error) {
	c := fc.session.FindCharacter(name)
	if c == nil {
		return "", fmt.Errorf("キャラクター '%s' はカタログに存在しません", name)
	}

	val, err, _ := fc.portraitGroup.Do(c.Name, func() (interface{}, error) {
		if err := fc.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		prompt := fc.prompts.PortraitPrompt(*c)
		resp, genErr := retry.Do(ctx, fc.retryOpts, func(ctx context.Context) (*domain.ImageResponse, error) {
			return fc.model.GenerateImage(ctx, prompt, PortraitAspectRatio, nil)
		})
		if genErr != nil {
			return nil, genErr
		}

		uri := resp.DataURI()
		if attachErr := fc.session.AttachPortrait(c.Name, uri); attachErr != nil {
			return nil, attachErr
		}
		return uri, nil
	})
	if err != nil {
		return "", fmt.Errorf("ポートレートの生成に失敗しました: %w", err)
	}

	uri, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return uri, nil
}

// conditioningRefs はスロットに応じた条件付け画像を順序付きで組み立てます。
// 終了フレームでは開始フレーム画像が先頭に、その後にポートレートが続くのだ。
func (fc *FrameComposer) conditioningRefs(scene domain.Scene, slot domain.FrameSlot, startImage string) ([]domain.ConditioningImage, error) {
	chars := fc.session.Characters()
	_, portraitURIs := fc.prompts.ScenePrompt(scene, chars)

	uris := make([]string, 0, len(portraitURIs)+1)
	if slot == domain.FrameEnd && startImage != "" {
		uris = append(uris, startImage)
	}
	uris = append(uris, portraitURIs...)

	refs := make([]domain.ConditioningImage, 0, len(uris))
	for _, uri := range uris {
		ref, err := fc.decodeRef(uri)
		if err != nil {
			return nil, fmt.Errorf("条件付け画像のデコードに失敗しました: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// decodeRef は data URI をデコードします。結果は内容ハッシュをキーにTTLキャッシュされます。
func (fc *FrameComposer) decodeRef(uri string) (domain.ConditioningImage, error) {
	sum := sha256.Sum256([]byte(uri))
	key := hex.EncodeToString(sum[:])

	if cached, ok := fc.refCache.Get(key); ok {
		if ref, ok := cached.(domain.ConditioningImage); ok {
			return ref, nil
		}
	}

	ref, err := domain.DecodeDataURI(uri)
	if err != nil {
		return domain.ConditioningImage{}, err
	}
	fc.refCache.Set(key, ref, cache.DefaultExpiration)
	return ref, nil
}
