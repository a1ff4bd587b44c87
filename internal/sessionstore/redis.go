// Package sessionstore はサーバー側にセッション値を保存する gin-contrib/sessions 用ストアを提供します。
// クッキーには署名付きのセッションIDだけを載せ、値は Redis に保存します。
package sessionstore

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "session:"

	// MaxAge が 0（ブラウザセッション）の場合に Redis 側で使う TTL です。
	defaultTTL = 24 * time.Hour
)

// regenerateKey はセッションIDの作り直しを要求する印です。Save で取り除かれます。
const regenerateKey = "_regenerate"

// Regenerate は次の Save でセッションIDを作り直すよう印を付けます。
// ログイン前のIDを引き継がないよう、認証の確立時に呼びます。
// クッキーストアではIDを持たないため印は値として残るだけです。
func Regenerate(session sessions.Session) {
	session.Set(regenerateKey, true)
}

func init() {
	gob.Register([]interface{}{})
}

// RedisStore は sessions.Store を Redis で実装します。
type RedisStore struct {
	rdb        *redis.Client
	codecs     []securecookie.Codec
	options    *gsessions.Options
	serializer securecookie.GobEncoder
}

var _ sessions.Store = (*RedisStore)(nil)

// NewRedisStore は RedisStore を作成します。keyPairs はセッションIDの署名（と任意で暗号化）鍵です。
func NewRedisStore(rdb *redis.Client, keyPairs ...[]byte) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: &gsessions.Options{
			Path:   "/",
			MaxAge: int(defaultTTL.Seconds()),
		},
	}
}

// Options はクッキー属性と有効期限を設定します。
func (s *RedisStore) Options(opts sessions.Options) {
	s.options = opts.ToGorillaOptions()
	if s.options.MaxAge > 0 {
		for _, codec := range s.codecs {
			if sc, ok := codec.(*securecookie.SecureCookie); ok {
				sc.MaxAge(s.options.MaxAge)
			}
		}
	}
}

// Get はリクエスト単位のレジストリ経由でセッションを返します。
func (s *RedisStore) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New はクッキーのIDから Redis のセッション値を読み込みます。
// クッキーが無い・改ざんされている・Redis に無い場合は新規セッションを返します。
func (s *RedisStore) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, cookie.Value, &id, s.codecs...); err != nil {
		return session, nil
	}

	found, err := s.load(r.Context(), id, session)
	if err != nil {
		return session, err
	}
	if found {
		session.ID = id
		session.IsNew = false
	}
	return session, nil
}

// Save はセッション値を Redis に書き込み、署名付きIDをクッキーに設定します。
// MaxAge < 0 の場合は Redis の値を削除し、クッキーを失効させます。
// Regenerate の印があれば古いIDのレコードを消し、新しいIDで保存します。
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.rdb.Del(r.Context(), sessionKey(session.ID)).Err(); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if _, ok := session.Values[regenerateKey]; ok {
		delete(session.Values, regenerateKey)
		if session.ID != "" {
			if err := s.rdb.Del(r.Context(), sessionKey(session.ID)).Err(); err != nil {
				return fmt.Errorf("delete previous session: %w", err)
			}
			session.ID = ""
		}
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	payload, err := s.serializer.Serialize(session.Values)
	if err != nil {
		return fmt.Errorf("serialize session: %w", err)
	}
	if err := s.rdb.Set(r.Context(), sessionKey(session.ID), payload, ttlFor(session.Options)).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session id: %w", err)
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *RedisStore) load(ctx context.Context, id string, session *gsessions.Session) (bool, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("load session: %w", err)
	}
	if err := s.serializer.Deserialize(data, &session.Values); err != nil {
		return false, fmt.Errorf("deserialize session: %w", err)
	}
	return true, nil
}

func ttlFor(opts *gsessions.Options) time.Duration {
	if opts == nil || opts.MaxAge == 0 {
		return defaultTTL
	}
	return time.Duration(opts.MaxAge) * time.Second
}

func sessionKey(id string) string {
	return keyPrefix + id
}
