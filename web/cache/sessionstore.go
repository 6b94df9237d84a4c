package cache

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"encoding/gob"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gorilla/securecookie"
	gorillasessions "github.com/gorilla/sessions"

	"github.com/wanderlust/wanderlust/database"
	"github.com/wanderlust/wanderlust/database/model"
	"github.com/wanderlust/wanderlust/logger"
)

const (
	DefaultMaxAge = 86400 * 7 // 7 days
	expiresKey    = "_expires"

	// RegenerateKey marks a session whose next save must move its values to
	// a new id and a new expiry, dropping the old record.
	RegenerateKey = "_regenerate"
)

func init() {
	gob.Register([]interface{}{})
}

// SessionBackend persists encoded session records. GetSession returns
// database.ErrNotFound for unknown ids.
type SessionBackend interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	SaveSession(ctx context.Context, session *model.Session) error
	DeleteSession(ctx context.Context, id string) error
}

// SessionStore is a gin session store that keeps values server-side and
// only the signed session id in the cookie. Values are encrypted and signed
// at rest. The expiry is fixed when the session is first saved and is never
// extended by later saves.
type SessionStore struct {
	backend SessionBackend
	Codecs  []securecookie.Codec
	options *sessions.Options
	now     func() time.Time
}

// KeyPairs derives a hash key and an encryption key from the session secret.
func KeyPairs(secret string) [][]byte {
	hashKey := sha256.Sum256([]byte("wanderlust-session-hash:" + secret))
	blockKey := sha256.Sum256([]byte("wanderlust-session-block:" + secret))
	return [][]byte{hashKey[:], blockKey[:]}
}

// NewSessionStore creates a store over backend.
func NewSessionStore(backend SessionBackend, keyPairs ...[]byte) *SessionStore {
	s := &SessionStore{
		backend: backend,
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		now:     time.Now,
	}
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   DefaultMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// Options sets the options for the store.
func (s *SessionStore) Options(opts sessions.Options) {
	s.options = &opts
	for _, codec := range s.Codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxLength(0)
			if opts.MaxAge > 0 {
				sc.MaxAge(opts.MaxAge)
			}
		}
	}
}

// Get retrieves a session through the per-request registry.
func (s *SessionStore) Get(r *http.Request, name string) (*gorillasessions.Session, error) {
	return gorillasessions.GetRegistry(r).Get(s, name)
}

// New returns the session named by the request cookie, or a fresh one when
// the cookie is absent, forged, or points at an expired or unknown record.
func (s *SessionStore) New(r *http.Request, name string) (*gorillasessions.Session, error) {
	session := gorillasessions.NewSession(s, name)
	session.Options = &gorillasessions.Options{
		Path:     s.options.Path,
		Domain:   s.options.Domain,
		MaxAge:   s.options.MaxAge,
		Secure:   s.options.Secure,
		HttpOnly: s.options.HttpOnly,
		SameSite: s.options.SameSite,
	}
	session.IsNew = true

	c, errCookie := r.Cookie(name)
	if errCookie != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		session.ID = ""
		return session, nil
	}
	if err := s.load(r.Context(), session); err != nil {
		if !database.IsNotFound(err) {
			logger.Warning("session store load failed:", err)
		}
		session.ID = ""
		session.Values = make(map[interface{}]interface{})
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save persists the session and writes the id cookie. A negative MaxAge
// deletes the record and the cookie.
func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *gorillasessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.DeleteSession(r.Context(), session.ID); err != nil {
				logger.Warning("session store delete failed:", err)
				return err
			}
		}
		http.SetCookie(w, s.newCookie(session, "", time.Time{}))
		return nil
	}

	if _, ok := session.Values[RegenerateKey]; ok {
		delete(session.Values, RegenerateKey)
		delete(session.Values, expiresKey)
		if session.ID != "" {
			if err := s.backend.DeleteSession(r.Context(), session.ID); err != nil {
				logger.Warning("session store delete failed:", err)
				return err
			}
			session.ID = ""
		}
	}

	if session.ID == "" {
		session.ID = strings.TrimRight(
			base32.StdEncoding.EncodeToString(
				securecookie.GenerateRandomKey(32),
			), "=")
	}

	expires := s.expiry(session)
	session.Values[expiresKey] = expires.Unix()

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return err
	}
	record := &model.Session{Id: session.ID, Data: []byte(data), ExpiresAt: expires}
	if err := s.backend.SaveSession(r.Context(), record); err != nil {
		logger.Warning("session store save failed:", err)
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.newCookie(session, encoded, expires))
	return nil
}

// expiry returns the fixed expiry recorded in the session, or starts one.
func (s *SessionStore) expiry(session *gorillasessions.Session) time.Time {
	if v, ok := session.Values[expiresKey].(int64); ok {
		return time.Unix(v, 0)
	}
	maxAge := session.Options.MaxAge
	if maxAge == 0 {
		maxAge = s.options.MaxAge
	}
	return s.now().Add(time.Duration(maxAge) * time.Second)
}

func (s *SessionStore) newCookie(session *gorillasessions.Session, value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     session.Name(),
		Value:    value,
		Path:     session.Options.Path,
		Domain:   session.Options.Domain,
		Secure:   session.Options.Secure,
		HttpOnly: session.Options.HttpOnly,
		SameSite: session.Options.SameSite,
	}
	if value == "" {
		cookie.MaxAge = -1
		return cookie
	}
	remaining := int(expires.Sub(s.now()).Seconds())
	if remaining < 1 {
		remaining = 1
	}
	cookie.MaxAge = remaining
	cookie.Expires = expires
	return cookie
}

func (s *SessionStore) load(ctx context.Context, session *gorillasessions.Session) error {
	record, err := s.backend.GetSession(ctx, session.ID)
	if err != nil {
		return err
	}
	if record.Expired(s.now()) {
		return database.ErrNotFound
	}
	return securecookie.DecodeMulti(session.Name(), string(record.Data), &session.Values, s.Codecs...)
}
