package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

const (
	tokenKey = "session:token"
	userKey  = "session:user"

	// badger requires a block cache when encryption is on
	encryptedIndexCacheSize = 16 << 20
)

// BadgerOptions configures OpenBadger.
type BadgerOptions struct {
	// Path is the badger directory. Empty opens an in-memory database.
	Path string
	// EncryptionKey enables at-rest encryption (16, 24 or 32 bytes).
	EncryptionKey []byte
	Logger        zerolog.Logger
}

// BadgerStore keeps the session in a badger key/value database so it survives
// process restarts.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

var _ Store = (*BadgerStore)(nil)

func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	logger := opts.Logger.With().Str("component", "tokenstore").Logger()

	bopts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithLogger(badgerLogger{logger: logger})
	if len(opts.EncryptionKey) > 0 {
		bopts = bopts.WithEncryptionKey(opts.EncryptionKey).WithIndexCacheSize(encryptedIndexCacheSize)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

func (s *BadgerStore) Save(session users.Session) error {
	if session.Token == "" {
		return ErrInvalidSession
	}
	userJSON, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	// token and user land in one transaction
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(tokenKey), []byte(session.Token)); err != nil {
			return err
		}
		return txn.Set([]byte(userKey), userJSON)
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *BadgerStore) Load() (users.Session, bool, error) {
	var (
		token    []byte
		userJSON []byte
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if token, err = valueOf(txn, tokenKey); err != nil {
			return err
		}
		userJSON, err = valueOf(txn, userKey)
		return err
	})
	if err != nil {
		return users.Session{}, false, fmt.Errorf("load session: %w", err)
	}

	if len(token) == 0 || len(userJSON) == 0 {
		if len(token) > 0 || len(userJSON) > 0 {
			s.logger.Warn().Bool("has_token", len(token) > 0).Bool("has_user", len(userJSON) > 0).
				Msg("incomplete session in store; treating as signed out")
		}
		return users.Session{}, false, nil
	}

	var user users.User
	if err := json.Unmarshal(userJSON, &user); err != nil {
		s.logger.Warn().Err(err).Msg("unreadable user record in store; treating as signed out")
		return users.Session{}, false, nil
	}
	return users.Session{Token: string(token), User: user}, true, nil
}

func (s *BadgerStore) Clear() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(tokenKey)); err != nil {
			return err
		}
		return txn.Delete([]byte(userKey))
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// valueOf returns nil for a missing key.
func valueOf(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// badgerLogger routes badger's internal logging into zerolog.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msgf(format, args...)
}
