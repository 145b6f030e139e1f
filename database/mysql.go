package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"vault/store"
)

// Store implements store.Store on MySQL.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func Connect(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	jww.INFO.Println("Database connected successfully")
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateTables(ctx context.Context) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                    VARCHAR(36) PRIMARY KEY,
			display_name          VARCHAR(100) NOT NULL DEFAULT '',
			email                 VARCHAR(255) NOT NULL,
			password              VARCHAR(255) NOT NULL,
			created_at            DATETIME(6) NOT NULL,
			last_login            DATETIME(6) NULL,
			last_seen             DATETIME(6) NULL,
			location              JSON NULL,
			registration_location JSON NULL,
			device_info           JSON NULL,
			UNIQUE KEY uk_email (email),
			INDEX idx_display_name (display_name)
		)`,
		`CREATE TABLE IF NOT EXISTS relationships (
			owner_id          VARCHAR(36) NOT NULL,
			peer_id           VARCHAR(36) NOT NULL,
			peer_display_name VARCHAR(100) NOT NULL DEFAULT '',
			created_at        DATETIME(6) NOT NULL,
			PRIMARY KEY (owner_id, peer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS chats (
			id         VARCHAR(80) PRIMARY KEY,
			user_a     VARCHAR(36) NOT NULL,
			user_b     VARCHAR(36) NOT NULL,
			created_at DATETIME(6) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq        BIGINT AUTO_INCREMENT PRIMARY KEY,
			id         VARCHAR(36) NOT NULL,
			chat_id    VARCHAR(80) NOT NULL,
			sender_id  VARCHAR(36) NOT NULL,
			type       VARCHAR(16) NOT NULL,
			text       TEXT NULL,
			media_url  VARCHAR(1024) NULL,
			created_at DATETIME(6) NOT NULL,
			UNIQUE KEY uk_id (id),
			INDEX idx_chat_time (chat_id, created_at, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS location_history (
			user_id     VARCHAR(36) NOT NULL,
			sample_key  VARCHAR(48) NOT NULL,
			type        ENUM('update', 'login', 'registration') NOT NULL,
			latitude    DOUBLE NOT NULL,
			longitude   DOUBLE NOT NULL,
			accuracy    DOUBLE NOT NULL,
			sampled_at  DATETIME(6) NOT NULL,
			recorded_at DATETIME(6) NOT NULL,
			PRIMARY KEY (user_id, sample_key),
			INDEX idx_user_sampled (user_id, sampled_at)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id         VARCHAR(36) PRIMARY KEY,
			user_id    VARCHAR(36) NOT NULL,
			created_at DATETIME(6) NOT NULL,
			expires_at DATETIME(6) NOT NULL,
			INDEX idx_user (user_id)
		)`,
	}

	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, table); err != nil {
			return errors.Wrap(err, "create table")
		}
	}

	jww.INFO.Println("Database tables created successfully")
	return nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
