package database

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"

	"github.com/yesuf435/im-safechat/config"
	"github.com/yesuf435/im-safechat/pkg/logger"
)

var DB *sql.DB

func Connect() error {
	var err error
	DB, err = sql.Open("mysql", config.Cfg.MysqlDSN)
	if err != nil {
		return err
	}

	if err = DB.Ping(); err != nil {
		return err
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(5)

	logger.Info("database connected")
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
	}
}

func CreateTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id          VARCHAR(36) PRIMARY KEY,
			username    VARCHAR(50) NOT NULL,
			nickname    VARCHAR(100),
			password    VARCHAR(255) NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uk_username (username)
		)`,
		`CREATE TABLE IF NOT EXISTS friend_requests (
			id          VARCHAR(36) PRIMARY KEY,
			from_user   VARCHAR(36) NOT NULL,
			to_user     VARCHAR(36) NOT NULL,
			status      ENUM('pending', 'accepted', 'declined') DEFAULT 'pending',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uk_request (from_user, to_user),
			INDEX idx_to_status (to_user, status)
		)`,
		`CREATE TABLE IF NOT EXISTS friendships (
			id          VARCHAR(36) PRIMARY KEY,
			user_id     VARCHAR(36) NOT NULL,
			friend_id   VARCHAR(36) NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uk_friendship (user_id, friend_id),
			INDEX idx_friend (friend_id)
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id              VARCHAR(36) PRIMARY KEY,
			type            ENUM('private', 'group') NOT NULL,
			name            VARCHAR(100),
			created_by      VARCHAR(36),
			last_message_id VARCHAR(36),
			created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_updated (updated_at)
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_members (
			id              VARCHAR(36) PRIMARY KEY,
			conversation_id VARCHAR(36) NOT NULL,
			user_id         VARCHAR(36) NOT NULL,
			role            ENUM('owner', 'admin', 'member') DEFAULT 'member',
			joined_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uk_conv_user (conversation_id, user_id),
			INDEX idx_user (user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id              VARCHAR(36) PRIMARY KEY,
			conversation_id VARCHAR(36) NOT NULL,
			sender_id       VARCHAR(36) NOT NULL,
			content         TEXT NOT NULL,
			recalled_at     DATETIME NULL,
			recalled_by     VARCHAR(36),
			created_at      DATETIME(3) DEFAULT CURRENT_TIMESTAMP(3),
			INDEX idx_conv_time (conversation_id, created_at, id)
		)`,
	}

	for _, table := range tables {
		if _, err := DB.Exec(table); err != nil {
			return err
		}
	}

	logger.Info("database tables ready")
	return nil
}
