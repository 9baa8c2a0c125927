package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables used by the service. Unique index names are
// matched by the repository layer when translating duplicate entry errors,
// so they must stay in sync with repository/errors.go.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS images (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		image_id   VARCHAR(255) NOT NULL,
		image_url  VARCHAR(1024) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS users (
		id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name               VARCHAR(255) NOT NULL,
		surname            VARCHAR(255) NULL,
		country            VARCHAR(255) NOT NULL,
		phone_number       VARCHAR(32) NOT NULL,
		password_hash      VARCHAR(255) NOT NULL,
		role               ENUM('admin','tourist','employee','guide') NOT NULL,
		checked_out        BOOLEAN NOT NULL DEFAULT FALSE,
		profile_picture_id BIGINT UNSIGNED NULL,
		created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_phone (phone_number),
		CONSTRAINT fk_users_profile_picture FOREIGN KEY (profile_picture_id)
			REFERENCES images (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS checkouts (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name         VARCHAR(255) NOT NULL,
		surname      VARCHAR(255) NULL,
		country      VARCHAR(255) NOT NULL,
		email        VARCHAR(255) NOT NULL,
		phone_number VARCHAR(32) NOT NULL,
		accomodation VARCHAR(255) NULL,
		has_paid     BOOLEAN NOT NULL DEFAULT FALSE,
		no_of_guests INT NOT NULL,
		passport     BIGINT UNSIGNED NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_checkouts_phone (phone_number),
		UNIQUE KEY uq_checkouts_email (email),
		CONSTRAINT fk_checkouts_passport FOREIGN KEY (passport)
			REFERENCES images (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables. Existing tables are left untouched.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
