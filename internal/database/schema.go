package database

import (
	"context"
	"database/sql"
)

// Bootstrap creates the core tables when they do not exist yet. In
// production the schema is managed by migrations; this keeps dev and
// test environments runnable from an empty database.
//
// The unique key uq_active_slot on bookings is load-bearing: `active` is
// 1 for RESERVED/PAID rows and NULL for CANCELLED rows, so at most one
// active booking can exist per (item, tourist, date) while cancelled
// history accumulates freely.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tourists (
			id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			name            VARCHAR(190)    NOT NULL,
			email           VARCHAR(190)    NOT NULL,
			wallet_balance  DECIMAL(12,2)   NOT NULL DEFAULT 0,
			loyalty_points  DECIMAL(14,2)   NOT NULL DEFAULT 0,
			tier            TINYINT         NOT NULL DEFAULT 1,
			badge           VARCHAR(16)     NOT NULL DEFAULT 'Bronze',
			version         BIGINT UNSIGNED NOT NULL DEFAULT 0,
			flagged_at      DATETIME        NULL,
			created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_tourists_email (email)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS items (
			id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			seller_id  BIGINT UNSIGNED NOT NULL,
			kind       ENUM('ACTIVITY','ITINERARY','CUSTOM_ITINERARY') NOT NULL,
			title      VARCHAR(190)    NOT NULL,
			price      DECIMAL(12,2)   NOT NULL,
			is_open    TINYINT(1)      NOT NULL DEFAULT 1,
			created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS item_dates (
			id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			item_id        BIGINT UNSIGNED NOT NULL,
			available_date DATE            NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uq_item_dates (item_id, available_date),
			CONSTRAINT fk_item_dates_item FOREIGN KEY (item_id) REFERENCES items (id) ON DELETE CASCADE
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			item_id        BIGINT UNSIGNED NOT NULL,
			tourist_id     BIGINT UNSIGNED NOT NULL,
			scheduled_date DATE            NOT NULL,
			status         ENUM('RESERVED','PAID','CANCELLED') NOT NULL DEFAULT 'RESERVED',
			amount_paid    DECIMAL(12,2)   NOT NULL DEFAULT 0,
			points_awarded DECIMAL(14,2)   NOT NULL DEFAULT 0,
			earn_tier      TINYINT         NOT NULL DEFAULT 0,
			payment_ref    VARCHAR(190)    NULL,
			active         TINYINT         NULL DEFAULT 1,
			reminded_at    DATETIME        NULL,
			created_at     DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_active_slot (item_id, tourist_id, scheduled_date, active),
			KEY idx_bookings_reminder (active, scheduled_date, reminded_at),
			CONSTRAINT fk_bookings_item FOREIGN KEY (item_id) REFERENCES items (id),
			CONSTRAINT fk_bookings_tourist FOREIGN KEY (tourist_id) REFERENCES tourists (id)
		) ENGINE=InnoDB`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
