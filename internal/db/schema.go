package db

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS cities (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		city_code VARCHAR(32) NOT NULL UNIQUE,
		city_name VARCHAR(120) NOT NULL UNIQUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		location_code VARCHAR(32) NOT NULL UNIQUE,
		location_name VARCHAR(160) NOT NULL,
		city_id BIGINT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_location_city_name (city_id, location_name),
		CONSTRAINT fk_locations_city FOREIGN KEY (city_id) REFERENCES cities(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS location_costs (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		city_id BIGINT NOT NULL,
		pickup_location_id BIGINT NOT NULL,
		drop_location_id BIGINT NOT NULL,
		cost DECIMAL(12,2) NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_location_cost_pair (pickup_location_id, drop_location_id),
		CONSTRAINT fk_costs_city FOREIGN KEY (city_id) REFERENCES cities(id) ON DELETE CASCADE,
		CONSTRAINT fk_costs_pickup FOREIGN KEY (pickup_location_id) REFERENCES locations(id) ON DELETE CASCADE,
		CONSTRAINT fk_costs_drop FOREIGN KEY (drop_location_id) REFERENCES locations(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		vendor_name VARCHAR(160) NOT NULL,
		city_id BIGINT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_vendors_city FOREIGN KEY (city_id) REFERENCES cities(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transports (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		transport_code VARCHAR(32) NOT NULL UNIQUE,
		vehicle_no VARCHAR(32) NOT NULL UNIQUE,
		vendor_id BIGINT NOT NULL,
		type VARCHAR(40) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_transports_vendor FOREIGN KEY (vendor_id) REFERENCES vendors(id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_code VARCHAR(64) NULL UNIQUE,
		name VARCHAR(120) NOT NULL,
		email VARCHAR(160) NOT NULL UNIQUE,
		password_hash VARCHAR(100) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		address VARCHAR(255) NOT NULL DEFAULT '',
		mobile_no VARCHAR(20) NOT NULL DEFAULT '',
		city_id BIGINT NULL,
		pickup_location_id BIGINT NULL,
		transport_id BIGINT NULL,
		persons INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_users_city FOREIGN KEY (city_id) REFERENCES cities(id) ON DELETE SET NULL,
		CONSTRAINT fk_users_pickup FOREIGN KEY (pickup_location_id) REFERENCES locations(id) ON DELETE SET NULL,
		CONSTRAINT fk_users_transport FOREIGN KEY (transport_id) REFERENCES transports(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ride_tickets (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_code VARCHAR(64) NOT NULL DEFAULT '',
		user_name VARCHAR(120) NOT NULL DEFAULT '',
		mobile_no VARCHAR(20) NOT NULL DEFAULT '',
		city_id BIGINT NULL,
		pickup_location_id BIGINT NULL,
		drop_location_id BIGINT NULL,
		transport_id BIGINT NULL,
		vendor_id BIGINT NULL,
		pickup_date DATETIME NULL,
		ride_start_time DATETIME NULL,
		ride_end_time DATETIME NULL,
		cost DECIMAL(12,2) NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		remarks VARCHAR(500) NOT NULL DEFAULT '',
		created_by_user_id BIGINT NULL,
		created_by_role VARCHAR(20) NOT NULL DEFAULT '',
		confirmed TINYINT(1) NOT NULL DEFAULT 0,
		otp_hash VARCHAR(100) NULL,
		otp_expires_at DATETIME NULL,
		otp_attempts INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_ride_tickets_pickup_date (pickup_date),
		KEY idx_ride_tickets_creator (created_by_user_id)
	)`,
}

// EnsureSchema creates missing tables. Existing tables are left untouched.
func EnsureSchema(ctx context.Context, conn DBTX) error {
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
