package database

import (
	"fmt"
	"strings"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
)

// InitSchema creates the service-owned tables if they don't exist: saved
// table views and roles with their memberships. Entity tables belong to the
// CRM backend and are never created here.
func (db *DB) InitSchema() error {
	logger.Log.Infof("[Database] Initializing schema for dialect: %s", db.Dialect)

	for _, stmt := range db.schemaStatements() {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			logger.Log.Errorf("[Database] Error executing schema statement: %v", err)
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	logger.Log.Infof("[Database] Successfully created/verified schema")
	return nil
}

func (db *DB) schemaStatements() []string {
	switch db.Dialect {
	case Postgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS saved_views (
				id SERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				entity_type VARCHAR(50) NOT NULL,
				column_visibility JSONB NOT NULL DEFAULT '{}'::jsonb,
				filters JSONB NOT NULL DEFAULT '{}'::jsonb,
				search TEXT,
				sort_field VARCHAR(255),
				sort_reverse BOOLEAN DEFAULT FALSE,
				is_global BOOLEAN DEFAULT FALSE,
				owner_id VARCHAR(255),
				username VARCHAR(255),
				created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				modified TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_saved_views_owner ON saved_views(owner_id)`,
			`CREATE INDEX IF NOT EXISTS idx_saved_views_entity ON saved_views(entity_type)`,
			`CREATE TABLE IF NOT EXISTS roles (
				id SERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				description TEXT,
				created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				modified TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS role_memberships (
				id SERIAL PRIMARY KEY,
				role_id INTEGER NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
				user_id VARCHAR(255) NOT NULL,
				created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(role_id, user_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_role_memberships_user ON role_memberships(user_id)`,
		}
	case MySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS saved_views (
				id INT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				entity_type VARCHAR(50) NOT NULL,
				column_visibility JSON NOT NULL,
				filters JSON NOT NULL,
				search TEXT,
				sort_field VARCHAR(255),
				sort_reverse BOOLEAN DEFAULT FALSE,
				is_global BOOLEAN DEFAULT FALSE,
				owner_id VARCHAR(255),
				username VARCHAR(255),
				created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				modified TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMP NULL,
				INDEX idx_owner (owner_id),
				INDEX idx_entity (entity_type)
			)`,
			`CREATE TABLE IF NOT EXISTS roles (
				id INT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				description TEXT,
				created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				modified TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS role_memberships (
				id INT AUTO_INCREMENT PRIMARY KEY,
				role_id INT NOT NULL,
				user_id VARCHAR(255) NOT NULL,
				created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				UNIQUE KEY unique_membership (role_id, user_id),
				INDEX idx_user (user_id),
				FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE CASCADE
			)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS saved_views (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				description TEXT,
				entity_type TEXT NOT NULL,
				column_visibility TEXT NOT NULL DEFAULT '{}',
				filters TEXT NOT NULL DEFAULT '{}',
				search TEXT,
				sort_field TEXT,
				sort_reverse INTEGER DEFAULT 0,
				is_global INTEGER DEFAULT 0,
				owner_id TEXT,
				username TEXT,
				created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				modified TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				deleted_at TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_saved_views_owner ON saved_views(owner_id)`,
			`CREATE INDEX IF NOT EXISTS idx_saved_views_entity ON saved_views(entity_type)`,
			`CREATE TABLE IF NOT EXISTS roles (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE,
				description TEXT,
				created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				modified TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS role_memberships (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				role_id INTEGER NOT NULL,
				user_id TEXT NOT NULL,
				created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(role_id, user_id),
				FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_role_memberships_user ON role_memberships(user_id)`,
		}
	}
}
