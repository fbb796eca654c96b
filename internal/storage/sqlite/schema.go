package sqlite

const schemaSQL = `
-- Users own their configurations; deleting a user removes them too
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	display_name TEXT,
	email TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);

-- One MCP configuration per user. Token columns hold ciphertext.
CREATE TABLE IF NOT EXISTS mcp_configurations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	jira_url TEXT NOT NULL DEFAULT '',
	jira_personal_token TEXT NOT NULL DEFAULT '',
	jira_ssl_verify INTEGER NOT NULL DEFAULT 1,
	confluence_url TEXT NOT NULL DEFAULT '',
	confluence_personal_token TEXT NOT NULL DEFAULT '',
	confluence_ssl_verify INTEGER NOT NULL DEFAULT 1,
	server_url TEXT NOT NULL DEFAULT '',
	personal_access_token TEXT NOT NULL DEFAULT '',
	additional_params TEXT NOT NULL DEFAULT '{}',
	is_active INTEGER NOT NULL DEFAULT 1,
	last_tested INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_mcp_config_user ON mcp_configurations(user_id);

-- One AI configuration per user
CREATE TABLE IF NOT EXISTS ai_configurations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	custom_headers TEXT NOT NULL DEFAULT '',
	user_id_from_jira TEXT NOT NULL DEFAULT '',
	model_configs TEXT NOT NULL DEFAULT '{}',
	is_validated INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_ai_config_user ON ai_configurations(user_id);
`
