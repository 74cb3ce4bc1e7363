package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per review session / video file
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			video_path TEXT NOT NULL,
			athlete TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			duration REAL NOT NULL DEFAULT 0,
			width INTEGER NOT NULL DEFAULT 0,
			height INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Pause points table - scheduled automatic pauses per session
		`CREATE TABLE IF NOT EXISTS pause_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seconds REAL NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			suggested INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Exports table - history of frame stills written to disk.
		// joint/angle record the inspected joint at export time, when any.
		`CREATE TABLE IF NOT EXISTS exports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			position REAL NOT NULL,
			width INTEGER NOT NULL DEFAULT 0,
			height INTEGER NOT NULL DEFAULT 0,
			joint TEXT NOT NULL DEFAULT '',
			angle REAL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_pause_points_session_id ON pause_points(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pause_points_seconds ON pause_points(session_id, seconds)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_session_id ON exports(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
