package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per analysis run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			eye_threshold REAL NOT NULL,
			smile_threshold REAL NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			faces INTEGER NOT NULL DEFAULT 0,
			eyes_closed INTEGER NOT NULL DEFAULT 0,
			smiles INTEGER NOT NULL DEFAULT 0,
			dangers INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Events table - heuristic transitions within a session
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			frame INTEGER NOT NULL,
			face INTEGER NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('eyes_closed', 'smile', 'danger')),
			active INTEGER NOT NULL,
			left_eye REAL NOT NULL,
			right_eye REAL NOT NULL,
			mouth REAL NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
