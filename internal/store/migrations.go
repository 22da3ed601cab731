package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per detection session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			target_profile TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Arrows table - accepted arrow records, ordered by seq within a session
		`CREATE TABLE IF NOT EXISTS arrows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			x_cm REAL NOT NULL,
			y_cm REAL NOT NULL,
			distance_cm REAL NOT NULL,
			angle_deg REAL NOT NULL,
			score INTEGER NOT NULL,
			pixel_x INTEGER NOT NULL,
			pixel_y INTEGER NOT NULL,
			timestamp DATETIME NOT NULL,
			UNIQUE(session_id, seq)
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_arrows_session_id ON arrows(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
