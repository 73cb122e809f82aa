package db

// UpdateSchema creates the chat knowledge and upload tables.
func (s *Storage) UpdateSchema() error {
	schema := `
	-- Chat knowledge chunks with their embeddings
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		namespace TEXT NOT NULL,
		seq INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_namespace ON chunks(namespace, seq);

	-- Files pushed to object storage by the extraction endpoint
	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		storage_path TEXT NOT NULL,
		file_url TEXT,
		mime_type TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL DEFAULT 'file',
		text_length INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	return nil
}
