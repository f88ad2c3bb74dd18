package store

import "context"

// FileInfo holds the tracked mtime and size for an imported file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for the files
// userID has imported.
func (s *Store) GetTrackedFiles(ctx context.Context, userID string) (map[string]FileInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT file_path, mtime_ns, size_bytes FROM file_tracker WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// TrackFile records that userID imported path at the given mtime and size.
func (s *Store) TrackFile(ctx context.Context, userID, path string, fi FileInfo) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO file_tracker (user_id, file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?, ?)`, userID, path, fi.MtimeNs, fi.SizeBytes)
	return err
}

// DeleteFileTracker removes userID's tracking entry for path.
func (s *Store) DeleteFileTracker(ctx context.Context, userID, path string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM file_tracker WHERE user_id = ? AND file_path = ?", userID, path)
	return err
}
