package services

import "time"

// SetClock pins the time Export stamps into file names.
func (s *BackupService) SetClock(now func() time.Time) {
	s.now = now
}
