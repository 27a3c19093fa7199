package service

import "time"

// SetClock replaces the service clock.
func (s *UserService) SetClock(now func() time.Time) { s.now = now }
