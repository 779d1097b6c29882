package api

import "github.com/okian/prospect/pkg/logger"

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps GET /leaderboard?limit.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets the server's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}
