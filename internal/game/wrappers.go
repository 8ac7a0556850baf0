package game

// ClipReward wraps an Environment and replaces each reward with its sign.
// Info.Score still reports the unclipped episode score.
type ClipReward struct {
	Environment
}

// NewClipReward wraps env.
func NewClipReward(env Environment) *ClipReward {
	return &ClipReward{Environment: env}
}

// Step implements Environment.
func (c *ClipReward) Step(action int) (Observation, float64, bool, bool, Info) {
	obs, reward, terminated, truncated, info := c.Environment.Step(action)
	return obs, sign(reward), terminated, truncated, info
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
