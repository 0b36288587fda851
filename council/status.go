package council

import "time"

// MemberStatus is a read-only projection of one member and its health.
type MemberStatus struct {
	Identifier  string       `json:"identifier"`
	DisplayName string       `json:"display_name"`
	Role        string       `json:"role"`
	Specialties []string     `json:"specialties,omitempty"`
	Health      HealthRecord `json:"health"`
}

// StatusSnapshot is a read-only view of the council. Repeated calls
// without intervening lifecycle or workflow activity return identical
// snapshots.
type StatusSnapshot struct {
	State         State             `json:"state"`
	MemberCount   int               `json:"member_count"`
	Roles         map[string]string `json:"roles"`
	OverallHealth int               `json:"overall_health"`
	Members       []MemberStatus    `json:"members"`
}

// DetailedStatusSnapshot extends StatusSnapshot with the last
// initialization attempt and engine settings.
type DetailedStatusSnapshot struct {
	StatusSnapshot
	InitAttempt    InitAttempt   `json:"init_attempt"`
	Workflows      []string      `json:"workflows"`
	HealthInterval time.Duration `json:"health_interval"`
}

// Status returns a snapshot of state, roster, role assignments, and
// health. It never mutates council state.
func (c *Council) Status() StatusSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statusLocked()
}

func (c *Council) statusLocked() StatusSnapshot {
	health := c.HealthRecords()

	snap := StatusSnapshot{
		State:         c.state,
		MemberCount:   len(c.members),
		Roles:         make(map[string]string, len(c.roles)),
		OverallHealth: c.OverallHealth(),
		Members:       make([]MemberStatus, 0, len(c.order)),
	}
	for role, id := range c.roles {
		snap.Roles[role] = id
	}
	for _, id := range c.order {
		rec := c.members[id]
		snap.Members = append(snap.Members, MemberStatus{
			Identifier:  rec.Identifier,
			DisplayName: rec.DisplayName,
			Role:        rec.Role,
			Specialties: append([]string(nil), rec.Specialties...),
			Health:      health[id],
		})
	}
	return snap
}

// DetailedStatus returns the full status including the last
// initialization attempt.
func (c *Council) DetailedStatus() DetailedStatusSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	attempt := InitAttempt{
		AttemptedAt: c.attempt.AttemptedAt,
		Succeeded:   c.attempt.Succeeded,
		Total:       c.attempt.Total,
		Errors:      append([]InitError(nil), c.attempt.Errors...),
	}
	return DetailedStatusSnapshot{
		StatusSnapshot: c.statusLocked(),
		InitAttempt:    attempt,
		Workflows:      WorkflowNames(),
		HealthInterval: c.healthInterval,
	}
}
