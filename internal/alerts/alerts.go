// Package alerts raises in-process alerts when usage tracking, rendering or
// the descriptor cache degrade.
package alerts

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Level is the severity of an alert
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Type is what an alert measures
type Type string

const (
	TypeUsageDropRate    Type = "usage_drop_rate"
	TypeUsageFailureRate Type = "usage_failure_rate"
	TypeRenderErrorRate  Type = "render_error_rate"
	TypeLowCacheHitRate  Type = "low_cache_hit_rate"
)

// Alert is one triggered rule
type Alert struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	Level      Level          `json:"level"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	RuleID     string         `json:"ruleId"`
	Timestamp  time.Time      `json:"timestamp"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`
}

// Resolved reports whether the alert has been cleared
func (a *Alert) Resolved() bool {
	return a.ResolvedAt != nil
}

// Rule triggers an alert of Type when the rate for one evaluation window
// crosses Threshold percent. Windows with fewer than MinSamples events are
// skipped.
type Rule struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Type       Type          `json:"type"`
	Level      Level         `json:"level"`
	Threshold  float64       `json:"threshold"`
	MinSamples int64         `json:"minSamples"`
	Cooldown   time.Duration `json:"cooldown"`
	Enabled    bool          `json:"enabled"`

	lastTriggered time.Time
}

// Stats summarises the manager's alerts
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
	Rules    int `json:"rules"`
}

// Manager stores rules and a bounded history of alerts
type Manager struct {
	mu        sync.RWMutex
	alerts    map[string]*Alert
	rules     map[string]*Rule
	maxAlerts int
	seq       int
	now       func() time.Time
}

// NewManager creates a manager keeping at most 1000 alerts
func NewManager() *Manager {
	return &Manager{
		alerts:    make(map[string]*Alert),
		rules:     make(map[string]*Rule),
		maxAlerts: 1000,
		now:       time.Now,
	}
}

// AddRule registers rule, using its type as id when it has none
func (m *Manager) AddRule(rule *Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rule.ID == "" {
		rule.ID = string(rule.Type)
	}
	m.rules[rule.ID] = rule
}

// Rules returns every rule sorted by id
func (m *Manager) Rules() []*Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Trigger records a new alert for rule
func (m *Manager) Trigger(rule *Rule, message string, details map[string]any) *Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	now := m.now()
	alert := &Alert{
		ID:        fmt.Sprintf("alert_%d_%s", m.seq, rule.Type),
		Type:      rule.Type,
		Level:     rule.Level,
		Message:   message,
		Details:   details,
		RuleID:    rule.ID,
		Timestamp: now,
	}
	m.alerts[alert.ID] = alert
	rule.lastTriggered = now

	if len(m.alerts) > m.maxAlerts {
		m.prune()
	}
	return alert
}

// ResolveRule clears every active alert raised by ruleID
func (m *Manager) ResolveRule(ruleID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for _, a := range m.alerts {
		if a.RuleID == ruleID && !a.Resolved() {
			a.ResolvedAt = &now
			n++
		}
	}
	return n
}

// Active returns unresolved alerts, newest first
func (m *Manager) Active() []*Alert {
	return m.filter(func(a *Alert) bool { return !a.Resolved() })
}

// All returns every stored alert, newest first
func (m *Manager) All() []*Alert {
	return m.filter(func(*Alert) bool { return true })
}

// Stats counts alerts by state and level
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{Total: len(m.alerts), Rules: len(m.rules)}
	for _, a := range m.alerts {
		if a.Resolved() {
			continue
		}
		s.Active++
		switch a.Level {
		case LevelCritical:
			s.Critical++
		case LevelWarning:
			s.Warning++
		case LevelInfo:
			s.Info++
		}
	}
	return s
}

func (m *Manager) filter(keep func(*Alert) bool) []*Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*Alert{}
	for _, a := range m.alerts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// prune drops resolved alerts first, then the oldest; caller holds mu
func (m *Manager) prune() {
	all := make([]*Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Resolved() != all[j].Resolved() {
			return all[i].Resolved()
		}
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	for _, a := range all[:len(all)-m.maxAlerts] {
		delete(m.alerts, a.ID)
	}
}
